package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quicknginx/quicknginx/internal/config"
	"github.com/quicknginx/quicknginx/internal/exitcodes"
	ui "github.com/quicknginx/quicknginx/internal/ui"
)

// Version information - set via -ldflags during build
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// rootCmd wires the CLI surface using Cobra. Persistent flags are applied
// to the loaded config in loadCfg(); subcommands call into internal/panel.
var rootCmd = &cobra.Command{
	Use:           "quicknginx",
	Short:         "Quick nginx control panel",
	Long:          "Start, stop and reload nginx, switch the active site and inspect logs.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ui.InitGlobal(ui.Config{
			NoColor:        flagNoColor,
			NoEmoji:        flagNoEmoji,
			Yes:            flagYes,
			NonInteractive: flagNonInteractive,
			Verbose:        flagVerbose,
			Quiet:          flagQuiet,
			Debug:          flagDebug,
		})

		// lipgloss reads NO_COLOR directly
		if flagNoColor {
			os.Setenv("NO_COLOR", "1")
		}

		switch flagOutput {
		case ui.FormatText, ui.FormatJSON, ui.FormatYAML, "":
			return nil
		default:
			return exitcodes.InvalidArgsErrorf("invalid --output: %s (use json|yaml|text)", flagOutput)
		}
	},
}

var (
	flagBin            string
	flagConf           string
	flagSudo           string
	flagOutput         string
	flagVerbose        bool
	flagQuiet          bool
	flagDebug          bool
	flagNoColor        bool
	flagNoEmoji        bool
	flagYes            bool
	flagNonInteractive bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagBin, "bin", "", "Path to the nginx binary (overrides QUICKNGINX_BIN)")
	rootCmd.PersistentFlags().StringVar(&flagConf, "conf", "", "Path to nginx.conf (overrides QUICKNGINX_CONF)")
	rootCmd.PersistentFlags().StringVar(&flagSudo, "sudo", "sudo", "Privilege wrapper for nginx commands; empty runs nginx directly")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "text", "Output format: json|yaml|text")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Quiet mode: minimal output (suppresses extras)")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "d", false, "Debug output: extra diagnostic logs")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable ANSI colors")
	rootCmd.PersistentFlags().BoolVar(&flagNoEmoji, "no-emoji", false, "Disable emoji output")
	rootCmd.PersistentFlags().BoolVarP(&flagYes, "yes", "y", false, "Assume yes for all prompts")
	rootCmd.PersistentFlags().BoolVar(&flagNonInteractive, "non-interactive", false, "Fail instead of prompting")

	// Grouped help for the root command only; subcommands keep cobra's usage.
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != rootCmd {
			fmt.Fprintln(os.Stdout, cmd.UsageString())
			return
		}
		printRootHelp(os.Stdout)
	})
}

func printRootHelp(w io.Writer) {
	// Help runs before PersistentPreRun, so colors are configured here.
	c := ui.NewColorConfig()
	c.Enabled = c.Enabled && !flagNoColor
	c.EmojiEnabled = c.EmojiEnabled && !flagNoEmoji

	const cmdWidth = 30

	fmt.Fprintln(w, c.Header(" quicknginx "))
	fmt.Fprintln(w, c.Description("Start, stop and reload nginx, switch the active site and inspect logs."))
	fmt.Fprintln(w, c.Separator(50))
	fmt.Fprintln(w)

	fmt.Fprintln(w, c.SubHeader("USAGE"))
	fmt.Fprintf(w, "  %s <command> [flags]\n", "quicknginx")
	fmt.Fprintln(w)

	fmt.Fprintln(w, c.SubHeader("Quick Start"))
	fmt.Fprintln(w, c.FormatCommandAligned("status", "Show whether nginx is running", cmdWidth))
	fmt.Fprintln(w, c.FormatCommandAligned("site switch <site>", "Activate a site and restart nginx", cmdWidth))
	fmt.Fprintln(w, c.FormatCommandAligned("dashboard", "Interactive control panel", cmdWidth))
	fmt.Fprintln(w)

	fmt.Fprintln(w, c.SubHeader("Operations"))
	fmt.Fprintln(w, c.FormatCommandAligned("start", "Start nginx", cmdWidth))
	fmt.Fprintln(w, c.FormatCommandAligned("stop [--clear-site]", "Stop nginx", cmdWidth))
	fmt.Fprintln(w, c.FormatCommandAligned("reload", "Reload the nginx config", cmdWidth))
	fmt.Fprintln(w, c.FormatCommandAligned("restart", "Stop then start nginx", cmdWidth))
	fmt.Fprintln(w)

	fmt.Fprintln(w, c.SubHeader("Sites"))
	fmt.Fprintln(w, c.FormatCommandAligned("site list", "List sites and mark the active one", cmdWidth))
	fmt.Fprintln(w, c.FormatCommandAligned("site set <site>", "Rewrite the include without restarting", cmdWidth))
	fmt.Fprintln(w, c.FormatCommandAligned("site clear", "Remove every site include", cmdWidth))
	fmt.Fprintln(w, c.FormatCommandAligned("site watch", "Report include changes as they happen", cmdWidth))
	fmt.Fprintln(w)

	fmt.Fprintln(w, c.SubHeader("Logs"))
	fmt.Fprintln(w, c.FormatCommandAligned("logs show <access|error>", "Newest log entries first", cmdWidth))
	fmt.Fprintln(w, c.FormatCommandAligned("logs follow <access|error>", "Stream new log lines", cmdWidth))
	fmt.Fprintln(w, c.FormatCommandAligned("logs clear <access|error>", "Truncate a log file", cmdWidth))
	fmt.Fprintln(w)

	fmt.Fprintln(w, c.SubHeader("Maintenance"))
	fmt.Fprintln(w, c.FormatCommandAligned("doctor", "Run diagnostic checks", cmdWidth))
	fmt.Fprintln(w, c.FormatCommandAligned("backup", "Archive the conf directory", cmdWidth))
	fmt.Fprintln(w, c.FormatCommandAligned("backup restore <archive>", "Restore a conf archive", cmdWidth))
	fmt.Fprintln(w, c.FormatCommandAligned("setup-permissions", "Make nginx.conf writable without sudo", cmdWidth))
	fmt.Fprintln(w, c.FormatCommandAligned("version", "Show version information", cmdWidth))
	fmt.Fprintln(w)

	fmt.Fprintln(w, c.SubHeader("Global Flags"))
	for _, f := range [][2]string{
		{"--conf <path>", "nginx.conf location (env QUICKNGINX_CONF)"},
		{"--bin <path>", "nginx binary (env QUICKNGINX_BIN)"},
		{"--sudo <cmd>", "privilege wrapper, empty for none (env QUICKNGINX_SUDO)"},
		{"-o, --output <fmt>", "text, json or yaml"},
		{"-y, --yes", "assume yes for confirmations"},
	} {
		fmt.Fprintf(w, "  %s%s%s\n", c.Flag(f[0]), strings.Repeat(" ", max(1, cmdWidth-len(f[0]))), c.Description(f[1]))
	}
	fmt.Fprintln(w)
}

func Execute() {
	ctx, stop := signalContext()
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		var se silentErr
		if !errors.As(err, &se) {
			if flagOutput == ui.FormatText || flagOutput == "" {
				ui.PrintError(os.Stderr, errorMessageFor(err))
			} else {
				fmt.Fprintln(os.Stderr, err)
			}
		}
		exitcodes.Exit(exitcodes.CodeForError(err))
	}
}

// loadCfg reads defaults + env via config.Load() and then applies the
// persistent flag overrides (bin, conf, sudo).
func loadCfg() config.Config {
	cfg := config.Load()
	if flagBin != "" || flagConf != "" {
		bin, conf := flagBin, flagConf
		if bin == "" {
			bin = cfg.BinPath
		}
		if conf == "" {
			conf = cfg.ConfPath
		}
		cfg.Paths = config.FromConf(bin, conf)
	}
	if f := rootCmd.PersistentFlags().Lookup("sudo"); f != nil && f.Changed {
		cfg.Escalator = flagSudo
	}
	return cfg
}

// newLogger returns the diagnostic logger. Diagnostics go to stderr so
// json/yaml output on stdout stays parseable.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	switch {
	case flagDebug:
		level = slog.LevelDebug
	case flagVerbose:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
