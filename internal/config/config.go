package config

import (
	"os"
	"path/filepath"
)

// Paths holds the fixed filesystem locations of the nginx installation.
// It is a plain value: build one per invocation and pass it explicitly.
type Paths struct {
	BinPath  string `json:"bin" yaml:"bin"`
	ConfPath string `json:"conf" yaml:"conf"`
	ConfDir  string `json:"conf_dir" yaml:"conf_dir"`
	LogDir   string `json:"log_dir" yaml:"log_dir"`
	RunDir   string `json:"run_dir" yaml:"run_dir"`
}

// Config holds user/system configuration for the panel.
type Config struct {
	Paths
	Escalator string // privilege-escalation wrapper, e.g. sudo; empty runs directly
}

// DefaultPaths returns the layout of a source-built nginx under /usr/local.
func DefaultPaths() Paths {
	return Paths{
		BinPath:  "/usr/local/bin/nginx",
		ConfPath: "/usr/local/nginx/conf/nginx.conf",
		ConfDir:  "/usr/local/nginx/conf",
		LogDir:   "/usr/local/nginx/logs",
		RunDir:   "/usr/local/nginx",
	}
}

// FromConf derives the directory layout from a main config path.
// An empty bin keeps the default binary location.
func FromConf(bin, conf string) Paths {
	p := DefaultPaths()
	if bin != "" {
		p.BinPath = bin
	}
	if conf != "" {
		p.ConfPath = conf
		p.ConfDir = filepath.Dir(conf)
		p.RunDir = filepath.Dir(p.ConfDir)
		p.LogDir = filepath.Join(p.RunDir, "logs")
	}
	return p
}

// LogFile returns the path of a file inside the log directory.
func (p Paths) LogFile(name string) string { return filepath.Join(p.LogDir, name) }

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Paths:     DefaultPaths(),
		Escalator: "sudo",
	}
}

// Load returns default config with QUICKNGINX_* overrides from environment.
// Use flags for per-invocation overrides.
func Load() Config {
	cfg := Defaults()
	bin := os.Getenv("QUICKNGINX_BIN")
	conf := os.Getenv("QUICKNGINX_CONF")
	if bin != "" || conf != "" {
		cfg.Paths = FromConf(bin, conf)
	}
	if v, ok := os.LookupEnv("QUICKNGINX_SUDO"); ok {
		cfg.Escalator = v
	}
	return cfg
}
