package admin

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pierrec/lz4/v4"

	"github.com/quicknginx/quicknginx/internal/exitcodes"
)

// BackupOptions configures Backup.
type BackupOptions struct {
	ConfDir string // nginx conf directory to archive
	OutDir  string // if empty, defaults to <dir(ConfDir)>/backups
	Now     func() time.Time
}

// RestoreOptions configures Restore.
type RestoreOptions struct {
	Archive string // tar.lz4 produced by Backup
	DestDir string // usually the conf directory
}

// Backup writes a tar.lz4 of every regular file under ConfDir, including
// the yx_conf include directory, and returns the archive path.
func Backup(opts BackupOptions) (string, error) {
	if opts.ConfDir == "" {
		return "", fmt.Errorf("ConfDir required")
	}
	st, err := os.Stat(opts.ConfDir)
	if err != nil {
		return "", fmt.Errorf("conf dir: %w", err)
	}
	if !st.IsDir() {
		return "", fmt.Errorf("conf dir %s is not a directory", opts.ConfDir)
	}
	outDir := opts.OutDir
	if outDir == "" {
		outDir = filepath.Join(filepath.Dir(filepath.Clean(opts.ConfDir)), "backups")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	outPath := filepath.Join(outDir, fmt.Sprintf("nginx-conf-%s.tar.lz4", now().Format("20060102-150405")))

	f, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	zw := lz4.NewWriter(f)
	tw := tar.NewWriter(zw)

	walkErr := filepath.WalkDir(opts.ConfDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		// never archive the output directory into itself
		if d.IsDir() && filepath.Clean(path) == filepath.Clean(outDir) {
			return filepath.SkipDir
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return addFile(tw, path, opts.ConfDir)
	})

	// close in order: tar footer, lz4 frame, file
	closeErr := tw.Close()
	if err := zw.Close(); closeErr == nil {
		closeErr = err
	}
	if err := f.Close(); closeErr == nil {
		closeErr = err
	}
	if walkErr != nil {
		_ = os.Remove(outPath)
		return "", fmt.Errorf("archive %s: %w", opts.ConfDir, walkErr)
	}
	if closeErr != nil {
		_ = os.Remove(outPath)
		return "", closeErr
	}
	return outPath, nil
}

func addFile(tw *tar.Writer, path string, base string) error {
	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return err
	}
	hdr, err := tar.FileInfoHeader(st, "")
	if err != nil {
		return err
	}
	hdr.Name = filepath.ToSlash(rel)
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(tw, f)
	return err
}

// Restore extracts a Backup archive into DestDir, overwriting files with
// the same name. It returns the number of files written. Unsafe or corrupt
// archives fail with ValidationError and filesystem failures with IOError.
func Restore(opts RestoreOptions) (int, error) {
	if opts.Archive == "" || opts.DestDir == "" {
		return 0, exitcodes.InvalidArgsError("archive and destination directory required")
	}
	f, err := os.Open(opts.Archive)
	if err != nil {
		return 0, exitcodes.WrapError(exitcodes.IOError, "open archive", err)
	}
	defer f.Close()

	tr := tar.NewReader(lz4.NewReader(f))
	dest := filepath.Clean(opts.DestDir)
	n := 0
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, exitcodes.WrapError(exitcodes.ValidationError, "corrupt archive", err)
		}
		name := filepath.Clean(filepath.FromSlash(hdr.Name))
		if filepath.IsAbs(name) || name == ".." || strings.HasPrefix(name, ".."+string(os.PathSeparator)) {
			return n, exitcodes.ValidationErrf("invalid path in archive: %s", hdr.Name)
		}
		target := filepath.Join(dest, name)
		if !strings.HasPrefix(target, dest+string(os.PathSeparator)) {
			return n, exitcodes.ValidationErrf("path traversal detected: %s", hdr.Name)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return n, exitcodes.WrapError(exitcodes.IOError, "create parent dir for "+name, err)
		}
		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode).Perm())
		if err != nil {
			return n, exitcodes.WrapError(exitcodes.IOError, "create file "+name, err)
		}
		written, copyErr := io.Copy(out, tr)
		if err := out.Close(); copyErr == nil {
			copyErr = err
		}
		if copyErr != nil {
			return n, exitcodes.WrapError(exitcodes.IOError, "write file "+name, copyErr)
		}
		if written != hdr.Size {
			return n, exitcodes.ValidationErrf("incomplete extraction of %s: wrote %d of %d bytes", name, written, hdr.Size)
		}
		n++
	}
}
