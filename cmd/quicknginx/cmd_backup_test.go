package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/quicknginx/quicknginx/internal/exitcodes"
)

func TestHandleBackupAndRestore(t *testing.T) {
	setYes(t)
	env := newTestEnv(t)
	outDir := t.TempDir()

	if err := handleBackup(env.deps, outDir); err != nil {
		t.Fatal(err)
	}
	assertContains(t, env.out.String(), "backup created:", outDir)

	matches, _ := filepath.Glob(filepath.Join(outDir, "nginx-conf-*.tar.lz4"))
	if len(matches) != 1 {
		t.Fatalf("archives = %v", matches)
	}

	writeFile(t, env.paths.ConfPath, "broken\n", 0o644)
	env.out.Reset()
	if err := handleRestore(env.deps, matches[0]); err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, env.paths.ConfPath); got != testConf {
		t.Errorf("restored nginx.conf = %q", got)
	}
	assertContains(t, env.out.String(), "restored 5 files")
}

func TestHandleBackup_JSON(t *testing.T) {
	setOutput(t, "json")
	env := newTestEnv(t)
	if err := handleBackup(env.deps, t.TempDir()); err != nil {
		t.Fatal(err)
	}
	var res map[string]any
	if err := json.Unmarshal(env.out.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res["ok"] != true || !strings.HasSuffix(res["backup_path"].(string), ".tar.lz4") {
		t.Errorf("result = %v", res)
	}
}

func TestHandleBackup_MissingConfDir(t *testing.T) {
	env := newTestEnv(t)
	if err := os.RemoveAll(env.paths.ConfDir); err != nil {
		t.Fatal(err)
	}
	assertCode(t, handleBackup(env.deps, t.TempDir()), exitcodes.IOError)
}

func TestHandleRestore_Errors(t *testing.T) {
	env := newTestEnv(t)
	assertCode(t, handleRestore(env.deps, filepath.Join(t.TempDir(), "none.tar.lz4")), exitcodes.IOError)

	archive := filepath.Join(t.TempDir(), "a.tar.lz4")
	writeFile(t, archive, "x", 0o644)
	assertCode(t, handleRestore(env.deps, archive), exitcodes.PreconditionFailed)
}

func TestHandleRestore_CorruptArchive(t *testing.T) {
	setYes(t)
	env := newTestEnv(t)
	archive := filepath.Join(t.TempDir(), "a.tar.lz4")
	writeFile(t, archive, "not an archive", 0o644)
	before := readFile(t, env.paths.ConfPath)

	assertCode(t, handleRestore(env.deps, archive), exitcodes.ValidationError)
	if readFile(t, env.paths.ConfPath) != before {
		t.Error("corrupt archive must not touch the config")
	}
}
