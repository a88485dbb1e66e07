package files

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/quicknginx/quicknginx/internal/exitcodes"
)

const sampleConf = `worker_processes  1;

http {
    server {
        listen       80;
        server_name  localhost;

        # 这里写对应include的文件

        location / {
            root   html;
        }
    }
}
`

func writeConf(t *testing.T, content string) (string, SiteStore) {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "nginx.conf")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p, New(p, nil)
}

func readConf(t *testing.T, p string) string {
	t.Helper()
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func countIncludes(content string) map[Variant]int {
	counts := map[Variant]int{}
	for _, line := range strings.Split(content, "\n") {
		for _, v := range Variants {
			if strings.TrimSpace(line) == v.Include() {
				counts[v]++
			}
		}
	}
	return counts
}

func ptr(v Variant) *Variant { return &v }

func TestSetActive_InsertsAfterMarker(t *testing.T) {
	p, s := writeConf(t, sampleConf)

	res, err := s.SetActive(ptr(VariantH5))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Changed || !res.Inserted {
		t.Errorf("result = %+v, want changed and inserted", res)
	}
	got := readConf(t, p)
	want := Marker + "\n        include ./yx_conf/yx_h5.conf;\n"
	if !strings.Contains(got, want) {
		t.Fatalf("include not placed after marker:\n%s", got)
	}
	// everything else untouched
	if strings.Replace(got, "\n        include ./yx_conf/yx_h5.conf;", "", 1) != sampleConf {
		t.Errorf("unrelated content changed:\n%s", got)
	}
}

func TestSetActive_Idempotent(t *testing.T) {
	cases := []*Variant{nil, ptr(VariantMain), ptr(VariantH5), ptr(VariantToB), ptr(VariantToBAdmin)}
	for _, v := range cases {
		name := "none"
		if v != nil {
			name = v.String()
		}
		for _, conf := range []struct{ name, body string }{
			{"lf", sampleConf},
			{"crlf", strings.ReplaceAll(sampleConf, "\n", "\r\n")},
		} {
			t.Run(name+"/"+conf.name, func(t *testing.T) {
				p, s := writeConf(t, conf.body)
				if _, err := s.SetActive(v); err != nil {
					t.Fatal(err)
				}
				once := readConf(t, p)
				if strings.Contains(once, "\r") {
					t.Errorf("carriage return left in rewritten config: %q", once)
				}
				res, err := s.SetActive(v)
				if err != nil {
					t.Fatal(err)
				}
				if twice := readConf(t, p); twice != once {
					t.Errorf("second call changed content:\nonce:\n%q\ntwice:\n%q", once, twice)
				}
				if res.Changed {
					t.Errorf("second call reported Changed")
				}
			})
		}
	}
}

func TestSetActive_MutuallyExclusive(t *testing.T) {
	p, s := writeConf(t, sampleConf)
	// walk through every variant; only the latest may remain
	for _, v := range Variants {
		if _, err := s.SetActive(ptr(v)); err != nil {
			t.Fatal(err)
		}
		counts := countIncludes(readConf(t, p))
		for _, other := range Variants {
			want := 0
			if other == v {
				want = 1
			}
			if counts[other] != want {
				t.Errorf("after SetActive(%s): %s count = %d, want %d", v, other, counts[other], want)
			}
		}
	}
}

func TestSetActive_ClearRemovesEverywhere(t *testing.T) {
	stale := strings.Replace(sampleConf, "worker_processes  1;",
		"worker_processes  1;\ninclude ./yx_conf/yx_tob.conf;\n   include ./yx_conf/yx_main.conf;   ", 1)
	stale += "include ./yx_conf/yx_tob_admin.conf;\ninclude ./yx_conf/yx_h5.conf;\n"
	p, s := writeConf(t, stale)

	if _, err := s.SetActive(nil); err != nil {
		t.Fatal(err)
	}
	got := readConf(t, p)
	if n := len(countIncludes(got)); n != 0 {
		t.Errorf("expected no includes, found %d kinds:\n%s", n, got)
	}
	if got != sampleConf {
		t.Errorf("clear should restore the pristine file:\n%s", got)
	}
}

func TestSetActive_MissingMarkerIsSilent(t *testing.T) {
	content := "http {\n    include ./yx_conf/yx_main.conf;\n}\n"
	p, s := writeConf(t, content)

	res, err := s.SetActive(ptr(VariantToB))
	if err != nil {
		t.Fatalf("missing marker should not fail: %v", err)
	}
	if res.Inserted {
		t.Errorf("Inserted = true without marker")
	}
	if got := readConf(t, p); got != "http {\n}\n" {
		t.Errorf("got %q, want old include removed and nothing inserted", got)
	}
}

func TestSetActive_ReadError(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing.conf"), nil)
	_, err := s.SetActive(ptr(VariantMain))
	if !exitcodes.HasCode(err, exitcodes.IOError) {
		t.Fatalf("expected IOError, got %v", err)
	}
}

func TestSetActive_WriteError(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores file permissions")
	}
	p, s := writeConf(t, sampleConf)
	if err := os.Chmod(p, 0o444); err != nil {
		t.Fatal(err)
	}
	_, err := s.SetActive(ptr(VariantMain))
	if !exitcodes.HasCode(err, exitcodes.IOError) {
		t.Fatalf("expected IOError, got %v", err)
	}
}

func TestActiveAndMarker(t *testing.T) {
	_, s := writeConf(t, sampleConf)

	got, err := s.Active()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("Active() = %v, want none", got)
	}
	if ok, err := s.HasMarker(); err != nil || !ok {
		t.Errorf("HasMarker() = %v, %v", ok, err)
	}

	if _, err := s.SetActive(ptr(VariantToBAdmin)); err != nil {
		t.Fatal(err)
	}
	got, err = s.Active()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != VariantToBAdmin {
		t.Errorf("Active() = %v, want [yx_tob_admin]", got)
	}
}

func TestBackup(t *testing.T) {
	p, s := writeConf(t, sampleConf)
	bak, err := s.Backup()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(bak, p+".") || !strings.HasSuffix(bak, ".bak") {
		t.Errorf("unexpected backup path %s", bak)
	}
	if readConf(t, bak) != sampleConf {
		t.Errorf("backup content differs")
	}
}

func TestWatch_ReportsChanges(t *testing.T) {
	_, s := writeConf(t, sampleConf)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	seen := make(chan []Variant, 8)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, s, func(vs []Variant, err error) {
			if err == nil {
				seen <- vs
			}
		})
	}()

	select {
	case vs := <-seen:
		if len(vs) != 0 {
			t.Fatalf("initial state = %v, want none", vs)
		}
	case <-ctx.Done():
		t.Fatal("no initial report")
	}

	if _, err := s.SetActive(ptr(VariantMain)); err != nil {
		t.Fatal(err)
	}
	select {
	case vs := <-seen:
		if len(vs) != 1 || vs[0] != VariantMain {
			t.Errorf("reported %v, want [yx_main]", vs)
		}
	case <-ctx.Done():
		t.Fatal("change not reported")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned %v", err)
	}
}
