package config

import (
	"testing"
)

func TestDefaultPaths_Fixed(t *testing.T) {
	a := DefaultPaths()
	b := DefaultPaths()
	if a != b {
		t.Fatalf("DefaultPaths not stable: %+v vs %+v", a, b)
	}
	want := Paths{
		BinPath:  "/usr/local/bin/nginx",
		ConfPath: "/usr/local/nginx/conf/nginx.conf",
		ConfDir:  "/usr/local/nginx/conf",
		LogDir:   "/usr/local/nginx/logs",
		RunDir:   "/usr/local/nginx",
	}
	if a != want {
		t.Errorf("DefaultPaths() = %+v, want %+v", a, want)
	}
}

func TestFromConf(t *testing.T) {
	tests := []struct {
		name string
		bin  string
		conf string
		want Paths
	}{
		{
			name: "empty keeps defaults",
			want: DefaultPaths(),
		},
		{
			name: "conf derives directories",
			conf: "/opt/nginx/conf/nginx.conf",
			want: Paths{
				BinPath:  "/usr/local/bin/nginx",
				ConfPath: "/opt/nginx/conf/nginx.conf",
				ConfDir:  "/opt/nginx/conf",
				LogDir:   "/opt/nginx/logs",
				RunDir:   "/opt/nginx",
			},
		},
		{
			name: "bin only",
			bin:  "/usr/sbin/nginx",
			want: Paths{
				BinPath:  "/usr/sbin/nginx",
				ConfPath: "/usr/local/nginx/conf/nginx.conf",
				ConfDir:  "/usr/local/nginx/conf",
				LogDir:   "/usr/local/nginx/logs",
				RunDir:   "/usr/local/nginx",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromConf(tt.bin, tt.conf); got != tt.want {
				t.Errorf("FromConf(%q, %q) = %+v, want %+v", tt.bin, tt.conf, got, tt.want)
			}
		})
	}
}

func TestLogFile(t *testing.T) {
	p := DefaultPaths()
	if got := p.LogFile("access.log"); got != "/usr/local/nginx/logs/access.log" {
		t.Errorf("LogFile = %q", got)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("QUICKNGINX_BIN", "/usr/sbin/nginx")
	t.Setenv("QUICKNGINX_CONF", "/etc/nginx/nginx.conf")
	t.Setenv("QUICKNGINX_SUDO", "")

	cfg := Load()
	if cfg.BinPath != "/usr/sbin/nginx" {
		t.Errorf("BinPath = %q", cfg.BinPath)
	}
	if cfg.ConfDir != "/etc/nginx" {
		t.Errorf("ConfDir = %q", cfg.ConfDir)
	}
	if cfg.LogDir != "/etc/logs" {
		t.Errorf("LogDir = %q", cfg.LogDir)
	}
	if cfg.Escalator != "" {
		t.Errorf("Escalator = %q, want empty when QUICKNGINX_SUDO is set empty", cfg.Escalator)
	}
}

func TestLoad_NoEnv(t *testing.T) {
	t.Setenv("QUICKNGINX_BIN", "")
	t.Setenv("QUICKNGINX_CONF", "")

	cfg := Load()
	if cfg.Paths != DefaultPaths() {
		t.Errorf("Paths = %+v, want defaults", cfg.Paths)
	}
}
