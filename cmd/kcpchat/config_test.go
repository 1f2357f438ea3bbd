package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/wippyai/wasm-kcp/session"
)

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantA   session.Config
		wantB   session.Config
		wantErr bool
	}{
		{
			name:  "empty",
			input: "",
			wantA: session.DefaultConfig(),
			wantB: session.DefaultConfig(),
		},
		{
			name: "shared conv and overrides",
			input: `
conv: 7
a:
  interval: 5
  nodelay: true
  resend: 2
  nc: true
b:
  conv: 9
  mtu: 576
  sndwnd: 128
`,
			wantA: session.Config{Conv: 7, Interval: 10, NoDelay: true, Resend: 2, NoCongestion: true,
				SendWindow: 32, RecvWindow: 32, MTU: 1400},
			wantB: session.Config{Conv: 9, Interval: 40, SendWindow: 128, RecvWindow: 32, MTU: 576},
		},
		{
			name:    "unknown key",
			input:   "a:\n  window: 3\n",
			wantErr: true,
		},
		{
			name:    "malformed",
			input:   "a: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := parseConfig([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseConfig failed: %v", err)
			}
			if cfg.A != tt.wantA {
				t.Errorf("A = %+v, want %+v", cfg.A, tt.wantA)
			}
			if cfg.B != tt.wantB {
				t.Errorf("B = %+v, want %+v", cfg.B, tt.wantB)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pair.yaml")
	if err := os.WriteFile(path, []byte("engine: kcp.wasm\nconv: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Engine != "kcp.wasm" || cfg.A.Conv != 3 || cfg.B.Conv != 3 {
		t.Errorf("loadConfig() = %+v", cfg)
	}

	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
