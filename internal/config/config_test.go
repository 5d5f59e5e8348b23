package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "STAMP_WIDTH", "STAMP_HEIGHT", "STAMP_MARGIN", "RASTER_SCALE",
		"STATE_BACKEND", "STATE_FILE", "MAX_UPLOAD_BYTES", "STATS_WINDOW", "RUN_TTL"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.StampWidth != 100 || cfg.StampHeight != 50 || cfg.StampMargin != 10 {
		t.Fatalf("expected 100x50 margin 10, got %gx%g margin %g", cfg.StampWidth, cfg.StampHeight, cfg.StampMargin)
	}
	if cfg.RasterScale != 4 {
		t.Fatalf("expected scale 4, got %g", cfg.RasterScale)
	}
	if cfg.StateBackend != BackendFile || cfg.StateFile != "last_barcode.txt" {
		t.Fatalf("expected file backend at last_barcode.txt, got %s %s", cfg.StateBackend, cfg.StateFile)
	}
	if cfg.StatsWindow != time.Hour {
		t.Fatalf("expected 1h stats window, got %s", cfg.StatsWindow)
	}
}

func TestLoadOverridesAndClamps(t *testing.T) {
	t.Setenv("STAMP_WIDTH", "120.5")
	t.Setenv("STAMP_HEIGHT", "-3")
	t.Setenv("RASTER_SCALE", "garbage")
	t.Setenv("STATS_WINDOW", "15m")
	t.Setenv("MAX_UPLOAD_BYTES", "0")

	cfg := Load()
	if cfg.StampWidth != 120.5 {
		t.Fatalf("expected width 120.5, got %g", cfg.StampWidth)
	}
	if cfg.StampHeight != 50 {
		t.Fatalf("expected negative height clamped to 50, got %g", cfg.StampHeight)
	}
	if cfg.RasterScale != 4 {
		t.Fatalf("expected unparsable scale to fall back to 4, got %g", cfg.RasterScale)
	}
	if cfg.StatsWindow != 15*time.Minute {
		t.Fatalf("expected 15m, got %s", cfg.StatsWindow)
	}
	if cfg.MaxUploadBytes != 52428800 {
		t.Fatalf("expected default upload limit, got %d", cfg.MaxUploadBytes)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		server  bool
		wantErr bool
	}{
		{"file backend", Config{StateBackend: BackendFile, StateFile: "x.txt"}, false, false},
		{"file backend without path", Config{StateBackend: BackendFile}, false, true},
		{"pathstore without key", Config{StateBackend: BackendPathstore, PathstoreURL: "http://ps"}, false, true},
		{"pathstore", Config{StateBackend: BackendPathstore, PathstoreURL: "http://ps", PathstoreAPIKey: "k"}, false, false},
		{"unknown backend", Config{StateBackend: "redis"}, false, true},
		{"server without api key", Config{StateBackend: BackendFile, StateFile: "x.txt"}, true, true},
		{"server", Config{StateBackend: BackendFile, StateFile: "x.txt", BarcoderAPIKey: "k"}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			if tt.server {
				err = tt.cfg.ValidateServer()
			} else {
				err = tt.cfg.Validate()
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}
