package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultRenderSettings(t *testing.T) {
	cfg := DefaultRenderSettings()

	if cfg.ImgWidth == nil || *cfg.ImgWidth != 512 {
		t.Errorf("Expected ImgWidth 512, got %v", cfg.ImgWidth)
	}
	if cfg.ImgHeight == nil || *cfg.ImgHeight != 512 {
		t.Errorf("Expected ImgHeight 512, got %v", cfg.ImgHeight)
	}
	if cfg.GetCSGTermLimit() != 100000 {
		t.Errorf("GetCSGTermLimit() = %d, want 100000", cfg.GetCSGTermLimit())
	}
	if cfg.GetColorScheme() != "Cornfield" {
		t.Errorf("GetColorScheme() = %q, want Cornfield", cfg.GetColorScheme())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestEmptySettingsUseDefaults(t *testing.T) {
	cfg := &RenderSettings{}
	if cfg.GetImgWidth() != DefaultImgWidth || cfg.GetImgHeight() != DefaultImgHeight {
		t.Errorf("got %dx%d, want defaults", cfg.GetImgWidth(), cfg.GetImgHeight())
	}
}

func TestLoadRenderSettings(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "render.json")
	if err := os.WriteFile(path, []byte(`{"img_width": 800, "color_scheme": "Sunset"}`), 0644); err != nil {
		t.Fatalf("Failed to write settings: %v", err)
	}

	cfg, err := LoadRenderSettings(path)
	if err != nil {
		t.Fatalf("LoadRenderSettings failed: %v", err)
	}
	if cfg.GetImgWidth() != 800 {
		t.Errorf("GetImgWidth() = %d, want 800", cfg.GetImgWidth())
	}
	// omitted fields fall back
	if cfg.GetImgHeight() != DefaultImgHeight {
		t.Errorf("GetImgHeight() = %d, want %d", cfg.GetImgHeight(), DefaultImgHeight)
	}
	if cfg.GetColorScheme() != "Sunset" {
		t.Errorf("GetColorScheme() = %q, want Sunset", cfg.GetColorScheme())
	}
}

func TestLoadRenderSettings_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	yamlPath := filepath.Join(tmpDir, "render.yaml")
	os.WriteFile(yamlPath, []byte("img_width: 1"), 0644)
	if _, err := LoadRenderSettings(yamlPath); err == nil {
		t.Error("expected error for non-json extension")
	}

	if _, err := LoadRenderSettings(filepath.Join(tmpDir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(tmpDir, "bad.json")
	os.WriteFile(bad, []byte("{not json"), 0644)
	if _, err := LoadRenderSettings(bad); err == nil {
		t.Error("expected error for malformed JSON")
	}

	invalid := filepath.Join(tmpDir, "invalid.json")
	os.WriteFile(invalid, []byte(`{"img_height": 0}`), 0644)
	if _, err := LoadRenderSettings(invalid); err == nil {
		t.Error("expected validation error for zero height")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *RenderSettings
		wantErr bool
	}{
		{"defaults", DefaultRenderSettings(), false},
		{"empty", &RenderSettings{}, false},
		{"negative width", &RenderSettings{ImgWidth: ptrInt(-1)}, true},
		{"negative limit", &RenderSettings{CSGTermLimit: ptrInt(-5)}, true},
		{"zero limit", &RenderSettings{CSGTermLimit: ptrInt(0)}, false},
		{"unknown scheme", &RenderSettings{ColorScheme: ptrString("Neon")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvImgWidth:    "1024",
		EnvImgHeight:   " 768 ",
		EnvCSGLimit:    "50",
		EnvColorScheme: "Metallic",
	}
	cfg := DefaultRenderSettings()
	if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}
	if cfg.GetImgWidth() != 1024 || cfg.GetImgHeight() != 768 {
		t.Errorf("got %dx%d, want 1024x768", cfg.GetImgWidth(), cfg.GetImgHeight())
	}
	if cfg.GetCSGTermLimit() != 50 {
		t.Errorf("GetCSGTermLimit() = %d, want 50", cfg.GetCSGTermLimit())
	}
	if cfg.GetColorScheme() != "Metallic" {
		t.Errorf("GetColorScheme() = %q", cfg.GetColorScheme())
	}

	bad := map[string]string{EnvImgWidth: "wide"}
	if err := DefaultRenderSettings().ApplyEnv(func(k string) string { return bad[k] }); err == nil {
		t.Error("expected error for non-numeric width")
	}
}

func TestFromEnvironment(t *testing.T) {
	tmpDir := t.TempDir()
	settings := filepath.Join(tmpDir, "render.json")
	os.WriteFile(settings, []byte(`{"img_width": 300, "img_height": 200}`), 0644)

	envFile := filepath.Join(tmpDir, "scadc.env")
	os.WriteFile(envFile, []byte("SCADC_SETTINGS="+settings+"\nSCADC_IMG_HEIGHT=150\n"), 0644)

	t.Setenv(EnvSettingsFile, "")
	os.Unsetenv(EnvSettingsFile)
	t.Setenv(EnvImgHeight, "")
	os.Unsetenv(EnvImgHeight)
	t.Setenv(EnvImgWidth, "")
	t.Setenv(EnvCSGLimit, "")
	t.Setenv(EnvColorScheme, "")

	cfg, err := FromEnvironment(envFile)
	if err != nil {
		t.Fatalf("FromEnvironment failed: %v", err)
	}
	if cfg.GetImgWidth() != 300 {
		t.Errorf("GetImgWidth() = %d, want 300 from settings file", cfg.GetImgWidth())
	}
	if cfg.GetImgHeight() != 150 {
		t.Errorf("GetImgHeight() = %d, want 150 from env", cfg.GetImgHeight())
	}
}

func TestMetricsFile(t *testing.T) {
	t.Setenv(EnvMetricsFile, "")
	if got := MetricsFile(); got != "" {
		t.Errorf("MetricsFile() = %q, want empty", got)
	}

	t.Setenv(EnvMetricsFile, "  /var/lib/node_exporter/scadc.prom ")
	if got := MetricsFile(); got != "/var/lib/node_exporter/scadc.prom" {
		t.Errorf("MetricsFile() = %q", got)
	}
}
