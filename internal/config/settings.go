package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override render settings.
const (
	EnvSettingsFile = "SCADC_SETTINGS"
	EnvImgWidth     = "SCADC_IMG_WIDTH"
	EnvImgHeight    = "SCADC_IMG_HEIGHT"
	EnvCSGLimit     = "SCADC_CSG_LIMIT"
	EnvColorScheme  = "SCADC_COLORSCHEME"
	// EnvMetricsFile names a Prometheus textfile to write run metrics to.
	EnvMetricsFile = "SCADC_METRICS_FILE"
)

// Defaults used when a field is not set.
const (
	DefaultImgWidth     = 512
	DefaultImgHeight    = 512
	DefaultCSGTermLimit = 100000
	DefaultColorScheme  = "Cornfield"
)

// ColorSchemes lists the colour scheme names renderers understand.
var ColorSchemes = []string{"Cornfield", "Metallic", "Sunset"}

// RenderSettings holds the process-wide image defaults. It is loaded once at
// startup and passed explicitly to whatever needs it.
type RenderSettings struct {
	ImgWidth     *int    `json:"img_width,omitempty"`
	ImgHeight    *int    `json:"img_height,omitempty"`
	CSGTermLimit *int    `json:"csg_term_limit,omitempty"`
	ColorScheme  *string `json:"color_scheme,omitempty"`
}

func ptrInt(v int) *int          { return &v }
func ptrString(v string) *string { return &v }

// DefaultRenderSettings returns settings with every field populated.
func DefaultRenderSettings() *RenderSettings {
	return &RenderSettings{
		ImgWidth:     ptrInt(DefaultImgWidth),
		ImgHeight:    ptrInt(DefaultImgHeight),
		CSGTermLimit: ptrInt(DefaultCSGTermLimit),
		ColorScheme:  ptrString(DefaultColorScheme),
	}
}

// LoadRenderSettings loads settings from a JSON file.
// The file must have a .json extension and be under 1MB. Fields omitted from
// the file fall back to the defaults through the getters.
func LoadRenderSettings(path string) (*RenderSettings, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("settings file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat settings file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("settings file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	cfg := &RenderSettings{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse settings JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}

// FromEnvironment loads the render settings for a run. envFiles are dotenv
// files loaded first (".env" when none are given; missing files are
// ignored); variables already set in the environment win. A settings file
// named by SCADC_SETTINGS is loaded next and the individual SCADC_*
// variables are applied on top.
func FromEnvironment(envFiles ...string) (*RenderSettings, error) {
	_ = godotenv.Load(envFiles...)

	cfg := DefaultRenderSettings()
	if path := strings.TrimSpace(os.Getenv(EnvSettingsFile)); path != "" {
		loaded, err := LoadRenderSettings(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MetricsFile returns the metrics textfile path from the environment, or ""
// when metrics are off. Call it after FromEnvironment so .env values apply.
func MetricsFile() string {
	return strings.TrimSpace(os.Getenv(EnvMetricsFile))
}

// ApplyEnv overrides fields from the SCADC_* variables returned by getenv.
func (c *RenderSettings) ApplyEnv(getenv func(string) string) error {
	ints := []struct {
		key string
		dst **int
	}{
		{EnvImgWidth, &c.ImgWidth},
		{EnvImgHeight, &c.ImgHeight},
		{EnvCSGLimit, &c.CSGTermLimit},
	}
	for _, e := range ints {
		raw := strings.TrimSpace(getenv(e.key))
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", e.key, raw, err)
		}
		*e.dst = ptrInt(v)
	}
	if raw := strings.TrimSpace(getenv(EnvColorScheme)); raw != "" {
		c.ColorScheme = ptrString(raw)
	}
	return c.Validate()
}

// Validate checks that the configuration values are valid.
func (c *RenderSettings) Validate() error {
	if c.ImgWidth != nil && *c.ImgWidth <= 0 {
		return fmt.Errorf("img_width must be positive, got %d", *c.ImgWidth)
	}
	if c.ImgHeight != nil && *c.ImgHeight <= 0 {
		return fmt.Errorf("img_height must be positive, got %d", *c.ImgHeight)
	}
	if c.CSGTermLimit != nil && *c.CSGTermLimit < 0 {
		return fmt.Errorf("csg_term_limit must be non-negative, got %d", *c.CSGTermLimit)
	}
	if c.ColorScheme != nil {
		known := false
		for _, s := range ColorSchemes {
			if s == *c.ColorScheme {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("unknown color_scheme %q (known: %s)", *c.ColorScheme, strings.Join(ColorSchemes, ", "))
		}
	}
	return nil
}

// SetCSGTermLimit overrides the preview term limit.
func (c *RenderSettings) SetCSGTermLimit(n int) {
	c.CSGTermLimit = ptrInt(n)
}

// GetImgWidth returns the img_width value or the default.
func (c *RenderSettings) GetImgWidth() int {
	if c.ImgWidth == nil {
		return DefaultImgWidth
	}
	return *c.ImgWidth
}

// GetImgHeight returns the img_height value or the default.
func (c *RenderSettings) GetImgHeight() int {
	if c.ImgHeight == nil {
		return DefaultImgHeight
	}
	return *c.ImgHeight
}

// GetCSGTermLimit returns the csg_term_limit value or the default.
func (c *RenderSettings) GetCSGTermLimit() int {
	if c.CSGTermLimit == nil {
		return DefaultCSGTermLimit
	}
	return *c.CSGTermLimit
}

// GetColorScheme returns the color_scheme value or the default.
func (c *RenderSettings) GetColorScheme() string {
	if c.ColorScheme == nil {
		return DefaultColorScheme
	}
	return *c.ColorScheme
}
