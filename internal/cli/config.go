package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	slidescene "github.com/A-NextSlide/nextslide-sub001"
)

// Config is the optional TOML configuration shared by all commands.
//
//	[canvas]
//	width = 1920
//	height = 1080
//
//	[fonts]
//	system = true
//	dirs = ["./fonts"]
//
//	[render]
//	jobs = 4
//	page_color = "#FFFFFF"
type Config struct {
	Canvas CanvasConfig `toml:"canvas"`
	Fonts  FontsConfig  `toml:"fonts"`
	Render RenderConfig `toml:"render"`
}

// CanvasConfig is the size of the canonical canvas in pixels.
type CanvasConfig struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// FontsConfig controls where the renderer looks for fonts.
type FontsConfig struct {
	System bool     `toml:"system"`
	Dirs   []string `toml:"dirs"`
}

// RenderConfig tunes the render command.
type RenderConfig struct {
	Jobs      int    `toml:"jobs"`
	PageColor string `toml:"page_color"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Canvas: CanvasConfig{Width: slidescene.DefaultCanvasWidth, Height: slidescene.DefaultCanvasHeight},
		Fonts:  FontsConfig{System: true},
		Render: RenderConfig{Jobs: 4},
	}
}

// LoadConfig reads a TOML file over the defaults. An empty path returns
// the defaults. Relative font directories are resolved against the
// directory of the file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("parse config %s: unknown key %q", path, undecoded[0].String())
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	base := filepath.Dir(path)
	for i, dir := range cfg.Fonts.Dirs {
		if !filepath.IsAbs(dir) {
			cfg.Fonts.Dirs[i] = filepath.Join(base, dir)
		}
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return fmt.Errorf("canvas size must be positive, got %dx%d", c.Canvas.Width, c.Canvas.Height)
	}
	if c.Render.Jobs < 0 {
		return fmt.Errorf("render.jobs must not be negative, got %d", c.Render.Jobs)
	}
	if c.Render.PageColor != "" {
		if _, ok := slidescene.ParseColor(c.Render.PageColor); !ok {
			return fmt.Errorf("render.page_color %q is not a hex colour", c.Render.PageColor)
		}
	}
	return nil
}

// ImportOptions maps the configuration onto importer options.
func (c Config) ImportOptions(l *log.Logger) []slidescene.Option {
	return []slidescene.Option{
		slidescene.WithCanvasSize(c.Canvas.Width, c.Canvas.Height),
		slidescene.WithLogger(l),
	}
}

// RenderOptions maps the configuration onto renderer options.
func (c Config) RenderOptions(l *log.Logger) []slidescene.RenderOption {
	opts := []slidescene.RenderOption{
		slidescene.WithCanvas(c.Canvas.Width, c.Canvas.Height),
		slidescene.WithFontDirs(c.Fonts.System, c.Fonts.Dirs...),
		slidescene.WithRenderLogger(l),
	}
	if c.Render.PageColor != "" {
		color, _ := slidescene.ParseColor(c.Render.PageColor)
		opts = append(opts, slidescene.WithPageColor(color))
	}
	return opts
}

// configFromFlags loads the file named by the persistent --config flag.
func configFromFlags(cmd *cobra.Command) (Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return Config{}, err
	}
	return LoadConfig(path)
}
