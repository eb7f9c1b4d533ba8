package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is read once at startup and passed by value down the
// initialization chain. Nothing mutates it afterwards.
type Config struct {
	Application ApplicationConfig `toml:"application"`
	Renderer    RendererConfig    `toml:"renderer"`
	Shaders     ShaderConfig      `toml:"shaders"`
	Log         LogConfig         `toml:"log"`
	Assets      AssetsConfig      `toml:"assets"`
}

type ApplicationConfig struct {
	// The application name used in windowing and as the Vulkan application name.
	Name string `toml:"name"`
	// Window starting width.
	Width uint32 `toml:"width"`
	// Window starting height.
	Height uint32 `toml:"height"`
}

type RendererConfig struct {
	// Prefer mailbox over FIFO when set, immediate/relaxed FIFO otherwise.
	VSync bool `toml:"vsync"`
	// Request an sRGB swapchain format.
	Gamma bool `toml:"gamma"`
	// Enables the validation layer and the debug report callback.
	Validation bool `toml:"validation"`
	// RGBA clear color of the single render pass.
	ClearColor [4]float32 `toml:"clear_color"`
	// Zero waits forever.
	AcquireTimeoutMS uint64 `toml:"acquire_timeout_ms"`
	// Stop after this many frames, zero runs until the window closes.
	MaxFrames uint64 `toml:"max_frames"`
}

type ShaderConfig struct {
	Vertex   string `toml:"vertex"`
	Fragment string `toml:"fragment"`
}

type LogConfig struct {
	Level LogLevel `toml:"level"`
}

type AssetsConfig struct {
	// Log a warning when shader bytecode changes on disk while running.
	WatchShaders bool `toml:"watch_shaders"`
}

// DefaultConfig is an 800x600 window with vsync and no validation.
func DefaultConfig() Config {
	return Config{
		Application: ApplicationConfig{
			Name:   "Prism",
			Width:  800,
			Height: 600,
		},
		Renderer: RendererConfig{
			VSync:      true,
			Gamma:      false,
			Validation: false,
			ClearColor: [4]float32{0.0, 0.0, 0.0, 1.0},
		},
		Shaders: ShaderConfig{
			Vertex:   "shaders/vert.spv",
			Fragment: "shaders/frag.spv",
		},
		Log: LogConfig{
			Level: LogLevelInfo,
		},
	}
}

// LoadConfig reads a TOML file on top of the defaults. A missing file is not
// an error, the defaults are returned.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			LogDebug("config file `%s` not found, using defaults", path)
			return cfg, nil
		}
		return cfg, fmt.Errorf("%w: %s", ErrConfig, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: failed to decode `%s`: %s", ErrConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Application.Width == 0 || c.Application.Height == 0 {
		return fmt.Errorf("%w: window size must be non-zero, got %dx%d", ErrConfig, c.Application.Width, c.Application.Height)
	}
	if c.Shaders.Vertex == "" || c.Shaders.Fragment == "" {
		return fmt.Errorf("%w: both vertex and fragment shader paths are required", ErrConfig)
	}
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}
