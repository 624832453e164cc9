package framevk

import (
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

const DefaultValidationLayer = "VK_LAYER_KHRONOS_validation"

// Config holds everything the renderer and the command read at
// startup.
type Config struct {
	Window         WindowConfig     `toml:"window"`
	Validation     ValidationConfig `toml:"validation"`
	Shaders        ShaderConfig     `toml:"shaders"`
	FramesInFlight int              `toml:"frames_in_flight"`
	ClearColor     [4]float32       `toml:"clear_color"`
	ShowFPS        bool             `toml:"show_fps"`
}

type WindowConfig struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

// ValidationConfig is passed to instance and device creation.
// Layers that are not installed are dropped with a warning.
type ValidationConfig struct {
	Enabled bool     `toml:"enabled"`
	Layers  []string `toml:"layers"`
}

type ShaderConfig struct {
	Vertex   string `toml:"vertex"`
	Fragment string `toml:"fragment"`
	Watch    bool   `toml:"watch"`
}

func DefaultConfig() Config {
	return Config{
		Window: WindowConfig{
			Title:  "framevk",
			Width:  800,
			Height: 600,
		},
		Validation: ValidationConfig{
			Layers: []string{DefaultValidationLayer},
		},
		Shaders: ShaderConfig{
			Vertex:   "shaders/triangle.wgsl",
			Fragment: "shaders/triangle.wgsl",
		},
		FramesInFlight: DefaultFramesInFlight,
		ClearColor:     [4]float32{0, 0, 0, 1},
	}
}

// LoadConfig decodes the TOML file at path over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "decode config %s", path)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return errors.Errorf("config: invalid window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.FramesInFlight < 1 {
		return errors.Errorf("config: frames_in_flight must be at least 1, got %d", c.FramesInFlight)
	}
	if c.Shaders.Vertex == "" || c.Shaders.Fragment == "" {
		return errors.New("config: vertex and fragment shader paths are required")
	}
	return nil
}
