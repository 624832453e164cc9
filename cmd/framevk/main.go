// Command framevk opens a window and draws a triangle with Vulkan.
package main

import (
	"flag"
	"os"
	"runtime"

	"github.com/andewx/framevk"
	"github.com/andewx/framevk/hal/vulkan"
	"github.com/andewx/framevk/internal/window"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

func init() {
	runtime.LockOSThread()
}

var (
	configPath = flag.String("config", "", "TOML configuration file")
	width      = flag.Int("width", 0, "window width, overrides the config")
	height     = flag.Int("height", 0, "window height, overrides the config")
	validation = flag.Bool("validation", false, "enable validation layers")
	showFPS    = flag.Bool("fps", false, "log frames per second")
	watch      = flag.Bool("watch", false, "rebuild the pipeline when shader files change")
	logDir     = flag.String("logdir", "", "write logs to files in this directory instead of stderr")
)

type app struct {
	r *framevk.Renderer
}

func (a app) OnResize(width, height int) { a.r.Resize(width, height) }
func (a app) OnDrawFrame() error         { return a.r.DrawFrame() }

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	framevk.Fatal(err)

	logger := framevk.NewLogger(os.Stderr)
	if *logDir != "" {
		logger, err = framevk.NewFileLogger(*logDir)
		framevk.Fatal(err)
	}

	framevk.Fatal(window.Init())
	defer window.Terminate()

	win, err := window.New(cfg.Window.Title, cfg.Window.Width, cfg.Window.Height)
	framevk.Fatal(err, window.Terminate)
	defer win.Destroy()

	dc, err := newDeviceContext(cfg, win, logger)
	framevk.Fatal(err, win.Destroy, window.Terminate)
	defer dc.Destroy()

	fbWidth, fbHeight := win.FramebufferSize()
	extent := vk.Extent2D{Width: uint32(fbWidth), Height: uint32(fbHeight)}
	r, err := framevk.NewRenderer(dc, cfg, framevk.FileCompiler{}, extent, framevk.TriangleVertices, logger)
	framevk.Fatal(err, dc.Destroy, win.Destroy, window.Terminate)

	if cfg.Shaders.Watch {
		sw, err := framevk.NewShaderWatcher([]string{cfg.Shaders.Vertex, cfg.Shaders.Fragment}, logger)
		if err != nil {
			logger.Warn.Printf("shader hot reload disabled: %v", err)
		} else {
			r.WatchShaders(sw)
		}
	}

	runErr := win.Run(app{r: r})
	if err := r.Destroy(); err != nil {
		logger.Error.Printf("%v", err)
	}
	framevk.Fatal(runErr, dc.Destroy, win.Destroy, window.Terminate)
	logger.Info.Printf("%d frames drawn", r.Stats().Frames)
}

func loadConfig() (framevk.Config, error) {
	cfg := framevk.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = framevk.LoadConfig(*configPath); err != nil {
			return cfg, err
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "width":
			cfg.Window.Width = *width
		case "height":
			cfg.Window.Height = *height
		case "validation":
			cfg.Validation.Enabled = *validation
		case "fps":
			cfg.ShowFPS = *showFPS
		case "watch":
			cfg.Shaders.Watch = *watch
		}
	})
	return cfg, cfg.Validate()
}

// newDeviceContext creates the instance, the window surface and the
// logical device. Whatever was created is destroyed on failure.
func newDeviceContext(cfg framevk.Config, win *window.Window, logger *framevk.Logger) (*framevk.DeviceContext, error) {
	if err := vulkan.Init(); err != nil {
		return nil, err
	}

	v := cfg.Validation
	if v.Enabled {
		available, err := vulkan.ValidationLayers()
		if err != nil {
			return nil, errors.Wrap(err, "enumerate validation layers")
		}
		v = framevk.FilterLayers(v, available, logger)
	}

	inst, err := vulkan.NewInstance(&vulkan.InstanceInfo{
		AppName:    cfg.Window.Title,
		Extensions: win.RequiredExtensions(),
		Layers:     v.Layers,
		Debug:      v.Enabled,
		Log:        logger.Warn,
	})
	if err != nil {
		return nil, err
	}
	surface, err := vulkan.CreateWindowSurface(inst, win.Handle())
	if err != nil {
		inst.Destroy()
		return nil, err
	}
	dc, err := framevk.NewDeviceContext(inst, surface, v, logger)
	if err != nil {
		surface.Destroy()
		inst.Destroy()
		return nil, err
	}
	return dc, nil
}
