package framevk

import (
	"testing"

	"github.com/andewx/framevk/internal/gputest"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

// stubCompiler hands out a minimal SPIR-V header for every stage.
type stubCompiler struct {
	calls int
	err   error
	// empty hands out code the device refuses to load.
	empty bool
}

func (c *stubCompiler) Compile(path string, stage ShaderStage) (ShaderCode, error) {
	c.calls++
	if c.err != nil {
		return ShaderCode{}, c.err
	}
	if c.empty {
		return ShaderCode{Entry: "main", Stage: stage}, nil
	}
	return ShaderCode{
		Code:  []uint32{spirvMagic, 0x00010000, 0, 1, 0},
		Entry: "main",
		Stage: stage,
	}, nil
}

func newTestDevice(t *testing.T, gpus ...*gputest.PhysicalDevice) (*gputest.Driver, *DeviceContext) {
	t.Helper()
	if len(gpus) == 0 {
		gpus = []*gputest.PhysicalDevice{gputest.NewGPU("fake", vk.PhysicalDeviceTypeDiscreteGpu)}
	}
	drv := gputest.New()
	inst := drv.NewInstance(gpus...)
	dc, err := NewDeviceContext(inst, drv.NewSurface(), ValidationConfig{}, DiscardLogger())
	require.NoError(t, err)
	return drv, dc
}

func newTestRenderer(t *testing.T, dc *DeviceContext, cfg Config) (*Renderer, *stubCompiler) {
	t.Helper()
	compiler := &stubCompiler{}
	r, err := NewRenderer(dc, cfg, compiler, vk.Extent2D{Width: 800, Height: 600}, TriangleVertices, DiscardLogger())
	require.NoError(t, err)
	return r, compiler
}

func drawFrames(t *testing.T, r *Renderer, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, r.DrawFrame(), "frame %d", i)
	}
}
