package framevk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func newTestBuilder() *PipelineBuilder {
	code := []uint32{spirvMagic, 0x00010000, 0, 1, 0}
	return NewPipelineBuilder(
		ShaderCode{Code: code, Entry: "vs_main", Stage: ShaderVertex},
		ShaderCode{Code: code, Entry: "fs_main", Stage: ShaderFragment},
		VertexLayoutOf())
}

func TestPipelineBuilderFixedState(t *testing.T) {
	info := newTestBuilder().Info(nil, vk.Extent2D{Width: 640, Height: 480})

	assert.Equal(t, vk.PrimitiveTopologyTriangleList, info.InputAssembly.Topology)
	assert.Equal(t, vk.PolygonModeFill, info.Rasterizer.PolygonMode)
	assert.Equal(t, vk.CullModeFlags(vk.CullModeBackBit), info.Rasterizer.CullMode)
	assert.Equal(t, vk.FrontFaceClockwise, info.Rasterizer.FrontFace)
	assert.Equal(t, float32(1), info.Rasterizer.LineWidth)
	assert.Equal(t, vk.SampleCount1Bit, info.Multisample.RasterizationSamples)
	assert.Equal(t, vk.Bool32(vk.False), info.DepthStencil.DepthTestEnable)
	assert.Equal(t, vk.Bool32(vk.False), info.ColorBlendAttachment.BlendEnable)
	assert.Equal(t, vk.ColorComponentFlags(vk.ColorComponentRBit|vk.ColorComponentGBit|
		vk.ColorComponentBBit|vk.ColorComponentABit), info.ColorBlendAttachment.ColorWriteMask)

	assert.Equal(t, vk.Viewport{Width: 640, Height: 480, MaxDepth: 1}, info.Viewport)
	assert.Equal(t, vk.Rect2D{Extent: vk.Extent2D{Width: 640, Height: 480}}, info.Scissor)

	require.Len(t, info.VertexBindings, 1)
	assert.Equal(t, uint32(VertexStride), info.VertexBindings[0].Stride)
	assert.Equal(t, vk.VertexInputRateVertex, info.VertexBindings[0].InputRate)
	require.Len(t, info.VertexAttributes, 2)
	assert.Equal(t, uint32(0), info.VertexAttributes[0].Offset)
	assert.Equal(t, vk.FormatR32g32Sfloat, info.VertexAttributes[0].Format)
	assert.Equal(t, uint32(1), info.VertexAttributes[1].Location)
	assert.Equal(t, uint32(8), info.VertexAttributes[1].Offset)
	assert.Equal(t, vk.FormatR32g32b32Sfloat, info.VertexAttributes[1].Format)
}

func TestPipelineBuild(t *testing.T) {
	drv, dc := newTestDevice(t)
	defer dc.Destroy()
	pass, err := dc.Device.CreateRenderPass(RenderPassInfo(vk.FormatB8g8r8a8Srgb))
	require.NoError(t, err)
	defer pass.Destroy()

	p, err := newTestBuilder().Build(dc.Device, pass, vk.Extent2D{Width: 800, Height: 600})
	require.NoError(t, err)

	require.Len(t, drv.Pipelines, 1)
	stages := drv.Pipelines[0].Stages
	require.Len(t, stages, 2)
	assert.Equal(t, vk.ShaderStageVertexBit, stages[0].Stage)
	assert.Equal(t, "vs_main", stages[0].Entry)
	assert.Equal(t, vk.ShaderStageFragmentBit, stages[1].Stage)
	assert.Equal(t, "fs_main", stages[1].Entry)

	assert.Equal(t, 0, drv.Live()["shadermodule"])
	assert.Equal(t, 1, drv.Live()["pipeline"])
	assert.Equal(t, 1, drv.Live()["pipelinelayout"])

	p.Destroy()
	p.Destroy()
	assert.Equal(t, 0, drv.Live()["pipeline"])
	assert.Equal(t, 0, drv.Live()["pipelinelayout"])
	assert.Empty(t, drv.Violations())
}

func TestPipelineBuildFailure(t *testing.T) {
	drv, dc := newTestDevice(t)
	defer dc.Destroy()
	pass, err := dc.Device.CreateRenderPass(RenderPassInfo(vk.FormatB8g8r8a8Srgb))
	require.NoError(t, err)
	defer pass.Destroy()

	drv.FailPipeline = true
	_, err = newTestBuilder().Build(dc.Device, pass, vk.Extent2D{Width: 800, Height: 600})
	assert.Error(t, err)
	assert.Equal(t, 0, drv.Live()["shadermodule"])
	assert.Equal(t, 0, drv.Live()["pipelinelayout"])

	b := newTestBuilder()
	b.Fragment.Code = nil
	drv.FailPipeline = false
	_, err = b.Build(dc.Device, pass, vk.Extent2D{Width: 800, Height: 600})
	assert.Error(t, err)
	assert.Equal(t, 0, drv.Live()["shadermodule"])
	assert.Empty(t, drv.Violations())
}
