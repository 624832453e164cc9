package framevk

import (
	"github.com/andewx/framevk/hal"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Pipeline is an immutable graphics pipeline and its layout. It is
// replaced as a whole, never modified.
type Pipeline struct {
	Handle hal.Pipeline
	Layout hal.PipelineLayout
}

func (p *Pipeline) Destroy() {
	if p.Handle != nil {
		p.Handle.Destroy()
		p.Handle = nil
	}
	if p.Layout != nil {
		p.Layout.Destroy()
		p.Layout = nil
	}
}

// PipelineBuilder collects fixed function state for a single
// vertex and fragment stage pipeline. The exported state may be
// edited before Build.
type PipelineBuilder struct {
	Vertex   ShaderCode
	Fragment ShaderCode
	Vertices VertexLayout

	InputAssembly        vk.PipelineInputAssemblyStateCreateInfo
	Rasterizer           vk.PipelineRasterizationStateCreateInfo
	Multisample          vk.PipelineMultisampleStateCreateInfo
	DepthStencil         vk.PipelineDepthStencilStateCreateInfo
	ColorBlendAttachment vk.PipelineColorBlendAttachmentState
}

//NewPipelineBuilder starts from a filled triangle list, back face culled with clockwise front faces, single sampled, no depth test and no blending
func NewPipelineBuilder(vertex, fragment ShaderCode, layout VertexLayout) *PipelineBuilder {
	return &PipelineBuilder{
		Vertex:   vertex,
		Fragment: fragment,
		Vertices: layout,
		InputAssembly: vk.PipelineInputAssemblyStateCreateInfo{
			Topology:               vk.PrimitiveTopologyTriangleList,
			PrimitiveRestartEnable: vk.False,
		},
		Rasterizer: vk.PipelineRasterizationStateCreateInfo{
			DepthClampEnable:        vk.False,
			RasterizerDiscardEnable: vk.False,
			PolygonMode:             vk.PolygonModeFill,
			CullMode:                vk.CullModeFlags(vk.CullModeBackBit),
			FrontFace:               vk.FrontFaceClockwise,
			DepthBiasEnable:         vk.False,
			LineWidth:               1.0,
		},
		Multisample: vk.PipelineMultisampleStateCreateInfo{
			RasterizationSamples: vk.SampleCount1Bit,
			SampleShadingEnable:  vk.False,
			MinSampleShading:     1.0,
		},
		DepthStencil: vk.PipelineDepthStencilStateCreateInfo{
			DepthTestEnable:  vk.False,
			DepthWriteEnable: vk.False,
		},
		ColorBlendAttachment: vk.PipelineColorBlendAttachmentState{
			BlendEnable: vk.False,
			ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit |
				vk.ColorComponentBBit | vk.ColorComponentABit),
		},
	}
}

// Info describes the pipeline for pass with the viewport and scissor
// covering extent. Stage modules and layout are left to the caller.
func (b *PipelineBuilder) Info(pass hal.RenderPass, extent vk.Extent2D) *hal.PipelineInfo {
	return &hal.PipelineInfo{
		VertexBindings:   b.Vertices.bindings(),
		VertexAttributes: b.Vertices.attributes(),
		InputAssembly:    b.InputAssembly,
		Viewport: vk.Viewport{
			Width:    float32(extent.Width),
			Height:   float32(extent.Height),
			MinDepth: 0.0,
			MaxDepth: 1.0,
		},
		Scissor:              vk.Rect2D{Extent: extent},
		Rasterizer:           b.Rasterizer,
		Multisample:          b.Multisample,
		DepthStencil:         b.DepthStencil,
		ColorBlendAttachment: b.ColorBlendAttachment,
		RenderPass:           pass,
		Subpass:              0,
	}
}

// Build creates the pipeline. The shader modules only live for the
// duration of the call.
func (b *PipelineBuilder) Build(dev hal.Device, pass hal.RenderPass, extent vk.Extent2D) (*Pipeline, error) {
	info := b.Info(pass, extent)

	for _, code := range []ShaderCode{b.Vertex, b.Fragment} {
		module, err := dev.CreateShaderModule(code.Code)
		if err != nil {
			destroyStages(info.Stages)
			return nil, errors.Wrapf(err, "create %s shader module", code.Stage)
		}
		info.Stages = append(info.Stages, hal.ShaderStage{
			Stage:  code.Stage.Flags(),
			Module: module,
			Entry:  code.Entry,
		})
	}
	defer destroyStages(info.Stages)

	layout, err := dev.CreatePipelineLayout()
	if err != nil {
		return nil, errors.Wrap(err, "create pipeline layout")
	}
	info.Layout = layout

	handle, err := dev.CreateGraphicsPipeline(info)
	if err != nil {
		layout.Destroy()
		return nil, errors.Wrap(err, "create graphics pipeline")
	}
	return &Pipeline{Handle: handle, Layout: layout}, nil
}

func destroyStages(stages []hal.ShaderStage) {
	for _, s := range stages {
		s.Module.Destroy()
	}
}
