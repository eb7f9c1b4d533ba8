package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
)

// Pipeline is the fixed triangle pipeline. It draws three vertices generated
// in the vertex shader, so there is no vertex input and nothing to bind.
type Pipeline struct {
	Handle vk.Pipeline
	Layout vk.PipelineLayout
}

// pipelineState holds the fixed-function blocks referenced by the create info.
type pipelineState struct {
	vertexInput   vk.PipelineVertexInputStateCreateInfo
	inputAssembly vk.PipelineInputAssemblyStateCreateInfo
	viewport      vk.PipelineViewportStateCreateInfo
	rasterizer    vk.PipelineRasterizationStateCreateInfo
	multisampling vk.PipelineMultisampleStateCreateInfo
	colorBlend    vk.PipelineColorBlendStateCreateInfo
}

func describePipelineState(extent vk.Extent2D) *pipelineState {
	viewport := vk.Viewport{
		X:        0.0,
		Y:        0.0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: extent,
	}

	colorBlendAttachmentState := vk.PipelineColorBlendAttachmentState{
		BlendEnable: vk.False,
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit) | vk.ColorComponentFlags(vk.ColorComponentGBit) |
			vk.ColorComponentFlags(vk.ColorComponentBBit) | vk.ColorComponentFlags(vk.ColorComponentABit),
	}

	return &pipelineState{
		vertexInput: vk.PipelineVertexInputStateCreateInfo{
			SType: vk.StructureTypePipelineVertexInputStateCreateInfo,
		},
		inputAssembly: vk.PipelineInputAssemblyStateCreateInfo{
			SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology:               vk.PrimitiveTopologyTriangleList,
			PrimitiveRestartEnable: vk.False,
		},
		viewport: vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: 1,
			PViewports:    []vk.Viewport{viewport},
			ScissorCount:  1,
			PScissors:     []vk.Rect2D{scissor},
		},
		rasterizer: vk.PipelineRasterizationStateCreateInfo{
			SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
			DepthClampEnable:        vk.False,
			RasterizerDiscardEnable: vk.False,
			PolygonMode:             vk.PolygonModeFill,
			CullMode:                vk.CullModeFlags(vk.CullModeBackBit),
			FrontFace:               vk.FrontFaceClockwise,
			DepthBiasEnable:         vk.False,
			LineWidth:               1.0,
		},
		multisampling: vk.PipelineMultisampleStateCreateInfo{
			SType:                 vk.StructureTypePipelineMultisampleStateCreateInfo,
			SampleShadingEnable:   vk.False,
			RasterizationSamples:  vk.SampleCount1Bit,
			MinSampleShading:      1.0,
			AlphaToCoverageEnable: vk.False,
			AlphaToOneEnable:      vk.False,
		},
		colorBlend: vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			LogicOpEnable:   vk.False,
			LogicOp:         vk.LogicOpCopy,
			AttachmentCount: 1,
			PAttachments:    []vk.PipelineColorBlendAttachmentState{colorBlendAttachmentState},
		},
	}
}

func describePipeline(state *pipelineState, stages []vk.PipelineShaderStageCreateInfo, layout vk.PipelineLayout, renderPass vk.RenderPass) vk.GraphicsPipelineCreateInfo {
	return vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &state.vertexInput,
		PInputAssemblyState: &state.inputAssembly,
		PViewportState:      &state.viewport,
		PRasterizationState: &state.rasterizer,
		PMultisampleState:   &state.multisampling,
		PDepthStencilState:  nil,
		PColorBlendState:    &state.colorBlend,
		PDynamicState:       nil,
		Layout:              layout,
		RenderPass:          renderPass,
		Subpass:             0,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}
}

// NewPipelineLayout creates a layout with no descriptor sets and no push
// constants.
func NewPipelineLayout(device *LogicalDevice) (vk.PipelineLayout, error) {
	pipelineLayoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         0,
		PushConstantRangeCount: 0,
	}

	var layout vk.PipelineLayout
	if res := vk.CreatePipelineLayout(device.Handle, &pipelineLayoutCreateInfo, nil, &layout); res != vk.Success {
		err := resultError(core.ErrPipelineCreation, "vkCreatePipelineLayout", res)
		core.LogError(err.Error())
		return nil, err
	}
	return layout, nil
}

func DestroyPipelineLayout(device *LogicalDevice, layout vk.PipelineLayout) {
	if layout != nil {
		vk.DestroyPipelineLayout(device.Handle, layout, nil)
	}
}

// NewGraphicsPipeline builds the pipeline from vertex and fragment bytecode.
// The shader modules are destroyed before returning.
func NewGraphicsPipeline(device *LogicalDevice, layout vk.PipelineLayout, renderPass *RenderPass, vertexCode, fragmentCode []uint32) (*Pipeline, error) {
	vertex, err := NewShaderStage(device, vertexCode, vk.ShaderStageVertexBit)
	if err != nil {
		return nil, err
	}
	defer vertex.Destroy(device)

	fragment, err := NewShaderStage(device, fragmentCode, vk.ShaderStageFragmentBit)
	if err != nil {
		return nil, err
	}
	defer fragment.Destroy(device)

	stages := []vk.PipelineShaderStageCreateInfo{
		vertex.ShaderStageCreateInfo,
		fragment.ShaderStageCreateInfo,
	}
	state := describePipelineState(renderPass.Extent)
	pipelineCreateInfo := describePipeline(state, stages, layout, renderPass.Handle)

	pipelines := make([]vk.Pipeline, 1)
	if res := vk.CreateGraphicsPipelines(
		device.Handle,
		vk.NullPipelineCache,
		1,
		[]vk.GraphicsPipelineCreateInfo{pipelineCreateInfo},
		nil,
		pipelines); res != vk.Success {
		err := resultError(core.ErrPipelineCreation, "vkCreateGraphicsPipelines", res)
		core.LogError(err.Error())
		return nil, err
	}

	core.LogDebug("Graphics pipeline created!")
	return &Pipeline{
		Handle: pipelines[0],
		Layout: layout,
	}, nil
}

func (p *Pipeline) Destroy(device *LogicalDevice) {
	if p.Handle != nil {
		vk.DestroyPipeline(device.Handle, p.Handle, nil)
		p.Handle = nil
	}
}

func (p *Pipeline) Bind(commandBuffer *CommandBuffer) {
	vk.CmdBindPipeline(commandBuffer.Handle, vk.PipelineBindPointGraphics, p.Handle)
}
