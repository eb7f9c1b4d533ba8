package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
)

// RenderPass clears and stores a single color attachment that ends up ready
// for presentation.
type RenderPass struct {
	Handle     vk.RenderPass
	Extent     vk.Extent2D
	ClearColor [4]float32
}

func describeRenderPass(format vk.Format) vk.RenderPassCreateInfo {
	colorAttachment := vk.AttachmentDescription{
		Format:         format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,  // Do not expect any particular layout before render pass starts.
		FinalLayout:    vk.ImageLayoutPresentSrc, // Transitioned to after the render pass
	}

	colorAttachmentReference := []vk.AttachmentReference{
		{
			Attachment: 0, // Attachment description array index
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		},
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    colorAttachmentReference,
	}

	// Wait for the presentation engine to release the image before writing.
	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit) | vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
	}

	return vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.AttachmentDescription{colorAttachment},
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}
}

func NewRenderPass(device *LogicalDevice, format vk.Format, extent vk.Extent2D, clearColor [4]float32) (*RenderPass, error) {
	createInfo := describeRenderPass(format)

	var handle vk.RenderPass
	if res := vk.CreateRenderPass(device.Handle, &createInfo, nil, &handle); res != vk.Success {
		err := resultError(core.ErrPipelineCreation, "vkCreateRenderPass", res)
		core.LogError(err.Error())
		return nil, err
	}
	return &RenderPass{
		Handle:     handle,
		Extent:     extent,
		ClearColor: clearColor,
	}, nil
}

func (rp *RenderPass) Destroy(device *LogicalDevice) {
	if rp.Handle != nil {
		vk.DestroyRenderPass(device.Handle, rp.Handle, nil)
		rp.Handle = nil
	}
}

func (rp *RenderPass) beginInfo(framebuffer vk.Framebuffer) vk.RenderPassBeginInfo {
	clearValues := make([]vk.ClearValue, 1)
	clearValues[0].SetColor(rp.ClearColor[:])

	return vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  rp.Handle,
		Framebuffer: framebuffer,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: rp.Extent,
		},
		ClearValueCount: 1,
		PClearValues:    clearValues,
	}
}

func (rp *RenderPass) Begin(commandBuffer *CommandBuffer, framebuffer vk.Framebuffer) {
	beginInfo := rp.beginInfo(framebuffer)
	vk.CmdBeginRenderPass(commandBuffer.Handle, &beginInfo, vk.SubpassContentsInline)
	commandBuffer.State = COMMAND_BUFFER_STATE_IN_RENDER_PASS
}

func (rp *RenderPass) End(commandBuffer *CommandBuffer) {
	vk.CmdEndRenderPass(commandBuffer.Handle)
	commandBuffer.State = COMMAND_BUFFER_STATE_RECORDING
}
