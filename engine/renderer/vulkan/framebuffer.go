package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
)

// Framebuffer binds one swapchain image view to the render pass.
type Framebuffer struct {
	Handle     vk.Framebuffer
	Attachment vk.ImageView
	Extent     vk.Extent2D
}

func NewFramebuffer(device *LogicalDevice, renderPass *RenderPass, view vk.ImageView, extent vk.Extent2D) (*Framebuffer, error) {
	framebufferCreateInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      renderPass.Handle,
		AttachmentCount: 1,
		PAttachments:    []vk.ImageView{view},
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          1,
	}

	var handle vk.Framebuffer
	if res := vk.CreateFramebuffer(device.Handle, &framebufferCreateInfo, nil, &handle); res != vk.Success {
		err := resultError(core.ErrPipelineCreation, "vkCreateFramebuffer", res)
		core.LogError(err.Error())
		return nil, err
	}
	return &Framebuffer{
		Handle:     handle,
		Attachment: view,
		Extent:     extent,
	}, nil
}

// NewFramebuffers creates one framebuffer per view, cleaning up on failure.
func NewFramebuffers(device *LogicalDevice, renderPass *RenderPass, views []vk.ImageView, extent vk.Extent2D) ([]*Framebuffer, error) {
	framebuffers := make([]*Framebuffer, 0, len(views))
	for _, view := range views {
		fb, err := NewFramebuffer(device, renderPass, view, extent)
		if err != nil {
			DestroyFramebuffers(device, framebuffers)
			return nil, err
		}
		framebuffers = append(framebuffers, fb)
	}
	return framebuffers, nil
}

func DestroyFramebuffers(device *LogicalDevice, framebuffers []*Framebuffer) {
	for _, fb := range framebuffers {
		fb.Destroy(device)
	}
}

func (fb *Framebuffer) Destroy(device *LogicalDevice) {
	if fb.Handle != nil {
		vk.DestroyFramebuffer(device.Handle, fb.Handle, nil)
		fb.Handle = nil
	}
	fb.Attachment = nil
}
