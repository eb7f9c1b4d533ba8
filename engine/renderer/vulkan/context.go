package vulkan

import (
	vk "github.com/goki/vulkan"
)

// VulkanContext holds everything created once per run.
type VulkanContext struct {
	Instance *Instance
	Surface  vk.Surface

	Devices []*PhysicalDeviceInfo
	Primary *PhysicalDeviceInfo
	Device  *LogicalDevice

	// Signaled by acquire, waited on by submit.
	ImageAvailable vk.Semaphore
	// Signaled by submit, waited on by present.
	RenderFinished vk.Semaphore

	// Nil while the surface has a zero-sized drawable.
	Chain *SwapchainChain
}

// SwapchainChain is everything that depends on the swapchain and is rebuilt
// together with it.
type SwapchainChain struct {
	Swapchain      *Swapchain
	RenderPass     *RenderPass
	Layout         vk.PipelineLayout
	Pipeline       *Pipeline
	Framebuffers   []*Framebuffer
	CommandPool    *CommandPool
	CommandBuffers []*CommandBuffer
}

func (c *SwapchainChain) Validate() error {
	return validateChain(c.Swapchain.ImageCount(), len(c.Framebuffers), len(c.CommandBuffers))
}

// resetSubmitted returns submitted buffers to the recorded state once the
// queue has drained.
func (c *SwapchainChain) resetSubmitted() {
	for _, cb := range c.CommandBuffers {
		if cb.State == COMMAND_BUFFER_STATE_SUBMITTED {
			cb.Reset()
		}
	}
}
