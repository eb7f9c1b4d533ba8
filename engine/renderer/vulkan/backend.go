package vulkan

import (
	"fmt"
	"math"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
)

// ShaderSource supplies SPIR-V words by path.
type ShaderSource interface {
	LoadShader(path string) ([]uint32, error)
}

// VulkanRenderer owns every native resource. It creates them in one fixed
// order and destroys them through a release stack in the reverse order.
type VulkanRenderer struct {
	config   core.Config
	provider SurfaceProvider
	shaders  ShaderSource

	context  *VulkanContext
	releases releaseStack
	// stack position below the swapchain chain
	chainMark int

	vertexCode   []uint32
	fragmentCode []uint32

	// nil sizes the swapchain from the configured window size
	drawable Drawable
}

func New(cfg core.Config, provider SurfaceProvider, shaders ShaderSource) *VulkanRenderer {
	return &VulkanRenderer{
		config:   cfg,
		provider: provider,
		shaders:  shaders,
		context:  &VulkanContext{},
	}
}

// SetDrawable tells the renderer where to read the drawable size from when
// it builds the swapchain chain.
func (vr *VulkanRenderer) SetDrawable(d Drawable) {
	vr.drawable = d
}

func (vr *VulkanRenderer) drawableSize() (uint32, uint32) {
	if vr.drawable == nil {
		return vr.config.Application.Width, vr.config.Application.Height
	}
	return vr.drawable.FramebufferSize()
}

// waitForDrawable blocks on window events while the drawable has no area,
// as happens when the window is minimized. It gives up with a zero size when
// the window is closing or there is nothing to wait on.
func (vr *VulkanRenderer) waitForDrawable() (uint32, uint32) {
	width, height := vr.drawableSize()
	for width == 0 || height == 0 {
		if vr.drawable == nil || vr.drawable.ShouldClose() {
			return width, height
		}
		vr.drawable.WaitEvents()
		width, height = vr.drawableSize()
	}
	return width, height
}

func (vr *VulkanRenderer) Initialize() error {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		err := fmt.Errorf("%w: GetInstanceProcAddress is nil", core.ErrInstanceCreation)
		core.LogError(err.Error())
		return err
	}
	vk.SetGetInstanceProcAddr(procAddr)

	if err := vk.Init(); err != nil {
		err = instanceLoadError("vk.Init", err)
		core.LogError(err.Error())
		return err
	}

	if err := vr.create(); err != nil {
		vr.releases.unwind()
		return err
	}

	core.LogInfo("Vulkan renderer initialized successfully.")
	return nil
}

// create runs the canonical creation order and records a release for each
// step. The caller unwinds on error.
func (vr *VulkanRenderer) create() error {
	var err error
	if vr.vertexCode, err = vr.shaders.LoadShader(vr.config.Shaders.Vertex); err != nil {
		return err
	}
	if vr.fragmentCode, err = vr.shaders.LoadShader(vr.config.Shaders.Fragment); err != nil {
		return err
	}

	ctx := vr.context

	instance, err := NewInstance(vr.config.Application.Name, vr.provider.RequiredInstanceExtensions(), vr.config.Renderer.Validation)
	if err != nil {
		return err
	}
	ctx.Instance = instance
	vr.releases.push("instance", instance.Destroy)

	if instance.Validation {
		if err := instance.EnableDiagnostics(); err != nil {
			return err
		}
		vr.releases.push("debug callback", instance.DisableDiagnostics)
	}

	surface, err := BindSurface(instance, vr.provider)
	if err != nil {
		return err
	}
	ctx.Surface = surface
	vr.releases.push("surface", func() {
		DestroySurface(instance, surface)
		ctx.Surface = vk.NullSurface
	})

	ctx.Devices, err = EnumeratePhysicalDevices(instance.Handle)
	if err != nil {
		return err
	}
	ctx.Primary, err = SelectPrimaryDevice(ctx.Devices)
	if err != nil {
		return err
	}

	device, err := NewLogicalDevice(ctx.Primary, surface)
	if err != nil {
		return err
	}
	ctx.Device = device
	vr.releases.push("logical device", device.Destroy)

	if ctx.ImageAvailable, err = device.NewSemaphore(); err != nil {
		return err
	}
	vr.releases.push("image available semaphore", func() {
		device.DestroySemaphore(ctx.ImageAvailable)
		ctx.ImageAvailable = vk.NullSemaphore
	})
	if ctx.RenderFinished, err = device.NewSemaphore(); err != nil {
		return err
	}
	vr.releases.push("render finished semaphore", func() {
		device.DestroySemaphore(ctx.RenderFinished)
		ctx.RenderFinished = vk.NullSemaphore
	})

	vr.chainMark = vr.releases.mark()
	width, height := vr.drawableSize()
	return vr.buildChain(width, height)
}

// buildChain creates the swapchain and everything sized or formatted by it.
func (vr *VulkanRenderer) buildChain(width, height uint32) error {
	ctx := vr.context
	device := ctx.Device

	support, err := QuerySwapchainSupport(ctx.Primary.Handle, ctx.Surface)
	if err != nil {
		core.LogError(err.Error())
		return err
	}
	settings, err := NegotiateSwapchain(support, SwapchainRequest{
		Width:  width,
		Height: height,
		VSync:  vr.config.Renderer.VSync,
		Gamma:  vr.config.Renderer.Gamma,
	})
	if err != nil {
		core.LogError(err.Error())
		return err
	}

	chain := &SwapchainChain{}

	swapchain, err := NewSwapchain(device, ctx.Surface, settings)
	if err != nil {
		return err
	}
	chain.Swapchain = swapchain
	vr.releases.push("swapchain", func() { swapchain.Destroy(device) })

	if err := swapchain.CreateViews(device); err != nil {
		return err
	}
	vr.releases.push("image views", func() { swapchain.DestroyViews(device) })

	renderPass, err := NewRenderPass(device, settings.Format.Format, settings.Extent, vr.config.Renderer.ClearColor)
	if err != nil {
		return err
	}
	chain.RenderPass = renderPass
	vr.releases.push("render pass", func() { renderPass.Destroy(device) })

	layout, err := NewPipelineLayout(device)
	if err != nil {
		return err
	}
	chain.Layout = layout
	vr.releases.push("pipeline layout", func() { DestroyPipelineLayout(device, layout) })

	pipeline, err := NewGraphicsPipeline(device, layout, renderPass, vr.vertexCode, vr.fragmentCode)
	if err != nil {
		return err
	}
	chain.Pipeline = pipeline
	vr.releases.push("pipeline", func() { pipeline.Destroy(device) })

	framebuffers, err := NewFramebuffers(device, renderPass, swapchain.Views, settings.Extent)
	if err != nil {
		return err
	}
	chain.Framebuffers = framebuffers
	vr.releases.push("framebuffers", func() { DestroyFramebuffers(device, framebuffers) })

	pool, err := NewCommandPool(device, device.Graphics.FamilyIndex)
	if err != nil {
		return err
	}
	chain.CommandPool = pool
	vr.releases.push("command pool", func() { pool.Destroy(device) })

	buffers, err := pool.Allocate(device, uint32(swapchain.ImageCount()))
	if err != nil {
		return err
	}
	chain.CommandBuffers = buffers
	vr.releases.push("command buffers", func() { pool.Free(device, buffers) })

	if err := RecordAll(buffers, renderPass, framebuffers, pipeline); err != nil {
		core.LogError(err.Error())
		return err
	}
	if err := chain.Validate(); err != nil {
		core.LogError(err.Error())
		return err
	}

	ctx.Chain = chain
	return nil
}

// acquireTimeout converts the configured milliseconds to nanoseconds. Zero
// waits forever.
func acquireTimeout(ms uint64) uint64 {
	if ms == 0 || ms > math.MaxUint64/uint64(1e6) {
		return math.MaxUint64
	}
	return ms * uint64(1e6)
}

func (vr *VulkanRenderer) AcquireNextImage() (uint32, error) {
	chain := vr.context.Chain
	if chain == nil {
		return 0, core.ErrSwapchainOutOfDate
	}
	return chain.Swapchain.AcquireNextImage(
		vr.context.Device,
		acquireTimeout(vr.config.Renderer.AcquireTimeoutMS),
		vr.context.ImageAvailable)
}

func buildSubmitInfo(commandBuffer vk.CommandBuffer, wait, signal vk.Semaphore) vk.SubmitInfo {
	return vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{wait},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{commandBuffer},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{signal},
	}
}

func (vr *VulkanRenderer) commandBuffer(imageIndex uint32) (*CommandBuffer, error) {
	chain := vr.context.Chain
	if chain == nil {
		return nil, core.ErrSwapchainOutOfDate
	}
	if int(imageIndex) >= len(chain.CommandBuffers) {
		return nil, fmt.Errorf("%w: image index %d out of range (%d images)", core.ErrPresentation, imageIndex, len(chain.CommandBuffers))
	}
	return chain.CommandBuffers[imageIndex], nil
}

// Submit queues the pre-recorded buffer for imageIndex on the graphics queue.
func (vr *VulkanRenderer) Submit(imageIndex uint32) error {
	cb, err := vr.commandBuffer(imageIndex)
	if err != nil {
		return err
	}

	submitInfo := buildSubmitInfo(cb.Handle, vr.context.ImageAvailable, vr.context.RenderFinished)
	if res := vk.QueueSubmit(vr.context.Device.Graphics.Handle, 1, []vk.SubmitInfo{submitInfo}, vk.NullFence); res != vk.Success {
		err := resultError(core.ErrPresentation, "vkQueueSubmit", res)
		core.LogError(err.Error())
		return err
	}
	cb.UpdateSubmitted()
	return nil
}

func (vr *VulkanRenderer) Present(imageIndex uint32) error {
	chain := vr.context.Chain
	if chain == nil {
		return core.ErrSwapchainOutOfDate
	}
	return chain.Swapchain.Present(vr.context.Device.Graphics, imageIndex, vr.context.RenderFinished)
}

// WaitIdle blocks until the graphics queue has drained.
func (vr *VulkanRenderer) WaitIdle() error {
	if err := vr.context.Device.Graphics.WaitIdle(); err != nil {
		core.LogError(err.Error())
		return err
	}
	if vr.context.Chain != nil {
		vr.context.Chain.resetSubmitted()
	}
	return nil
}

// Rebuild pops the swapchain chain off the release stack and creates it again
// for the current drawable size, waiting out a minimized window. If the
// window closes while minimized no chain is left; the next acquire asks for
// another rebuild.
func (vr *VulkanRenderer) Rebuild() error {
	if err := vr.context.Device.WaitIdle(); err != nil {
		core.LogError(err.Error())
		return err
	}

	vr.releases.unwindTo(vr.chainMark)
	vr.context.Chain = nil

	width, height := vr.waitForDrawable()
	if width == 0 || height == 0 {
		core.LogDebug("Drawable is %dx%d, postponing swapchain rebuild.", width, height)
		return nil
	}

	core.LogInfo("Rebuilding swapchain for %dx%d...", width, height)
	return vr.buildChain(width, height)
}

func (vr *VulkanRenderer) ImageCount() int {
	if vr.context.Chain == nil {
		return 0
	}
	return vr.context.Chain.Swapchain.ImageCount()
}

// Shutdown waits for the device and releases everything that was created,
// newest first. It is safe after a failed Initialize.
func (vr *VulkanRenderer) Shutdown() error {
	var err error
	if vr.context.Device != nil && vr.context.Device.Handle != nil {
		err = vr.context.Device.WaitIdle()
		if err != nil {
			core.LogWarn("Waiting for the device before shutdown failed: %s", err)
		}
	}
	vr.releases.unwind()
	vr.context = &VulkanContext{}
	core.LogInfo("Vulkan renderer shut down.")
	return err
}
