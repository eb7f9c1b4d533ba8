package vulkan

import (
	"fmt"
	"math"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
	pmath "github.com/spaghettifunk/prism/engine/math"
)

// Preferred surface formats, most wanted first.
var (
	unormFormats = []vk.Format{
		vk.FormatR8g8b8a8Unorm,
		vk.FormatB8g8r8a8Unorm,
		vk.FormatA8b8g8r8UnormPack32,
		vk.FormatR8g8b8Unorm,
		vk.FormatB8g8r8Unorm,
	}
	srgbFormats = []vk.Format{
		vk.FormatR8g8b8a8Srgb,
		vk.FormatB8g8r8a8Srgb,
		vk.FormatA8b8g8r8SrgbPack32,
		vk.FormatR8g8b8Srgb,
		vk.FormatB8g8r8Srgb,
	}
)

// SwapchainSupport is what a surface reports for the primary device.
type SwapchainSupport struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// SwapchainRequest carries the caller's wishes into negotiation.
type SwapchainRequest struct {
	Width  uint32
	Height uint32
	VSync  bool
	Gamma  bool
}

// SwapchainSettings is the negotiated outcome used to create the swapchain.
type SwapchainSettings struct {
	Extent      vk.Extent2D
	Format      vk.SurfaceFormat
	PresentMode vk.PresentMode
	ImageCount  uint32
	Transform   vk.SurfaceTransformFlagBits
}

func QuerySwapchainSupport(physicalDevice vk.PhysicalDevice, surface vk.Surface) (SwapchainSupport, error) {
	support := SwapchainSupport{}

	if res := vk.GetPhysicalDeviceSurfaceCapabilities(physicalDevice, surface, &support.Capabilities); res != vk.Success {
		return support, resultError(core.ErrSwapchainCreation, "vkGetPhysicalDeviceSurfaceCapabilities", res)
	}
	support.Capabilities.Deref()
	support.Capabilities.CurrentExtent.Deref()
	support.Capabilities.MinImageExtent.Deref()
	support.Capabilities.MaxImageExtent.Deref()

	var formatCount uint32
	if res := vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &formatCount, nil); res != vk.Success {
		return support, resultError(core.ErrSwapchainCreation, "vkGetPhysicalDeviceSurfaceFormats", res)
	}
	if formatCount != 0 {
		support.Formats = make([]vk.SurfaceFormat, formatCount)
		if res := vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &formatCount, support.Formats); res != vk.Success {
			return support, resultError(core.ErrSwapchainCreation, "vkGetPhysicalDeviceSurfaceFormats", res)
		}
		for i := range support.Formats {
			support.Formats[i].Deref()
		}
	}

	var modeCount uint32
	if res := vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &modeCount, nil); res != vk.Success {
		return support, resultError(core.ErrSwapchainCreation, "vkGetPhysicalDeviceSurfacePresentModes", res)
	}
	if modeCount != 0 {
		support.PresentModes = make([]vk.PresentMode, modeCount)
		if res := vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &modeCount, support.PresentModes); res != vk.Success {
			return support, resultError(core.ErrSwapchainCreation, "vkGetPhysicalDeviceSurfacePresentModes", res)
		}
	}
	return support, nil
}

// ChooseSwapchainExtent uses the surface's current extent unless the surface
// lets the swapchain decide, in which case the request is clamped into the
// supported range.
func ChooseSwapchainExtent(caps vk.SurfaceCapabilities, width, height uint32) vk.Extent2D {
	if caps.CurrentExtent.Width != math.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  pmath.Clamp(width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: pmath.Clamp(height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// ChoosePresentMode prefers mailbox with vsync, and immediate then relaxed
// FIFO without it. FIFO is always available.
func ChoosePresentMode(modes []vk.PresentMode, vsync bool) vk.PresentMode {
	preferred := []vk.PresentMode{vk.PresentModeMailbox}
	if !vsync {
		preferred = []vk.PresentMode{vk.PresentModeImmediate, vk.PresentModeFifoRelaxed}
	}
	for _, want := range preferred {
		for _, mode := range modes {
			if mode == want {
				return mode
			}
		}
	}
	return vk.PresentModeFifo
}

// ChooseSurfaceFormat picks the color format. The boolean reports that gamma
// correct output was requested but no sRGB format could be used.
func ChooseSurfaceFormat(formats []vk.SurfaceFormat, gamma bool) (vk.SurfaceFormat, bool) {
	if len(formats) == 0 {
		return vk.SurfaceFormat{}, false
	}

	if len(formats) == 1 && formats[0].Format == vk.FormatUndefined {
		format := vk.FormatB8g8r8a8Unorm
		if gamma {
			format = vk.FormatR8g8b8a8Srgb
		}
		return vk.SurfaceFormat{Format: format, ColorSpace: formats[0].ColorSpace}, false
	}

	preferred := unormFormats
	if gamma {
		preferred = srgbFormats
	}
	for _, want := range preferred {
		for _, f := range formats {
			if f.Format == want {
				return f, false
			}
		}
	}
	return formats[0], gamma
}

func ChooseTransform(caps vk.SurfaceCapabilities) vk.SurfaceTransformFlagBits {
	if vk.SurfaceTransformFlagBits(caps.SupportedTransforms)&vk.SurfaceTransformIdentityBit != 0 {
		return vk.SurfaceTransformIdentityBit
	}
	return caps.CurrentTransform
}

// NegotiateSwapchain resolves every swapchain setting from the surface
// support and the request.
func NegotiateSwapchain(support SwapchainSupport, req SwapchainRequest) (SwapchainSettings, error) {
	if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		return SwapchainSettings{}, fmt.Errorf("%w: surface reports no formats or present modes", core.ErrSwapchainCreation)
	}

	format, gammaFallback := ChooseSurfaceFormat(support.Formats, req.Gamma)
	if gammaFallback {
		core.LogWarn("No sRGB surface format available, colors will not be gamma corrected (using format %d).", format.Format)
	}

	return SwapchainSettings{
		Extent:      ChooseSwapchainExtent(support.Capabilities, req.Width, req.Height),
		Format:      format,
		PresentMode: ChoosePresentMode(support.PresentModes, req.VSync),
		ImageCount:  support.Capabilities.MinImageCount,
		Transform:   ChooseTransform(support.Capabilities),
	}, nil
}

// Swapchain is the ring of presentable images and one view per image.
type Swapchain struct {
	Handle   vk.Swapchain
	Settings SwapchainSettings
	Images   []vk.Image
	Views    []vk.ImageView
}

func (s *Swapchain) ImageCount() int {
	return len(s.Images)
}

// NewSwapchain creates the swapchain on the graphics family with exclusive
// sharing and fetches its images. Views are created by CreateViews.
func NewSwapchain(device *LogicalDevice, surface vk.Surface, settings SwapchainSettings) (*Swapchain, error) {
	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          surface,
		MinImageCount:    settings.ImageCount,
		ImageFormat:      settings.Format.Format,
		ImageColorSpace:  settings.Format.ColorSpace,
		ImageExtent:      settings.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     settings.Transform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      settings.PresentMode,
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}

	var handle vk.Swapchain
	if res := vk.CreateSwapchain(device.Handle, &swapchainCreateInfo, nil, &handle); res != vk.Success {
		err := resultError(core.ErrSwapchainCreation, "vkCreateSwapchain", res)
		core.LogError(err.Error())
		return nil, err
	}
	swapchain := &Swapchain{
		Handle:   handle,
		Settings: settings,
	}

	var imageCount uint32
	if res := vk.GetSwapchainImages(device.Handle, handle, &imageCount, nil); res != vk.Success {
		swapchain.Destroy(device)
		return nil, resultError(core.ErrSwapchainCreation, "vkGetSwapchainImages", res)
	}
	swapchain.Images = make([]vk.Image, imageCount)
	if res := vk.GetSwapchainImages(device.Handle, handle, &imageCount, swapchain.Images); res != vk.Success {
		swapchain.Destroy(device)
		return nil, resultError(core.ErrSwapchainCreation, "vkGetSwapchainImages", res)
	}

	core.LogInfo("Swapchain created: %dx%d, %d images, present mode %d.",
		settings.Extent.Width, settings.Extent.Height, imageCount, settings.PresentMode)
	return swapchain, nil
}

// CreateViews creates one 2D color view per swapchain image. On failure the
// views created so far are destroyed.
func (s *Swapchain) CreateViews(device *LogicalDevice) error {
	s.Views = make([]vk.ImageView, 0, len(s.Images))
	for _, image := range s.Images {
		viewInfo := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    image,
			ViewType: vk.ImageViewType2d,
			Format:   s.Settings.Format.Format,
			Components: vk.ComponentMapping{
				R: vk.ComponentSwizzleIdentity,
				G: vk.ComponentSwizzleIdentity,
				B: vk.ComponentSwizzleIdentity,
				A: vk.ComponentSwizzleIdentity,
			},
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}

		var view vk.ImageView
		if res := vk.CreateImageView(device.Handle, &viewInfo, nil, &view); res != vk.Success {
			s.DestroyViews(device)
			err := resultError(core.ErrSwapchainCreation, "vkCreateImageView", res)
			core.LogError(err.Error())
			return err
		}
		s.Views = append(s.Views, view)
	}
	return nil
}

// DestroyViews releases the views only. The images belong to the swapchain.
func (s *Swapchain) DestroyViews(device *LogicalDevice) {
	for _, view := range s.Views {
		vk.DestroyImageView(device.Handle, view, nil)
	}
	s.Views = nil
}

func (s *Swapchain) Destroy(device *LogicalDevice) {
	if s.Handle != vk.NullSwapchain {
		vk.DestroySwapchain(device.Handle, s.Handle, nil)
		s.Handle = vk.NullSwapchain
	}
	s.Images = nil
}

// AcquireNextImage signals semaphore once the returned image is ready.
// A stale surface yields ErrSwapchainOutOfDate.
func (s *Swapchain) AcquireNextImage(device *LogicalDevice, timeoutNS uint64, semaphore vk.Semaphore) (uint32, error) {
	var imageIndex uint32
	res := vk.AcquireNextImage(device.Handle, s.Handle, timeoutNS, semaphore, vk.NullFence, &imageIndex)
	if err := acquireResultError(res, timeoutNS); err != nil {
		return 0, err
	}
	return imageIndex, nil
}

// acquireResultError maps the acquire result. Suboptimal still hands out a
// usable image.
func acquireResultError(res vk.Result, timeoutNS uint64) error {
	switch {
	case res == vk.ErrorOutOfDate:
		return core.ErrSwapchainOutOfDate
	case res == vk.Timeout, res == vk.NotReady:
		return fmt.Errorf("%w: no swapchain image became available within %dns", core.ErrPresentation, timeoutNS)
	case VulkanResultIsSuccess(res):
		return nil
	}
	return resultError(core.ErrPresentation, "vkAcquireNextImage", res)
}

func buildPresentInfo(swapchain vk.Swapchain, imageIndex uint32, wait vk.Semaphore) vk.PresentInfo {
	return vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{wait},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{swapchain},
		PImageIndices:      []uint32{imageIndex},
	}
}

// Present queues imageIndex for display once wait is signaled. Out-of-date
// and suboptimal both report ErrSwapchainOutOfDate; the image was still
// queued in the suboptimal case.
func (s *Swapchain) Present(queue *Queue, imageIndex uint32, wait vk.Semaphore) error {
	presentInfo := buildPresentInfo(s.Handle, imageIndex, wait)
	return presentResultError(vk.QueuePresent(queue.Handle, &presentInfo))
}

func presentResultError(res vk.Result) error {
	switch {
	case res == vk.ErrorOutOfDate, res == vk.Suboptimal:
		return core.ErrSwapchainOutOfDate
	case VulkanResultIsSuccess(res):
		return nil
	}
	return resultError(core.ErrPresentation, "vkQueuePresent", res)
}
