package vulkan

import (
	"math"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func anyExtentCaps(maxW, maxH uint32) vk.SurfaceCapabilities {
	return vk.SurfaceCapabilities{
		MinImageCount:       2,
		MaxImageCount:       8,
		CurrentExtent:       vk.Extent2D{Width: math.MaxUint32, Height: math.MaxUint32},
		MinImageExtent:      vk.Extent2D{Width: 1, Height: 1},
		MaxImageExtent:      vk.Extent2D{Width: maxW, Height: maxH},
		SupportedTransforms: vk.SurfaceTransformFlags(vk.SurfaceTransformIdentityBit),
		CurrentTransform:    vk.SurfaceTransformIdentityBit,
	}
}

func TestChooseSwapchainExtent(t *testing.T) {
	assert.Equal(t, vk.Extent2D{Width: 800, Height: 600}, ChooseSwapchainExtent(anyExtentCaps(4096, 4096), 800, 600))
	assert.Equal(t, vk.Extent2D{Width: 640, Height: 480}, ChooseSwapchainExtent(anyExtentCaps(640, 480), 800, 600))

	caps := anyExtentCaps(4096, 4096)
	caps.MinImageExtent = vk.Extent2D{Width: 100, Height: 100}
	assert.Equal(t, vk.Extent2D{Width: 100, Height: 600}, ChooseSwapchainExtent(caps, 10, 600))

	// the current extent wins when it is not the sentinel
	caps.CurrentExtent = vk.Extent2D{Width: 1024, Height: 768}
	assert.Equal(t, vk.Extent2D{Width: 1024, Height: 768}, ChooseSwapchainExtent(caps, 800, 600))
}

func TestChoosePresentMode(t *testing.T) {
	tests := []struct {
		name  string
		modes []vk.PresentMode
		vsync bool
		want  vk.PresentMode
	}{
		{"vsync mailbox", []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox}, true, vk.PresentModeMailbox},
		{"vsync fifo only", []vk.PresentMode{vk.PresentModeFifo}, true, vk.PresentModeFifo},
		{"vsync ignores immediate", []vk.PresentMode{vk.PresentModeImmediate, vk.PresentModeFifo}, true, vk.PresentModeFifo},
		{"no vsync immediate", []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeImmediate}, false, vk.PresentModeImmediate},
		{"no vsync relaxed", []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeFifoRelaxed}, false, vk.PresentModeFifoRelaxed},
		{"no vsync immediate before relaxed", []vk.PresentMode{vk.PresentModeFifoRelaxed, vk.PresentModeImmediate}, false, vk.PresentModeImmediate},
		{"no vsync fifo only", []vk.PresentMode{vk.PresentModeFifo}, false, vk.PresentModeFifo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ChoosePresentMode(tt.modes, tt.vsync))
		})
	}
}

func TestChooseSurfaceFormatUndefined(t *testing.T) {
	formats := []vk.SurfaceFormat{{Format: vk.FormatUndefined, ColorSpace: vk.ColorSpaceSrgbNonlinear}}

	f, fallback := ChooseSurfaceFormat(formats, false)
	assert.False(t, fallback)
	assert.Equal(t, vk.FormatB8g8r8a8Unorm, f.Format)
	assert.Equal(t, vk.ColorSpaceSrgbNonlinear, f.ColorSpace)

	f, fallback = ChooseSurfaceFormat(formats, true)
	assert.False(t, fallback)
	assert.Contains(t, srgbFormats, f.Format)
	assert.Equal(t, vk.ColorSpaceSrgbNonlinear, f.ColorSpace)
}

func TestChooseSurfaceFormatPreference(t *testing.T) {
	x := vk.SurfaceFormat{Format: vk.FormatR32Sfloat, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	y := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	z := vk.SurfaceFormat{Format: vk.FormatR32g32b32a32Sfloat, ColorSpace: vk.ColorSpaceSrgbNonlinear}

	f, fallback := ChooseSurfaceFormat([]vk.SurfaceFormat{x, y, z}, false)
	assert.Equal(t, y, f)
	assert.False(t, fallback)

	f, fallback = ChooseSurfaceFormat([]vk.SurfaceFormat{x, z}, false)
	assert.Equal(t, x, f)
	assert.False(t, fallback)

	// gamma requested but nothing sRGB on offer
	f, fallback = ChooseSurfaceFormat([]vk.SurfaceFormat{x, y, z}, true)
	assert.Equal(t, x, f)
	assert.True(t, fallback)

	// list order decides, not surface order
	srgb := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	rgba := vk.SurfaceFormat{Format: vk.FormatR8g8b8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	f, fallback = ChooseSurfaceFormat([]vk.SurfaceFormat{srgb, rgba}, true)
	assert.Equal(t, rgba, f)
	assert.False(t, fallback)
}

func TestChooseTransform(t *testing.T) {
	caps := anyExtentCaps(4096, 4096)
	assert.Equal(t, vk.SurfaceTransformIdentityBit, ChooseTransform(caps))

	caps.SupportedTransforms = vk.SurfaceTransformFlags(vk.SurfaceTransformRotate90Bit)
	caps.CurrentTransform = vk.SurfaceTransformRotate90Bit
	assert.Equal(t, vk.SurfaceTransformRotate90Bit, ChooseTransform(caps))
}

func TestNegotiateSwapchain(t *testing.T) {
	support := SwapchainSupport{
		Capabilities: anyExtentCaps(4096, 4096),
		Formats: []vk.SurfaceFormat{
			{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		},
		PresentModes: []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox},
	}

	settings, err := NegotiateSwapchain(support, SwapchainRequest{Width: 800, Height: 600, VSync: true})
	require.NoError(t, err)
	assert.Equal(t, vk.Extent2D{Width: 800, Height: 600}, settings.Extent)
	assert.Equal(t, vk.FormatB8g8r8a8Unorm, settings.Format.Format)
	assert.Equal(t, vk.PresentModeMailbox, settings.PresentMode)
	assert.Equal(t, uint32(2), settings.ImageCount)
	assert.Equal(t, vk.SurfaceTransformIdentityBit, settings.Transform)

	support.PresentModes = nil
	_, err = NegotiateSwapchain(support, SwapchainRequest{Width: 800, Height: 600})
	assert.ErrorIs(t, err, core.ErrSwapchainCreation)
}

func TestBuildPresentInfo(t *testing.T) {
	info := buildPresentInfo(vk.NullSwapchain, 2, vk.NullSemaphore)
	assert.Equal(t, vk.StructureTypePresentInfo, info.SType)
	assert.Equal(t, uint32(1), info.WaitSemaphoreCount)
	assert.Equal(t, uint32(1), info.SwapchainCount)
	assert.Equal(t, []uint32{2}, info.PImageIndices)
}

func TestAcquireResultError(t *testing.T) {
	assert.NoError(t, acquireResultError(vk.Success, 0))
	assert.NoError(t, acquireResultError(vk.Suboptimal, 0))
	assert.ErrorIs(t, acquireResultError(vk.ErrorOutOfDate, 0), core.ErrSwapchainOutOfDate)

	err := acquireResultError(vk.Timeout, 1_000_000)
	assert.ErrorIs(t, err, core.ErrPresentation)
	assert.Contains(t, err.Error(), "1000000ns")

	err = acquireResultError(vk.ErrorSurfaceLost, 0)
	assert.ErrorIs(t, err, core.ErrPresentation)
	assert.NotErrorIs(t, err, core.ErrSwapchainOutOfDate)
	assert.Contains(t, err.Error(), "VK_ERROR_SURFACE_LOST_KHR")

	// unnamed negative codes are failures, not images
	assert.ErrorIs(t, acquireResultError(vk.Result(-12345), 0), core.ErrPresentation)
}

func TestPresentResultError(t *testing.T) {
	assert.NoError(t, presentResultError(vk.Success))
	assert.ErrorIs(t, presentResultError(vk.Suboptimal), core.ErrSwapchainOutOfDate)
	assert.ErrorIs(t, presentResultError(vk.ErrorOutOfDate), core.ErrSwapchainOutOfDate)
	assert.ErrorIs(t, presentResultError(vk.ErrorDeviceLost), core.ErrPresentation)
	assert.ErrorIs(t, presentResultError(vk.Result(-12345)), core.ErrPresentation)
}

func TestVulkanResultIsSuccess(t *testing.T) {
	assert.True(t, VulkanResultIsSuccess(vk.Success))
	assert.True(t, VulkanResultIsSuccess(vk.Suboptimal))
	assert.False(t, VulkanResultIsSuccess(vk.ErrorOutOfDate))
	assert.False(t, VulkanResultIsSuccess(vk.Result(-12345)))
	assert.True(t, VulkanResultIsSuccess(vk.Result(12345)))
}
