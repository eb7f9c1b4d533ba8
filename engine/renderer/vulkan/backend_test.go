package vulkan

import (
	"math"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireTimeout(t *testing.T) {
	assert.Equal(t, uint64(math.MaxUint64), acquireTimeout(0))
	assert.Equal(t, uint64(250_000_000), acquireTimeout(250))
	assert.Equal(t, uint64(math.MaxUint64), acquireTimeout(math.MaxUint64))
}

func TestBuildSubmitInfo(t *testing.T) {
	info := buildSubmitInfo(nil, vk.NullSemaphore, vk.NullSemaphore)

	assert.Equal(t, vk.StructureTypeSubmitInfo, info.SType)
	assert.Equal(t, uint32(1), info.WaitSemaphoreCount)
	assert.Equal(t, uint32(1), info.SignalSemaphoreCount)
	assert.Equal(t, uint32(1), info.CommandBufferCount)
	require.Len(t, info.PWaitDstStageMask, 1)
	assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit), info.PWaitDstStageMask[0])
}

// Without a swapchain chain every frame step asks for a rebuild.
func TestRendererWithoutChain(t *testing.T) {
	vr := New(core.DefaultConfig(), nil, nil)

	_, err := vr.AcquireNextImage()
	assert.ErrorIs(t, err, core.ErrSwapchainOutOfDate)
	assert.ErrorIs(t, vr.Submit(0), core.ErrSwapchainOutOfDate)
	assert.ErrorIs(t, vr.Present(0), core.ErrSwapchainOutOfDate)
	assert.Equal(t, 0, vr.ImageCount())
}

func TestRendererCommandBufferRange(t *testing.T) {
	vr := New(core.DefaultConfig(), nil, nil)
	vr.context.Chain = &SwapchainChain{
		Swapchain:      &Swapchain{Images: make([]vk.Image, 2)},
		CommandBuffers: []*CommandBuffer{{}, {}},
	}

	cb, err := vr.commandBuffer(1)
	require.NoError(t, err)
	assert.Same(t, vr.context.Chain.CommandBuffers[1], cb)

	_, err = vr.commandBuffer(2)
	assert.ErrorIs(t, err, core.ErrPresentation)
	assert.Equal(t, 2, vr.ImageCount())
}

func TestRendererShutdownWithoutInitialize(t *testing.T) {
	vr := New(core.DefaultConfig(), nil, nil)
	assert.NoError(t, vr.Shutdown())
	assert.NoError(t, vr.Shutdown())
}

// fakeDrawable reports sizes[i] after i waits, holding the last one.
type fakeDrawable struct {
	sizes   [][2]uint32
	waits   int
	closing bool
}

func (d *fakeDrawable) FramebufferSize() (uint32, uint32) {
	i := min(d.waits, len(d.sizes)-1)
	return d.sizes[i][0], d.sizes[i][1]
}

func (d *fakeDrawable) ShouldClose() bool {
	return d.closing
}

func (d *fakeDrawable) WaitEvents() {
	d.waits++
}

func TestDrawableSize(t *testing.T) {
	vr := New(core.DefaultConfig(), nil, nil)
	w, h := vr.drawableSize()
	assert.Equal(t, uint32(800), w)
	assert.Equal(t, uint32(600), h)

	vr.SetDrawable(&fakeDrawable{sizes: [][2]uint32{{1024, 768}}})
	w, h = vr.drawableSize()
	assert.Equal(t, uint32(1024), w)
	assert.Equal(t, uint32(768), h)
}

func TestWaitForDrawableBlocksWhileMinimized(t *testing.T) {
	drawable := &fakeDrawable{sizes: [][2]uint32{{0, 0}, {0, 600}, {640, 480}}}
	vr := New(core.DefaultConfig(), nil, nil)
	vr.SetDrawable(drawable)

	w, h := vr.waitForDrawable()
	assert.Equal(t, uint32(640), w)
	assert.Equal(t, uint32(480), h)
	assert.Equal(t, 2, drawable.waits)
}

func TestWaitForDrawableStopsWhenClosing(t *testing.T) {
	drawable := &fakeDrawable{sizes: [][2]uint32{{0, 0}}, closing: true}
	vr := New(core.DefaultConfig(), nil, nil)
	vr.SetDrawable(drawable)

	w, h := vr.waitForDrawable()
	assert.Zero(t, w)
	assert.Zero(t, h)
	assert.Zero(t, drawable.waits)
}
