package vulkan

import (
	"context"
	"errors"
	"fmt"

	"github.com/spaghettifunk/prism/engine/core"
)

// Window is the part of the windowing system the frame loop needs.
type Window interface {
	ShouldClose() bool
	PumpMessages()
}

// FrameDriver performs the native steps of one frame.
type FrameDriver interface {
	AcquireNextImage() (uint32, error)
	Submit(imageIndex uint32) error
	Present(imageIndex uint32) error
	WaitIdle() error
	Rebuild() error
}

type FrameState int

const (
	FrameStateIdle FrameState = iota
	FrameStateAcquiring
	FrameStateSubmitting
	FrameStatePresenting
)

func (s FrameState) String() string {
	switch s {
	case FrameStateIdle:
		return "idle"
	case FrameStateAcquiring:
		return "acquiring"
	case FrameStateSubmitting:
		return "submitting"
	case FrameStatePresenting:
		return "presenting"
	}
	return fmt.Sprintf("FrameState(%d)", int(s))
}

// FramePresenter runs acquire, submit, present and a queue-idle wait once per
// iteration. There is never more than one frame in flight.
type FramePresenter struct {
	window    Window
	driver    FrameDriver
	maxFrames uint64

	state    FrameState
	frames   uint64
	rebuilds uint64

	clock *core.Clock
	stats *core.FrameStats
}

// NewFramePresenter returns a presenter that stops after maxFrames presented
// frames, or never when maxFrames is zero.
func NewFramePresenter(window Window, driver FrameDriver, maxFrames uint64) *FramePresenter {
	return &FramePresenter{
		window:    window,
		driver:    driver,
		maxFrames: maxFrames,
		state:     FrameStateIdle,
		clock:     core.NewClock(),
		stats:     core.NewFrameStats(),
	}
}

func (fp *FramePresenter) State() FrameState {
	return fp.state
}

// Frames is the number of frames presented so far.
func (fp *FramePresenter) Frames() uint64 {
	return fp.frames
}

func (fp *FramePresenter) Rebuilds() uint64 {
	return fp.rebuilds
}

// Run loops until the window asks to close, ctx is done or the frame limit
// is reached. Cancellation is only observed between frames.
func (fp *FramePresenter) Run(ctx context.Context) error {
	core.LogInfo("Entering frame loop.")
	defer fp.clock.Stop()

	for {
		if fp.window.ShouldClose() {
			core.LogInfo("Window close requested after %d frames.", fp.frames)
			return nil
		}
		if err := ctx.Err(); err != nil {
			core.LogInfo("Frame loop cancelled after %d frames.", fp.frames)
			return nil
		}
		if fp.maxFrames > 0 && fp.frames >= fp.maxFrames {
			core.LogInfo("Frame limit of %d reached.", fp.maxFrames)
			return nil
		}

		fp.window.PumpMessages()

		fp.clock.Start()
		if err := fp.DrawFrame(); err != nil {
			return err
		}
		fp.clock.Update()

		if fp.stats.Update(fp.clock.Elapsed()) {
			core.LogDebug("FPS: %.0f, frame time: %.3fms", fp.stats.FPS(), fp.stats.FrameTime())
		}
	}
}

// DrawFrame runs one acquire, submit, present and idle cycle. A stale surface
// at acquire rebuilds and skips the frame; at present the image was already
// consumed, so the rebuild happens after the queue drains.
func (fp *FramePresenter) DrawFrame() error {
	defer func() { fp.state = FrameStateIdle }()

	fp.state = FrameStateAcquiring
	imageIndex, err := fp.driver.AcquireNextImage()
	if errors.Is(err, core.ErrSwapchainOutOfDate) {
		return fp.rebuild()
	}
	if err != nil {
		return presentationError("acquire", err)
	}

	fp.state = FrameStateSubmitting
	if err := fp.driver.Submit(imageIndex); err != nil {
		return presentationError("submit", err)
	}

	fp.state = FrameStatePresenting
	presentErr := fp.driver.Present(imageIndex)
	if presentErr != nil && !errors.Is(presentErr, core.ErrSwapchainOutOfDate) {
		return presentationError("present", presentErr)
	}

	if err := fp.driver.WaitIdle(); err != nil {
		return presentationError("wait idle", err)
	}
	fp.frames++

	if presentErr != nil {
		return fp.rebuild()
	}
	return nil
}

func (fp *FramePresenter) rebuild() error {
	core.LogDebug("Swapchain is stale, rebuilding.")
	fp.rebuilds++
	return fp.driver.Rebuild()
}

func presentationError(step string, err error) error {
	if errors.Is(err, core.ErrPresentation) {
		return fmt.Errorf("%s: %w", step, err)
	}
	return fmt.Errorf("%w: %s: %w", core.ErrPresentation, step, err)
}
