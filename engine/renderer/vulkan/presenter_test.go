package vulkan

import (
	"context"
	"errors"
	"testing"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWindow struct {
	closeAfter int
	polls      int
}

func (w *fakeWindow) ShouldClose() bool {
	return w.closeAfter >= 0 && w.polls >= w.closeAfter
}

func (w *fakeWindow) PumpMessages() {
	w.polls++
}

type call struct {
	op    string
	index uint32
}

// fakeDriver hands out image indices round robin and records every call.
type fakeDriver struct {
	images uint32
	next   uint32
	calls  []call

	acquireErrs []error
	presentErrs []error
	submitErr   error

	onCall func(op string)
}

func (d *fakeDriver) record(op string, index uint32) {
	d.calls = append(d.calls, call{op: op, index: index})
	if d.onCall != nil {
		d.onCall(op)
	}
}

func pop(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}

func (d *fakeDriver) AcquireNextImage() (uint32, error) {
	if err := pop(&d.acquireErrs); err != nil {
		d.record("acquire-failed", 0)
		return 0, err
	}
	idx := d.next
	d.next = (d.next + 1) % d.images
	d.record("acquire", idx)
	return idx, nil
}

func (d *fakeDriver) Submit(imageIndex uint32) error {
	d.record("submit", imageIndex)
	return d.submitErr
}

func (d *fakeDriver) Present(imageIndex uint32) error {
	d.record("present", imageIndex)
	return pop(&d.presentErrs)
}

func (d *fakeDriver) WaitIdle() error {
	d.record("wait", 0)
	return nil
}

func (d *fakeDriver) Rebuild() error {
	d.record("rebuild", 0)
	return nil
}

func (d *fakeDriver) ops() []string {
	out := make([]string, len(d.calls))
	for i, c := range d.calls {
		out[i] = c.op
	}
	return out
}

func (d *fakeDriver) count(op string) int {
	n := 0
	for _, c := range d.calls {
		if c.op == op {
			n++
		}
	}
	return n
}

func TestPresenterRunsExactFrames(t *testing.T) {
	const numFrames = 7
	driver := &fakeDriver{images: 3}
	window := &fakeWindow{closeAfter: -1}

	fp := NewFramePresenter(window, driver, numFrames)
	require.NoError(t, fp.Run(context.Background()))

	assert.Equal(t, uint64(numFrames), fp.Frames())
	assert.Equal(t, numFrames, driver.count("acquire"))
	assert.Equal(t, numFrames, driver.count("submit"))
	assert.Equal(t, numFrames, driver.count("present"))
	assert.Equal(t, numFrames, driver.count("wait"))
	assert.Equal(t, numFrames, window.polls)
	assert.Equal(t, FrameStateIdle, fp.State())

	// each frame is acquire, submit, present, wait on the same index
	require.Len(t, driver.calls, 4*numFrames)
	for f := 0; f < numFrames; f++ {
		frame := driver.calls[4*f : 4*f+4]
		assert.Equal(t, []string{"acquire", "submit", "present", "wait"},
			[]string{frame[0].op, frame[1].op, frame[2].op, frame[3].op})
		assert.Equal(t, frame[0].index, frame[1].index, "frame %d submit index", f)
		assert.Equal(t, frame[0].index, frame[2].index, "frame %d present index", f)
		assert.Equal(t, uint32(f%3), frame[0].index)
	}
}

func TestPresenterStopsOnWindowClose(t *testing.T) {
	driver := &fakeDriver{images: 2}
	window := &fakeWindow{closeAfter: 4}

	fp := NewFramePresenter(window, driver, 0)
	require.NoError(t, fp.Run(context.Background()))
	assert.Equal(t, uint64(4), fp.Frames())
}

func TestPresenterStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	driver := &fakeDriver{images: 2}
	// cancel mid-frame, the frame still completes
	driver.onCall = func(op string) {
		if op == "submit" && driver.count("submit") == 3 {
			cancel()
		}
	}

	fp := NewFramePresenter(&fakeWindow{closeAfter: -1}, driver, 0)
	require.NoError(t, fp.Run(ctx))
	assert.Equal(t, uint64(3), fp.Frames())
	assert.Equal(t, 3, driver.count("present"))
	assert.Equal(t, 3, driver.count("wait"))
}

func TestPresenterTracksState(t *testing.T) {
	driver := &fakeDriver{images: 2}
	fp := NewFramePresenter(&fakeWindow{closeAfter: -1}, driver, 1)

	seen := map[string]FrameState{}
	driver.onCall = func(op string) {
		seen[op] = fp.State()
	}
	require.NoError(t, fp.DrawFrame())

	assert.Equal(t, FrameStateAcquiring, seen["acquire"])
	assert.Equal(t, FrameStateSubmitting, seen["submit"])
	assert.Equal(t, FrameStatePresenting, seen["present"])
	assert.Equal(t, FrameStateIdle, fp.State())
}

func TestPresenterRebuildsOnStaleAcquire(t *testing.T) {
	driver := &fakeDriver{images: 2, acquireErrs: []error{core.ErrSwapchainOutOfDate}}
	fp := NewFramePresenter(&fakeWindow{closeAfter: -1}, driver, 2)

	require.NoError(t, fp.Run(context.Background()))
	assert.Equal(t, []string{
		"acquire-failed", "rebuild",
		"acquire", "submit", "present", "wait",
		"acquire", "submit", "present", "wait",
	}, driver.ops())
	assert.Equal(t, uint64(1), fp.Rebuilds())
	assert.Equal(t, uint64(2), fp.Frames())
}

func TestPresenterRebuildsAfterStalePresent(t *testing.T) {
	driver := &fakeDriver{images: 2, presentErrs: []error{core.ErrSwapchainOutOfDate}}
	fp := NewFramePresenter(&fakeWindow{closeAfter: -1}, driver, 2)

	require.NoError(t, fp.Run(context.Background()))
	assert.Equal(t, []string{
		"acquire", "submit", "present", "wait", "rebuild",
		"acquire", "submit", "present", "wait",
	}, driver.ops())
	assert.Equal(t, uint64(1), fp.Rebuilds())
}

func TestPresenterFailures(t *testing.T) {
	boom := errors.New("boom")

	driver := &fakeDriver{images: 2, submitErr: boom}
	err := NewFramePresenter(&fakeWindow{closeAfter: -1}, driver, 0).Run(context.Background())
	assert.ErrorIs(t, err, core.ErrPresentation)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, driver.count("present"))

	driver = &fakeDriver{images: 2, presentErrs: []error{boom}}
	err = NewFramePresenter(&fakeWindow{closeAfter: -1}, driver, 0).Run(context.Background())
	assert.ErrorIs(t, err, core.ErrPresentation)
	assert.Equal(t, 0, driver.count("wait"))

	wrapped := resultError(core.ErrPresentation, "vkAcquireNextImage", 0)
	driver = &fakeDriver{images: 2, acquireErrs: []error{wrapped}}
	err = NewFramePresenter(&fakeWindow{closeAfter: -1}, driver, 0).Run(context.Background())
	assert.ErrorIs(t, err, core.ErrPresentation)
	assert.Equal(t, 0, driver.count("submit"))
}

func TestFrameStateString(t *testing.T) {
	assert.Equal(t, "presenting", FrameStatePresenting.String())
	assert.Equal(t, "FrameState(9)", FrameState(9).String())
}
