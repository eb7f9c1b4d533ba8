package vulkan

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/core"
)

type release struct {
	name string
	fn   func()
}

// releaseStack records a destroy function for every resource as it is
// created. Unwinding runs them newest first, so teardown is always the exact
// reverse of creation.
type releaseStack struct {
	entries []release
}

func (s *releaseStack) push(name string, fn func()) {
	s.entries = append(s.entries, release{name: name, fn: fn})
}

// mark returns a position that unwindTo can pop back to.
func (s *releaseStack) mark() int {
	return len(s.entries)
}

func (s *releaseStack) unwindTo(mark int) {
	if mark < 0 {
		mark = 0
	}
	for len(s.entries) > mark {
		last := s.entries[len(s.entries)-1]
		s.entries = s.entries[:len(s.entries)-1]
		core.LogDebug("Releasing %s.", last.name)
		last.fn()
	}
}

func (s *releaseStack) unwind() {
	s.unwindTo(0)
}

func (s *releaseStack) names() []string {
	names := make([]string, len(s.entries))
	for i, e := range s.entries {
		names[i] = e.name
	}
	return names
}

func (s *releaseStack) len() int {
	return len(s.entries)
}

// validateChain checks that every swapchain image has a framebuffer and a
// command buffer.
func validateChain(images, framebuffers, commandBuffers int) error {
	if images == 0 {
		return fmt.Errorf("%w: swapchain has no images", core.ErrSwapchainCreation)
	}
	if images != framebuffers || images != commandBuffers {
		return fmt.Errorf("%w: %d images, %d framebuffers, %d command buffers",
			core.ErrCommandRecording, images, framebuffers, commandBuffers)
	}
	return nil
}
