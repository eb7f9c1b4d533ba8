package vulkan

import (
	"fmt"
	"slices"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
)

type CommandBufferState int

const (
	COMMAND_BUFFER_STATE_READY CommandBufferState = iota
	COMMAND_BUFFER_STATE_RECORDING
	COMMAND_BUFFER_STATE_IN_RENDER_PASS
	COMMAND_BUFFER_STATE_RECORDING_ENDED
	COMMAND_BUFFER_STATE_SUBMITTED
	COMMAND_BUFFER_STATE_NOT_ALLOCATED
)

func (s CommandBufferState) String() string {
	switch s {
	case COMMAND_BUFFER_STATE_READY:
		return "ready"
	case COMMAND_BUFFER_STATE_RECORDING:
		return "recording"
	case COMMAND_BUFFER_STATE_IN_RENDER_PASS:
		return "in render pass"
	case COMMAND_BUFFER_STATE_RECORDING_ENDED:
		return "recording ended"
	case COMMAND_BUFFER_STATE_SUBMITTED:
		return "submitted"
	case COMMAND_BUFFER_STATE_NOT_ALLOCATED:
		return "not allocated"
	}
	return fmt.Sprintf("CommandBufferState(%d)", int(s))
}

type CommandBuffer struct {
	Handle vk.CommandBuffer
	// Command buffer state.
	State CommandBufferState
}

// CommandPool owns the command buffers recorded against one queue family.
type CommandPool struct {
	Handle      vk.CommandPool
	FamilyIndex uint32
	Buffers     []*CommandBuffer
}

func NewCommandPool(device *LogicalDevice, familyIndex uint32) (*CommandPool, error) {
	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: familyIndex,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}

	var handle vk.CommandPool
	if res := vk.CreateCommandPool(device.Handle, &poolCreateInfo, nil, &handle); res != vk.Success {
		err := resultError(core.ErrCommandRecording, "vkCreateCommandPool", res)
		core.LogError(err.Error())
		return nil, err
	}
	core.LogDebug("Graphics command pool created.")
	return &CommandPool{
		Handle:      handle,
		FamilyIndex: familyIndex,
	}, nil
}

// Allocate creates count primary command buffers in the ready state.
func (p *CommandPool) Allocate(device *LogicalDevice, count uint32) ([]*CommandBuffer, error) {
	if count == 0 {
		return nil, fmt.Errorf("%w: cannot allocate zero command buffers", core.ErrCommandRecording)
	}

	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        p.Handle,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	}

	handles := make([]vk.CommandBuffer, count)
	if res := vk.AllocateCommandBuffers(device.Handle, &allocateInfo, handles); res != vk.Success {
		err := resultError(core.ErrCommandRecording, "vkAllocateCommandBuffers", res)
		core.LogError(err.Error())
		return nil, err
	}

	buffers := make([]*CommandBuffer, count)
	for i, h := range handles {
		buffers[i] = &CommandBuffer{
			Handle: h,
			State:  COMMAND_BUFFER_STATE_READY,
		}
	}
	p.Buffers = append(p.Buffers, buffers...)
	return buffers, nil
}

// Free returns buffers to the pool and marks them not allocated.
func (p *CommandPool) Free(device *LogicalDevice, buffers []*CommandBuffer) {
	handles := make([]vk.CommandBuffer, 0, len(buffers))
	for _, cb := range buffers {
		if cb.Handle != nil {
			handles = append(handles, cb.Handle)
		}
		cb.Handle = nil
		cb.State = COMMAND_BUFFER_STATE_NOT_ALLOCATED
	}
	if len(handles) > 0 {
		vk.FreeCommandBuffers(device.Handle, p.Handle, uint32(len(handles)), handles)
	}
	p.Buffers = slices.DeleteFunc(p.Buffers, func(cb *CommandBuffer) bool {
		return slices.Contains(buffers, cb)
	})
}

// Destroy frees the pool together with every buffer allocated from it.
func (p *CommandPool) Destroy(device *LogicalDevice) {
	for _, cb := range p.Buffers {
		cb.Handle = nil
		cb.State = COMMAND_BUFFER_STATE_NOT_ALLOCATED
	}
	p.Buffers = nil
	if p.Handle != vk.NullCommandPool {
		vk.DestroyCommandPool(device.Handle, p.Handle, nil)
		p.Handle = vk.NullCommandPool
	}
}

func beginFlags(isSingleUse, isRenderpassContinue, isSimultaneousUse bool) vk.CommandBufferUsageFlags {
	var flags vk.CommandBufferUsageFlags
	if isSingleUse {
		flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	if isRenderpassContinue {
		flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageRenderPassContinueBit)
	}
	if isSimultaneousUse {
		flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageSimultaneousUseBit)
	}
	return flags
}

func (v *CommandBuffer) Begin(isSingleUse, isRenderpassContinue, isSimultaneousUse bool) error {
	if v.State != COMMAND_BUFFER_STATE_READY && v.State != COMMAND_BUFFER_STATE_RECORDING_ENDED {
		return fmt.Errorf("%w: cannot begin a command buffer that is %s", core.ErrCommandRecording, v.State)
	}

	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: beginFlags(isSingleUse, isRenderpassContinue, isSimultaneousUse),
	}

	if res := vk.BeginCommandBuffer(v.Handle, &beginInfo); res != vk.Success {
		err := resultError(core.ErrCommandRecording, "vkBeginCommandBuffer", res)
		core.LogError(err.Error())
		return err
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING
	return nil
}

func (v *CommandBuffer) End() error {
	if v.State != COMMAND_BUFFER_STATE_RECORDING {
		return fmt.Errorf("%w: cannot end a command buffer that is %s", core.ErrCommandRecording, v.State)
	}
	if res := vk.EndCommandBuffer(v.Handle); res != vk.Success {
		err := resultError(core.ErrCommandRecording, "vkEndCommandBuffer", res)
		core.LogError(err.Error())
		return err
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING_ENDED
	return nil
}

// UpdateSubmitted marks the buffer as handed to a queue. Pre-recorded
// buffers go back to RECORDING_ENDED once the queue is idle.
func (v *CommandBuffer) UpdateSubmitted() {
	v.State = COMMAND_BUFFER_STATE_SUBMITTED
}

func (v *CommandBuffer) Reset() {
	v.State = COMMAND_BUFFER_STATE_RECORDING_ENDED
}

// RecordTriangle records the whole frame into one buffer: clear, bind the
// pipeline and draw three vertices.
func RecordTriangle(cb *CommandBuffer, renderPass *RenderPass, framebuffer *Framebuffer, pipeline *Pipeline) error {
	if err := cb.Begin(false, false, true); err != nil {
		return err
	}
	renderPass.Begin(cb, framebuffer.Handle)
	pipeline.Bind(cb)
	vk.CmdDraw(cb.Handle, 3, 1, 0, 0)
	renderPass.End(cb)
	return cb.End()
}

// RecordAll pairs buffers and framebuffers by swapchain image index.
func RecordAll(buffers []*CommandBuffer, renderPass *RenderPass, framebuffers []*Framebuffer, pipeline *Pipeline) error {
	if len(buffers) != len(framebuffers) {
		return fmt.Errorf("%w: %d command buffers for %d framebuffers", core.ErrCommandRecording, len(buffers), len(framebuffers))
	}
	for i := range buffers {
		if err := RecordTriangle(buffers[i], renderPass, framebuffers[i], pipeline); err != nil {
			return fmt.Errorf("image %d: %w", i, err)
		}
	}
	core.LogDebug("Recorded %d command buffers.", len(buffers))
	return nil
}
