package engine

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.Application.Width = 0

	_, err := New(cfg)
	assert.ErrorIs(t, err, core.ErrConfig)
}

func TestNewAssignsSession(t *testing.T) {
	e, err := New(core.DefaultConfig())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, e.SessionID())
	assert.Equal(t, EngineStageUninitialized, e.Stage())
	w, h := e.FramebufferSize()
	assert.Equal(t, uint32(800), w)
	assert.Equal(t, uint32(600), h)
}

func TestEscapeRequestsQuit(t *testing.T) {
	e, err := New(core.DefaultConfig())
	require.NoError(t, err)

	require.True(t, core.EventSystemInitialize())
	defer core.EventSystemShutdown()
	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e.onEvent)
	core.EventRegister(core.EVENT_CODE_KEY_PRESSED, e.onKey)

	assert.False(t, e.quitRequested.Load())
	assert.False(t, core.EventFire(core.EventContext{Type: core.EVENT_CODE_KEY_PRESSED, Data: &core.KeyEvent{KeyCode: core.KEY_SPACE}}))
	assert.False(t, e.quitRequested.Load())

	assert.True(t, core.EventFire(core.EventContext{Type: core.EVENT_CODE_KEY_PRESSED, Data: &core.KeyEvent{KeyCode: core.KEY_ESCAPE}}))
	assert.True(t, e.quitRequested.Load())
	assert.True(t, e.ShouldClose())
}

var _ vulkan.Drawable = (*Engine)(nil)

func TestResizeUpdatesSize(t *testing.T) {
	e, err := New(core.DefaultConfig())
	require.NoError(t, err)

	assert.False(t, e.onResized(core.EventContext{Type: core.EVENT_CODE_RESIZED, Data: &core.SystemEvent{WindowWidth: 1024, WindowHeight: 768}}))
	w, h := e.FramebufferSize()
	assert.Equal(t, uint32(1024), w)
	assert.Equal(t, uint32(768), h)
}

func TestLifecycleGuards(t *testing.T) {
	e, err := New(core.DefaultConfig())
	require.NoError(t, err)

	assert.Error(t, e.Run(context.Background()))

	require.NoError(t, e.Shutdown())
	assert.Equal(t, EngineStageShutdown, e.Stage())
	assert.NoError(t, e.Shutdown())
	assert.Error(t, e.Initialize())
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "running", EngineStageRunning.String())
	assert.Equal(t, "Stage(42)", Stage(42).String())
}
