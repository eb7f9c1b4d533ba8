package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventFireStopsAtFirstHandler(t *testing.T) {
	require.True(t, EventSystemInitialize())
	defer EventSystemShutdown()

	var calls []string
	EventRegister(EVENT_CODE_KEY_PRESSED, func(ctx EventContext) bool {
		calls = append(calls, "first")
		ke, ok := ctx.Data.(*KeyEvent)
		return ok && ke.KeyCode == KEY_ESCAPE
	})
	EventRegister(EVENT_CODE_KEY_PRESSED, func(ctx EventContext) bool {
		calls = append(calls, "second")
		return true
	})

	assert.True(t, EventFire(EventContext{Type: EVENT_CODE_KEY_PRESSED, Data: &KeyEvent{KeyCode: KEY_ESCAPE}}))
	assert.Equal(t, []string{"first"}, calls)

	calls = nil
	assert.True(t, EventFire(EventContext{Type: EVENT_CODE_KEY_PRESSED, Data: &KeyEvent{KeyCode: KEY_SPACE}}))
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestEventFireWithoutListeners(t *testing.T) {
	assert.False(t, EventFire(EventContext{Type: EVENT_CODE_APPLICATION_QUIT}))

	require.True(t, EventSystemInitialize())
	defer EventSystemShutdown()

	assert.False(t, EventSystemInitialize())
	assert.False(t, EventFire(EventContext{Type: EVENT_CODE_RESIZED}))
	assert.False(t, EventRegister(EVENT_CODE_RESIZED, nil))
}
