package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/spaghettifunk/prism/engine/assets"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/platform"
	"github.com/spaghettifunk/prism/engine/renderer/vulkan"
)

// Engine wires the window, the shader assets and the renderer together and
// drives the frame loop.
type Engine struct {
	currentStage Stage
	config       core.Config
	sessionID    uuid.UUID

	platform     *platform.Platform
	assetManager *assets.AssetManager
	renderer     *vulkan.VulkanRenderer
	presenter    *vulkan.FramePresenter

	quitRequested atomic.Bool
	width         uint32
	height        uint32
}

func New(cfg core.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	if err := core.SetLogLevel(cfg.Log.Level); err != nil {
		return nil, err
	}

	sessionID := uuid.New()
	core.SetLogPrefix(fmt.Sprintf("%s 🔺 %s ", cfg.Application.Name, sessionID.String()[:8]))

	return &Engine{
		currentStage: EngineStageUninitialized,
		config:       cfg,
		sessionID:    sessionID,
		platform:     platform.New(),
		width:        cfg.Application.Width,
		height:       cfg.Application.Height,
	}, nil
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

func (e *Engine) SessionID() uuid.UUID {
	return e.sessionID
}

// Initialize opens the window and builds every renderer resource. On failure
// whatever was created is released before returning.
func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageUninitialized {
		return fmt.Errorf("engine cannot initialize from stage `%s`", e.currentStage)
	}
	e.currentStage = EngineStageInitializing
	core.LogInfo("Initializing session %s...", e.sessionID)

	if !core.EventSystemInitialize() {
		return fmt.Errorf("failed to initialize the event system")
	}
	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e.onEvent)
	core.EventRegister(core.EVENT_CODE_KEY_PRESSED, e.onKey)
	core.EventRegister(core.EVENT_CODE_RESIZED, e.onResized)

	if err := e.initialize(); err != nil {
		_ = e.Shutdown()
		return err
	}

	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) initialize() error {
	if err := e.platform.Startup(e.config.Application.Name, e.config.Application.Width, e.config.Application.Height); err != nil {
		return err
	}
	// the drawable can differ from the window size on high-DPI displays
	e.width, e.height = e.platform.FramebufferSize()

	am, err := assets.NewAssetManager(e.config.Assets.WatchShaders)
	if err != nil {
		core.LogError(err.Error())
		return err
	}
	e.assetManager = am

	e.renderer = vulkan.New(e.config, e.platform, e.assetManager)
	e.renderer.SetDrawable(e)
	if err := e.renderer.Initialize(); err != nil {
		e.renderer = nil
		return err
	}

	e.presenter = vulkan.NewFramePresenter(e, e.renderer, e.config.Renderer.MaxFrames)
	return nil
}

// Run presents frames until the window closes, Escape is pressed or ctx is
// cancelled.
func (e *Engine) Run(ctx context.Context) error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine cannot run from stage `%s`", e.currentStage)
	}
	e.currentStage = EngineStageRunning

	if err := e.presenter.Run(ctx); err != nil {
		core.LogError("Frame loop failed: %s", err)
		return err
	}
	core.LogInfo("Presented %d frames (%d swapchain rebuilds).", e.presenter.Frames(), e.presenter.Rebuilds())
	return nil
}

// Shutdown releases the renderer, the asset watcher and the window in that
// order. It can be called from any stage.
func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShutdown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown

	var errs []error
	if e.renderer != nil {
		errs = append(errs, e.renderer.Shutdown())
		e.renderer = nil
	}
	if e.assetManager != nil {
		errs = append(errs, e.assetManager.Close())
		e.assetManager = nil
	}
	errs = append(errs, e.platform.Shutdown())
	core.EventSystemShutdown()

	e.currentStage = EngineStageShutdown
	return errors.Join(errs...)
}

// ShouldClose and PumpMessages make the engine the presenter's window, so a
// quit event ends the loop like a window close.
func (e *Engine) ShouldClose() bool {
	return e.quitRequested.Load() || e.platform.ShouldClose()
}

func (e *Engine) PumpMessages() {
	e.platform.PumpMessages()
}

// FramebufferSize is the drawable size last reported by a resize event. The
// renderer sizes the swapchain from it.
func (e *Engine) FramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) WaitEvents() {
	e.platform.WaitEvents()
}

func (e *Engine) onEvent(context core.EventContext) bool {
	if context.Type == core.EVENT_CODE_APPLICATION_QUIT {
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.quitRequested.Store(true)
		e.platform.RequestClose()
		return true
	}
	return false
}

func (e *Engine) onKey(context core.EventContext) bool {
	ke, ok := context.Data.(*core.KeyEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}
	if ke.KeyCode == core.KEY_ESCAPE {
		// NOTE: Technically firing an event to itself, but there may be other listeners.
		core.EventFire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
		// Block anything else from processing this.
		return true
	}
	return false
}

func (e *Engine) onResized(context core.EventContext) bool {
	se, ok := context.Data.(*core.SystemEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}
	if se.WindowWidth != e.width || se.WindowHeight != e.height {
		e.width = se.WindowWidth
		e.height = se.WindowHeight
		core.LogDebug("Window resize: %d, %d", e.width, e.height)
	}
	// The swapchain goes out of date and is rebuilt at this size.
	return false
}
