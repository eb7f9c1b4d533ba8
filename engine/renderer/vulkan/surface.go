package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
)

// SurfaceProvider is the windowing side of surface creation.
type SurfaceProvider interface {
	CreateSurface(instance vk.Instance) (vk.Surface, error)
	RequiredInstanceExtensions() []string
}

// Drawable reports the current drawable size of the window and can block
// until the windowing system has new events.
type Drawable interface {
	FramebufferSize() (width, height uint32)
	ShouldClose() bool
	WaitEvents()
}

// BindSurface asks the provider for a presentation surface. There is no
// retry: without a surface there is nothing to present to.
func BindSurface(instance *Instance, provider SurfaceProvider) (vk.Surface, error) {
	core.LogDebug("Creating Vulkan surface...")
	surface, err := provider.CreateSurface(instance.Handle)
	if err != nil {
		err = fmt.Errorf("%w: %s", core.ErrSurfaceCreation, err)
		core.LogError(err.Error())
		return vk.NullSurface, err
	}
	if surface == vk.NullSurface {
		err := fmt.Errorf("%w: provider returned a null surface", core.ErrSurfaceCreation)
		core.LogError(err.Error())
		return vk.NullSurface, err
	}
	core.LogDebug("Vulkan surface created.")
	return surface, nil
}

func DestroySurface(instance *Instance, surface vk.Surface) {
	if surface != vk.NullSurface {
		core.LogDebug("Destroying Vulkan surface...")
		vk.DestroySurface(instance.Handle, surface, nil)
	}
}
