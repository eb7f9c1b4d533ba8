package vulkan

import (
	"fmt"
	"runtime"
	"slices"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
)

const validationLayerName = "VK_LAYER_KHRONOS_validation"

// Instance is the API context. It owns the debug report callback when
// validation is enabled.
type Instance struct {
	Handle     vk.Instance
	Extensions []string
	Layers     []string
	Validation bool

	debugCallback vk.DebugReportCallback
}

// instanceExtensions lists the extensions to enable: the ones the windowing
// system needs, portability on macOS, and debug report when validating.
func instanceExtensions(required []string, validation bool, goos string) []string {
	extensions := []string{"VK_KHR_surface"}
	for _, e := range required {
		if !slices.Contains(extensions, e) {
			extensions = append(extensions, e)
		}
	}
	if goos == "darwin" {
		extensions = append(extensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
	}
	if validation {
		extensions = append(extensions, vk.ExtDebugReportExtensionName)
	}
	return extensions
}

// NewInstance creates the API instance. When validation is requested but the
// Khronos validation layer is not installed, the instance is created without
// it and a warning is logged.
func NewInstance(appName string, required []string, validation bool) (*Instance, error) {
	instance := &Instance{}

	layers := []string{}
	if validation {
		core.LogInfo("Validation layers enabled. Enumerating...")
		available, err := availableLayers()
		if err != nil {
			return nil, err
		}
		if slices.Contains(available, validationLayerName) {
			layers = append(layers, validationLayerName)
			core.LogInfo("Found validation layer `%s`.", validationLayerName)
		} else {
			core.LogWarn("Validation layer `%s` is missing, running without validation.", validationLayerName)
			validation = false
		}
	}
	instance.Validation = validation
	instance.Layers = layers
	instance.Extensions = instanceExtensions(required, validation, runtime.GOOS)

	for _, e := range instance.Extensions {
		core.LogDebug("Required extension: %s", e)
	}

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(appName),
		PEngineName:        VulkanSafeString("Prism"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(instance.Extensions)),
		PpEnabledExtensionNames: VulkanSafeStrings(instance.Extensions),
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     VulkanSafeStrings(layers),
	}
	if runtime.GOOS == "darwin" {
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}

	var handle vk.Instance
	if res := vk.CreateInstance(&createInfo, nil, &handle); res != vk.Success {
		err := resultError(core.ErrInstanceCreation, "vkCreateInstance", res)
		core.LogError(err.Error())
		return nil, err
	}
	if err := vk.InitInstance(handle); err != nil {
		vk.DestroyInstance(handle, nil)
		err = instanceLoadError("vkInitInstance", err)
		core.LogError(err.Error())
		return nil, err
	}
	instance.Handle = handle

	core.LogInfo("Vulkan Instance created.")
	return instance, nil
}

// instanceLoadError wraps failures of the loader calls that return a plain
// error instead of a vk.Result.
func instanceLoadError(op string, err error) error {
	return fmt.Errorf("%w: %s: %s", core.ErrInstanceCreation, op, err)
}

func availableLayers() ([]string, error) {
	var count uint32
	if res := vk.EnumerateInstanceLayerProperties(&count, nil); res != vk.Success {
		return nil, resultError(core.ErrInstanceCreation, "vkEnumerateInstanceLayerProperties", res)
	}
	layers := make([]vk.LayerProperties, count)
	if res := vk.EnumerateInstanceLayerProperties(&count, layers); res != vk.Success {
		return nil, resultError(core.ErrInstanceCreation, "vkEnumerateInstanceLayerProperties", res)
	}
	names := make([]string, 0, count)
	for i := range layers {
		layers[i].Deref()
		names = append(names, vk.ToString(layers[i].LayerName[:]))
	}
	return names, nil
}

// diagnosticFlags subscribes to every severity the sink can receive.
func diagnosticFlags() vk.DebugReportFlags {
	return vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit |
		vk.DebugReportPerformanceWarningBit | vk.DebugReportInformationBit |
		vk.DebugReportDebugBit)
}

// EnableDiagnostics registers the debug report callback that forwards
// validation messages to the diagnostic sink.
func (i *Instance) EnableDiagnostics() error {
	if !i.Validation {
		return nil
	}
	core.LogDebug("Creating Vulkan debugger...")

	debugCreateInfo := vk.DebugReportCallbackCreateInfo{
		SType: vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       diagnosticFlags(),
		PfnCallback: dbgCallbackFunc,
	}

	var dbg vk.DebugReportCallback
	if res := vk.CreateDebugReportCallback(i.Handle, &debugCreateInfo, nil, &dbg); res != vk.Success {
		err := resultError(core.ErrInstanceCreation, "vkCreateDebugReportCallback", res)
		core.LogError(err.Error())
		return err
	}
	i.debugCallback = dbg

	core.LogDebug("Vulkan debugger created.")
	return nil
}

func (i *Instance) DisableDiagnostics() {
	if i.debugCallback != vk.NullDebugReportCallback {
		core.LogDebug("Destroying Vulkan debugger...")
		vk.DestroyDebugReportCallback(i.Handle, i.debugCallback, nil)
		i.debugCallback = vk.NullDebugReportCallback
	}
}

func (i *Instance) Destroy() {
	if i.Handle != nil {
		core.LogDebug("Destroying Vulkan instance...")
		vk.DestroyInstance(i.Handle, nil)
		i.Handle = nil
	}
}
