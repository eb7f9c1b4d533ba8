package vulkan

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
)

// QueueFamilyInfo is one row of a device's queue family table.
type QueueFamilyInfo struct {
	Index      uint32
	Flags      vk.QueueFlags
	QueueCount uint32
}

func (q QueueFamilyInfo) Has(bit vk.QueueFlagBits) bool {
	return q.Flags&vk.QueueFlags(bit) != 0
}

// PhysicalDeviceInfo describes an enumerated GPU. The handle is owned by the
// instance; nothing here is destroyed.
type PhysicalDeviceInfo struct {
	Index         int
	Handle        vk.PhysicalDevice
	Name          string
	Type          vk.PhysicalDeviceType
	UUID          uuid.UUID
	DriverVersion uint32
	APIVersion    uint32
	QueueFamilies []QueueFamilyInfo
	Extensions    []string

	// Set on the one device used for rendering and presentation.
	Primary bool
}

func (d *PhysicalDeviceInfo) HasExtension(name string) bool {
	return slices.Contains(d.Extensions, name)
}

func (d *PhysicalDeviceInfo) String() string {
	return fmt.Sprintf("%s (%s)", d.Name, deviceTypeString(d.Type))
}

// EnumeratePhysicalDevices lists every GPU the instance can see, in
// enumeration order. An empty list is not an error here.
func EnumeratePhysicalDevices(instance vk.Instance) ([]*PhysicalDeviceInfo, error) {
	var count uint32
	if res := vk.EnumeratePhysicalDevices(instance, &count, nil); res != vk.Success {
		return nil, resultError(core.ErrNoSuitableDevice, "vkEnumeratePhysicalDevices", res)
	}
	if count == 0 {
		return nil, nil
	}

	handles := make([]vk.PhysicalDevice, count)
	if res := vk.EnumeratePhysicalDevices(instance, &count, handles); res != vk.Success {
		return nil, resultError(core.ErrNoSuitableDevice, "vkEnumeratePhysicalDevices", res)
	}

	devices := make([]*PhysicalDeviceInfo, 0, count)
	for i := 0; i < int(count); i++ {
		info, err := describePhysicalDevice(i, handles[i])
		if err != nil {
			return nil, err
		}
		devices = append(devices, info)
	}
	return devices, nil
}

func describePhysicalDevice(index int, handle vk.PhysicalDevice) (*PhysicalDeviceInfo, error) {
	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(handle, &properties)
	properties.Deref()

	id, err := uuid.FromBytes(properties.PipelineCacheUUID[:])
	if err != nil {
		return nil, fmt.Errorf("%w: device %d: %s", core.ErrNoSuitableDevice, index, err)
	}

	info := &PhysicalDeviceInfo{
		Index:         index,
		Handle:        handle,
		Name:          vk.ToString(properties.DeviceName[:]),
		Type:          properties.DeviceType,
		UUID:          id,
		DriverVersion: properties.DriverVersion,
		APIVersion:    properties.ApiVersion,
	}

	var familyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(handle, &familyCount, nil)
	families := make([]vk.QueueFamilyProperties, familyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(handle, &familyCount, families)
	for i := range families {
		families[i].Deref()
		info.QueueFamilies = append(info.QueueFamilies, QueueFamilyInfo{
			Index:      uint32(i),
			Flags:      families[i].QueueFlags,
			QueueCount: families[i].QueueCount,
		})
	}

	var extensionCount uint32
	if res := vk.EnumerateDeviceExtensionProperties(handle, "", &extensionCount, nil); res != vk.Success {
		return nil, resultError(core.ErrNoSuitableDevice, "vkEnumerateDeviceExtensionProperties", res)
	}
	extensions := make([]vk.ExtensionProperties, extensionCount)
	if res := vk.EnumerateDeviceExtensionProperties(handle, "", &extensionCount, extensions); res != vk.Success {
		return nil, resultError(core.ErrNoSuitableDevice, "vkEnumerateDeviceExtensionProperties", res)
	}
	for i := range extensions {
		extensions[i].Deref()
		info.Extensions = append(info.Extensions, vk.ToString(extensions[i].ExtensionName[:]))
	}

	return info, nil
}

// SelectPrimaryDevice marks the first discrete GPU as primary, or the first
// device when there is no discrete one. Ties go to enumeration order.
func SelectPrimaryDevice(devices []*PhysicalDeviceInfo) (*PhysicalDeviceInfo, error) {
	if len(devices) == 0 {
		err := fmt.Errorf("%w: no devices which support Vulkan were found", core.ErrNoSuitableDevice)
		core.LogError(err.Error())
		return nil, err
	}

	selected := devices[0]
	for _, d := range devices {
		if d.Type == vk.PhysicalDeviceTypeDiscreteGpu {
			selected = d
			break
		}
	}
	for _, d := range devices {
		d.Primary = d == selected
	}

	selected.logSummary()
	return selected, nil
}

func (d *PhysicalDeviceInfo) logSummary() {
	core.LogInfo("Selected device: '%s'.", d.Name)
	core.LogInfo("GPU type is %s.", deviceTypeString(d.Type))
	core.LogInfo("GPU Driver version: %d.%d.%d",
		vk.Version(d.DriverVersion).Major(),
		vk.Version(d.DriverVersion).Minor(),
		vk.Version(d.DriverVersion).Patch(),
	)
	core.LogInfo("Vulkan API version: %d.%d.%d",
		vk.Version(d.APIVersion).Major(),
		vk.Version(d.APIVersion).Minor(),
		vk.Version(d.APIVersion).Patch(),
	)
	core.LogDebug("Pipeline cache UUID: %s", d.UUID)
	core.LogDebug("Graphics | Compute | Transfer | Family")
	for _, f := range d.QueueFamilies {
		core.LogDebug("%8t | %7t | %8t | %d",
			f.Has(vk.QueueGraphicsBit),
			f.Has(vk.QueueComputeBit),
			f.Has(vk.QueueTransferBit),
			f.Index)
	}
}

func deviceTypeString(t vk.PhysicalDeviceType) string {
	switch t {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return "Integrated"
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return "Discrete"
	case vk.PhysicalDeviceTypeVirtualGpu:
		return "Virtual"
	case vk.PhysicalDeviceTypeCpu:
		return "CPU"
	default:
		return "Unknown"
	}
}
