package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
)

const (
	swapchainExtensionName         = "VK_KHR_swapchain"
	portabilitySubsetExtensionName = "VK_KHR_portability_subset"
)

// QueueFamilyIndices maps each capability class onto a family. Graphics is
// also the presentation family. Compute is -1 when the device has none.
type QueueFamilyIndices struct {
	Graphics int32
	Compute  int32
	Transfer int32
}

// unique returns the distinct families in graphics, compute, transfer order.
func (q QueueFamilyIndices) unique() []uint32 {
	out := []uint32{}
	for _, idx := range []int32{q.Graphics, q.Compute, q.Transfer} {
		if idx < 0 {
			continue
		}
		seen := false
		for _, o := range out {
			if o == uint32(idx) {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, uint32(idx))
		}
	}
	return out
}

// ResolveQueueFamilies picks the first graphics family able to present to
// the surface, the compute family, and the transfer family that looks the
// most dedicated (the one with the fewest other capabilities).
func ResolveQueueFamilies(families []QueueFamilyInfo, supportsPresent func(family uint32) bool) (QueueFamilyIndices, error) {
	indices := QueueFamilyIndices{Graphics: -1, Compute: -1, Transfer: -1}

	for _, f := range families {
		if f.QueueCount > 0 && f.Has(vk.QueueGraphicsBit) && supportsPresent(f.Index) {
			indices.Graphics = int32(f.Index)
			break
		}
	}
	if indices.Graphics < 0 {
		return indices, fmt.Errorf("%w: no graphics queue family can present to the surface", core.ErrNoSuitableDevice)
	}

	for _, f := range families {
		if f.QueueCount > 0 && f.Has(vk.QueueComputeBit) && int32(f.Index) != indices.Graphics {
			indices.Compute = int32(f.Index)
			break
		}
	}
	if graphics, ok := familyByIndex(families, uint32(indices.Graphics)); ok && indices.Compute < 0 && graphics.Has(vk.QueueComputeBit) {
		indices.Compute = indices.Graphics
	}

	minTransferScore := 255
	for _, f := range families {
		if f.QueueCount == 0 || !f.Has(vk.QueueTransferBit) {
			continue
		}
		score := 0
		if f.Has(vk.QueueGraphicsBit) {
			score++
		}
		if f.Has(vk.QueueComputeBit) {
			score++
		}
		if score < minTransferScore {
			minTransferScore = score
			indices.Transfer = int32(f.Index)
		}
	}
	// graphics families always accept transfer commands
	if indices.Transfer < 0 {
		indices.Transfer = indices.Graphics
	}

	return indices, nil
}

func familyByIndex(families []QueueFamilyInfo, index uint32) (QueueFamilyInfo, bool) {
	for _, f := range families {
		if f.Index == index {
			return f, true
		}
	}
	return QueueFamilyInfo{}, false
}

// Queue is a submission channel. The device reference is a non-owning lookup.
type Queue struct {
	Handle      vk.Queue
	FamilyIndex uint32
	Flags       vk.QueueFlags

	device *LogicalDevice
}

func (q *Queue) Device() *LogicalDevice {
	return q.device
}

func (q *Queue) WaitIdle() error {
	if res := vk.QueueWaitIdle(q.Handle); res != vk.Success {
		return resultError(core.ErrPresentation, "vkQueueWaitIdle", res)
	}
	return nil
}

// LogicalDevice is the opened handle to the primary GPU.
type LogicalDevice struct {
	Handle   vk.Device
	Physical *PhysicalDeviceInfo
	Families QueueFamilyIndices

	Graphics *Queue
	Compute  *Queue
	Transfer *Queue
}

func requiredDeviceExtensions(pd *PhysicalDeviceInfo) ([]string, error) {
	if !pd.HasExtension(swapchainExtensionName) {
		return nil, fmt.Errorf("%w: `%s` does not support %s", core.ErrNoSuitableDevice, pd.Name, swapchainExtensionName)
	}
	extensions := []string{swapchainExtensionName}
	if pd.HasExtension(portabilitySubsetExtensionName) {
		core.LogInfo("Adding required extension '%s'.", portabilitySubsetExtensionName)
		extensions = append(extensions, portabilitySubsetExtensionName)
	}
	return extensions, nil
}

// NewLogicalDevice opens pd with one queue per distinct family.
func NewLogicalDevice(pd *PhysicalDeviceInfo, surface vk.Surface) (*LogicalDevice, error) {
	core.LogInfo("Creating logical device...")

	indices, err := ResolveQueueFamilies(pd.QueueFamilies, func(family uint32) bool {
		var supported vk.Bool32
		if res := vk.GetPhysicalDeviceSurfaceSupport(pd.Handle, family, surface, &supported); res != vk.Success {
			return false
		}
		return supported == vk.True
	})
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	core.LogDebug("Graphics Family Index: %d", indices.Graphics)
	core.LogDebug("Compute Family Index:  %d", indices.Compute)
	core.LogDebug("Transfer Family Index: %d", indices.Transfer)

	extensions, err := requiredDeviceExtensions(pd)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	families := indices.unique()
	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(families))
	for i, family := range families {
		queueCreateInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{}},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensions),
	}

	var handle vk.Device
	if res := vk.CreateDevice(pd.Handle, &deviceCreateInfo, nil, &handle); res != vk.Success {
		err := resultError(core.ErrNoSuitableDevice, "vkCreateDevice", res)
		core.LogError(err.Error())
		return nil, err
	}

	device := &LogicalDevice{
		Handle:   handle,
		Physical: pd,
		Families: indices,
	}
	device.Graphics = device.queue(indices.Graphics)
	device.Compute = device.queue(indices.Compute)
	device.Transfer = device.queue(indices.Transfer)

	core.LogInfo("Logical device created.")
	return device, nil
}

func (d *LogicalDevice) queue(family int32) *Queue {
	if family < 0 {
		return nil
	}
	// Families that coincide share a queue.
	for _, q := range []*Queue{d.Graphics, d.Compute, d.Transfer} {
		if q != nil && q.FamilyIndex == uint32(family) {
			return q
		}
	}
	var handle vk.Queue
	vk.GetDeviceQueue(d.Handle, uint32(family), 0, &handle)
	info, _ := familyByIndex(d.Physical.QueueFamilies, uint32(family))
	return &Queue{
		Handle:      handle,
		FamilyIndex: uint32(family),
		Flags:       info.Flags,
		device:      d,
	}
}

func (d *LogicalDevice) WaitIdle() error {
	if res := vk.DeviceWaitIdle(d.Handle); res != vk.Success {
		return resultError(core.ErrPresentation, "vkDeviceWaitIdle", res)
	}
	return nil
}

func (d *LogicalDevice) NewSemaphore() (vk.Semaphore, error) {
	info := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var semaphore vk.Semaphore
	if res := vk.CreateSemaphore(d.Handle, &info, nil, &semaphore); res != vk.Success {
		err := resultError(core.ErrPresentation, "vkCreateSemaphore", res)
		core.LogError(err.Error())
		return vk.NullSemaphore, err
	}
	return semaphore, nil
}

func (d *LogicalDevice) DestroySemaphore(semaphore vk.Semaphore) {
	if semaphore != vk.NullSemaphore {
		vk.DestroySemaphore(d.Handle, semaphore, nil)
	}
}

func (d *LogicalDevice) Destroy() {
	d.Graphics = nil
	d.Compute = nil
	d.Transfer = nil

	if d.Handle != nil {
		core.LogInfo("Destroying logical device...")
		vk.DestroyDevice(d.Handle, nil)
		d.Handle = nil
	}
}
