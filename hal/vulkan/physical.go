package vulkan

import (
	"github.com/andewx/framevk/hal"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

type physicalDevice struct {
	handle     vk.PhysicalDevice
	properties hal.DeviceProperties
	families   []hal.QueueFamily
	memory     []hal.MemoryType
}

// newPhysicalDevice snapshots everything about gpu that does not
// depend on a surface.
func newPhysicalDevice(gpu vk.PhysicalDevice) *physicalDevice {
	p := &physicalDevice{handle: gpu}

	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(gpu, &props)
	props.Deref()
	p.properties = hal.DeviceProperties{
		Name:       vk.ToString(props.DeviceName[:]),
		Type:       props.DeviceType,
		APIVersion: vk.Version(props.ApiVersion),
	}

	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, nil)
	families := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, families)
	for i := range families[:count] {
		families[i].Deref()
		p.families = append(p.families, hal.QueueFamily{
			Flags: families[i].QueueFlags,
			Count: families[i].QueueCount,
		})
	}

	var mem vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(gpu, &mem)
	mem.Deref()
	for i := uint32(0); i < mem.MemoryTypeCount; i++ {
		mem.MemoryTypes[i].Deref()
		p.memory = append(p.memory, hal.MemoryType{
			Flags: mem.MemoryTypes[i].PropertyFlags,
			Heap:  mem.MemoryTypes[i].HeapIndex,
		})
	}
	return p
}

func (p *physicalDevice) Properties() hal.DeviceProperties { return p.properties }
func (p *physicalDevice) QueueFamilies() []hal.QueueFamily  { return p.families }
func (p *physicalDevice) MemoryTypes() []hal.MemoryType     { return p.memory }

func (p *physicalDevice) Extensions() ([]string, error) {
	return DeviceExtensions(p.handle)
}

func (p *physicalDevice) SurfaceSupport(family uint32, s hal.Surface) (bool, error) {
	var supported vk.Bool32
	ret := vk.GetPhysicalDeviceSurfaceSupport(p.handle, family, surfaceOf(s), &supported)
	if isError(ret) {
		return false, NewError(ret)
	}
	return supported.B(), nil
}

func (p *physicalDevice) SurfaceCapabilities(s hal.Surface) (vk.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	ret := vk.GetPhysicalDeviceSurfaceCapabilities(p.handle, surfaceOf(s), &caps)
	if isError(ret) {
		return caps, NewError(ret)
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	return caps, nil
}

func (p *physicalDevice) SurfaceFormats(s hal.Surface) ([]vk.SurfaceFormat, error) {
	var count uint32
	ret := vk.GetPhysicalDeviceSurfaceFormats(p.handle, surfaceOf(s), &count, nil)
	if isError(ret) {
		return nil, NewError(ret)
	}
	formats := make([]vk.SurfaceFormat, count)
	ret = vk.GetPhysicalDeviceSurfaceFormats(p.handle, surfaceOf(s), &count, formats)
	if isError(ret) {
		return nil, NewError(ret)
	}
	for i := range formats {
		formats[i].Deref()
	}
	return formats[:count], nil
}

func (p *physicalDevice) PresentModes(s hal.Surface) ([]vk.PresentMode, error) {
	var count uint32
	ret := vk.GetPhysicalDeviceSurfacePresentModes(p.handle, surfaceOf(s), &count, nil)
	if isError(ret) {
		return nil, NewError(ret)
	}
	modes := make([]vk.PresentMode, count)
	ret = vk.GetPhysicalDeviceSurfacePresentModes(p.handle, surfaceOf(s), &count, modes)
	if isError(ret) {
		return nil, NewError(ret)
	}
	return modes[:count], nil
}

func (p *physicalDevice) CreateDevice(info *hal.DeviceInfo) (hal.Device, error) {
	queueInfos := make([]vk.DeviceQueueCreateInfo, 0, len(info.QueueFamilies))
	for _, family := range info.QueueFamilies {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		})
	}

	var handle vk.Device
	ret := vk.CreateDevice(p.handle, &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(info.Extensions)),
		PpEnabledExtensionNames: safeStrings(info.Extensions),
		EnabledLayerCount:       uint32(len(info.Layers)),
		PpEnabledLayerNames:     safeStrings(info.Layers),
	}, nil, &handle)
	if isError(ret) {
		return nil, errors.Wrapf(NewError(ret), "vulkan: create device on %s", p.properties.Name)
	}

	d := &device{
		handle: handle,
		queues: make(map[uint32]*queue, len(info.QueueFamilies)),
	}
	for _, family := range info.QueueFamilies {
		var q vk.Queue
		vk.GetDeviceQueue(handle, family, 0, &q)
		d.queues[family] = &queue{handle: q}
	}
	return d, nil
}
