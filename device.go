package framevk

import (
	"fmt"

	"github.com/andewx/framevk/hal"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

const SwapchainExtension = "VK_KHR_swapchain"

// RequiredDeviceExtensions must all be supported by a device for it
// to be picked.
var RequiredDeviceExtensions = []string{SwapchainExtension}

//ScoreDevice ranks a device by its type. Devices scoring 0 are never picked.
func ScoreDevice(t vk.PhysicalDeviceType) int {
	switch t {
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return 4
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return 3
	case vk.PhysicalDeviceTypeVirtualGpu:
		return 2
	case vk.PhysicalDeviceTypeCpu:
		return 1
	}
	return 0
}

func deviceTypeName(t vk.PhysicalDeviceType) string {
	switch t {
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return "discrete"
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return "integrated"
	case vk.PhysicalDeviceTypeVirtualGpu:
		return "virtual"
	case vk.PhysicalDeviceTypeCpu:
		return "cpu"
	}
	return "other"
}

// QueueFamilyIndices are the families the renderer submits and
// presents on. They may be the same family.
type QueueFamilyIndices struct {
	Graphics    uint32
	Present     uint32
	HasGraphics bool
	HasPresent  bool
}

func (q QueueFamilyIndices) Complete() bool {
	return q.HasGraphics && q.HasPresent
}

// Unique lists each family once, graphics first.
func (q QueueFamilyIndices) Unique() []uint32 {
	if q.Graphics == q.Present {
		return []uint32{q.Graphics}
	}
	return []uint32{q.Graphics, q.Present}
}

//FindQueueFamilies picks the first graphics capable family and the first family that can present to surface
func FindQueueFamilies(gpu hal.PhysicalDevice, surface hal.Surface) (QueueFamilyIndices, error) {
	var indices QueueFamilyIndices
	for i, family := range gpu.QueueFamilies() {
		index := uint32(i)
		if !indices.HasGraphics && family.Count > 0 &&
			family.Flags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			indices.Graphics = index
			indices.HasGraphics = true
		}
		if !indices.HasPresent {
			ok, err := gpu.SurfaceSupport(index, surface)
			if err != nil {
				return indices, errors.Wrapf(err, "query present support of family %d", index)
			}
			if ok {
				indices.Present = index
				indices.HasPresent = true
			}
		}
		if indices.Complete() {
			break
		}
	}
	return indices, nil
}

// DeviceCandidate is the outcome of inspecting one physical device.
type DeviceCandidate struct {
	Device     hal.PhysicalDevice
	Properties hal.DeviceProperties
	Score      int
	Families   QueueFamilyIndices
	Missing    []string
	Err        error
}

func (c DeviceCandidate) Eligible() bool {
	return c.Err == nil && c.Score > 0 && c.Families.Complete() && len(c.Missing) == 0
}

// Verdict explains in a few words why a device is or is not eligible.
func (c DeviceCandidate) Verdict() string {
	switch {
	case c.Err != nil:
		return "rejected: " + c.Err.Error()
	case c.Score <= 0:
		return "rejected: unsupported device type"
	case !c.Families.HasGraphics:
		return "rejected: no graphics queue"
	case !c.Families.HasPresent:
		return "rejected: no present queue"
	case len(c.Missing) > 0:
		return fmt.Sprintf("rejected: missing extensions %v", c.Missing)
	}
	return "eligible"
}

func (c DeviceCandidate) String() string {
	return fmt.Sprintf("%s (%s, score %d): %s",
		c.Properties.Name, deviceTypeName(c.Properties.Type), c.Score, c.Verdict())
}

// DescribeDevices inspects every device against surface and the
// required extensions, keeping the enumeration order.
func DescribeDevices(gpus []hal.PhysicalDevice, surface hal.Surface, required []string) []DeviceCandidate {
	candidates := make([]DeviceCandidate, 0, len(gpus))
	for _, gpu := range gpus {
		c := DeviceCandidate{
			Device:     gpu,
			Properties: gpu.Properties(),
		}
		c.Score = ScoreDevice(c.Properties.Type)
		c.Families, c.Err = FindQueueFamilies(gpu, surface)
		if c.Err == nil {
			var exts []string
			exts, c.Err = gpu.Extensions()
			c.Missing = missingNames(exts, required)
		}
		candidates = append(candidates, c)
	}
	return candidates
}

// PickPhysicalDevice returns the eligible device with the highest
// score. Ties go to the device enumerated first.
func PickPhysicalDevice(gpus []hal.PhysicalDevice, surface hal.Surface, required []string, l *Logger) (DeviceCandidate, error) {
	l = orDiscard(l)
	best := -1
	candidates := DescribeDevices(gpus, surface, required)
	for i, c := range candidates {
		l.Info.Printf("device %d: %s", i, c)
		if !c.Eligible() {
			continue
		}
		if best < 0 || c.Score > candidates[best].Score {
			best = i
		}
	}
	if best < 0 {
		return DeviceCandidate{}, errors.Wrapf(ErrNoSuitableDevice, "%d devices inspected", len(gpus))
	}
	l.Info.Printf("picked device %d: %s", best, candidates[best].Properties.Name)
	return candidates[best], nil
}

func missingNames(available, required []string) []string {
	have := make(map[string]struct{}, len(available))
	for _, name := range available {
		have[name] = struct{}{}
	}
	var missing []string
	for _, name := range required {
		if _, ok := have[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// FilterLayers keeps the requested layers that are available and
// warns about the rest. Nothing is kept when validation is disabled.
func FilterLayers(v ValidationConfig, available []string, l *Logger) ValidationConfig {
	l = orDiscard(l)
	if !v.Enabled {
		return ValidationConfig{}
	}
	missing := missingNames(available, v.Layers)
	skip := make(map[string]bool, len(missing))
	for _, name := range missing {
		l.Warn.Printf("validation layer %s is not available", name)
		skip[name] = true
	}
	out := ValidationConfig{Enabled: true}
	for _, name := range v.Layers {
		if !skip[name] {
			out.Layers = append(out.Layers, name)
		}
	}
	return out
}

// DeviceContext owns the instance, the surface, the logical device
// and its queues. It is destroyed after everything built on it.
type DeviceContext struct {
	Instance      hal.Instance
	Surface       *SurfaceContext
	Physical      hal.PhysicalDevice
	Properties    hal.DeviceProperties
	MemoryTypes   []hal.MemoryType
	Families      QueueFamilyIndices
	Device        hal.Device
	GraphicsQueue hal.Queue
	PresentQueue  hal.Queue

	log *Logger
}

// NewDeviceContext picks a physical device able to present to
// surface and creates a logical device on it. The context takes
// ownership of inst and surface.
func NewDeviceContext(inst hal.Instance, surface hal.Surface, validation ValidationConfig, l *Logger) (*DeviceContext, error) {
	l = orDiscard(l)
	gpus, err := inst.PhysicalDevices()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate physical devices")
	}
	picked, err := PickPhysicalDevice(gpus, surface, RequiredDeviceExtensions, l)
	if err != nil {
		return nil, err
	}

	info := &hal.DeviceInfo{
		QueueFamilies: picked.Families.Unique(),
		Extensions:    RequiredDeviceExtensions,
	}
	if validation.Enabled {
		info.Layers = validation.Layers
	}
	dev, err := picked.Device.CreateDevice(info)
	if err != nil {
		return nil, errors.Wrapf(err, "create logical device on %s", picked.Properties.Name)
	}

	return &DeviceContext{
		Instance:      inst,
		Surface:       NewSurfaceContext(surface),
		Physical:      picked.Device,
		Properties:    picked.Properties,
		MemoryTypes:   picked.Device.MemoryTypes(),
		Families:      picked.Families,
		Device:        dev,
		GraphicsQueue: dev.Queue(picked.Families.Graphics),
		PresentQueue:  dev.Queue(picked.Families.Present),
		log:           l,
	}, nil
}

func (d *DeviceContext) WaitIdle() error {
	return errors.Wrap(d.Device.WaitIdle(), "wait for device idle")
}

// Destroy destroys the device, the surface and the instance, in
// that order.
func (d *DeviceContext) Destroy() {
	if d.Device != nil {
		d.Device.Destroy()
		d.Device = nil
	}
	if d.Surface != nil {
		d.Surface.Destroy()
		d.Surface = nil
	}
	if d.Instance != nil {
		d.Instance.Destroy()
		d.Instance = nil
	}
}
