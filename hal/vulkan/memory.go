package vulkan

import (
	"unsafe"

	"github.com/andewx/framevk/hal"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

type buffer struct {
	device vk.Device
	handle vk.Buffer
	size   vk.DeviceSize
}

func (b *buffer) Size() vk.DeviceSize { return b.size }

func (b *buffer) MemoryRequirements() vk.MemoryRequirements {
	var reqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(b.device, b.handle, &reqs)
	reqs.Deref()
	return reqs
}

func (b *buffer) BindMemory(mem hal.Memory, offset vk.DeviceSize) error {
	ret := vk.BindBufferMemory(b.device, b.handle, mem.(*memory).handle, offset)
	return errors.Wrap(NewError(ret), "vulkan: bind buffer memory")
}

func (b *buffer) Destroy() {
	vk.DestroyBuffer(b.device, b.handle, nil)
}

type memory struct {
	device vk.Device
	handle vk.DeviceMemory
	mapped bool
}

func (m *memory) Map(offset, size vk.DeviceSize) ([]byte, error) {
	var data unsafe.Pointer
	ret := vk.MapMemory(m.device, m.handle, offset, size, 0, &data)
	if isError(ret) {
		return nil, errors.Wrap(NewError(ret), "vulkan: map memory")
	}
	m.mapped = true
	return unsafe.Slice((*byte)(data), int(size)), nil
}

func (m *memory) Unmap() {
	if m.mapped {
		vk.UnmapMemory(m.device, m.handle)
		m.mapped = false
	}
}

func (m *memory) Free() {
	m.Unmap()
	vk.FreeMemory(m.device, m.handle, nil)
}
