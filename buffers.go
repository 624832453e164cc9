package framevk

import (
	"github.com/andewx/framevk/hal"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// MemoryLocation says who reads and writes a buffer's memory.
type MemoryLocation int

const (
	// MemoryGPUOnly is device local memory the host never touches.
	MemoryGPUOnly MemoryLocation = iota
	// MemoryCPUToGPU is host visible memory written by the host and
	// read by the device, such as staging buffers.
	MemoryCPUToGPU
	// MemoryGPUToCPU is host visible memory written by the device and
	// read back by the host.
	MemoryGPUToCPU
)

func (l MemoryLocation) String() string {
	switch l {
	case MemoryGPUOnly:
		return "gpu-only"
	case MemoryCPUToGPU:
		return "cpu-to-gpu"
	case MemoryGPUToCPU:
		return "gpu-to-cpu"
	}
	return "unknown"
}

func (l MemoryLocation) hostVisible() bool {
	return l == MemoryCPUToGPU || l == MemoryGPUToCPU
}

func (l MemoryLocation) flags() (required, preferred vk.MemoryPropertyFlags) {
	hostVisible := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	switch l {
	case MemoryCPUToGPU:
		return hostVisible, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	case MemoryGPUToCPU:
		return hostVisible, vk.MemoryPropertyFlags(vk.MemoryPropertyHostCachedBit)
	}
	return 0, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
}

// Allocator places buffers in device memory, one allocation per
// buffer, and keeps count of what is still alive.
// It is not safe for concurrent use.
type Allocator struct {
	dev   hal.Device
	types []hal.MemoryType
	live  map[*GPUBuffer]struct{}
	log   *Logger
}

func NewAllocator(dev hal.Device, types []hal.MemoryType, l *Logger) *Allocator {
	return &Allocator{
		dev:   dev,
		types: types,
		live:  make(map[*GPUBuffer]struct{}),
		log:   orDiscard(l),
	}
}

// FindMemoryType returns a memory type permitted by typeBits for
// loc. Types with the preferred flags win. Required flags are never
// given up.
func (a *Allocator) FindMemoryType(typeBits uint32, loc MemoryLocation) (uint32, error) {
	required, preferred := loc.flags()
	for _, want := range []vk.MemoryPropertyFlags{required | preferred, required} {
		for i, t := range a.types {
			if typeBits&(1<<uint(i)) == 0 {
				continue
			}
			if t.Flags&want == want {
				return uint32(i), nil
			}
		}
	}
	return 0, errors.Wrapf(ErrNoMemoryType, "%s memory, type bits %#x", loc, typeBits)
}

// Live is the number of buffers not yet destroyed.
func (a *Allocator) Live() int { return len(a.live) }

// Destroy fails with ErrLiveAllocations while buffers remain.
func (a *Allocator) Destroy() error {
	if n := len(a.live); n > 0 {
		for b := range a.live {
			a.log.Warn.Printf("buffer %q (%d bytes) still allocated", b.Name, b.Size)
		}
		return errors.Wrapf(ErrLiveAllocations, "%d buffers", n)
	}
	return nil
}

// GPUBuffer is a buffer with its own memory allocation. Host visible
// buffers stay mapped for their whole life.
type GPUBuffer struct {
	Name     string
	Buffer   hal.Buffer
	Memory   hal.Memory
	Size     vk.DeviceSize
	Location MemoryLocation
	Mapped   []byte

	owner *Allocator
}

func NewGPUBuffer(a *Allocator, name string, size vk.DeviceSize, usage vk.BufferUsageFlags, loc MemoryLocation) (b *GPUBuffer, err error) {
	if size == 0 {
		return nil, errors.Errorf("buffer %q: size must be positive", name)
	}
	b = &GPUBuffer{Name: name, Size: size, Location: loc}
	defer func() {
		if err != nil {
			b.release()
			b = nil
		}
	}()

	if b.Buffer, err = a.dev.CreateBuffer(size, usage); err != nil {
		return b, errors.Wrapf(err, "create buffer %q", name)
	}
	reqs := b.Buffer.MemoryRequirements()
	memType, err := a.FindMemoryType(reqs.MemoryTypeBits, loc)
	if err != nil {
		return b, errors.Wrapf(err, "buffer %q", name)
	}
	if b.Memory, err = a.dev.AllocateMemory(reqs.Size, memType); err != nil {
		return b, errors.Wrapf(err, "allocate memory for %q", name)
	}
	if err = b.Buffer.BindMemory(b.Memory, 0); err != nil {
		return b, errors.Wrapf(err, "bind memory of %q", name)
	}
	if loc.hostVisible() {
		if b.Mapped, err = b.Memory.Map(0, size); err != nil {
			return b, errors.Wrapf(err, "map %q", name)
		}
	}

	b.owner = a
	a.live[b] = struct{}{}
	a.log.Info.Printf("buffer %q: %d bytes of %s memory (type %d)", name, size, loc, memType)
	return b, nil
}

// Write copies data to the start of a mapped buffer.
func (b *GPUBuffer) Write(data []byte) error {
	if b.Mapped == nil {
		return errors.Errorf("buffer %q is not host visible", b.Name)
	}
	if len(data) > len(b.Mapped) {
		return errors.Errorf("buffer %q: %d bytes do not fit in %d", b.Name, len(data), len(b.Mapped))
	}
	copy(b.Mapped, data)
	return nil
}

// Destroy frees the buffer and its memory. a must be the allocator
// that created it. Destroying twice is a no-op.
func (b *GPUBuffer) Destroy(a *Allocator) error {
	if b.owner == nil {
		return nil
	}
	if b.owner != a {
		return errors.Wrapf(ErrForeignAllocator, "buffer %q", b.Name)
	}
	delete(a.live, b)
	b.owner = nil
	b.release()
	return nil
}

func (b *GPUBuffer) release() {
	if b.Memory != nil && b.Mapped != nil {
		b.Memory.Unmap()
		b.Mapped = nil
	}
	if b.Buffer != nil {
		b.Buffer.Destroy()
		b.Buffer = nil
	}
	if b.Memory != nil {
		b.Memory.Free()
		b.Memory = nil
	}
}

// Upload copies data into a new device local buffer through a host
// visible staging buffer. usage is combined with TransferDst.
func Upload(a *Allocator, group *OneTimeSubmitCommandGroup, name string, data []byte, usage vk.BufferUsageFlags) (*GPUBuffer, error) {
	size := vk.DeviceSize(len(data))
	staging, err := NewGPUBuffer(a, name+" staging", size,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit), MemoryCPUToGPU)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy(a)
	if err := staging.Write(data); err != nil {
		return nil, err
	}

	dst, err := NewGPUBuffer(a, name, size,
		usage|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit), MemoryGPUOnly)
	if err != nil {
		return nil, err
	}
	err = group.Record(func(cmd hal.CommandBuffer) {
		cmd.CopyBuffer(staging.Buffer, dst.Buffer, []vk.BufferCopy{{Size: size}})
	})
	if err != nil {
		dst.Destroy(a)
		return nil, errors.Wrapf(err, "upload %q", name)
	}
	return dst, nil
}

// UploadVertexBufferDataThroughTmpCommand uploads vertices into a
// device local vertex buffer.
func UploadVertexBufferDataThroughTmpCommand(a *Allocator, group *OneTimeSubmitCommandGroup, vertices []Vertex) (*GPUBuffer, error) {
	return Upload(a, group, "vertices", EncodeVertices(vertices),
		vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit))
}
