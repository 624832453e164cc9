package framevk

import (
	"testing"

	"github.com/andewx/framevk/internal/gputest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestFindMemoryType(t *testing.T) {
	_, dc := newTestDevice(t)
	defer dc.Destroy()
	a := NewAllocator(dc.Device, dc.MemoryTypes, nil)

	tests := []struct {
		loc  MemoryLocation
		bits uint32
		want uint32
	}{
		{MemoryGPUOnly, 0x7, 0},
		{MemoryCPUToGPU, 0x7, 1},
		{MemoryGPUToCPU, 0x7, 2},
		{MemoryGPUToCPU, 0x3, 1},
		{MemoryCPUToGPU, 0x4, 2},
		{MemoryGPUOnly, 0x2, 1},
	}
	for _, tt := range tests {
		got, err := a.FindMemoryType(tt.bits, tt.loc)
		require.NoError(t, err, "%s %#x", tt.loc, tt.bits)
		assert.Equal(t, tt.want, got, "%s %#x", tt.loc, tt.bits)
	}

	_, err := a.FindMemoryType(0x1, MemoryCPUToGPU)
	assert.True(t, errors.Is(err, ErrNoMemoryType))
	_, err = a.FindMemoryType(0, MemoryGPUOnly)
	assert.True(t, errors.Is(err, ErrNoMemoryType))
}

func TestNewGPUBuffer(t *testing.T) {
	drv, dc := newTestDevice(t)
	defer dc.Destroy()
	a := NewAllocator(dc.Device, dc.MemoryTypes, nil)

	b, err := NewGPUBuffer(a, "upload", 40, vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit), MemoryCPUToGPU)
	require.NoError(t, err)
	assert.Len(t, b.Mapped, 40)
	assert.Equal(t, uint32(1), b.Memory.(*gputest.Memory).Type)
	assert.Equal(t, 1, a.Live())

	require.NoError(t, b.Write([]byte{1, 2, 3}))
	assert.Equal(t, []byte{1, 2, 3}, gputest.BufferData(b.Buffer)[:3])
	assert.Error(t, b.Write(make([]byte, 41)))

	require.NoError(t, b.Destroy(a))
	require.NoError(t, b.Destroy(a))
	assert.Equal(t, 0, a.Live())
	assert.NoError(t, a.Destroy())
	assert.Equal(t, 0, drv.Live()["buffer"])
	assert.Equal(t, 0, drv.Live()["memory"])
	assert.Empty(t, drv.Violations())
}

func TestNewGPUBufferDeviceLocalIsNotMapped(t *testing.T) {
	_, dc := newTestDevice(t)
	defer dc.Destroy()
	a := NewAllocator(dc.Device, dc.MemoryTypes, nil)

	b, err := NewGPUBuffer(a, "vertices", 16, vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit), MemoryGPUOnly)
	require.NoError(t, err)
	defer b.Destroy(a)
	assert.Nil(t, b.Mapped)
	assert.Error(t, b.Write([]byte{1}))
}

func TestNewGPUBufferNoMemoryType(t *testing.T) {
	drv, dc := newTestDevice(t)
	defer dc.Destroy()
	a := NewAllocator(dc.Device, dc.MemoryTypes, nil)
	drv.MemoryTypeBits = 0x1

	_, err := NewGPUBuffer(a, "staging", 16, vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit), MemoryCPUToGPU)
	assert.True(t, errors.Is(err, ErrNoMemoryType))
	assert.Equal(t, 0, a.Live())
	assert.Equal(t, 0, drv.Live()["buffer"])

	_, err = NewGPUBuffer(a, "empty", 0, 0, MemoryGPUOnly)
	assert.Error(t, err)
}

func TestGPUBufferForeignAllocator(t *testing.T) {
	_, dc := newTestDevice(t)
	defer dc.Destroy()
	a := NewAllocator(dc.Device, dc.MemoryTypes, nil)
	other := NewAllocator(dc.Device, dc.MemoryTypes, nil)

	b, err := NewGPUBuffer(a, "b", 16, vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit), MemoryGPUOnly)
	require.NoError(t, err)

	err = b.Destroy(other)
	assert.True(t, errors.Is(err, ErrForeignAllocator))
	assert.Equal(t, 1, a.Live())

	err = a.Destroy()
	assert.True(t, errors.Is(err, ErrLiveAllocations))

	require.NoError(t, b.Destroy(a))
	assert.NoError(t, a.Destroy())
}

func TestUpload(t *testing.T) {
	drv, dc := newTestDevice(t)
	defer dc.Destroy()
	a := NewAllocator(dc.Device, dc.MemoryTypes, nil)
	group, err := NewOneTimeSubmitCommandGroup(dc.Device, dc.GraphicsQueue, dc.Families.Graphics)
	require.NoError(t, err)
	defer group.Destroy()

	data := []byte("the quick brown fox jumps over the lazy dog")
	b, err := Upload(a, group, "text", data, vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit))
	require.NoError(t, err)

	assert.Equal(t, data, gputest.BufferData(b.Buffer))
	assert.Equal(t, MemoryGPUOnly, b.Location)
	assert.Equal(t, uint32(0), b.Memory.(*gputest.Memory).Type)
	usage := b.Buffer.(*gputest.Buffer).Usage
	assert.NotZero(t, usage&vk.BufferUsageFlags(vk.BufferUsageTransferDstBit))
	assert.NotZero(t, usage&vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit))

	// staging buffer is gone once the copy completed
	assert.Equal(t, 1, a.Live())
	assert.Equal(t, 0, drv.Pending())

	require.NoError(t, b.Destroy(a))
	assert.NoError(t, a.Destroy())
	assert.Empty(t, drv.Violations())
}

func TestUploadVertexBufferDataThroughTmpCommand(t *testing.T) {
	_, dc := newTestDevice(t)
	defer dc.Destroy()
	a := NewAllocator(dc.Device, dc.MemoryTypes, nil)
	group, err := NewOneTimeSubmitCommandGroup(dc.Device, dc.GraphicsQueue, dc.Families.Graphics)
	require.NoError(t, err)
	defer group.Destroy()

	b, err := UploadVertexBufferDataThroughTmpCommand(a, group, TriangleVertices)
	require.NoError(t, err)
	defer b.Destroy(a)
	assert.Equal(t, vk.DeviceSize(3*VertexStride), b.Size)
	assert.Equal(t, EncodeVertices(TriangleVertices), gputest.BufferData(b.Buffer))
}
