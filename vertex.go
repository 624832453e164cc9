package framevk

import (
	"bytes"
	"encoding/binary"

	vk "github.com/vulkan-go/vulkan"
)

// Vertex is a 2D clip space position with an RGB color.
type Vertex struct {
	Pos   [2]float32
	Color [3]float32
}

const (
	VertexStride      = 20
	vertexColorOffset = 8
)

// TriangleVertices is the default triangle, one primary color per
// corner.
var TriangleVertices = []Vertex{
	{Pos: [2]float32{0.0, -0.5}, Color: [3]float32{1, 0, 0}},
	{Pos: [2]float32{0.5, 0.5}, Color: [3]float32{0, 1, 0}},
	{Pos: [2]float32{-0.5, 0.5}, Color: [3]float32{0, 0, 1}},
}

// VertexAttribute is one shader input read from the vertex binding.
type VertexAttribute struct {
	Location uint32
	Format   vk.Format
	Offset   uint32
}

// VertexLayout describes a single interleaved vertex binding.
type VertexLayout struct {
	Stride     uint32
	Attributes []VertexAttribute
}

func (l VertexLayout) bindings() []vk.VertexInputBindingDescription {
	return []vk.VertexInputBindingDescription{{
		Binding:   0,
		Stride:    l.Stride,
		InputRate: vk.VertexInputRateVertex,
	}}
}

func (l VertexLayout) attributes() []vk.VertexInputAttributeDescription {
	attrs := make([]vk.VertexInputAttributeDescription, len(l.Attributes))
	for i, a := range l.Attributes {
		attrs[i] = vk.VertexInputAttributeDescription{
			Location: a.Location,
			Binding:  0,
			Format:   a.Format,
			Offset:   a.Offset,
		}
	}
	return attrs
}

// VertexLayoutOf is the layout of Vertex.
func VertexLayoutOf() VertexLayout {
	return VertexLayout{
		Stride: VertexStride,
		Attributes: []VertexAttribute{
			{Location: 0, Format: vk.FormatR32g32Sfloat, Offset: 0},
			{Location: 1, Format: vk.FormatR32g32b32Sfloat, Offset: vertexColorOffset},
		},
	}
}

// EncodeVertices packs vertices the way the GPU reads them.
func EncodeVertices(vertices []Vertex) []byte {
	var buf bytes.Buffer
	buf.Grow(len(vertices) * VertexStride)
	// Writing fixed size values into a bytes.Buffer cannot fail.
	_ = binary.Write(&buf, binary.LittleEndian, vertices)
	return buf.Bytes()
}
