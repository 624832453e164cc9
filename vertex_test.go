package framevk

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeVertices(t *testing.T) {
	b := EncodeVertices(TriangleVertices)
	require.Len(t, b, len(TriangleVertices)*VertexStride)

	f := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
	}
	assert.Equal(t, float32(0), f(0))
	assert.Equal(t, float32(-0.5), f(4))
	assert.Equal(t, float32(1), f(vertexColorOffset))
	assert.Equal(t, float32(0), f(vertexColorOffset+4))

	second := VertexStride
	assert.Equal(t, float32(0.5), f(second))
	assert.Equal(t, float32(1), f(second+vertexColorOffset+4))

	assert.Empty(t, EncodeVertices(nil))
}

func TestVertexLayoutOf(t *testing.T) {
	l := VertexLayoutOf()
	assert.Equal(t, uint32(VertexStride), l.Stride)
	require.Len(t, l.Attributes, 2)
	assert.Equal(t, uint32(vertexColorOffset), l.Attributes[1].Offset)
	assert.Len(t, l.bindings(), 1)
	assert.Len(t, l.attributes(), 2)
}
