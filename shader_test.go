package framevk

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func spirvBytes(words ...uint32) []byte {
	b := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(b[i*4:], w)
	}
	return b
}

func memFiles(files map[string][]byte) func(string) ([]byte, error) {
	return func(name string) ([]byte, error) {
		b, ok := files[name]
		if !ok {
			return nil, os.ErrNotExist
		}
		return b, nil
	}
}

func TestShaderStage(t *testing.T) {
	assert.Equal(t, "vertex", ShaderVertex.String())
	assert.Equal(t, vk.ShaderStageFragmentBit, ShaderFragment.Flags())
	assert.Equal(t, vk.ShaderStageComputeBit, ShaderCompute.Flags())
	assert.Equal(t, "unknown", ShaderStage(9).String())
}

func TestFileCompilerSPIRV(t *testing.T) {
	c := FileCompiler{ReadFile: memFiles(map[string][]byte{
		"tri.vert.spv": spirvBytes(spirvMagic, 0x00010000, 0, 8, 0),
		"short.spv":    {0x03, 0x02, 0x23, 0x07, 0x00},
		"magic.spv":    spirvBytes(0xdeadbeef, 0),
		"tri.glsl":     []byte("void main() {}"),
	})}

	code, err := c.Compile("tri.vert.spv", ShaderVertex)
	require.NoError(t, err)
	assert.Equal(t, []uint32{spirvMagic, 0x00010000, 0, 8, 0}, code.Code)
	assert.Equal(t, "main", code.Entry)
	assert.Equal(t, ShaderVertex, code.Stage)

	_, err = c.Compile("short.spv", ShaderVertex)
	assert.True(t, errors.Is(err, ErrUnsupportedShader))
	_, err = c.Compile("magic.spv", ShaderVertex)
	assert.True(t, errors.Is(err, ErrUnsupportedShader))
	_, err = c.Compile("tri.glsl", ShaderVertex)
	assert.True(t, errors.Is(err, ErrUnsupportedShader))
	_, err = c.Compile("tri.vert.spv", ShaderStage(7))
	assert.True(t, errors.Is(err, ErrUnknownShaderStage))
	_, err = c.Compile("missing.spv", ShaderVertex)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestFileCompilerWGSL(t *testing.T) {
	var c FileCompiler
	path := filepath.Join("shaders", "triangle.wgsl")

	vert, err := c.Compile(path, ShaderVertex)
	require.NoError(t, err)
	assert.Equal(t, uint32(spirvMagic), vert.Code[0])
	assert.Equal(t, "vs_main", vert.Entry)

	frag, err := c.Compile(path, ShaderFragment)
	require.NoError(t, err)
	assert.Equal(t, "fs_main", frag.Entry)
	assert.Equal(t, ShaderFragment, frag.Stage)
}

func TestSPIRVWords(t *testing.T) {
	_, err := SPIRVWords(nil)
	assert.Error(t, err)

	words, err := SPIRVWords(spirvBytes(spirvMagic, 42))
	require.NoError(t, err)
	assert.Equal(t, []uint32{spirvMagic, 42}, words)
}

func TestShaderWatcher(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "triangle.wgsl")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(watched, []byte("// v1"), 0644))

	sw, err := NewShaderWatcher([]string{watched, watched}, nil)
	require.NoError(t, err)
	defer sw.Close()
	assert.False(t, sw.Dirty())

	require.NoError(t, os.WriteFile(other, []byte("unrelated"), 0644))
	time.Sleep(100 * time.Millisecond)
	assert.False(t, sw.Dirty())

	require.NoError(t, os.WriteFile(watched, []byte("// v2"), 0644))
	assert.Eventually(t, sw.Dirty, 2*time.Second, 10*time.Millisecond)
}
