package window

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/stretchr/testify/assert"
)

func TestCloseKey(t *testing.T) {
	assert.True(t, closeKey(glfw.KeyEscape, glfw.Press))
	assert.False(t, closeKey(glfw.KeyEscape, glfw.Release))
	assert.False(t, closeKey(glfw.KeyEscape, glfw.Repeat))
	assert.False(t, closeKey(glfw.KeySpace, glfw.Press))
}

func TestMinimized(t *testing.T) {
	assert.True(t, minimized(0, 0))
	assert.True(t, minimized(800, 0))
	assert.True(t, minimized(0, 600))
	assert.False(t, minimized(800, 600))
	assert.False(t, minimized(1, 1))
}
