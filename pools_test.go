package framevk

import (
	"strings"
	"testing"

	"github.com/andewx/framevk/hal"
	"github.com/andewx/framevk/internal/gputest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestFrameBoundCommandGroupReusesBuffers(t *testing.T) {
	_, dc := newTestDevice(t)
	defer dc.Destroy()
	g, err := NewFrameBoundCommandGroup(dc.Device, dc.Families.Graphics)
	require.NoError(t, err)
	defer g.Destroy()
	pool := g.arena.pool.(*gputest.CommandPool)

	first, err := g.Allocate(2)
	require.NoError(t, err)
	assert.Len(t, first, 2)
	_, err = g.Allocate(1)
	require.NoError(t, err)
	assert.Equal(t, 3, g.Allocated())
	assert.Equal(t, 3, g.Capacity())

	require.NoError(t, g.Reset())
	assert.Equal(t, 0, g.Allocated())

	again, err := g.Allocate(2)
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, 3, g.Capacity())
	assert.Equal(t, 3, pool.Allocated())

	none, err := g.Allocate(0)
	assert.NoError(t, err)
	assert.Nil(t, none)
}

func TestFrameBoundCommandGroupResetWhilePending(t *testing.T) {
	drv, dc := newTestDevice(t)
	defer dc.Destroy()
	g, err := NewFrameBoundCommandGroup(dc.Device, dc.Families.Graphics)
	require.NoError(t, err)
	defer g.Destroy()
	fence, err := dc.Device.CreateFence(false)
	require.NoError(t, err)
	defer fence.Destroy()

	cmds, err := g.Allocate(1)
	require.NoError(t, err)
	require.NoError(t, cmds[0].Begin(0))
	require.NoError(t, cmds[0].End())
	require.NoError(t, dc.GraphicsQueue.Submit([]hal.SubmitInfo{{CommandBuffers: cmds}}, fence))

	assert.Error(t, g.Reset())
	assert.Len(t, drv.Violations(), 1)

	require.NoError(t, dc.Device.WaitForFences([]hal.Fence{fence}, vk.MaxUint64))
	assert.NoError(t, g.Reset())
	assert.Len(t, drv.Violations(), 1)
}

func TestOneTimeSubmitWithoutWork(t *testing.T) {
	drv, dc := newTestDevice(t)
	defer dc.Destroy()
	g, err := NewOneTimeSubmitCommandGroup(dc.Device, dc.GraphicsQueue, dc.Families.Graphics)
	require.NoError(t, err)
	defer g.Destroy()

	drv.ClearEvents()
	require.NoError(t, g.SubmitAndWait())
	assert.Empty(t, drv.Events())
}

func TestOneTimeSubmitRecord(t *testing.T) {
	drv, dc := newTestDevice(t)
	defer dc.Destroy()
	g, err := NewOneTimeSubmitCommandGroup(dc.Device, dc.GraphicsQueue, dc.Families.Graphics)
	require.NoError(t, err)
	defer g.Destroy()

	for i := 0; i < 3; i++ {
		drv.ClearEvents()
		called := false
		require.NoError(t, g.Record(func(cmd hal.CommandBuffer) { called = true }))
		assert.True(t, called)
		assert.Equal(t, 0, g.arena.cursor)
		assert.Equal(t, 0, drv.Pending())

		var kinds []string
		for _, e := range drv.Events() {
			kinds = append(kinds, strings.Fields(e)[0])
		}
		assert.Equal(t, []string{"submit", "wait", "reset", "reset"}, kinds[len(kinds)-4:])
	}
	assert.Equal(t, 1, g.arena.pool.(*gputest.CommandPool).Allocated())
	assert.Empty(t, drv.Violations())
}
