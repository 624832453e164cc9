package framevk

import (
	"testing"

	"github.com/andewx/framevk/hal"
	"github.com/andewx/framevk/internal/gputest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFrameSyncContext(t *testing.T) {
	drv, dc := newTestDevice(t)
	defer dc.Destroy()

	_, err := NewFrameSyncContext(dc.Device, 0)
	assert.Error(t, err)

	fs, err := NewFrameSyncContext(dc.Device, 2)
	require.NoError(t, err)
	require.Len(t, fs.Frames, 2)
	for _, f := range fs.Frames {
		assert.True(t, f.InFlight.(*gputest.Fence).Signaled())
		assert.NotEqual(t, f.ImageAvailable, f.RenderFinished)
	}
	assert.Equal(t, 2, drv.Live()["fence"])
	assert.Equal(t, 4, drv.Live()["semaphore"])

	assert.Equal(t, 0, fs.Current())
	fs.Advance()
	assert.Equal(t, 1, fs.Current())
	fs.Advance()
	assert.Equal(t, 0, fs.Current())

	fs.Destroy()
	assert.Equal(t, 0, drv.Live()["fence"])
	assert.Equal(t, 0, drv.Live()["semaphore"])
}

func TestGuardImage(t *testing.T) {
	drv, dc := newTestDevice(t)
	defer dc.Destroy()
	fs, err := NewFrameSyncContext(dc.Device, 2)
	require.NoError(t, err)
	defer fs.Destroy()

	fs.SetImageCount(3)
	assert.Equal(t, 3, fs.ImageCount())
	assert.Error(t, fs.GuardImage(3))

	// slot 0 submits work for image 1
	require.NoError(t, fs.GuardImage(1))
	slot0 := fs.Slot().InFlight
	require.NoError(t, dc.Device.ResetFences([]hal.Fence{slot0}))
	require.NoError(t, dc.GraphicsQueue.Submit(nil, slot0))
	fs.Advance()

	drv.ClearEvents()
	require.NoError(t, fs.GuardImage(1))
	assert.Equal(t, []string{"wait " + slot0.(*gputest.Fence).ID()}, drv.Events())
	assert.True(t, slot0.(*gputest.Fence).Signaled())

	// the slot that owns the image does not wait on itself
	drv.ClearEvents()
	require.NoError(t, fs.GuardImage(1))
	assert.Empty(t, drv.Events())

	fs.SetImageCount(2)
	drv.ClearEvents()
	require.NoError(t, fs.GuardImage(1))
	assert.Empty(t, drv.Events())
	assert.Empty(t, drv.Violations())
}

func TestWaitForSlotDetectsDeadlock(t *testing.T) {
	drv, dc := newTestDevice(t)
	defer dc.Destroy()
	fs, err := NewFrameSyncContext(dc.Device, 2)
	require.NoError(t, err)
	defer fs.Destroy()

	require.NoError(t, fs.WaitForSlot())
	require.NoError(t, dc.Device.ResetFences([]hal.Fence{fs.Slot().InFlight}))

	err = fs.WaitForSlot()
	assert.ErrorIs(t, err, gputest.ErrDeadlock)
	assert.Len(t, drv.Violations(), 1)
}
