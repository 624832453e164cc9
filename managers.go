package framevk

import (
	"github.com/andewx/framevk/hal"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

const DefaultFramesInFlight = 2

// FrameSync holds the primitives of one frame in flight.
type FrameSync struct {
	ImageAvailable hal.Semaphore
	RenderFinished hal.Semaphore
	InFlight       hal.Fence
}

// FrameSyncContext is a ring of FrameSync slots plus a record of the
// slot that last rendered to each swapchain image.
// It is not safe for concurrent use.
type FrameSyncContext struct {
	dev     hal.Device
	Frames  []FrameSync
	current int

	// slot index per swapchain image, -1 when unused
	imagesInFlight []int
}

// NewFrameSyncContext creates frames slots. Fences start signaled so
// the first wait on each slot returns at once.
func NewFrameSyncContext(dev hal.Device, frames int) (fs *FrameSyncContext, err error) {
	if frames < 1 {
		return nil, errors.Errorf("frames in flight must be at least 1, got %d", frames)
	}
	fs = &FrameSyncContext{dev: dev}
	defer func() {
		if err != nil {
			fs.Destroy()
			fs = nil
		}
	}()

	for i := 0; i < frames; i++ {
		var f FrameSync
		if f.ImageAvailable, err = dev.CreateSemaphore(); err != nil {
			return fs, errors.Wrapf(err, "create image available semaphore %d", i)
		}
		if f.RenderFinished, err = dev.CreateSemaphore(); err != nil {
			f.ImageAvailable.Destroy()
			return fs, errors.Wrapf(err, "create render finished semaphore %d", i)
		}
		if f.InFlight, err = dev.CreateFence(true); err != nil {
			f.ImageAvailable.Destroy()
			f.RenderFinished.Destroy()
			return fs, errors.Wrapf(err, "create in flight fence %d", i)
		}
		fs.Frames = append(fs.Frames, f)
	}
	return fs, nil
}

func (fs *FrameSyncContext) Current() int { return fs.current }

func (fs *FrameSyncContext) Slot() *FrameSync { return &fs.Frames[fs.current] }

// WaitForSlot blocks until the GPU is done with the current slot.
func (fs *FrameSyncContext) WaitForSlot() error {
	err := fs.dev.WaitForFences([]hal.Fence{fs.Slot().InFlight}, vk.MaxUint64)
	return errors.Wrapf(err, "wait for frame slot %d", fs.current)
}

// GuardImage waits for the other slot still rendering to image, if
// any, and records the current slot as its user.
func (fs *FrameSyncContext) GuardImage(image uint32) error {
	if int(image) >= len(fs.imagesInFlight) {
		return errors.Errorf("image index %d out of range (%d images)", image, len(fs.imagesInFlight))
	}
	if slot := fs.imagesInFlight[image]; slot >= 0 && slot != fs.current {
		err := fs.dev.WaitForFences([]hal.Fence{fs.Frames[slot].InFlight}, vk.MaxUint64)
		if err != nil {
			return errors.Wrapf(err, "wait for image %d held by slot %d", image, slot)
		}
	}
	fs.imagesInFlight[image] = fs.current
	return nil
}

// SetImageCount forgets all image tracking and sizes it for n images.
func (fs *FrameSyncContext) SetImageCount(n int) {
	fs.imagesInFlight = make([]int, n)
	for i := range fs.imagesInFlight {
		fs.imagesInFlight[i] = -1
	}
}

func (fs *FrameSyncContext) ImageCount() int { return len(fs.imagesInFlight) }

// Advance moves to the next slot of the ring.
func (fs *FrameSyncContext) Advance() {
	fs.current = (fs.current + 1) % len(fs.Frames)
}

func (fs *FrameSyncContext) Destroy() {
	for _, f := range fs.Frames {
		f.ImageAvailable.Destroy()
		f.RenderFinished.Destroy()
		f.InFlight.Destroy()
	}
	fs.Frames = nil
	fs.imagesInFlight = nil
}
