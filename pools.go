package framevk

import (
	"github.com/andewx/framevk/hal"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// commandArena hands out primary command buffers from a pool. The
// buffers outlive a reset and are handed out again from the start.
type commandArena struct {
	pool    hal.CommandPool
	buffers []hal.CommandBuffer
	cursor  int
}

func newCommandArena(dev hal.Device, family uint32, flags vk.CommandPoolCreateFlags) (commandArena, error) {
	pool, err := dev.CreateCommandPool(family, flags)
	if err != nil {
		return commandArena{}, errors.Wrapf(err, "create command pool for family %d", family)
	}
	return commandArena{pool: pool}, nil
}

func (a *commandArena) allocate(k int) ([]hal.CommandBuffer, error) {
	if k <= 0 {
		return nil, nil
	}
	if need := a.cursor + k - len(a.buffers); need > 0 {
		more, err := a.pool.Allocate(vk.CommandBufferLevelPrimary, uint32(need))
		if err != nil {
			return nil, err
		}
		a.buffers = append(a.buffers, more...)
	}
	out := a.buffers[a.cursor : a.cursor+k]
	a.cursor += k
	return out, nil
}

func (a *commandArena) reset() error {
	if err := a.pool.Reset(); err != nil {
		return errors.Wrap(err, "reset command pool")
	}
	a.cursor = 0
	return nil
}

func (a *commandArena) destroy() {
	if a.pool != nil {
		a.pool.Destroy()
		a.pool = nil
	}
	a.buffers = nil
	a.cursor = 0
}

// FrameBoundCommandGroup owns the command buffers recorded for one
// swapchain image. It is reset once per use of that image, after the
// fence guarding its last submission has signaled.
type FrameBoundCommandGroup struct {
	arena commandArena
}

func NewFrameBoundCommandGroup(dev hal.Device, family uint32) (*FrameBoundCommandGroup, error) {
	arena, err := newCommandArena(dev, family, vk.CommandPoolCreateFlags(vk.CommandPoolCreateTransientBit))
	if err != nil {
		return nil, err
	}
	return &FrameBoundCommandGroup{arena: arena}, nil
}

// Allocate returns k buffers in the initial state, allocating from
// the pool only when the arena runs out.
func (g *FrameBoundCommandGroup) Allocate(k int) ([]hal.CommandBuffer, error) {
	return g.arena.allocate(k)
}

func (g *FrameBoundCommandGroup) Reset() error { return g.arena.reset() }

// Allocated is the number of buffers handed out since the last reset.
func (g *FrameBoundCommandGroup) Allocated() int { return g.arena.cursor }

// Capacity is the number of buffers the arena holds.
func (g *FrameBoundCommandGroup) Capacity() int { return len(g.arena.buffers) }

func (g *FrameBoundCommandGroup) Destroy() { g.arena.destroy() }

// OneTimeSubmitCommandGroup records short lived work such as
// transfers and runs it to completion.
type OneTimeSubmitCommandGroup struct {
	arena commandArena
	dev   hal.Device
	queue hal.Queue
	fence hal.Fence
}

func NewOneTimeSubmitCommandGroup(dev hal.Device, queue hal.Queue, family uint32) (*OneTimeSubmitCommandGroup, error) {
	arena, err := newCommandArena(dev, family, vk.CommandPoolCreateFlags(vk.CommandPoolCreateTransientBit))
	if err != nil {
		return nil, err
	}
	fence, err := dev.CreateFence(false)
	if err != nil {
		arena.destroy()
		return nil, errors.Wrap(err, "create one-time submit fence")
	}
	return &OneTimeSubmitCommandGroup{arena: arena, dev: dev, queue: queue, fence: fence}, nil
}

func (g *OneTimeSubmitCommandGroup) Allocate(k int) ([]hal.CommandBuffer, error) {
	return g.arena.allocate(k)
}

// SubmitAndWait submits every buffer allocated since the last reset
// and blocks until the queue has executed them. Nothing is submitted
// when no buffer was allocated.
func (g *OneTimeSubmitCommandGroup) SubmitAndWait() error {
	if g.arena.cursor == 0 {
		return nil
	}
	cmds := g.arena.buffers[:g.arena.cursor]
	if err := g.queue.Submit([]hal.SubmitInfo{{CommandBuffers: cmds}}, g.fence); err != nil {
		return errors.Wrap(err, "submit one-time commands")
	}
	fences := []hal.Fence{g.fence}
	if err := g.dev.WaitForFences(fences, vk.MaxUint64); err != nil {
		return errors.Wrap(err, "wait for one-time commands")
	}
	if err := g.dev.ResetFences(fences); err != nil {
		return errors.Wrap(err, "reset one-time fence")
	}
	return g.arena.reset()
}

// Record records fn into a fresh buffer and runs it with
// SubmitAndWait.
func (g *OneTimeSubmitCommandGroup) Record(fn func(cmd hal.CommandBuffer)) error {
	cmds, err := g.Allocate(1)
	if err != nil {
		return errors.Wrap(err, "allocate one-time command buffer")
	}
	cmd := cmds[0]
	if err := cmd.Begin(vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)); err != nil {
		return err
	}
	fn(cmd)
	if err := cmd.End(); err != nil {
		return err
	}
	return g.SubmitAndWait()
}

func (g *OneTimeSubmitCommandGroup) Destroy() {
	if g.fence != nil {
		g.fence.Destroy()
		g.fence = nil
	}
	g.arena.destroy()
}
