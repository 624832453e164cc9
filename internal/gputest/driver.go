// Package gputest is an in-memory implementation of hal for tests.
//
// Submitted work never runs on its own: it completes, in submission
// order, when a fence it signals is waited on or the device is
// waited idle. Waiting on a fence that nothing will signal fails
// instead of blocking. Misuse that a real driver would turn into
// undefined behaviour, such as resetting a pool whose buffers are
// still pending, is recorded as a violation.
package gputest

import (
	"fmt"
	"sort"

	"github.com/andewx/framevk/hal"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// ErrDeadlock is returned when a wait could never finish.
var ErrDeadlock = errors.New("gputest: wait on a fence with no pending work")

// Driver is the shared state of every fake object created from it.
type Driver struct {
	// AcquireErrors are returned by successive acquires, one each.
	// A nil entry acquires normally. hal.ErrOutOfDate acquires
	// nothing.
	AcquireErrors []error
	// AcquireOrder, when set, is cycled through for image indices
	// instead of round robin.
	AcquireOrder []uint32
	// PresentErrors are returned by successive presents.
	PresentErrors []error
	// FailPipeline makes CreateGraphicsPipeline fail.
	FailPipeline bool
	// MemoryTypeBits overrides the memory types buffers accept.
	MemoryTypeBits uint32

	DeviceInfos       []hal.DeviceInfo
	Swapchains        []hal.SwapchainInfo
	RenderPasses      []vk.RenderPassCreateInfo
	Framebuffers      []hal.FramebufferInfo
	Pipelines         []hal.PipelineInfo
	SubmittedCommands [][]string
	Presented         []uint32

	nextID     int
	events     []string
	live       map[string]int
	violations []string
	pending    []*submission
	acquires   int
}

func New() *Driver {
	return &Driver{live: make(map[string]int)}
}

// NewInstance returns an instance enumerating gpus in order.
func (d *Driver) NewInstance(gpus ...*PhysicalDevice) hal.Instance {
	inst := &Instance{object: d.newObject("instance"), gpus: gpus}
	for _, g := range gpus {
		g.drv = d
	}
	return inst
}

func (d *Driver) NewSurface() hal.Surface {
	return &Surface{object: d.newObject("surface")}
}

// Events returns the log of driver calls, oldest first.
func (d *Driver) Events() []string {
	return append([]string(nil), d.events...)
}

func (d *Driver) ClearEvents() { d.events = nil }

// Violations lists every misuse seen so far.
func (d *Driver) Violations() []string {
	return append([]string(nil), d.violations...)
}

// Live counts the objects not yet destroyed, per kind.
func (d *Driver) Live() map[string]int {
	out := make(map[string]int, len(d.live))
	for k, n := range d.live {
		if n != 0 {
			out[k] = n
		}
	}
	return out
}

// LiveKinds lists the kinds with live objects, sorted.
func (d *Driver) LiveKinds() []string {
	var kinds []string
	for k, n := range d.live {
		if n != 0 {
			kinds = append(kinds, k)
		}
	}
	sort.Strings(kinds)
	return kinds
}

// Pending is the number of submissions that have not completed.
func (d *Driver) Pending() int { return len(d.pending) }

func (d *Driver) event(format string, args ...interface{}) {
	d.events = append(d.events, fmt.Sprintf(format, args...))
}

func (d *Driver) violation(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	d.violations = append(d.violations, msg)
	d.event("VIOLATION %s", msg)
}

func (d *Driver) newObject(kind string) object {
	d.nextID++
	id := fmt.Sprintf("%s#%d", kind, d.nextID)
	d.live[kind]++
	d.event("create %s", id)
	return object{drv: d, kind: kind, id: id}
}

func (d *Driver) inUse(id string) bool {
	for _, s := range d.pending {
		if s.refs[id] {
			return true
		}
	}
	return false
}

// completeThrough retires pending submissions in order up to and
// including last.
func (d *Driver) completeThrough(last *submission) {
	for len(d.pending) > 0 {
		s := d.pending[0]
		d.pending = d.pending[1:]
		s.complete()
		if s == last {
			return
		}
	}
}

func (d *Driver) completeAll() {
	for len(d.pending) > 0 {
		s := d.pending[0]
		d.pending = d.pending[1:]
		s.complete()
	}
}

// object carries identity and lifetime tracking for a fake handle.
type object struct {
	drv       *Driver
	kind      string
	id        string
	destroyed bool
}

func (o *object) ID() string { return o.id }

func (o *object) destroy() {
	if o.destroyed {
		o.drv.violation("%s destroyed twice", o.id)
		return
	}
	if o.drv.inUse(o.id) {
		o.drv.violation("%s destroyed while in use by pending work", o.id)
	}
	o.destroyed = true
	o.drv.live[o.kind]--
	o.drv.event("destroy %s", o.id)
}

func (o *object) alive(op string) error {
	if o.destroyed {
		o.drv.violation("%s on destroyed %s", op, o.id)
		return errors.Errorf("gputest: %s on destroyed %s", op, o.id)
	}
	return nil
}

type submission struct {
	cmds  []*CommandBuffer
	fence *Fence
	refs  map[string]bool
}

func (s *submission) complete() {
	for _, c := range s.cmds {
		for _, op := range c.ops {
			op()
		}
		c.state = stateExecutable
	}
	if s.fence != nil {
		s.fence.signaled = true
		s.fence.pending = nil
	}
}

type Instance struct {
	object
	gpus []*PhysicalDevice
}

func (i *Instance) PhysicalDevices() ([]hal.PhysicalDevice, error) {
	if err := i.alive("enumerate"); err != nil {
		return nil, err
	}
	list := make([]hal.PhysicalDevice, len(i.gpus))
	for n, g := range i.gpus {
		list[n] = g
	}
	return list, nil
}

func (i *Instance) Destroy() { i.destroy() }

type Surface struct {
	object
}

func (s *Surface) Destroy() { s.destroy() }
