package vulkan

import (
	"github.com/andewx/framevk/hal"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

func isError(ret vk.Result) bool {
	return ret != vk.Success
}

// NewError converts a Vulkan result into an error.
// Results the renderer reacts to are mapped onto the hal
// sentinels, everything else carries the result code and a
// stack trace.
func NewError(ret vk.Result) error {
	switch ret {
	case vk.Success:
		return nil
	case vk.ErrorOutOfDate:
		return hal.ErrOutOfDate
	case vk.Suboptimal:
		return hal.ErrSuboptimal
	case vk.Timeout:
		return hal.ErrTimeout
	case vk.ErrorDeviceLost:
		return hal.ErrDeviceLost
	}
	if err := vk.Error(ret); err != nil {
		return errors.Wrapf(err, "vulkan error (%d)", ret)
	}
	return errors.Errorf("vulkan: unexpected result (%d)", ret)
}
