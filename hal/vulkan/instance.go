// Package vulkan implements hal on top of github.com/vulkan-go/vulkan.
// The loader is obtained through GLFW, so Init must run after
// glfw.Init on the main thread.
package vulkan

import (
	"log"
	"unsafe"

	"github.com/andewx/framevk/hal"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

const debugReportExtension = "VK_EXT_debug_report"

var (
	DefaultAppVersion = vk.Version(vk.MakeVersion(1, 0, 0))
	DefaultAPIVersion = vk.Version(vk.MakeVersion(1, 0, 0))
)

// Init points vulkan-go at the loader GLFW found and loads the
// global entry points.
func Init() error {
	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	return errors.Wrap(vk.Init(), "vulkan: loader init")
}

// InstanceInfo describes the instance to create.
type InstanceInfo struct {
	AppName    string
	AppVersion vk.Version
	APIVersion vk.Version
	// Extensions are required: instance creation fails if one
	// is not available.
	Extensions []string
	// Layers must already be filtered down to available ones.
	Layers []string
	// Debug registers a debug report callback writing to Log.
	Debug bool
	Log   *log.Logger
}

type instance struct {
	handle        vk.Instance
	debugCallback vk.DebugReportCallback
}

// NewInstance creates a Vulkan instance.
func NewInstance(info *InstanceInfo) (hal.Instance, error) {
	available, err := InstanceExtensions()
	if err != nil {
		return nil, err
	}
	extensions, missing := checkExisting(available, info.Extensions)
	if missing > 0 {
		return nil, errors.Errorf("vulkan: %d required instance extensions missing", missing)
	}
	debug := info.Debug
	if debug {
		if ext, _ := checkExisting(available, []string{debugReportExtension}); len(ext) == 1 {
			extensions = append(extensions, ext[0])
		} else {
			debug = false
			logf(info.Log, "vulkan warning: %s not available, debug report disabled", debugReportExtension)
		}
	}

	appVersion, apiVersion := info.AppVersion, info.APIVersion
	if appVersion == 0 {
		appVersion = DefaultAppVersion
	}
	if apiVersion == 0 {
		apiVersion = DefaultAPIVersion
	}

	var handle vk.Instance
	ret := vk.CreateInstance(&vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			ApiVersion:         uint32(apiVersion),
			ApplicationVersion: uint32(appVersion),
			PApplicationName:   safeString(info.AppName),
			PEngineName:        "framevk\x00",
		},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(info.Layers)),
		PpEnabledLayerNames:     safeStrings(info.Layers),
	}, nil, &handle)
	if isError(ret) {
		return nil, errors.Wrap(NewError(ret), "vulkan: create instance")
	}
	vk.InitInstance(handle)
	logf(info.Log, "vulkan: enabled %d instance extensions, %d layers", len(extensions), len(info.Layers))

	inst := &instance{handle: handle}
	if debug {
		ret := vk.CreateDebugReportCallback(handle, &vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: debugReport(info.Log),
		}, nil, &inst.debugCallback)
		if isError(ret) {
			vk.DestroyInstance(handle, nil)
			return nil, errors.Wrap(NewError(ret), "vulkan: create debug report callback")
		}
	}
	return inst, nil
}

func (i *instance) PhysicalDevices() ([]hal.PhysicalDevice, error) {
	var count uint32
	ret := vk.EnumeratePhysicalDevices(i.handle, &count, nil)
	if isError(ret) {
		return nil, NewError(ret)
	}
	gpus := make([]vk.PhysicalDevice, count)
	ret = vk.EnumeratePhysicalDevices(i.handle, &count, gpus)
	if isError(ret) {
		return nil, NewError(ret)
	}
	list := make([]hal.PhysicalDevice, 0, count)
	for _, gpu := range gpus[:count] {
		list = append(list, newPhysicalDevice(gpu))
	}
	return list, nil
}

func (i *instance) Destroy() {
	if i.debugCallback != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(i.handle, i.debugCallback, nil)
		i.debugCallback = vk.NullDebugReportCallback
	}
	if i.handle != nil {
		vk.DestroyInstance(i.handle, nil)
		i.handle = nil
	}
}

func debugReport(l *log.Logger) vk.DebugReportCallbackFunc {
	return func(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
		object uint64, location uint, messageCode int32, pLayerPrefix string,
		pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

		switch {
		case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
			logf(l, "ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
		case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
			logf(l, "WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
		case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
			logf(l, "PERFORMANCE WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
		default:
			logf(l, "INFORMATION: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
		}
		return vk.Bool32(vk.False)
	}
}

func logf(l *log.Logger, format string, args ...interface{}) {
	if l == nil {
		l = log.Default()
	}
	l.Printf(format, args...)
}
