package vulkan

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// enumerate runs the usual two call Vulkan query: once for the
// count, once to fill a slice of that size.
func enumerate[T any](what string, query func(count *uint32, list []T) vk.Result) ([]T, error) {
	var count uint32
	if err := NewError(query(&count, nil)); err != nil {
		return nil, errors.Wrapf(err, "vulkan: count %s", what)
	}
	list := make([]T, count)
	if err := NewError(query(&count, list)); err != nil {
		return nil, errors.Wrapf(err, "vulkan: list %s", what)
	}
	return list[:count], nil
}

func extensionNames(list []vk.ExtensionProperties) []string {
	names := make([]string, 0, len(list))
	for _, ext := range list {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names
}

// InstanceExtensions lists the instance extensions the loader offers.
func InstanceExtensions() ([]string, error) {
	list, err := enumerate("instance extensions", func(count *uint32, list []vk.ExtensionProperties) vk.Result {
		return vk.EnumerateInstanceExtensionProperties("", count, list)
	})
	if err != nil {
		return nil, err
	}
	return extensionNames(list), nil
}

// DeviceExtensions lists the extensions gpu supports.
func DeviceExtensions(gpu vk.PhysicalDevice) ([]string, error) {
	list, err := enumerate("device extensions", func(count *uint32, list []vk.ExtensionProperties) vk.Result {
		return vk.EnumerateDeviceExtensionProperties(gpu, "", count, list)
	})
	if err != nil {
		return nil, err
	}
	return extensionNames(list), nil
}

// ValidationLayers lists the installed instance layers.
func ValidationLayers() ([]string, error) {
	list, err := enumerate("instance layers", func(count *uint32, list []vk.LayerProperties) vk.Result {
		return vk.EnumerateInstanceLayerProperties(count, list)
	})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(list))
	for _, layer := range list {
		layer.Deref()
		names = append(names, vk.ToString(layer.LayerName[:]))
	}
	return names, nil
}
