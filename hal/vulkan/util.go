package vulkan

import "strings"

// safeString returns s null-terminated, as the Vulkan loader
// expects for every name it reads.
func safeString(s string) string {
	if strings.HasSuffix(s, "\x00") {
		return s
	}
	return s + "\x00"
}

func safeStrings(list []string) []string {
	out := make([]string, len(list))
	for i := range list {
		out[i] = safeString(list[i])
	}
	return out
}

// checkExisting filters required down to the names present in
// actual and reports how many were dropped.
func checkExisting(actual, required []string) (existing []string, missing int) {
	existing = make([]string, 0, len(required))
	for j := range required {
		req := strings.TrimSuffix(required[j], "\x00")
		found := false
		for i := range actual {
			if strings.TrimSuffix(actual[i], "\x00") == req {
				found = true
				break
			}
		}
		if !found {
			missing++
			continue
		}
		existing = append(existing, safeString(req))
	}
	return existing, missing
}
