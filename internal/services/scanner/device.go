package scanner

import "strings"

// PickDevice prefers a rear camera by label, then any camera not labelled
// as front facing, then the first one.
func PickDevice(devices []Device) (Device, bool) {
	if len(devices) == 0 {
		return Device{}, false
	}
	for _, d := range devices {
		if labelHas(d.Label, rearKeywords) {
			return d, true
		}
	}
	for _, d := range devices {
		if !labelHas(d.Label, frontKeywords) {
			return d, true
		}
	}
	return devices[0], true
}

func labelHas(label string, keywords []string) bool {
	label = strings.ToLower(label)
	for _, k := range keywords {
		if strings.Contains(label, k) {
			return true
		}
	}
	return false
}
