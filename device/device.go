// Package device defines the collaborator contract the core uses to talk
// to a concrete HID device, plus a small built-in device table ported from
// the original source's eruptionctl/src/device.rs. Concrete HID drivers
// (USB transfer handling, report formats) are out of scope for the core
// and are expected to live in a separate package that implements Handle.
package device

import (
	"fmt"

	"github.com/eruption-linux/eruption-core/blend"
)

// Descriptor identifies a physical device. Ported from
// eruptionctl/src/device.rs's DeviceInfo table.
type Descriptor struct {
	Make   string
	Model  string
	VID    uint16
	PID    uint16
	Serial string
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s %s (vid=%#04x pid=%#04x)", d.Make, d.Model, d.VID, d.PID)
}

// knownDevices mirrors the DEVICE_INFO table in the original source.
var knownDevices = []Descriptor{
	{Make: "ROCCAT", Model: "Vulcan 100/12x", VID: 0x1e7d, PID: 0x3098},
	{Make: "ROCCAT", Model: "Vulcan 100/12x", VID: 0x1e7d, PID: 0x307a},
	{Make: "ROCCAT", Model: "Vulcan Pro", VID: 0x1e7d, PID: 0x30f7},
	{Make: "ROCCAT", Model: "Vulcan TKL", VID: 0x1e7d, PID: 0x2fee},
	{Make: "ROCCAT", Model: "Vulcan Pro TKL", VID: 0x1e7d, PID: 0x311a},
	{Make: "Corsair", Model: "STRAFE Gaming Keyboard", VID: 0x1b1c, PID: 0x1b15},
	{Make: "ROCCAT", Model: "Kone Aimo", VID: 0x1e7d, PID: 0x2e27},
	{Make: "ROCCAT", Model: "Kone Aimo Remastered", VID: 0x1e7d, PID: 0x2e2c},
	{Make: "ROCCAT", Model: "Kone XTD Mouse", VID: 0x1e7d, PID: 0x2e22},
	{Make: "ROCCAT", Model: "Kone Pure Ultra", VID: 0x1e7d, PID: 0x2dd2},
	{Make: "ROCCAT", Model: "Burst Pro", VID: 0x1e7d, PID: 0x2de1},
	{Make: "ROCCAT", Model: "Kova AIMO", VID: 0x1e7d, PID: 0x2cf1},
	{Make: "ROCCAT", Model: "Kova AIMO", VID: 0x1e7d, PID: 0x2cf3},
	{Make: "ROCCAT", Model: "Nyth", VID: 0x1e7d, PID: 0x2e7c},
	{Make: "ROCCAT", Model: "Nyth", VID: 0x1e7d, PID: 0x2e7d},
}

// Lookup returns the known Descriptor for a given USB vendor/product pair.
func Lookup(vid, pid uint16) (Descriptor, bool) {
	for _, d := range knownDevices {
		if d.VID == vid && d.PID == pid {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Handle is the collaborator contract the core uses to drive a physical
// (or simulated) RGB device. NumKeys fixes the canvas length for the
// lifetime of the process, as noted in spec.md's data model.
type Handle interface {
	Descriptor() Descriptor
	NumKeys() int
	SendInitSequence() error
	SetLEDInitPattern() error
	SendLEDMap(canvas []blend.Pixel) error
	CloseAll() error
}
