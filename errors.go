// Package eruption implements the real-time rendering pipeline: the
// scheduler main loop that ties together the canvas, the VM bank, input
// fan-out, control-plane intake and the device output adapter.
package eruption

import "github.com/pkg/errors"

// The error kinds from spec.md §7. Each builds its message with
// github.com/pkg/errors, matching how process.go wraps errors in the
// teacher repository, and exposes its cause through Unwrap, so a caller
// can reach it with errors.Is/errors.As.

// ConfigError reports an unparseable configuration file. On a
// configuration error cmd/eruptiond logs it and continues with
// profile.DefaultConfig().
type ConfigError struct{ Cause error }

func (e *ConfigError) Error() string { return errors.Wrap(e.Cause, "configuration error").Error() }
func (e *ConfigError) Unwrap() error  { return e.Cause }

// ProfileError reports an unreadable or malformed profile file. At startup
// cmd/eruptiond logs a profile load failure and substitutes
// profile.Default(); a failed SwitchProfile at runtime is logged by the
// scheduler and the current profile is kept.
type ProfileError struct{ Cause error }

func (e *ProfileError) Error() string { return errors.Wrap(e.Cause, "profile error").Error() }
func (e *ProfileError) Unwrap() error  { return e.Cause }

// ScriptAccessError reports a script or manifest that failed the
// accessibility check. At startup this is fatal (exit code 3); at
// runtime, in response to a LoadScript message, it is logged and the
// message is otherwise ignored.
type ScriptAccessError struct {
	Path  string
	Cause error
}

func (e *ScriptAccessError) Error() string {
	return errors.Wrapf(e.Cause, "script %q inaccessible", e.Path).Error()
}
func (e *ScriptAccessError) Unwrap() error { return e.Cause }

// DeviceOpenError reports that the device handle could not be opened at
// startup (exit code 4).
type DeviceOpenError struct{ Cause error }

func (e *DeviceOpenError) Error() string { return errors.Wrap(e.Cause, "device open failed").Error() }
func (e *DeviceOpenError) Unwrap() error  { return e.Cause }

// BlendTimeoutError is recorded (not returned up the call stack) when the
// blend barrier does not reach its target within FrameBlendTimeout; the
// scheduler drops the frame and continues.
type BlendTimeoutError struct {
	Tick    uint64
	VMIndex int
}

func (e *BlendTimeoutError) Error() string {
	return errors.Errorf("tick %d: vm %d did not signal the blend barrier in time", e.Tick, e.VMIndex).Error()
}

// ChannelError wraps a non-timeout error from a control-plane queue.
// Per spec.md §7 this is the one error class that is fatal to the main
// loop.
type ChannelError struct{ Cause error }

func (e *ChannelError) Error() string { return errors.Wrap(e.Cause, "control channel error").Error() }
func (e *ChannelError) Unwrap() error  { return e.Cause }

// Exit codes returned by cmd/eruptiond, matching spec.md §6.
const (
	ExitOK                 = 0
	ExitHIDAPIUnavailable  = 1
	ExitNoHIDDevices       = 2
	ExitScriptInaccessible = 3
	ExitDeviceOpenFailed   = 4
)
