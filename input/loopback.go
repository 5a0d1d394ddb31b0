package input

import "context"

// LoopbackSource is a reference Source implementation: it never produces
// a real key event, it just blocks until ctx is cancelled, the same way
// sliceSource's post-replay behavior models a real device's idle read.
// It is used by the CLI when no concrete HID keyboard source is wired in,
// matching the role device.LoopbackHandle and vm.LoopbackScripter play
// for their own collaborator contracts.
type LoopbackSource struct{}

var _ Source = LoopbackSource{}

// NextEvent blocks until ctx is done, then reports ctx's error.
func (LoopbackSource) NextEvent(ctx context.Context) (KeyEvent, bool, error) {
	<-ctx.Done()
	return KeyEvent{}, false, ctx.Err()
}
