package audio

import "fmt"

// Linkable is a session whose device can be started together with another one
type Linkable interface {
	Handle() Handle
}

// Link ties the start of two sessions together so that starting either starts both.
// Only miniaudio devices on the same context and rate can be linked; for anything
// else ErrLinkUnsupported is returned and the sessions stay independent.
func Link(a, b Linkable) error {
	ha, okA := a.Handle().(*malgoHandle)
	hb, okB := b.Handle().(*malgoHandle)
	if !okA || !okB {
		return fmt.Errorf("%w: not miniaudio devices", ErrLinkUnsupported)
	}
	if ha == hb {
		return fmt.Errorf("%w: cannot link a device to itself", ErrLinkUnsupported)
	}
	if ha.driver != hb.driver {
		return fmt.Errorf("%w: devices belong to different contexts", ErrLinkUnsupported)
	}
	if ha.params.SamplingRate != hb.params.SamplingRate {
		return fmt.Errorf("%w: sampling rates differ (%s vs %s)", ErrLinkUnsupported,
			ha.params.SamplingRate, hb.params.SamplingRate)
	}

	ha.mu.Lock()
	ha.peer = hb
	ha.mu.Unlock()
	hb.mu.Lock()
	hb.peer = ha
	hb.mu.Unlock()
	return nil
}
