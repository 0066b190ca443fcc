package chans

// Notify signals ch without blocking. A signal that is
// already pending absorbs the new one, so ch should be
// buffered.
//
// If channel is nil, does nothing.
func Notify(ch chan<- struct{}) {
	if ch == nil {
		return
	}
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Drain discards every pending signal of ch.
func Drain(ch <-chan struct{}) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}
