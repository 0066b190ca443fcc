package chans

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotifyCoalesces(t *testing.T) {
	ch := make(chan struct{}, 1)

	Notify(ch)
	Notify(ch)
	Notify(nil)

	assert.Len(t, ch, 1)

	Drain(ch)
	assert.Len(t, ch, 0)
}
