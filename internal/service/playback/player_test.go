package playback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GintGld/kshana-timeline/internal/lib/logger/slogdiscard"
)

func TestPlayAdvances(t *testing.T) {
	p := New(slogdiscard.NewDiscardLogger(), 5*time.Millisecond)
	defer p.Close()

	p.SetDuration(60)
	p.Play()
	assert.True(t, p.Playing())

	require.Eventually(t, func() bool {
		return p.Position() > 0.02
	}, time.Second, 5*time.Millisecond)

	assert.True(t, p.Pause())
	pos := p.Position()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, pos, p.Position())
	assert.False(t, p.Pause())
}

func TestStopsAtEnd(t *testing.T) {
	p := New(slogdiscard.NewDiscardLogger(), 5*time.Millisecond)
	defer p.Close()

	p.SetDuration(0.05)
	p.Play()

	require.Eventually(t, func() bool {
		return !p.Playing()
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0.05, p.Position())

	p.Play()
	assert.Less(t, p.Position(), 0.05)
	p.Pause()
}

func TestSeekClamps(t *testing.T) {
	testCases := []struct {
		desc   string
		seek   float64
		expect float64
	}{
		{desc: "inside", seek: 4, expect: 4},
		{desc: "negative", seek: -3, expect: 0},
		{desc: "past end", seek: 99, expect: 10},
	}

	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			p := New(slogdiscard.NewDiscardLogger(), 0)
			p.SetDuration(10)

			p.Seek(tC.seek)
			assert.Equal(t, tC.expect, p.Position())
		})
	}
}

func TestShrinkDurationClampsPosition(t *testing.T) {
	p := New(slogdiscard.NewDiscardLogger(), 0)
	p.SetDuration(20)
	p.Seek(15)

	p.SetDuration(12)
	assert.Equal(t, 12.0, p.Position())
}
