package timecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		desc   string
		in     string
		expect float64
		err    bool
	}{
		{desc: "hours minutes seconds", in: "01:02:03", expect: 3723},
		{desc: "minutes seconds", in: "02:30", expect: 150},
		{desc: "plain seconds", in: "42", expect: 42},
		{desc: "fractional seconds", in: "00:00:01.5", expect: 1.5},
		{desc: "surrounding spaces", in: " 00:00:05 ", expect: 5},
		{desc: "empty", in: "", err: true},
		{desc: "too many parts", in: "1:2:3:4", err: true},
		{desc: "minutes overflow", in: "00:61:00", err: true},
		{desc: "negative", in: "-5", err: true},
		{desc: "garbage", in: "ab:cd", err: true},
	}

	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			res, err := Parse(tC.in)
			if tC.err {
				require.ErrorIs(t, err, ErrInvalidTimecode)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tC.expect, res, 1e-9)
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "00:00:00", Format(0))
	assert.Equal(t, "01:02:03", Format(3723.9))
	assert.Equal(t, "00:00:00", Format(-1))
}
