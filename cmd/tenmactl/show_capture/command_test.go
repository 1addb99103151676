package showcapture

import (
	"testing"
	"time"

	"github.com/mdouchement/tenmactl/capture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	e := capture.Event{
		Timestamp: time.Date(2026, 3, 4, 5, 6, 7, 123456000, time.UTC),
		SessionID: "5b0c1d2e-8f4a-4c3b-9a1e-2d3c4b5a6f70",
		Port:      "/dev/ttyACM0",
		Direction: capture.DirectionIn,
		Data:      []byte("12.00"),
	}

	assert.Equal(t, `2026-03-04T05:06:07.123456Z [5b0c1d2e] /dev/ttyACM0 << "12.00"`, format(e, false))
	assert.Equal(t, `2026-03-04T05:06:07.123456Z [5b0c1d2e] /dev/ttyACM0 << 31322e3030`, format(e, true))

	e.Direction = capture.DirectionError
	e.Error = "read: EOF"
	assert.Equal(t, `2026-03-04T05:06:07.123456Z [5b0c1d2e] /dev/ttyACM0 !! read: EOF`, format(e, true))
}

func TestParseDirection(t *testing.T) {
	d, err := parseDirection("OUT")
	require.NoError(t, err)
	assert.Equal(t, capture.DirectionOut, d)

	d, err = parseDirection("<<")
	require.NoError(t, err)
	assert.Equal(t, capture.DirectionIn, d)

	_, err = parseDirection("both")
	assert.Error(t, err)
}
