package registration

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLineWindow(t *testing.T) {
	tests := []struct {
		name      string
		line      int
		wantStart string
		wantEnd   string
	}{
		{name: "line 1 is the morning block", line: 1, wantStart: "11:00:00", wantEnd: "15:00:00"},
		{name: "line 2 is the afternoon block", line: 2, wantStart: "16:00:00", wantEnd: "20:00:00"},
		{name: "unknown line has no window", line: 3},
		{name: "zero line has no window", line: 0},
		{name: "negative line has no window", line: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := LineWindow(tt.line)
			require.Equal(t, tt.wantStart, start)
			require.Equal(t, tt.wantEnd, end)
		})
	}
}
