package timex

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "2026-05-04", want: time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)},
		{in: "2026-05-04T13:45", want: time.Date(2026, 5, 4, 13, 45, 0, 0, time.UTC)},
		{in: "2026-05-04T13:45:00Z", want: time.Date(2026, 5, 4, 13, 45, 0, 0, time.UTC)},
		{in: "2026-05-04T13:45:00+02:00", want: time.Date(2026, 5, 4, 11, 45, 0, 0, time.UTC)},
		{in: " 2026-05-04 ", want: time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)},
		{in: "tomorrow", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}
