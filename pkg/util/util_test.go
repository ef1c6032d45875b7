package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"15m", 15 * time.Minute, false},
		{"7d", 7 * 24 * time.Hour, false},
		{"30", 30 * time.Second, false},
		{"xd", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, time.Minute, DurationOr("bad", time.Minute))
}

func TestParseSize(t *testing.T) {
	assert.Equal(t, int64(5*1024*1024), ParseSize("5MB", 0))
	assert.Equal(t, int64(2048), ParseSize("2kb", 0))
	assert.Equal(t, int64(100), ParseSize("100B", 0))
	assert.Equal(t, int64(7), ParseSize("", 7))
	assert.Equal(t, int64(7), ParseSize("-1MB", 7))
}
