package controllers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatUptime(t *testing.T) {
	cases := map[time.Duration]string{
		0:                                     "0d 0h 0m 0s",
		-time.Second:                          "0d 0h 0m 0s",
		59*time.Second + 900*time.Millisecond: "0d 0h 0m 59s",
		time.Hour + 2*time.Minute + 3*time.Second: "0d 1h 2m 3s",
		49*time.Hour + 30*time.Minute:             "2d 1h 30m 0s",
	}
	for d, want := range cases {
		assert.Equal(t, want, FormatUptime(d), d.String())
	}
}

func TestFormatMB(t *testing.T) {
	assert.Equal(t, "1.50MB", formatMB(3<<19))
	assert.Equal(t, "0.00MB", formatMB(0))
}
