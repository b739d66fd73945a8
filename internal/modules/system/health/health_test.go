package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHumanizeDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{500 * time.Millisecond, "0s"},
		{9 * time.Second, "9s"},
		{hms(0, 14, 9), "14m 9s"},
		{hms(3, 14, 9), "3h 14m 9s"},
		{51*time.Hour + 14*time.Minute + 9*time.Second, "2d 3h 14m 9s"},
		{2 * time.Hour, "2h"},
		{24 * time.Hour, "1d"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, humanizeDuration(tc.in), tc.in.String())
	}
}

func hms(h, m, s int) time.Duration {
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
}
