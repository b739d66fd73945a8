package clientinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDesktopBrowser(t *testing.T) {
	raw := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	info := Parse(raw)

	assert.Equal(t, raw, info.Raw)
	assert.Equal(t, "Chrome", info.Browser.Family)
	assert.Equal(t, "Windows", info.OS.Family)
	assert.False(t, info.Device.Mobile)
}

func TestParseMobileBrowser(t *testing.T) {
	raw := "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	info := Parse(raw)

	assert.Equal(t, "iOS", info.OS.Family)
	assert.True(t, info.Device.Mobile)
}

func TestParseEmpty(t *testing.T) {
	assert.Equal(t, Info{}, Parse(""))
	assert.Equal(t, Info{}, Parse("   "))
}
