//go:build linux

package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseActiveWindowID(t *testing.T) {
	assert.Equal(t, "0x3c00007",
		parseActiveWindowID("_NET_ACTIVE_WINDOW(WINDOW): window id # 0x3c00007\n"))
	assert.Equal(t, "", parseActiveWindowID("_NET_ACTIVE_WINDOW(WINDOW): window id # 0x0\n"))
	assert.Equal(t, "", parseActiveWindowID("garbage"))
}

func TestParseWindowName(t *testing.T) {
	out := "_NET_WM_NAME(UTF8_STRING) = \"ELDEN RING\"\nWM_NAME(STRING) = \"fallback\"\n"
	assert.Equal(t, "ELDEN RING", parseWindowName(out))

	onlyLegacy := "_NET_WM_NAME: not found.\nWM_NAME(STRING) = \"Terraria\"\n"
	assert.Equal(t, "Terraria", parseWindowName(onlyLegacy))

	withQuotes := `WM_NAME(STRING) = "He said \"hi\""` + "\n"
	assert.Equal(t, `He said \"hi\"`, parseWindowName(withQuotes))

	assert.Equal(t, "", parseWindowName("WM_NAME: not found.\n"))
}
