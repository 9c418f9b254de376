package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommand(t *testing.T) {
	name, args := command("windows", "http://localhost:8090/preview")
	assert.Equal(t, "rundll32", name)
	assert.Equal(t, []string{"url.dll,FileProtocolHandler", "http://localhost:8090/preview"}, args)

	name, _ = command("darwin", "x")
	assert.Equal(t, "open", name)

	name, _ = command("linux", "x")
	assert.Equal(t, "xdg-open", name)
}

func TestHasDisplay(t *testing.T) {
	env := map[string]string{}
	getenv := func(k string) string { return env[k] }

	assert.False(t, hasDisplay("linux", getenv))
	assert.True(t, hasDisplay("darwin", getenv))

	env["WAYLAND_DISPLAY"] = "wayland-0"
	assert.True(t, hasDisplay("linux", getenv))
}
