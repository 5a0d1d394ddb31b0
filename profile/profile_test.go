package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MalformedProfileReturnsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.profile")
	require.NoError(t, os.WriteFile(path, []byte("not = [valid toml"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_ValidProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gaming.profile")
	contents := `
name = "gaming"
active_scripts = ["fx.lua", "reactive.lua"]

[params]
brightness = 80
enable_sfx = false
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gaming", p.Name)
	assert.Equal(t, []string{"fx.lua", "reactive.lua"}, p.ActiveScripts)
	assert.Equal(t, 80.0, p.Params.Brightness)
	assert.False(t, p.Params.EnableSfx)
}

func TestPathFor(t *testing.T) {
	assert.Equal(t, "/scripts/fx.lua.manifest", PathFor("/scripts/fx.lua"))
}

func TestIsScriptAccessible_MissingScript(t *testing.T) {
	err := IsScriptAccessible("/nonexistent/fx.lua")
	assert.Error(t, err)
}

func TestActiveState_SetBrightnessClamps(t *testing.T) {
	state := NewActiveState(Default())

	state.SetBrightness(150)
	assert.Equal(t, 100.0, state.Profile().Params.Brightness)

	state.SetBrightness(-10)
	assert.Equal(t, 0.0, state.Profile().Params.Brightness)

	state.SetBrightness(42)
	assert.Equal(t, 42.0, state.Profile().Params.Brightness)
}

func TestConfig_ScriptDirsFallbackOrder(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, []string{DefaultScriptDir}, c.ScriptDirs())

	c.Global.ScriptDir = "/opt/eruption/scripts"
	assert.Equal(t, []string{"/opt/eruption/scripts"}, c.ScriptDirs())

	c.Global.ScriptDirs = []string{"/a", "/b"}
	assert.Equal(t, []string{"/a", "/b"}, c.ScriptDirs())
}
