// Package profile implements Profile and Manifest loading, and the
// process-wide ActiveState the scheduler mutates on SwitchProfile
// (spec.md §3, §4.7).
package profile

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/eruption-linux/eruption-core/mathx"
)

// Params are the global parameters a control-plane client can adjust
// (spec.md §1 "adjust global parameters (brightness, effect-sound
// toggle)"). They live on Profile rather than as free-standing globals so
// that switching profiles deterministically resets them.
type Params struct {
	Brightness float64 `toml:"brightness"`
	EnableSfx  bool    `toml:"enable_sfx"`
}

// DefaultParams matches the original source's implied defaults: full
// brightness, sound effects on.
func DefaultParams() Params {
	return Params{Brightness: 100, EnableSfx: true}
}

// Profile is a named, ordered list of scripts plus parameters, matching
// spec.md §3's Profile type.
type Profile struct {
	Name          string   `toml:"name"`
	ActiveScripts []string `toml:"active_scripts"`
	Params        Params   `toml:"params"`
}

// Default returns the zero-script fallback profile substituted when a
// profile file is unreadable or malformed (spec.md §7, ProfileError).
func Default() Profile {
	return Profile{Name: "default", Params: DefaultParams()}
}

// Load reads and decodes a TOML profile file at path. On any error the
// caller should log and fall back to Default(), per spec.md §7.
func Load(path string) (Profile, error) {
	var p Profile
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return Profile{}, errors.Wrapf(err, "loading profile %q", path)
	}
	if p.Name == "" {
		p.Name = strippedBase(path)
	}
	if p.Params == (Params{}) {
		p.Params = DefaultParams()
	}
	return p, nil
}

func strippedBase(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

// Manifest is per-script metadata loaded alongside a script file,
// matching spec.md §3's VM descriptor companion and
// SPEC_FULL.md's Manifest addition (grounded on the original source's
// scripting::manifest::Manifest, referenced from src/main.rs).
type Manifest struct {
	Name       string            `toml:"name"`
	Author     string            `toml:"author"`
	MinAPI     string            `toml:"min_supported_api_version"`
	Parameters map[string]string `toml:"parameters"`
}

// PathFor returns the manifest path conventionally associated with a
// script path: scriptPath with its extension replaced by ".lua.manifest",
// matching the original source's util::get_manifest_for.
func PathFor(scriptPath string) string {
	ext := filepath.Ext(scriptPath)
	return scriptPath[:len(scriptPath)-len(ext)] + ".lua.manifest"
}

// LoadManifest reads and decodes the manifest conventionally associated
// with scriptPath.
func LoadManifest(scriptPath string) (Manifest, error) {
	var m Manifest
	manifestPath := PathFor(scriptPath)
	if _, err := toml.DecodeFile(manifestPath, &m); err != nil {
		return Manifest{}, errors.Wrapf(err, "loading manifest for %q", scriptPath)
	}
	return m, nil
}

// IsAccessible reports whether path can be opened for reading, matching
// the original source's util::is_file_accessible.
func IsAccessible(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}

// IsScriptAccessible reports whether both scriptPath and its manifest are
// readable, matching util::is_script_file_accessible /
// is_manifest_file_accessible combined (both are checked together at
// every LoadScript call site in the original source).
func IsScriptAccessible(scriptPath string) error {
	if err := IsAccessible(scriptPath); err != nil {
		return errors.Wrapf(err, "script %q not accessible", scriptPath)
	}
	if err := IsAccessible(PathFor(scriptPath)); err != nil {
		return errors.Wrapf(err, "manifest for %q not accessible", scriptPath)
	}
	return nil
}

// ActiveState is the process-wide holder for the current profile and its
// script manifest list, mutated only by the scheduler (spec.md §4.7).
// Readers (diagnostic hooks, plugin main-loop hooks) observe it under a
// short-lived lock.
type ActiveState struct {
	mu        sync.RWMutex
	profile   Profile
	manifests []Manifest
}

// NewActiveState creates an ActiveState seeded with p.
func NewActiveState(p Profile) *ActiveState {
	return &ActiveState{profile: p}
}

// Profile returns a copy of the current profile.
func (a *ActiveState) Profile() Profile {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.profile
}

// SetProfile replaces the active profile. Only the scheduler should call
// this, per spec.md §4.7.
func (a *ActiveState) SetProfile(p Profile) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.profile = p
}

// Manifests returns a copy of the current manifest list.
func (a *ActiveState) Manifests() []Manifest {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Manifest, len(a.manifests))
	copy(out, a.manifests)
	return out
}

// SetManifests replaces the active manifest list.
func (a *ActiveState) SetManifests(m []Manifest) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.manifests = m
}

// SetBrightness updates only the Brightness parameter of the active
// profile, clamped to [0, 100], matching the control plane's
// Brightness.Set method (SPEC_FULL.md §6).
func (a *ActiveState) SetBrightness(v float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.profile.Params.Brightness = mathx.Clamp(v, 0, 100)
}

// SetEnableSfx updates only the EnableSfx parameter of the active profile.
func (a *ActiveState) SetEnableSfx(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.profile.Params.EnableSfx = v
}
