package profile

import (
	"github.com/BurntSushi/toml"
)

// Config mirrors the recognized TOML keys listed in spec.md §6. Every
// field has a default, so an absent key is never an error (spec.md §7,
// ConfigError: "logged, default substituted").
type Config struct {
	Global   GlobalConfig   `toml:"global"`
	Frontend FrontendConfig `toml:"frontend"`
}

type GlobalConfig struct {
	ScriptDirs []string `toml:"script_dirs"`
	ScriptDir  string   `toml:"script_dir"`
	ProfileDir string   `toml:"profile_dir"`
	Profile    string   `toml:"profile"`
	Brightness float64  `toml:"brightness"`
	EnableSfx  bool     `toml:"enable_sfx"`
}

type FrontendConfig struct {
	Enabled bool `toml:"enabled"`
}

const (
	DefaultScriptDir  = "/usr/share/eruption/scripts"
	DefaultProfileDir = "/usr/share/eruption/profiles"
	DefaultProfile    = "default"
)

// DefaultConfig returns the configuration used when no file is present or
// the file fails to parse (spec.md §7, ConfigError).
func DefaultConfig() Config {
	return Config{
		Global: GlobalConfig{
			ScriptDir:  DefaultScriptDir,
			ProfileDir: DefaultProfileDir,
			Profile:    DefaultProfile,
			Brightness: 100,
			EnableSfx:  true,
		},
		Frontend: FrontendConfig{Enabled: false},
	}
}

// LoadConfig decodes path as TOML over a DefaultConfig, so any key missing
// from the file keeps its default, and any field present overrides it.
// A parse error returns DefaultConfig() unchanged, along with the error,
// so the caller can log and continue per spec.md §7.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return DefaultConfig(), err
	}
	return cfg, nil
}

// ScriptDirs returns the configured script search path list, falling back
// from the plural global.script_dirs to the singular global.script_dir,
// and finally to DefaultScriptDir — the documented fallback order from
// spec.md §6 that the original source's util::get_script_dirs implements.
func (c Config) ScriptDirs() []string {
	if len(c.Global.ScriptDirs) > 0 {
		return c.Global.ScriptDirs
	}
	if c.Global.ScriptDir != "" {
		return []string{c.Global.ScriptDir}
	}
	return []string{DefaultScriptDir}
}
