// Package config loads the harnessutil configuration file.
//
// The format is picked from the file extension: YAML (.yaml, .yml), TOML
// (.toml) or JSON with comments (.json, .jsonc). Fields left out of the
// file keep their defaults, so a config only needs to name what it
// changes.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/harnessutil/internal/buildroot"
	"github.com/shinji-kodama/harnessutil/internal/fetch"
	"github.com/shinji-kodama/harnessutil/internal/port"
	"github.com/shinji-kodama/harnessutil/internal/retry"
)

// Fetch modes.
const (
	FetchModeShell  = "shell"
	FetchModeNative = "native"
)

// Config is the full harnessutil configuration.
type Config struct {
	Retry     RetryConfig     `yaml:"retry" toml:"retry" json:"retry"`
	Fetch     FetchConfig     `yaml:"fetch" toml:"fetch" json:"fetch"`
	BuildRoot BuildRootConfig `yaml:"buildroot" toml:"buildroot" json:"buildroot"`
	Port      PortConfig      `yaml:"port" toml:"port" json:"port"`
	Log       LogConfig       `yaml:"log" toml:"log" json:"log"`
}

// RetryConfig holds the retry policy. Tries is a float so that loosely
// written values ("tries: 2.5") are accepted and floored.
type RetryConfig struct {
	Tries float64  `yaml:"tries" toml:"tries" json:"tries"`
	Delay Duration `yaml:"delay" toml:"delay" json:"delay"`
}

// FetchConfig selects and tunes the fetch helper.
type FetchConfig struct {
	Mode    string   `yaml:"mode" toml:"mode" json:"mode"`
	Client  string   `yaml:"client" toml:"client" json:"client"`
	Timeout Duration `yaml:"timeout" toml:"timeout" json:"timeout"`
}

// BuildRootConfig names the override variable and default suffix.
type BuildRootConfig struct {
	Env    string `yaml:"env" toml:"env" json:"env"`
	Suffix string `yaml:"suffix" toml:"suffix" json:"suffix"`
}

// PortConfig locates the reserved-port list and the commit command.
//
// CommitPrefix must end in a shell's -c flag (e.g. ["doas", "sh", "-c"]):
// the copy is appended to it as a single "cat src > dst" script argument.
type PortConfig struct {
	ReservedPortsFile string   `yaml:"reserved_ports_file" toml:"reserved_ports_file" json:"reserved_ports_file"`
	LockDir           string   `yaml:"lock_dir" toml:"lock_dir" json:"lock_dir,omitempty"`
	CommitPrefix      []string `yaml:"commit_prefix" toml:"commit_prefix" json:"commit_prefix"`
}

// LogConfig controls log verbosity.
type LogConfig struct {
	Verbose bool `yaml:"verbose" toml:"verbose" json:"verbose"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Retry: RetryConfig{
			Tries: retry.DefaultTries,
			Delay: Duration(retry.DefaultDelay),
		},
		Fetch: FetchConfig{
			Mode:    FetchModeShell,
			Client:  fetch.DefaultClient,
			Timeout: Duration(30 * time.Second),
		},
		BuildRoot: BuildRootConfig{
			Env:    buildroot.DefaultEnvVar,
			Suffix: buildroot.DefaultSuffix,
		},
		Port: PortConfig{
			ReservedPortsFile: port.DefaultReservedPortsFile,
			CommitPrefix:      append([]string(nil), port.DefaultCommitPrefix...),
		},
	}
}

// Load reads path on top of Default and validates the result. An empty
// path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := Decode(path, data, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

// Decode unmarshals data into out using the decoder matching the file
// extension of name.
func Decode(name string, data []byte, out any) error {
	var err error
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, out)
	case ".toml":
		err = toml.Unmarshal(data, out)
	case ".json", ".jsonc":
		err = json.Unmarshal(jsonc.ToJSON(data), out)
	default:
		return fmt.Errorf("config parse failed (%s): unsupported extension %q", name, ext)
	}
	if err != nil {
		return fmt.Errorf("config parse failed (%s): %w", name, err)
	}
	return nil
}

// Validate rejects settings the helpers would refuse at run time.
func (c Config) Validate() error {
	if retry.FloorTries(c.Retry.Tries) < 0 {
		return fmt.Errorf("retry.tries must be 0 or greater, got %v", c.Retry.Tries)
	}
	if c.Retry.Delay <= 0 {
		return fmt.Errorf("retry.delay must be greater than 0, got %s", c.Retry.Delay)
	}
	switch c.Fetch.Mode {
	case FetchModeShell, FetchModeNative:
	default:
		return fmt.Errorf("fetch.mode must be %q or %q, got %q", FetchModeShell, FetchModeNative, c.Fetch.Mode)
	}
	if c.Fetch.Mode == FetchModeShell && strings.TrimSpace(c.Fetch.Client) == "" {
		return fmt.Errorf("fetch.client must not be empty in shell mode")
	}
	if c.Fetch.Timeout < 0 {
		return fmt.Errorf("fetch.timeout must not be negative, got %s", c.Fetch.Timeout)
	}
	if n := len(c.Port.CommitPrefix); n < 2 || c.Port.CommitPrefix[n-1] != "-c" {
		return fmt.Errorf("port.commit_prefix must end in a shell -c invocation (e.g. [sh, -c]), got %q", c.Port.CommitPrefix)
	}
	return nil
}

// RetryTries returns the floored retry count.
func (c Config) RetryTries() int {
	return retry.FloorTries(c.Retry.Tries)
}
