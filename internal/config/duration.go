package config

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration written as a Go duration string ("3s",
// "250ms") in every supported config format. Bare numbers are read as
// seconds.
type Duration time.Duration

// String satisfies fmt.Stringer.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalText satisfies encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText satisfies encoding.TextUnmarshaler, which yaml.v3 and
// BurntSushi/toml use for string scalars.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// UnmarshalJSON accepts a duration string or a number of seconds. A JSON
// null leaves the current value untouched.
func (d *Duration) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return d.UnmarshalText([]byte(s))
	}
	var seconds float64
	if _, err := fmt.Sscan(string(data), &seconds); err != nil {
		return fmt.Errorf("invalid duration %s: %w", data, err)
	}
	*d = Duration(seconds * float64(time.Second))
	return nil
}

// UnmarshalYAML accepts a duration string or a number of seconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw any
	if err := value.Decode(&raw); err != nil {
		return err
	}
	return d.fromAny(raw)
}

// UnmarshalTOML accepts a duration string or a number of seconds.
func (d *Duration) UnmarshalTOML(raw any) error {
	return d.fromAny(raw)
}

func (d *Duration) fromAny(raw any) error {
	switch v := raw.(type) {
	case string:
		return d.UnmarshalText([]byte(v))
	case int:
		*d = Duration(time.Duration(v) * time.Second)
	case int64:
		*d = Duration(time.Duration(v) * time.Second)
	case float64:
		*d = Duration(v * float64(time.Second))
	default:
		return fmt.Errorf("invalid duration %v (%T)", raw, raw)
	}
	return nil
}
