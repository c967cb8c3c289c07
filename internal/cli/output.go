package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/harnessutil/internal/serialize"
)

// Output formats accepted by dump and config show.
const (
	formatYAML = "yaml"
	formatJSON = "json"
)

// writeStructured normalizes v through serialize.ToMap and encodes it.
func writeStructured(w io.Writer, v any, format string) error {
	plain := serialize.ToMap(v)

	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(plain, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err

	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(plain); err != nil {
			return err
		}
		return enc.Close()

	default:
		return fmt.Errorf("unknown format %q (valid: yaml, json)", format)
	}
}

// writeJSON prints v as indented JSON. Used for --json results.
func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
