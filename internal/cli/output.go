package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Supported --output formats.
const (
	outputJSON = "json"
	outputYAML = "yaml"
)

// printer renders command results to the command's stdout.
type printer func(w io.Writer, v any) error

func newPrinter(format string) (printer, error) {
	switch format {
	case outputJSON:
		return printJSON, nil
	case outputYAML:
		return printYAML, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q (want %s or %s)", format, outputJSON, outputYAML)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
