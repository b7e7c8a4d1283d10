package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/otherjamesbrown/attend-cli/config"
)

// timeFormat renders timestamps in text output.
const timeFormat = "2006-01-02 15:04:05"

// writeOutput renders v as JSON or YAML, or calls text for the text format.
func writeOutput(w io.Writer, format config.OutputFormat, v interface{}, text func(io.Writer) error) error {
	switch format {
	case config.OutputFormatJSON:
		return outputJSON(w, v)
	case config.OutputFormatYAML:
		return outputYAML(w, v)
	case config.OutputFormatText, "":
		return text(w)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// outputJSON outputs data as indented JSON.
func outputJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputYAML outputs data as YAML.
func outputYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(v)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(timeFormat)
}
