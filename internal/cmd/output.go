package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

func outputFormat(cmd *cobra.Command) string {
	format, _ := cmd.Flags().GetString("output")
	if format == "" {
		return outputText
	}
	return format
}

func validateOutputFormat(cmd *cobra.Command) error {
	switch outputFormat(cmd) {
	case outputText, outputJSON, outputYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (use text, json or yaml)", outputFormat(cmd))
	}
}

// writeStructured encodes v to stdout for the json and yaml formats. It
// reports false for text, which each command renders itself.
func writeStructured(cmd *cobra.Command, v interface{}) (bool, error) {
	return encodeTo(os.Stdout, outputFormat(cmd), v)
}

func encodeTo(w io.Writer, format string, v interface{}) (bool, error) {
	switch format {
	case outputJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return true, encoder.Encode(v)
	case outputYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return true, err
		}
		return true, encoder.Close()
	default:
		return false, nil
	}
}
