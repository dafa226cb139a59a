package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// renderAs writes v to stdout in the requested structured format.
// Callers handle "text" themselves before reaching here.
func renderAs(format string, v any) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		fmt.Println(string(data))
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		fmt.Print(string(data))
	default:
		return fmt.Errorf("unknown format %q (want text, json, or yaml)", format)
	}
	return nil
}

// interactive reports whether stdin is a terminal, which gates every
// prompt.
func interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// confirm prompts for a yes/no decision. Only call when interactive()
// is true; a failed prompt counts as a refusal.
func confirm(title, description, affirmative string) bool {
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative(affirmative).
		Negative("Cancel").
		Value(&ok).
		Run()
	if err != nil {
		return false
	}
	return ok
}

// humanSize formats a byte count for status output.
func humanSize(n int64) string {
	switch {
	case n > 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	case n > 1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}
