package main

import (
	"encoding/json"
	"fmt"
	"io"

	"coords-bot/internal/command"
	"coords-bot/internal/relay"

	"gopkg.in/yaml.v3"
)

type outputFormat string

const (
	formatText outputFormat = "text"
	formatJSON outputFormat = "json"
	formatYAML outputFormat = "yaml"
)

func parseFormat(s string) (outputFormat, error) {
	switch f := outputFormat(s); f {
	case formatText, formatJSON, formatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text, json or yaml)", s)
	}
}

// cliResult mirrors relay.Response with yaml tags.
type cliResult struct {
	Command string      `yaml:"command"`
	Kind    string      `yaml:"kind"`
	Message string      `yaml:"message,omitempty"`
	Text    string      `yaml:"text"`
	Report  interface{} `yaml:"report,omitempty"`
}

func writeResult(w io.Writer, f outputFormat, result *command.Result) error {
	switch f {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(relay.NewResponse(result))
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cliResult{
			Command: result.Command,
			Kind:    string(result.Kind),
			Message: result.Message,
			Text:    result.Text(),
			Report:  result.Report,
		}); err != nil {
			return err
		}
		return enc.Close()
	default:
		return writeLine(w, result.Text())
	}
}
