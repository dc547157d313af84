package app

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// InputKind tells what a file passed on the command line holds
type InputKind string

const (
	InputConfig   InputKind = "config"
	InputManifest InputKind = "manifest"
	InputUnknown  InputKind = "unknown"
)

// DetectInput inspects path and reports whether it is a batch manifest
// (a top-level jobs list) or a single extraction config
func DetectInput(path string) InputKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
	default:
		return InputUnknown
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return InputUnknown
	}
	return DetectInputBytes(data)
}

// DetectInputBytes classifies YAML or JSON content
func DetectInputBytes(data []byte) InputKind {
	var probe struct {
		Jobs yaml.Node `yaml:"jobs"`
		Type string    `yaml:"type"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return InputUnknown
	}
	if probe.Jobs.Kind == yaml.SequenceNode {
		return InputManifest
	}
	return InputConfig
}
