package manifest

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Config represents the complete manifest configuration
type Config struct {
	Jobs    []Job   `yaml:"jobs" json:"jobs"`
	Options Options `yaml:"options" json:"options"`
}

// Job is one extraction: a config file and the params it runs with
type Job struct {
	Config string            `yaml:"config" json:"config"`
	Params map[string]string `yaml:"params,omitempty" json:"params,omitempty"`
	// Output overrides the destination of this job's result
	Output string `yaml:"output,omitempty" json:"output,omitempty"`
}

// Name identifies the job in logs and error reports
func (j Job) Name() string {
	name := strings.TrimSuffix(filepath.Base(j.Config), filepath.Ext(j.Config))
	if len(j.Params) == 0 {
		return name
	}
	return fmt.Sprintf("%s %v", name, j.Params)
}

// Options represents global manifest options
type Options struct {
	ContinueOnError bool `yaml:"continue_on_error" json:"continue_on_error"`
	// Output is the default destination of every job; empty keeps the
	// application's output settings
	Output      string `yaml:"output,omitempty" json:"output,omitempty"`
	Concurrency int    `yaml:"concurrency,omitempty" json:"concurrency,omitempty"`
}

// Validate validates the manifest configuration
func (c *Config) Validate() error {
	if len(c.Jobs) == 0 {
		return ErrNoJobs
	}
	for i, job := range c.Jobs {
		if strings.TrimSpace(job.Config) == "" {
			return fmt.Errorf("job %d: %w", i, ErrEmptyConfig)
		}
	}
	return nil
}

// DefaultOptions returns options with sensible defaults
func DefaultOptions() Options {
	return Options{
		ContinueOnError: false,
		Concurrency:     1,
	}
}
