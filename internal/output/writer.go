package output

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/quantmind-br/extracthttp-go/internal/domain"
	"github.com/quantmind-br/extracthttp-go/internal/utils"
)

// Stdout as a destination writes results to the writer's stream
const Stdout = "-"

// Supported formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Writer encodes extraction results as JSON or YAML files
type Writer struct {
	dest      string
	format    string
	pretty    bool
	force     bool
	dryRun    bool
	stdout    io.Writer
	collector *Collector

	mu sync.Mutex
}

// WriterOptions contains options for the writer
type WriterOptions struct {
	// Destination is a directory, a file ending in .json/.yaml/.yml, or "-"
	Destination string
	Format      string
	Pretty      bool
	Force       bool
	DryRun      bool
	// Stdout receives results when Destination is "-"; defaults to os.Stdout
	Stdout    io.Writer
	Collector *Collector
}

var _ domain.Writer = (*Writer)(nil)

// NewWriter creates a new output writer
func NewWriter(opts WriterOptions) *Writer {
	if opts.Destination == "" {
		opts.Destination = Stdout
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	format := strings.ToLower(opts.Format)
	if f := formatOf(opts.Destination); f != "" {
		format = f
	}
	if format != FormatYAML {
		format = FormatJSON
	}

	return &Writer{
		dest:      opts.Destination,
		format:    format,
		pretty:    opts.Pretty,
		force:     opts.Force,
		dryRun:    opts.DryRun,
		stdout:    opts.Stdout,
		collector: opts.Collector,
	}
}

// Write encodes result to the writer's destination. Existing files are
// kept unless the writer was created with Force.
func (w *Writer) Write(ctx context.Context, result *domain.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(result, w.format, w.pretty)
	if err != nil {
		return fmt.Errorf("encode %s: %w", result.Name, err)
	}

	if w.dest == Stdout {
		w.mu.Lock()
		defer w.mu.Unlock()
		_, err := w.stdout.Write(data)
		return err
	}

	path := w.Path(result)
	if !w.force {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
	}
	if w.dryRun {
		return nil
	}

	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	if w.collector != nil {
		w.collector.Add(result, path)
	}
	return nil
}

// Path returns the file a result is written to
func (w *Writer) Path(result *domain.Result) string {
	if formatOf(w.dest) != "" {
		return utils.ExpandPath(w.dest)
	}
	name := result.Name
	if name == "" {
		name = utils.URLSlug(result.URL)
	}
	return utils.OutputPath(w.dest, name, w.format)
}

// Format returns the encoding the writer uses
func (w *Writer) Format() string {
	return w.format
}

// Encode renders a result in format, keeping record key order
func Encode(result *domain.Result, format string, pretty bool) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
	default:
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if pretty {
			enc.SetIndent("", "  ")
		}
		if err := enc.Encode(result); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	}
	return ""
}
