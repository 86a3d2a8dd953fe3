package serializer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/gpuctl/rpctl/pkg/k8s/client"
)

// Serializer writes a value to some destination.
type Serializer interface {
	Serialize(ctx context.Context, data any) error
}

// Closer is implemented by serializers that hold a resource.
type Closer interface {
	Close() error
}

// Writer encodes values in a single format to an io.Writer.
type Writer struct {
	format Format
	out    io.Writer
	closer io.Closer

	mu     sync.Mutex
	closed bool
}

// NewWriter returns a Writer for out. Unknown formats fall back to JSON.
func NewWriter(format Format, out io.Writer) *Writer {
	if format.IsUnknown() {
		slog.Warn("unknown output format, using json", "format", string(format))
		format = FormatJSON
	}
	if out == nil {
		out = os.Stdout
	}
	return &Writer{format: format, out: out}
}

// NewStdoutWriter returns a Writer for os.Stdout.
func NewStdoutWriter(format Format) *Writer {
	return NewWriter(format, os.Stdout)
}

// NewFileWriterOrStdout returns a Serializer for the given destination URI.
// Empty paths and "-" select stdout, cm:// URIs select a ConfigMap in the
// current kubeconfig context, anything else is a file path.
func NewFileWriterOrStdout(format Format, path string) (Serializer, error) {
	path = strings.TrimSpace(path)
	if path == "" || path == StdoutURI {
		return NewStdoutWriter(format), nil
	}

	if strings.HasPrefix(path, ConfigMapURIScheme) {
		namespace, name, err := ParseConfigMapURI(path)
		if err != nil {
			return nil, err
		}
		cs, _, err := client.GetKubeClient()
		if err != nil {
			return nil, fmt.Errorf("failed to create kubernetes client for %s: %w", path, err)
		}
		return NewConfigMapWriter(cs, namespace, name, format), nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file %q: %w", path, err)
	}

	w := NewWriter(format, f)
	w.closer = f
	return w, nil
}

// Format returns the format the writer encodes with.
func (w *Writer) Format() Format {
	return w.format
}

// Serialize encodes data and writes it in one call.
func (w *Writer) Serialize(ctx context.Context, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b, err := Encode(w.format, data)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return fmt.Errorf("serialize on closed writer")
	}
	if _, err := w.out.Write(b); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// Close releases the underlying file, if any. It is safe to call more than once.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}

// Encode renders data in the given format.
func Encode(format Format, data any) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return nil, fmt.Errorf("failed to serialize to yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to serialize to yaml: %w", err)
		}
		return buf.Bytes(), nil
	case FormatTable:
		var buf bytes.Buffer
		if err := renderTable(&buf, data); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		b, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to serialize to json: %w", err)
		}
		return append(b, '\n'), nil
	}
}
