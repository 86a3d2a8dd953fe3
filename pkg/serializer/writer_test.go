package serializer

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type gpuRow struct {
	Name   string `json:"name" yaml:"name"`
	Memory int    `json:"memory" yaml:"memory"`
}

type podTable struct {
	rows [][]string
}

func (p podTable) TableHeader() []string { return []string{"ID", "STATUS"} }
func (p podTable) TableRows() [][]string { return p.rows }

var sampleRows = []gpuRow{
	{Name: "RTX 4090", Memory: 24},
	{Name: "A100", Memory: 80},
}

func TestWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(FormatJSON, &buf).Serialize(context.Background(), sampleRows))

	var got []gpuRow
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sampleRows, got)
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestWriter_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(FormatYAML, &buf).Serialize(context.Background(), sampleRows))

	var got []gpuRow
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sampleRows, got)
}

func TestWriter_UnknownFormatFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter("xml", &buf)
	assert.Equal(t, FormatJSON, w.Format())

	require.NoError(t, w.Serialize(context.Background(), sampleRows[0]))
	var got gpuRow
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sampleRows[0], got)
}

func TestWriter_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	assert.ErrorIs(t, NewWriter(FormatJSON, &buf).Serialize(ctx, sampleRows), context.Canceled)
	assert.Zero(t, buf.Len())
}

func TestWriter_Table(t *testing.T) {
	tests := []struct {
		name     string
		data     any
		contains []string
		absent   []string
	}{
		{
			name:     "tabular value uses its columns",
			data:     podTable{rows: [][]string{{"abc123", "RUNNING"}, {"def456", "EXITED"}}},
			contains: []string{"ID", "STATUS", "abc123", "RUNNING", "def456"},
			absent:   []string{"FIELD"},
		},
		{
			name:     "tabular without rows",
			data:     podTable{},
			contains: []string{EmptyValue},
			absent:   []string{"STATUS"},
		},
		{
			name:     "slice of structs is flattened",
			data:     sampleRows,
			contains: []string{"FIELD", "VALUE", "[0].Name", "[1].Memory", "A100", "80"},
		},
		{
			name:     "empty slice",
			data:     []gpuRow{},
			contains: []string{EmptyValue},
		},
		{
			name:     "nil",
			data:     nil,
			contains: []string{EmptyValue},
		},
		{
			name: "nested struct with nil pointer",
			data: struct {
				Name  string
				Price *float64
				Inner struct{ Count int }
			}{Name: "pod", Inner: struct{ Count int }{Count: 2}},
			contains: []string{"Name", "Price", "Inner.Count", "2"},
		},
		{
			name:     "map keys sorted",
			data:     map[string]any{"b": 2, "a": "one", "c": []string{}},
			contains: []string{"a", "one", "b", "c", EmptyValue},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, NewWriter(FormatTable, &buf).Serialize(context.Background(), tt.data))
			out := buf.String()
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestFlatten_MapOrder(t *testing.T) {
	fields := flatten(map[string]int{"zeta": 1, "alpha": 2})
	require.Len(t, fields, 2)
	assert.Equal(t, "alpha", fields[0].key)
	assert.Equal(t, "zeta", fields[1].key)
}

func TestWriter_CloseIsIdempotent(t *testing.T) {
	w := NewStdoutWriter(FormatJSON)
	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
	assert.Error(t, w.Serialize(context.Background(), 1))
}

func TestNewFileWriterOrStdout(t *testing.T) {
	t.Run("stdout aliases", func(t *testing.T) {
		for _, path := range []string{"", "  ", "\t", StdoutURI} {
			s, err := NewFileWriterOrStdout(FormatJSON, path)
			require.NoError(t, err, "path %q", path)
			w, ok := s.(*Writer)
			require.True(t, ok)
			assert.Nil(t, w.closer)
		}
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pods.yaml")
		s, err := NewFileWriterOrStdout(FormatYAML, path)
		require.NoError(t, err)
		require.NoError(t, s.Serialize(context.Background(), sampleRows))
		require.NoError(t, s.(Closer).Close())

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		var got []gpuRow
		require.NoError(t, yaml.Unmarshal(content, &got))
		assert.Equal(t, sampleRows, got)
	})

	t.Run("unwritable path", func(t *testing.T) {
		s, err := NewFileWriterOrStdout(FormatJSON, "/nonexistent/dir/out.json")
		require.Error(t, err)
		assert.Nil(t, s)
		assert.Contains(t, err.Error(), "failed to create output file")
	})

	t.Run("bad configmap uri", func(t *testing.T) {
		for _, uri := range []string{"cm://", "cm://ns", "cm:///name", "cm://ns/"} {
			s, err := NewFileWriterOrStdout(FormatJSON, uri)
			require.Error(t, err, uri)
			assert.Nil(t, s)
			assert.Contains(t, err.Error(), "invalid ConfigMap URI")
		}
	})
}
