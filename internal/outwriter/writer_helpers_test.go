package outwriter

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name     string
		data     any
		expected string
	}{
		{
			name:     "simple object",
			data:     map[string]any{"repo": "api", "rating": 42},
			expected: "{\n  \"rating\": 42,\n  \"repo\": \"api\"\n}\n",
		},
		{
			name:     "array",
			data:     []string{"a", "b"},
			expected: "[\n  \"a\",\n  \"b\"\n]\n",
		},
		{
			name:     "nil map",
			data:     map[string]int(nil),
			expected: "null\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeJSON(&buf, tt.data))
			assert.Equal(t, tt.expected, buf.String())
		})
	}
}

func TestWriteJSONError(t *testing.T) {
	var buf bytes.Buffer
	err := writeJSON(&buf, make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to encode JSON")
}

func TestWriteCSVWithHeader(t *testing.T) {
	tests := []struct {
		name     string
		header   []string
		rows     [][]string
		expected string
	}{
		{
			name:     "rows",
			header:   []string{"repo", "rating"},
			rows:     [][]string{{"api", "80"}, {"web", "45"}},
			expected: "repo,rating\napi,80\nweb,45\n",
		},
		{
			name:     "header only",
			header:   []string{"repo", "rating"},
			expected: "repo,rating\n",
		},
		{
			name:     "quoted value",
			header:   []string{"repo", "additional"},
			rows:     [][]string{{"api", "build, reviewers"}},
			expected: "repo,additional\napi,\"build, reviewers\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := writeCSVWithHeader(&buf, tt.header, func(w *csv.Writer) error {
				for _, row := range tt.rows {
					if err := w.Write(row); err != nil {
						return err
					}
				}
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, buf.String())
		})
	}
}

func TestWriteCSVWithHeaderError(t *testing.T) {
	var buf bytes.Buffer
	err := writeCSVWithHeader(&buf, []string{"col"}, func(_ *csv.Writer) error {
		return assert.AnError
	})
	assert.Equal(t, assert.AnError, err)
}

func TestWriteWithFile(t *testing.T) {
	t.Run("writes file and logs", func(t *testing.T) {
		var log bytes.Buffer
		ow := NewOutWriter(t.TempDir(), "", &log)
		path := filepath.Join(ow.Dir(), "nested", "out.txt")

		err := ow.writeWithFile(path, func(w io.Writer) error {
			_, err := io.WriteString(w, "content")
			return err
		}, "Wrote test")
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "content", string(data))
		assert.Equal(t, "💾 Wrote test to "+path+"\n", log.String())
	})

	t.Run("writer error names the file", func(t *testing.T) {
		ow := NewOutWriter(t.TempDir(), "", nil)
		path := filepath.Join(ow.Dir(), "out.txt")

		err := ow.writeWithFile(path, func(io.Writer) error { return assert.AnError }, "Wrote test")
		require.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), path)
	})

	t.Run("unwritable path", func(t *testing.T) {
		dir := t.TempDir()
		blocker := filepath.Join(dir, "blocker")
		require.NoError(t, os.WriteFile(blocker, nil, 0o644))
		ow := NewOutWriter(dir, "", nil)

		err := ow.writeWithFile(filepath.Join(blocker, "out.txt"), func(io.Writer) error { return nil }, "Wrote test")
		assert.Error(t, err)
	})
}
