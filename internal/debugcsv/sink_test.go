package debugcsv

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterProducesSemicolonTerminatedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.csv")

	sink, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, sink.WriteHeader([]float64{1, 2, 3}))
	require.NoError(t, sink.WriteRow([]float64{0.5, 1.5}))
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "1;2;3;", lines[0])
	assert.Equal(t, "0.5;1.5;", lines[1])
}

func TestOpenFailureYieldsNoOpSink(t *testing.T) {
	// A path inside a nonexistent directory cannot be created.
	badPath := filepath.Join(t.TempDir(), "missing-dir", "debug.csv")

	sink, err := Open(badPath)
	require.Error(t, err)
	require.NotNil(t, sink)

	// The returned sink must be safely usable despite the open failure.
	assert.NoError(t, sink.WriteHeader([]float64{1, 2}))
	assert.NoError(t, sink.WriteRow([]float64{3, 4}))
	assert.NoError(t, sink.Close())
}

func TestNoOpDiscardsEverything(t *testing.T) {
	var sink Sink = NoOp{}
	assert.NoError(t, sink.WriteHeader([]float64{1}))
	assert.NoError(t, sink.WriteRow([]float64{2}))
	assert.NoError(t, sink.Close())
}
