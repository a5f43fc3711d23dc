package artifacts

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finscope/aggregator/internal/platform"
)

// fakeFileSystem is an in-memory platform.FileSystem for tests, avoiding
// any real disk I/O.
type fakeFileSystem struct {
	files map[string][]byte
}

func newFakeFileSystem() *fakeFileSystem {
	return &fakeFileSystem{files: make(map[string][]byte)}
}

func (f *fakeFileSystem) ReadFile(path string) ([]byte, error) {
	b, ok := f.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return b, nil
}

func (f *fakeFileSystem) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	f.files[path] = append([]byte(nil), data...)
	return nil
}

func (f *fakeFileSystem) MkdirAll(path string, perm os.FileMode) error { return nil }

func (f *fakeFileSystem) Glob(pattern string) ([]string, error) { return nil, nil }

func (f *fakeFileSystem) Stat(path string) (os.FileInfo, error) {
	if _, ok := f.files[path]; !ok {
		return nil, os.ErrNotExist
	}
	return nil, nil
}

type denyAsker struct{}

func (denyAsker) Ask(context.Context, platform.PermissionRequest) (bool, error) {
	return false, nil
}

func TestWriteAll_WritesEveryFile(t *testing.T) {
	fs := newFakeFileSystem()
	clock := platform.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	w := New(fs, platform.AlwaysAllow{}, clock)

	err := w.WriteAll(context.Background(), "reports/AAPL/2025-01-01", map[string][]byte{
		"events.json":   []byte(`[]`),
		"assumptions.json": []byte(`{}`),
	})
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), fs.files["reports/AAPL/2025-01-01/events.json"])
	assert.Equal(t, []byte(`{}`), fs.files["reports/AAPL/2025-01-01/assumptions.json"])
}

func TestWriteAll_ArchivesExistingFileBeforeOverwrite(t *testing.T) {
	fs := newFakeFileSystem()
	fs.files["reports/AAPL/2025-01-01/events.json"] = []byte(`["old"]`)
	clock := platform.NewFakeClock(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	w := New(fs, platform.AlwaysAllow{}, clock)

	err := w.WriteAll(context.Background(), "reports/AAPL/2025-01-01", map[string][]byte{
		"events.json": []byte(`["new"]`),
	})
	require.NoError(t, err)

	archived, ok := fs.files["reports/AAPL/2025-01-01/history/20250102T030405Z/events.json"]
	require.True(t, ok)
	assert.Equal(t, []byte(`["old"]`), archived)
	assert.Equal(t, []byte(`["new"]`), fs.files["reports/AAPL/2025-01-01/events.json"])
}

func TestWriteAll_PermissionDenied(t *testing.T) {
	fs := newFakeFileSystem()
	w := New(fs, denyAsker{}, nil)

	err := w.WriteAll(context.Background(), "reports/AAPL/2025-01-01", map[string][]byte{
		"events.json": []byte(`[]`),
	})
	require.Error(t, err)
	assert.Empty(t, fs.files)
}
