// Package artifacts implements the permission-gated, archive-before-
// overwrite artifact writer (§4.10) shared by the political-backtest and
// darkpool-anomaly CLI commands. Shaped after the teacher's
// smoke90.Writer (per-run output directory, JSON plus markdown dual
// emission), generalized to write an arbitrary filename→contents map
// instead of a fixed results/report pair, and adapted to require an
// external edit permission before touching disk.
package artifacts

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/finscope/aggregator/internal/platform"
)

// Writer writes a run's artifact set into an output root, archiving any
// pre-existing targets before overwrite (§4.10).
type Writer struct {
	fs         platform.FileSystem
	permission platform.PermissionAsker
	clock      platform.Clock
}

// New builds a Writer. A nil FileSystem/PermissionAsker/Clock defaults to
// the production implementations.
func New(fs platform.FileSystem, permission platform.PermissionAsker, clock platform.Clock) *Writer {
	if fs == nil {
		fs = platform.OSFileSystem{}
	}
	if permission == nil {
		permission = platform.AlwaysAllow{}
	}
	if clock == nil {
		clock = platform.SystemClock{}
	}
	return &Writer{fs: fs, permission: permission, clock: clock}
}

// WriteAll writes every entry in files (relative path under outputRoot →
// contents), after requesting edit permission over every relative path,
// and after archiving any pre-existing target into
// outputRoot/history/<UTC-ISO-safe-timestamp>/ (§4.10).
func (w *Writer) WriteAll(ctx context.Context, outputRoot string, files map[string][]byte) error {
	paths := make([]string, 0, len(files))
	for rel := range files {
		paths = append(paths, rel)
	}
	sort.Strings(paths)

	allowed, err := w.permission.Ask(ctx, platform.PermissionRequest{
		Permission: "write",
		Patterns:   paths,
		Metadata:   map[string]string{"output_root": outputRoot},
	})
	if err != nil {
		return fmt.Errorf("request edit permission: %w", err)
	}
	if !allowed {
		return fmt.Errorf("edit permission denied for %s", outputRoot)
	}

	historyDir := filepath.Join(outputRoot, "history", safeTimestamp(w.clock.Now()))

	for _, rel := range paths {
		target := filepath.Join(outputRoot, rel)
		if _, err := w.fs.Stat(target); err == nil {
			existing, err := w.fs.ReadFile(target)
			if err != nil {
				return fmt.Errorf("read existing %s before archive: %w", target, err)
			}
			archivePath := filepath.Join(historyDir, rel)
			if err := w.fs.WriteFileAtomic(archivePath, existing, 0o644); err != nil {
				return fmt.Errorf("archive %s: %w", target, err)
			}
		}
	}

	for _, rel := range paths {
		target := filepath.Join(outputRoot, rel)
		if err := w.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("mkdir for %s: %w", target, err)
		}
		if err := w.fs.WriteFileAtomic(target, files[rel], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", target, err)
		}
	}

	return nil
}

// safeTimestamp renders t as a filesystem-safe UTC ISO stamp (no colons).
func safeTimestamp(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}
