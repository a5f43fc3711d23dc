package secrets

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/finscope/aggregator/internal/platform"
)

// Store is the JSON auth file at <data-root>/auth.json (§6.1). Per §9
// ("cyclic or back-referencing auth state... model auth as an immutable
// snapshot per operation"), Load always re-reads the file; Set/Remove
// re-load, transform, and atomically rewrite rather than mutating in place.
type Store struct {
	path string
	fs   platform.FileSystem
}

// NewStore returns a Store rooted at <dataRoot>/auth.json.
func NewStore(dataRoot string, fs platform.FileSystem) *Store {
	if fs == nil {
		fs = platform.OSFileSystem{}
	}
	return &Store{path: filepath.Join(dataRoot, "auth.json"), fs: fs}
}

// Load returns an immutable snapshot of the auth store keyed by provider id.
// Entries failing AuthInfo.Valid are silently dropped (§6.1). A missing file
// is treated as an empty store, not an error.
func (s *Store) Load() (map[string]AuthInfo, error) {
	raw, err := s.fs.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]AuthInfo{}, nil
		}
		return nil, fmt.Errorf("read auth store %s: %w", s.path, err)
	}

	var decoded map[string]AuthInfo
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode auth store %s: %w", s.path, err)
	}

	out := make(map[string]AuthInfo, len(decoded))
	for providerID, entry := range decoded {
		if !entry.Valid() {
			log.Warn().Str("provider", providerID).Msg("dropping auth entry failing schema validation")
			continue
		}
		out[providerID] = entry
	}
	return out, nil
}

// Set writes a single provider's AuthInfo into the store, re-reading the
// current snapshot first so concurrent-with-reads use is safe (concurrent
// Set/Remove calls are not, per spec §5). The file is written atomically at
// mode 0600.
func (s *Store) Set(providerID string, info AuthInfo) error {
	current, err := s.loadRaw()
	if err != nil {
		return err
	}
	current[providerID] = info
	return s.write(current)
}

// Remove deletes a provider's entry from the store, if present.
func (s *Store) Remove(providerID string) error {
	current, err := s.loadRaw()
	if err != nil {
		return err
	}
	delete(current, providerID)
	return s.write(current)
}

func (s *Store) loadRaw() (map[string]AuthInfo, error) {
	raw, err := s.fs.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]AuthInfo{}, nil
		}
		return nil, fmt.Errorf("read auth store %s: %w", s.path, err)
	}
	var decoded map[string]AuthInfo
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode auth store %s: %w", s.path, err)
	}
	return decoded, nil
}

func (s *Store) write(data map[string]AuthInfo) error {
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode auth store: %w", err)
	}
	if err := s.fs.WriteFileAtomic(s.path, encoded, 0o600); err != nil {
		return fmt.Errorf("write auth store %s: %w", s.path, err)
	}
	return nil
}
