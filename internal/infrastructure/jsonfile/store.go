package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/store"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
)

const componentStore = "jsonfile_store"

// Store keeps every record in a single JSON document. Each call reloads the
// file, so edits made while the process runs are picked up; Atomic writes the
// whole document back through a temp file and rename, and only when fn succeeds.
type Store struct {
	mu     sync.Mutex
	path   string
	log    observability.Logger
	closed bool
}

var _ store.Store = (*Store)(nil)

// Open creates the file with an empty document when it does not exist.
func Open(path string, logger observability.Logger) (*Store, error) {
	if logger == nil {
		logger = observability.NopLogger()
	}
	s := &Store{
		path: path,
		log:  logger.With(observability.F("component", componentStore), observability.F("path", path)),
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := s.write(emptyDocument()); err != nil {
			return nil, err
		}
		s.log.Info("store_file_created")
	} else if err != nil {
		return nil, fmt.Errorf("jsonfile: stat: %w", err)
	}
	return s, nil
}

func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}

	state, err := s.load(ctx)
	if err != nil {
		return err
	}
	if err := fn(ctx, state); err != nil {
		return err
	}
	return s.write(fromState(state))
}

func (s *Store) View(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}

	state, err := s.load(ctx)
	if err != nil {
		return err
	}
	return fn(ctx, state)
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// load reads the document. A missing, unparsable or mis-keyed file is reset to
// the empty document with a store_file_reset warning.
func (s *Store) load(ctx context.Context) (*memory.State, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("jsonfile: read: %w", err)
	}

	var reason string
	switch {
	case err != nil:
		reason = "missing"
	case len(bytes.TrimSpace(raw)) == 0:
		reason = "empty"
	default:
		var doc document
		if jsonErr := json.Unmarshal(raw, &doc); jsonErr != nil {
			reason = jsonErr.Error()
			break
		}
		state, keyErr := doc.toState()
		if keyErr == nil {
			return state, nil
		}
		reason = keyErr.Error()
	}

	s.logger(ctx).Warn("store_file_reset",
		observability.F("reason", reason),
	)
	if err := s.write(emptyDocument()); err != nil {
		return nil, err
	}
	return memory.NewState(), nil
}

func (s *Store) write(doc document) error {
	raw, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("jsonfile: encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("jsonfile: create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("jsonfile: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("jsonfile: sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("jsonfile: close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("jsonfile: rename: %w", err)
	}
	return nil
}

func (s *Store) logger(ctx context.Context) observability.Logger {
	if l := logctx.From(ctx); l != nil {
		return l.With(observability.F("component", componentStore), observability.F("path", s.path))
	}
	return s.log
}
