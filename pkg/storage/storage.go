// Package storage persists chunk frames in a pebble database keyed by KSUID
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"
	"github.com/ssargent/pngme/pkg/chunk"
)

// ErrNotFound is returned when no chunk is stored under an id
var ErrNotFound = errors.New("chunk not found")

// Config holds configuration for the chunk vault
type Config struct {
	Path   string         // Directory of the pebble database
	Sync   bool           // fsync every write
	Logger zerolog.Logger // Defaults to a disabled logger
}

// Entry is a stored chunk with its id
type Entry struct {
	ID        ksuid.KSUID
	CreatedAt time.Time
	Chunk     *chunk.Chunk
}

// ChunkStore is the set of vault operations the API depends on
type ChunkStore interface {
	Put(c *chunk.Chunk) (ksuid.KSUID, error)
	Get(id ksuid.KSUID) (*chunk.Chunk, error)
	Delete(id ksuid.KSUID) error
	List(ctx context.Context) ([]Entry, error)
}

// DefaultStorage stores serialized chunk frames in pebble. Frames are
// re-parsed on every read, so corruption surfaces as a checksum error.
type DefaultStorage struct {
	db        *pebble.DB
	writeOpts *pebble.WriteOptions
	logger    zerolog.Logger
}

var _ ChunkStore = (*DefaultStorage)(nil)

// NewDefaultStorage opens (or creates) the vault at config.Path
func NewDefaultStorage(config Config) (*DefaultStorage, error) {
	db, err := pebble.Open(config.Path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open chunk vault at %s: %w", config.Path, err)
	}

	writeOpts := pebble.NoSync
	if config.Sync {
		writeOpts = pebble.Sync
	}

	return &DefaultStorage{
		db:        db,
		writeOpts: writeOpts,
		logger:    config.Logger.With().Str("component", "storage").Logger(),
	}, nil
}

// Put stores the chunk frame under a new KSUID
func (s *DefaultStorage) Put(c *chunk.Chunk) (ksuid.KSUID, error) {
	id := ksuid.New()
	if err := s.db.Set(id.Bytes(), c.Bytes(), s.writeOpts); err != nil {
		return ksuid.Nil, fmt.Errorf("failed to store chunk: %w", err)
	}

	s.logger.Debug().
		Str("id", id.String()).
		Stringer("type", c.Type()).
		Uint32("length", c.Length()).
		Msg("stored chunk")
	return id, nil
}

// Get loads and re-validates the chunk stored under id
func (s *DefaultStorage) Get(id ksuid.KSUID) (*chunk.Chunk, error) {
	data, closer, err := s.db.Get(id.Bytes())
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to read chunk %s: %w", id, err)
	}
	defer closer.Close()

	// Parse copies the payload out of pebble's buffer
	c, err := chunk.Parse(data)
	if err != nil {
		s.logger.Warn().Err(err).Str("id", id.String()).Msg("stored chunk failed validation")
		return nil, fmt.Errorf("stored chunk %s is corrupt: %w", id, err)
	}
	return c, nil
}

// Delete removes the chunk stored under id
func (s *DefaultStorage) Delete(id ksuid.KSUID) error {
	_, closer, err := s.db.Get(id.Bytes())
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to read chunk %s: %w", id, err)
	}
	closer.Close()

	if err := s.db.Delete(id.Bytes(), s.writeOpts); err != nil {
		return fmt.Errorf("failed to delete chunk %s: %w", id, err)
	}

	s.logger.Debug().Str("id", id.String()).Msg("deleted chunk")
	return nil
}

// List returns every stored chunk in KSUID order, which sorts by creation second
func (s *DefaultStorage) List(ctx context.Context) ([]Entry, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate chunk vault: %w", err)
	}
	defer iter.Close()

	var entries []Entry
	for iter.First(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		id, err := ksuid.FromBytes(iter.Key())
		if err != nil {
			s.logger.Warn().Err(err).Msg("skipping malformed vault key")
			continue
		}

		c, err := chunk.Parse(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("stored chunk %s is corrupt: %w", id, err)
		}

		entries = append(entries, Entry{ID: id, CreatedAt: id.Time(), Chunk: c})
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("failed to iterate chunk vault: %w", err)
	}

	return entries, nil
}

// Close closes the underlying database
func (s *DefaultStorage) Close() error {
	return s.db.Close()
}
