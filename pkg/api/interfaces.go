// Package api provides interfaces for dependency injection
package api

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/ssargent/pngme/pkg/chunk"
)

// MessageService defines the message operations the handlers use
type MessageService interface {
	NewChunk(chunkType string, payload []byte) (*chunk.Chunk, error)
	EncodeBytes(data []byte, chunkType, message string) ([]byte, error)
	DecodeBytes(data []byte, chunkType string) (string, error)
	RemoveBytes(data []byte, chunkType string) ([]byte, *chunk.Chunk, error)
	ResolveType(chunkType string) string
}

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer runs the API server until ctx is cancelled
	StartServer(ctx context.Context, store IChunkStore, messages MessageService, config ServerConfig, logger zerolog.Logger) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter() ServerStarter
}
