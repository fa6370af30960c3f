// Package message hides text messages inside PNG files as extra chunks
package message

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/ssargent/pngme/pkg/chunk"
	"github.com/ssargent/pngme/pkg/png"
)

var (
	ErrInvalidChunkType = errors.New("chunk type is not valid for messages")
	ErrMessageTooLarge  = errors.New("message exceeds maximum chunk size")
)

// Config holds configuration for the message service
type Config struct {
	DefaultType  string // Used when a request leaves the chunk type empty
	MaxChunkSize uint32 // Largest message written or chunk read (0 = no limit)
}

// EncodeRequest describes a message to hide in a file
type EncodeRequest struct {
	Path       string
	ChunkType  string
	Message    string
	OutputPath string // Defaults to Path
}

// ChunkInfo summarizes one chunk of a PNG
type ChunkInfo struct {
	Index      int    `json:"index"`
	Type       string `json:"type"`
	Length     uint32 `json:"length"`
	CRC        uint32 `json:"crc"`
	Critical   bool   `json:"critical"`
	Public     bool   `json:"public"`
	SafeToCopy bool   `json:"safe_to_copy"`
	Valid      bool   `json:"valid"`
}

// Service encodes, decodes and removes messages
type Service struct {
	config Config
	logger zerolog.Logger
}

// NewService creates a message service
func NewService(config Config, logger zerolog.Logger) *Service {
	return &Service{
		config: config,
		logger: logger.With().Str("component", "message").Logger(),
	}
}

// Encode appends a message chunk to the PNG at req.Path
func (s *Service) Encode(ctx context.Context, req EncodeRequest) (*chunk.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := png.ReadFile(req.Path, s.readerConfig())
	if err != nil {
		return nil, err
	}

	c, err := s.appendMessage(p, req.ChunkType, req.Message)
	if err != nil {
		return nil, err
	}

	out := req.OutputPath
	if out == "" {
		out = req.Path
	}
	if err := png.WriteFile(out, p); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("path", out).
		Stringer("type", c.Type()).
		Uint32("length", c.Length()).
		Msg("encoded message")
	return c, nil
}

// Decode returns the message in the first chunk of the given type
func (s *Service) Decode(ctx context.Context, path, chunkType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p, err := png.ReadFile(path, s.readerConfig())
	if err != nil {
		return "", err
	}
	return s.decode(p, chunkType)
}

// Remove deletes the first chunk of the given type and rewrites the file
func (s *Service) Remove(ctx context.Context, path, chunkType string) (*chunk.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := png.ReadFile(path, s.readerConfig())
	if err != nil {
		return nil, err
	}

	removed, err := p.RemoveFirstChunk(s.ResolveType(chunkType))
	if err != nil {
		return nil, err
	}

	if err := png.WriteFile(path, p); err != nil {
		return nil, err
	}

	s.logger.Info().Str("path", path).Stringer("type", removed.Type()).Msg("removed chunk")
	return removed, nil
}

// Print summarizes every chunk in the file
func (s *Service) Print(ctx context.Context, path string) ([]ChunkInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := png.ReadFile(path, s.readerConfig())
	if err != nil {
		return nil, err
	}
	return Inspect(p), nil
}

// EncodeBytes appends a message chunk to an in-memory PNG and returns the new file
func (s *Service) EncodeBytes(data []byte, chunkType, message string) ([]byte, error) {
	p, err := s.parse(data)
	if err != nil {
		return nil, err
	}
	if _, err := s.appendMessage(p, chunkType, message); err != nil {
		return nil, err
	}
	return p.Bytes(), nil
}

// DecodeBytes returns the message in the first chunk of the given type
func (s *Service) DecodeBytes(data []byte, chunkType string) (string, error) {
	p, err := s.parse(data)
	if err != nil {
		return "", err
	}
	return s.decode(p, chunkType)
}

// RemoveBytes removes the first chunk of the given type from an in-memory PNG
func (s *Service) RemoveBytes(data []byte, chunkType string) ([]byte, *chunk.Chunk, error) {
	p, err := s.parse(data)
	if err != nil {
		return nil, nil, err
	}
	removed, err := p.RemoveFirstChunk(s.ResolveType(chunkType))
	if err != nil {
		return nil, nil, err
	}
	return p.Bytes(), removed, nil
}

// NewChunk validates a message chunk against the service limits
func (s *Service) NewChunk(chunkType string, payload []byte) (*chunk.Chunk, error) {
	t, err := chunk.ParseType(s.ResolveType(chunkType))
	if err != nil {
		return nil, err
	}
	if !t.IsValid() {
		return nil, fmt.Errorf("%w: %s has the reserved bit set", ErrInvalidChunkType, t)
	}
	if t.IsCritical() {
		// Decoders reject files with unknown critical chunks
		s.logger.Warn().Stringer("type", t).Msg("message stored in a critical chunk type")
	}
	if s.config.MaxChunkSize > 0 && uint64(len(payload)) > uint64(s.config.MaxChunkSize) {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrMessageTooLarge, len(payload), s.config.MaxChunkSize)
	}
	return chunk.New(t, payload), nil
}

// Inspect summarizes every chunk of p in file order
func Inspect(p *png.Png) []ChunkInfo {
	chunks := p.Chunks()
	infos := make([]ChunkInfo, 0, len(chunks))
	for i, c := range chunks {
		t := c.Type()
		infos = append(infos, ChunkInfo{
			Index:      i,
			Type:       t.String(),
			Length:     c.Length(),
			CRC:        c.CRC(),
			Critical:   t.IsCritical(),
			Public:     t.IsPublic(),
			SafeToCopy: t.IsSafeToCopy(),
			Valid:      t.IsValid(),
		})
	}
	return infos
}

func (s *Service) appendMessage(p *png.Png, chunkType, message string) (*chunk.Chunk, error) {
	c, err := s.NewChunk(chunkType, []byte(message))
	if err != nil {
		return nil, err
	}
	p.AppendChunk(c)
	return c, nil
}

func (s *Service) decode(p *png.Png, chunkType string) (string, error) {
	typ := s.ResolveType(chunkType)
	if _, err := chunk.TypeFromSlice([]byte(typ)); err != nil {
		return "", err
	}
	c := p.ChunkByType(typ)
	if c == nil {
		return "", fmt.Errorf("%w: %s", png.ErrChunkNotFound, typ)
	}
	return c.DataString()
}

// parse decodes an in-memory PNG under the same chunk size limit as files
func (s *Service) parse(data []byte) (*png.Png, error) {
	return png.Decode(bytes.NewReader(data), s.readerConfig())
}

func (s *Service) readerConfig() png.ReaderConfig {
	return png.ReaderConfig{MaxChunkSize: s.config.MaxChunkSize}
}

// ResolveType returns the chunk type used for a request, applying the
// configured default when chunkType is empty
func (s *Service) ResolveType(chunkType string) string {
	if chunkType == "" {
		return s.config.DefaultType
	}
	return chunkType
}
