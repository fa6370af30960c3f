package api

import (
	"time"

	"github.com/ssargent/pngme/pkg/chunk"
	"github.com/ssargent/pngme/pkg/message"
	"github.com/ssargent/pngme/pkg/storage"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// ChunkRequest creates a chunk from a text message or raw base64 data
type ChunkRequest struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Data    []byte `json:"data,omitempty"`
}

// ChunkResponse describes a chunk and, when stored, its vault id
type ChunkResponse struct {
	ID         string     `json:"id,omitempty"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
	Type       string     `json:"type"`
	Length     uint32     `json:"length"`
	CRC        uint32     `json:"crc"`
	Critical   bool       `json:"critical"`
	Public     bool       `json:"public"`
	SafeToCopy bool       `json:"safe_to_copy"`
	Valid      bool       `json:"valid"`
	Message    *string    `json:"message,omitempty"`
	Data       []byte     `json:"data,omitempty"`
}

// MessageResponse carries a decoded message
type MessageResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port        int
	Bind        string
	APIKey      string
	MaxBodySize int64 // Largest request body accepted in bytes
}

// IChunkStore defines the vault operations used by the handlers
type IChunkStore = storage.ChunkStore

// newChunkResponse builds a response; text payloads are returned as
// message, anything else as base64 data
func newChunkResponse(c *chunk.Chunk) ChunkResponse {
	t := c.Type()
	resp := ChunkResponse{
		Type:       t.String(),
		Length:     c.Length(),
		CRC:        c.CRC(),
		Critical:   t.IsCritical(),
		Public:     t.IsPublic(),
		SafeToCopy: t.IsSafeToCopy(),
		Valid:      t.IsValid(),
	}
	if msg, err := c.DataString(); err == nil {
		resp.Message = &msg
	} else {
		resp.Data = c.Data()
	}
	return resp
}

func newEntryResponse(e storage.Entry) ChunkResponse {
	resp := newChunkResponse(e.Chunk)
	resp.ID = e.ID.String()
	created := e.CreatedAt.UTC()
	resp.CreatedAt = &created
	return resp
}

// chunkInfos is the print response body
type chunkInfos struct {
	Chunks []message.ChunkInfo `json:"chunks"`
	Size   int                 `json:"size"`
}
