package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"
	"github.com/ssargent/pngme/pkg/chunk"
	"github.com/ssargent/pngme/pkg/message"
	"github.com/ssargent/pngme/pkg/png"
	"github.com/ssargent/pngme/pkg/storage"
)

// Server holds the API server state
type Server struct {
	store    IChunkStore
	messages MessageService
	config   ServerConfig
	metrics  *Metrics
	logger   zerolog.Logger
}

// NewServer creates a new API server
func NewServer(store IChunkStore, messages MessageService, config ServerConfig, metrics *Metrics, logger zerolog.Logger) *Server {
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = defaultMaxBodySize
	}
	return &Server{
		store:    store,
		messages: messages,
		config:   config,
		metrics:  metrics,
		logger:   logger.With().Str("component", "api").Logger(),
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

func (s *Server) handleCreateChunk(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req ChunkRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.config.MaxBodySize)).Decode(&req); err != nil {
		s.metrics.RecordChunkOperation("create", false, 0, time.Since(start))
		sendError(w, "Invalid JSON in request body", http.StatusBadRequest)
		return
	}

	payload := req.Data
	if req.Message != "" {
		if len(req.Data) > 0 {
			s.metrics.RecordChunkOperation("create", false, 0, time.Since(start))
			sendError(w, "Provide either message or data, not both", http.StatusBadRequest)
			return
		}
		payload = []byte(req.Message)
	}

	c, err := s.messages.NewChunk(req.Type, payload)
	if err != nil {
		s.metrics.RecordChunkOperation("create", false, 0, time.Since(start))
		s.sendChunkError(w, r, err)
		return
	}

	id, err := s.store.Put(c)
	if err != nil {
		s.metrics.RecordChunkOperation("create", false, 0, time.Since(start))
		s.sendChunkError(w, r, err)
		return
	}
	s.metrics.RecordChunkOperation("create", true, int(c.Length()), time.Since(start))

	resp := newChunkResponse(c)
	resp.ID = id.String()
	created := id.Time().UTC()
	resp.CreatedAt = &created
	sendCreated(w, resp)
}

func (s *Server) handleListChunks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	entries, err := s.store.List(r.Context())
	if err != nil {
		s.metrics.RecordChunkOperation("list", false, 0, time.Since(start))
		s.sendChunkError(w, r, err)
		return
	}
	s.metrics.RecordChunkOperation("list", true, 0, time.Since(start))
	s.metrics.UpdateStoredChunks(len(entries))

	out := make([]ChunkResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, newEntryResponse(e))
	}
	sendSuccess(w, out)
}

func (s *Server) handleGetChunk(w http.ResponseWriter, r *http.Request) {
	c, id, ok := s.loadChunk(w, r, "get")
	if !ok {
		return
	}

	resp := newEntryResponse(storage.Entry{ID: id, CreatedAt: id.Time(), Chunk: c})
	sendSuccess(w, resp)
}

func (s *Server) handleGetChunkRaw(w http.ResponseWriter, r *http.Request) {
	c, _, ok := s.loadChunk(w, r, "get_raw")
	if !ok {
		return
	}
	sendBinary(w, "application/octet-stream", c.Bytes())
}

func (s *Server) handleDeleteChunk(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, err := ksuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.metrics.RecordChunkOperation("delete", false, 0, time.Since(start))
		sendError(w, "Invalid chunk id", http.StatusBadRequest)
		return
	}

	if err := s.store.Delete(id); err != nil {
		s.metrics.RecordChunkOperation("delete", false, 0, time.Since(start))
		s.sendChunkError(w, r, err)
		return
	}
	s.metrics.RecordChunkOperation("delete", true, 0, time.Since(start))

	sendSuccess(w, map[string]string{"status": "deleted", "id": id.String()})
}

// handleParseChunk validates a raw chunk frame without storing it
func (s *Server) handleParseChunk(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	c, err := chunk.Parse(body)
	if err != nil {
		s.metrics.RecordChunkOperation("parse", false, 0, time.Since(start))
		s.sendChunkError(w, r, err)
		return
	}
	s.metrics.RecordChunkOperation("parse", true, int(c.Length()), time.Since(start))

	sendSuccess(w, newChunkResponse(c))
}

func (s *Server) handlePngEncode(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	msg := q.Get("message")
	out, err := s.messages.EncodeBytes(body, q.Get("type"), msg)
	if err != nil {
		s.metrics.RecordChunkOperation("encode", false, 0, time.Since(start))
		s.sendChunkError(w, r, err)
		return
	}
	s.metrics.RecordChunkOperation("encode", true, len(msg), time.Since(start))

	sendBinary(w, "image/png", out)
}

func (s *Server) handlePngDecode(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	typ := r.URL.Query().Get("type")
	msg, err := s.messages.DecodeBytes(body, typ)
	if err != nil {
		s.metrics.RecordChunkOperation("decode", false, 0, time.Since(start))
		s.sendChunkError(w, r, err)
		return
	}
	s.metrics.RecordChunkOperation("decode", true, len(msg), time.Since(start))

	sendSuccess(w, MessageResponse{Type: s.messages.ResolveType(typ), Message: msg})
}

func (s *Server) handlePngRemove(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	out, removed, err := s.messages.RemoveBytes(body, r.URL.Query().Get("type"))
	if err != nil {
		s.metrics.RecordChunkOperation("remove", false, 0, time.Since(start))
		s.sendChunkError(w, r, err)
		return
	}
	s.metrics.RecordChunkOperation("remove", true, int(removed.Length()), time.Since(start))

	w.Header().Set("X-Removed-Chunk", removed.Type().String())
	sendBinary(w, "image/png", out)
}

func (s *Server) handlePngPrint(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	p, err := png.Parse(body)
	if err != nil {
		s.metrics.RecordChunkOperation("print", false, 0, time.Since(start))
		s.sendChunkError(w, r, err)
		return
	}
	s.metrics.RecordChunkOperation("print", true, 0, time.Since(start))

	sendSuccess(w, chunkInfos{Chunks: message.Inspect(p), Size: p.Size()})
}

// loadChunk resolves the {id} URL parameter and loads the chunk. It writes
// the error response itself and reports false on failure.
func (s *Server) loadChunk(w http.ResponseWriter, r *http.Request, operation string) (*chunk.Chunk, ksuid.KSUID, bool) {
	start := time.Now()

	id, err := ksuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.metrics.RecordChunkOperation(operation, false, 0, time.Since(start))
		sendError(w, "Invalid chunk id", http.StatusBadRequest)
		return nil, ksuid.Nil, false
	}

	c, err := s.store.Get(id)
	if err != nil {
		s.metrics.RecordChunkOperation(operation, false, 0, time.Since(start))
		s.sendChunkError(w, r, err)
		return nil, ksuid.Nil, false
	}
	s.metrics.RecordChunkOperation(operation, true, int(c.Length()), time.Since(start))

	return c, id, true
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodySize))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			sendError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		sendError(w, "Failed to read request body", http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

// sendChunkError maps domain errors to HTTP statuses
func (s *Server) sendChunkError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	code := ""
	if kind := chunk.KindOf(err); kind != 0 {
		code = kind.String()
	}
	if errors.Is(err, chunk.ErrChecksumMismatch) {
		s.metrics.RecordChecksumFailure()
	}

	logger := zerolog.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Msg("request failed")
		sendErrorCode(w, "Internal server error", code, status)
		return
	}
	logger.Debug().Err(err).Int("status", status).Msg("request rejected")
	sendErrorCode(w, err.Error(), code, status)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, png.ErrChunkNotFound):
		return http.StatusNotFound
	case errors.Is(err, message.ErrMessageTooLarge), errors.Is(err, png.ErrChunkTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, chunk.ErrInvalidLength),
		errors.Is(err, chunk.ErrInvalidCharacter),
		errors.Is(err, message.ErrInvalidChunkType):
		return http.StatusBadRequest
	case errors.Is(err, chunk.ErrTooShort),
		errors.Is(err, chunk.ErrLengthMismatch),
		errors.Is(err, chunk.ErrChecksumMismatch),
		errors.Is(err, chunk.ErrEncoding),
		errors.Is(err, png.ErrInvalidSignature),
		errors.Is(err, png.ErrTruncated):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
