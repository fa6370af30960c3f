package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/ssargent/pngme/pkg/chunk"
	"github.com/ssargent/pngme/pkg/message"
	"github.com/ssargent/pngme/pkg/png"
	"github.com/ssargent/pngme/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

const testAPIKey = "test-key"

type testEnv struct {
	server  *Server
	handler http.Handler
	store   *storage.DefaultStorage
}

// setupTestServer creates a router backed by a temporary vault and a
// private metrics registry
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	store, err := storage.NewDefaultStorage(storage.Config{Path: filepath.Join(t.TempDir(), "vault")})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	messages := message.NewService(message.Config{DefaultType: "ruSt", MaxChunkSize: 1024}, zerolog.Nop())
	reg := prometheus.NewRegistry()
	server := NewServer(store, messages, ServerConfig{APIKey: testAPIKey, MaxBodySize: 4096}, NewMetrics(reg), zerolog.Nop())

	return &testEnv{
		server:  server,
		handler: NewRouter(server, reg),
		store:   store,
	}
}

func (e *testEnv) do(t *testing.T, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("X-API-Key", testAPIKey)
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder, data interface{}) APIResponse {
	t.Helper()

	var raw struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
		Code    string          `json:"code"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&raw))
	if data != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return APIResponse{Success: raw.Success, Error: raw.Error, Code: raw.Code}
}

func testImage() []byte {
	return png.New(
		chunk.New(chunk.MustParseType("IHDR"), []byte{0, 0, 0, 1, 0, 0, 0, 1, 8, 2, 0, 0, 0}),
		chunk.New(chunk.MustParseType("IEND"), nil),
	).Bytes()
}

func TestServer_Health(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, "GET", "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var data map[string]string
	resp := decodeResponse(t, w, &data)
	assert.True(t, resp.Success)
	assert.Equal(t, "healthy", data["status"])
}

func TestServer_RequiresAPIKey(t *testing.T) {
	env := setupTestServer(t)

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServer_Metrics(t *testing.T) {
	env := setupTestServer(t)
	env.do(t, "GET", "/api/v1/health", nil)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pngme_http_requests_total")
	assert.Contains(t, w.Body.String(), "pngme_health_checks_total")
}

func TestServer_ChunkLifecycle(t *testing.T) {
	env := setupTestServer(t)

	// Create
	body := []byte(`{"type":"RuSt","message":"This is where your secret message will be!"}`)
	w := env.do(t, "POST", "/api/v1/chunks", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created ChunkResponse
	decodeResponse(t, w, &created)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "RuSt", created.Type)
	assert.Equal(t, uint32(42), created.Length)
	assert.Equal(t, uint32(2882656334), created.CRC)
	assert.True(t, created.Critical)
	assert.False(t, created.Public)
	assert.True(t, created.SafeToCopy)
	require.NotNil(t, created.Message)
	assert.Equal(t, "This is where your secret message will be!", *created.Message)

	// Get
	w = env.do(t, "GET", "/api/v1/chunks/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got ChunkResponse
	decodeResponse(t, w, &got)
	assert.Equal(t, created.CRC, got.CRC)
	assert.Equal(t, created.ID, got.ID)

	// Raw
	w = env.do(t, "GET", "/api/v1/chunks/"+created.ID+"/raw", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/octet-stream", w.Header().Get("Content-Type"))
	parsed, err := chunk.Parse(w.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, uint32(2882656334), parsed.CRC())

	// List
	w = env.do(t, "GET", "/api/v1/chunks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []ChunkResponse
	decodeResponse(t, w, &list)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.server.metrics.storedChunks))

	// Delete
	w = env.do(t, "DELETE", "/api/v1/chunks/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, "GET", "/api/v1/chunks/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, "DELETE", "/api/v1/chunks/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_CreateChunkBinaryData(t *testing.T) {
	env := setupTestServer(t)

	body := []byte(`{"type":"prIv","data":"//79"}`)
	w := env.do(t, "POST", "/api/v1/chunks", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created ChunkResponse
	decodeResponse(t, w, &created)
	assert.Nil(t, created.Message)
	assert.Equal(t, []byte{0xff, 0xfe, 0xfd}, created.Data)
}

func TestServer_CreateChunkErrors(t *testing.T) {
	env := setupTestServer(t)

	testCases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{name: "invalid json", body: `{`, status: http.StatusBadRequest},
		{name: "invalid character", body: `{"type":"Ru1t","message":"x"}`, status: http.StatusBadRequest, code: "invalid_character"},
		{name: "invalid length", body: `{"type":"Rus","message":"x"}`, status: http.StatusBadRequest, code: "invalid_length"},
		{name: "reserved bit", body: `{"type":"Rust","message":"x"}`, status: http.StatusBadRequest},
		{name: "message and data", body: `{"type":"RuSt","message":"x","data":"AA=="}`, status: http.StatusBadRequest},
		{name: "too large", body: `{"type":"RuSt","message":"` + strings.Repeat("x", 2000) + `"}`, status: http.StatusRequestEntityTooLarge},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(t, "POST", "/api/v1/chunks", []byte(tc.body))
			assert.Equal(t, tc.status, w.Code)

			resp := decodeResponse(t, w, nil)
			assert.False(t, resp.Success)
			assert.Equal(t, tc.code, resp.Code)
		})
	}
}

func TestServer_GetChunkInvalidID(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, "GET", "/api/v1/chunks/not-a-ksuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_ParseChunk(t *testing.T) {
	env := setupTestServer(t)
	frame := chunk.New(chunk.MustParseType("RuSt"), []byte("This is where your secret message will be!")).Bytes()

	t.Run("valid frame", func(t *testing.T) {
		w := env.do(t, "POST", "/api/v1/chunks/parse", frame)
		require.Equal(t, http.StatusOK, w.Code)

		var got ChunkResponse
		decodeResponse(t, w, &got)
		assert.Equal(t, uint32(2882656334), got.CRC)
		assert.Empty(t, got.ID)
	})

	testCases := []struct {
		name string
		body []byte
		code string
	}{
		{name: "too short", body: frame[:11], code: "too_short"},
		{name: "length mismatch", body: append(append([]byte{}, frame...), 0), code: "length_mismatch"},
		{name: "checksum mismatch", body: func() []byte {
			b := append([]byte{}, frame...)
			b[len(b)-1]--
			return b
		}(), code: "checksum_mismatch"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(t, "POST", "/api/v1/chunks/parse", tc.body)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

			resp := decodeResponse(t, w, nil)
			assert.Equal(t, tc.code, resp.Code)
		})
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(env.server.metrics.checksumFailuresTotal))
}

func TestServer_PngRoundTrip(t *testing.T) {
	env := setupTestServer(t)
	image := testImage()

	// Encode
	w := env.do(t, "POST", "/api/v1/png/encode?type=RuSt&message=hello+world", image)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	encoded := w.Body.Bytes()
	assert.Len(t, encoded, len(image)+chunk.OverheadSize+len("hello world"))

	// Print
	w = env.do(t, "POST", "/api/v1/png/print", encoded)
	require.Equal(t, http.StatusOK, w.Code)
	var infos chunkInfos
	decodeResponse(t, w, &infos)
	require.Len(t, infos.Chunks, 3)
	assert.Equal(t, "RuSt", infos.Chunks[2].Type)
	assert.Equal(t, len(encoded), infos.Size)

	// Decode
	w = env.do(t, "POST", "/api/v1/png/decode?type=RuSt", encoded)
	require.Equal(t, http.StatusOK, w.Code)
	var msg MessageResponse
	decodeResponse(t, w, &msg)
	assert.Equal(t, "hello world", msg.Message)

	// Remove
	w = env.do(t, "POST", "/api/v1/png/remove?type=RuSt", encoded)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "RuSt", w.Header().Get("X-Removed-Chunk"))
	assert.Equal(t, image, w.Body.Bytes())
}

func TestServer_PngErrors(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, "POST", "/api/v1/png/decode?type=RuSt", []byte("not a png"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.do(t, "POST", "/api/v1/png/decode?type=RuSt", testImage())
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, "POST", "/api/v1/png/print", bytes.Repeat([]byte{0}, 5000))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestServer_PngDecodeDefaultType(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, "POST", "/api/v1/png/encode?message=fallback", testImage())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	encoded := w.Body.Bytes()

	w = env.do(t, "POST", "/api/v1/png/decode", encoded)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var msg MessageResponse
	decodeResponse(t, w, &msg)
	assert.Equal(t, "ruSt", msg.Type)
	assert.Equal(t, "fallback", msg.Message)
}

func TestServer_PngInvalidTypeLength(t *testing.T) {
	env := setupTestServer(t)
	image := testImage()

	for _, route := range []string{"/api/v1/png/decode?type=abc", "/api/v1/png/remove?type=abc"} {
		t.Run(route, func(t *testing.T) {
			w := env.do(t, "POST", route, image)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			resp := decodeResponse(t, w, nil)
			assert.Equal(t, "invalid_length", resp.Code)
		})
	}
}

func TestServer_PngOversizedChunk(t *testing.T) {
	env := setupTestServer(t)
	p := png.New(
		chunk.New(chunk.MustParseType("IHDR"), []byte{0, 0, 0, 1, 0, 0, 0, 1, 8, 2, 0, 0, 0}),
		chunk.New(chunk.MustParseType("RuSt"), bytes.Repeat([]byte("x"), 1025)),
		chunk.New(chunk.MustParseType("IEND"), nil),
	)

	w := env.do(t, "POST", "/api/v1/png/decode?type=RuSt", p.Bytes())
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestStatusForError(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusForError(storage.ErrNotFound))
	assert.Equal(t, http.StatusUnprocessableEntity, statusForError(chunk.ErrChecksumMismatch))
	assert.Equal(t, http.StatusBadRequest, statusForError(message.ErrInvalidChunkType))
	assert.Equal(t, http.StatusRequestEntityTooLarge, statusForError(png.ErrChunkTooLarge))
	assert.Equal(t, http.StatusInternalServerError, statusForError(assert.AnError))
}

func TestServer_Swagger(t *testing.T) {
	env := setupTestServer(t)

	testCases := []struct {
		path        string
		status      int
		contentType string
		contains    string
	}{
		{path: "/swagger/index.html", status: http.StatusOK, contentType: "text/html", contains: "swagger-ui"},
		{path: "/swagger/swagger.json", status: http.StatusOK, contentType: "application/json", contains: `"/png/encode"`},
		{path: "/swagger/swagger.yaml", status: http.StatusOK, contentType: "application/yaml", contains: "basePath: /api/v1"},
		{path: "/swagger/missing", status: http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			req := httptest.NewRequest("GET", tc.path, nil)
			w := httptest.NewRecorder()
			env.handler.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			if tc.contentType != "" {
				assert.Equal(t, tc.contentType, w.Header().Get("Content-Type"))
				assert.Contains(t, w.Body.String(), tc.contains)
			}
		})
	}

	doc, err := swag.ReadDoc()
	require.NoError(t, err)
	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(doc), &parsed))
	assert.Equal(t, "2.0", parsed["swagger"])
}
