package message

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/ssargent/pngme/pkg/chunk"
	"github.com/ssargent/pngme/pkg/png"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage() *png.Png {
	return png.New(
		chunk.New(chunk.MustParseType("IHDR"), []byte{0, 0, 0, 1, 0, 0, 0, 1, 8, 2, 0, 0, 0}),
		chunk.New(chunk.MustParseType("IDAT"), []byte{0x78, 0x9c, 0x62, 0x00, 0x00}),
		chunk.New(chunk.MustParseType("IEND"), nil),
	)
}

func setupTestService(t *testing.T) (*Service, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "image.png")
	require.NoError(t, png.WriteFile(path, testImage()))

	svc := NewService(Config{DefaultType: "ruSt", MaxChunkSize: 64}, zerolog.Nop())
	return svc, path
}

func TestService_EncodeDecode(t *testing.T) {
	svc, path := setupTestService(t)
	ctx := context.Background()

	c, err := svc.Encode(ctx, EncodeRequest{Path: path, ChunkType: "RuSt", Message: "hidden"})
	require.NoError(t, err)
	assert.Equal(t, uint32(6), c.Length())

	msg, err := svc.Decode(ctx, path, "RuSt")
	require.NoError(t, err)
	assert.Equal(t, "hidden", msg)

	p, err := png.ReadFile(path, png.ReaderConfig{})
	require.NoError(t, err)
	assert.Equal(t, 4, p.Len())
}

func TestService_EncodeToOutputPath(t *testing.T) {
	svc, path := setupTestService(t)
	out := filepath.Join(t.TempDir(), "out.png")
	ctx := context.Background()

	_, err := svc.Encode(ctx, EncodeRequest{Path: path, ChunkType: "RuSt", Message: "copy", OutputPath: out})
	require.NoError(t, err)

	msg, err := svc.Decode(ctx, out, "RuSt")
	require.NoError(t, err)
	assert.Equal(t, "copy", msg)

	// Source is untouched
	_, err = svc.Decode(ctx, path, "RuSt")
	assert.ErrorIs(t, err, png.ErrChunkNotFound)
}

func TestService_DefaultType(t *testing.T) {
	svc, path := setupTestService(t)
	ctx := context.Background()

	c, err := svc.Encode(ctx, EncodeRequest{Path: path, Message: "defaulted"})
	require.NoError(t, err)
	assert.Equal(t, "ruSt", c.Type().String())

	msg, err := svc.Decode(ctx, path, "")
	require.NoError(t, err)
	assert.Equal(t, "defaulted", msg)
}

func TestService_EncodeRejects(t *testing.T) {
	svc, path := setupTestService(t)
	ctx := context.Background()

	testCases := []struct {
		name    string
		typ     string
		message string
		want    error
	}{
		{name: "reserved bit", typ: "Rust", message: "x", want: ErrInvalidChunkType},
		{name: "digit", typ: "Ru1t", message: "x", want: chunk.ErrInvalidCharacter},
		{name: "length", typ: "Rus", message: "x", want: chunk.ErrInvalidLength},
		{name: "too large", typ: "RuSt", message: string(make([]byte, 65)), want: ErrMessageTooLarge},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Encode(ctx, EncodeRequest{Path: path, ChunkType: tc.typ, Message: tc.message})
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestService_Remove(t *testing.T) {
	svc, path := setupTestService(t)
	ctx := context.Background()

	_, err := svc.Encode(ctx, EncodeRequest{Path: path, ChunkType: "RuSt", Message: "temporary"})
	require.NoError(t, err)

	removed, err := svc.Remove(ctx, path, "RuSt")
	require.NoError(t, err)
	assert.Equal(t, []byte("temporary"), removed.Data())

	_, err = svc.Decode(ctx, path, "RuSt")
	assert.ErrorIs(t, err, png.ErrChunkNotFound)

	_, err = svc.Remove(ctx, path, "RuSt")
	assert.ErrorIs(t, err, png.ErrChunkNotFound)
}

func TestService_Print(t *testing.T) {
	svc, path := setupTestService(t)

	infos, err := svc.Print(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, infos, 3)

	assert.Equal(t, ChunkInfo{
		Index: 0, Type: "IHDR", Length: 13, CRC: infos[0].CRC,
		Critical: true, Public: true, SafeToCopy: false, Valid: true,
	}, infos[0])
	assert.Equal(t, "IEND", infos[2].Type)
	assert.Equal(t, uint32(0xae426082), infos[2].CRC)
}

func TestService_NotPNG(t *testing.T) {
	svc, _ := setupTestService(t)
	path := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0600))

	_, err := svc.Decode(context.Background(), path, "RuSt")
	assert.ErrorIs(t, err, png.ErrInvalidSignature)
}

func TestService_CancelledContext(t *testing.T) {
	svc, path := setupTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Encode(ctx, EncodeRequest{Path: path, ChunkType: "RuSt", Message: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_Bytes(t *testing.T) {
	svc, _ := setupTestService(t)
	data := testImage().Bytes()

	encoded, err := svc.EncodeBytes(data, "RuSt", "in memory")
	require.NoError(t, err)
	assert.Len(t, encoded, len(data)+chunk.OverheadSize+len("in memory"))

	msg, err := svc.DecodeBytes(encoded, "RuSt")
	require.NoError(t, err)
	assert.Equal(t, "in memory", msg)

	stripped, removed, err := svc.RemoveBytes(encoded, "RuSt")
	require.NoError(t, err)
	assert.Equal(t, data, stripped)
	assert.Equal(t, "RuSt", removed.Type().String())
}

func TestService_DecodeBinaryPayload(t *testing.T) {
	svc, _ := setupTestService(t)
	p := testImage()
	p.AppendChunk(chunk.New(chunk.MustParseType("RuSt"), []byte{0xff, 0xfe}))

	_, err := svc.DecodeBytes(p.Bytes(), "RuSt")
	assert.ErrorIs(t, err, chunk.ErrEncoding)
}

func TestService_RejectsOversizedChunks(t *testing.T) {
	svc, path := setupTestService(t)
	ctx := context.Background()

	p := testImage()
	p.AppendChunk(chunk.New(chunk.MustParseType("RuSt"), bytes.Repeat([]byte("x"), 65)))
	require.NoError(t, png.WriteFile(path, p))

	_, err := svc.Decode(ctx, path, "RuSt")
	assert.ErrorIs(t, err, png.ErrChunkTooLarge)

	_, err = svc.Print(ctx, path)
	assert.ErrorIs(t, err, png.ErrChunkTooLarge)

	_, err = svc.Encode(ctx, EncodeRequest{Path: path, ChunkType: "ruSt", Message: "x"})
	assert.ErrorIs(t, err, png.ErrChunkTooLarge)

	_, err = svc.DecodeBytes(p.Bytes(), "RuSt")
	assert.ErrorIs(t, err, png.ErrChunkTooLarge)
}

func TestService_DecodeInvalidTypeLength(t *testing.T) {
	svc, path := setupTestService(t)
	data := testImage().Bytes()

	_, err := svc.DecodeBytes(data, "abc")
	assert.ErrorIs(t, err, chunk.ErrInvalidLength)

	_, err = svc.Decode(context.Background(), path, "toolong")
	assert.ErrorIs(t, err, chunk.ErrInvalidLength)

	// Remove reports the same error for the same input
	_, _, err = svc.RemoveBytes(data, "abc")
	assert.ErrorIs(t, err, chunk.ErrInvalidLength)
}

func TestService_ResolveType(t *testing.T) {
	svc, _ := setupTestService(t)

	assert.Equal(t, "ruSt", svc.ResolveType(""))
	assert.Equal(t, "RuSt", svc.ResolveType("RuSt"))
}
