package usecase

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"renovation-quote/internal/domain"
	"renovation-quote/internal/integrations/objectstore"
)

func TestNewUploadService_NilStore(t *testing.T) {
	_, err := NewUploadService(nil, nil)
	require.Error(t, err)
}

func TestUploadService_Store(t *testing.T) {
	var n atomic.Int32
	orig := newUUID
	newUUID = func() string {
		if n.Add(1) == 1 {
			return "first"
		}
		return "other"
	}
	t.Cleanup(func() { newUUID = orig })

	objects := &fakeObjects{}
	s, err := NewUploadService(objects, nil)
	require.NoError(t, err)

	out, err := s.Store(context.Background(), []domain.Upload{
		{Filename: "kitchen.png", ContentType: "image/png", Data: []byte("hi")},
	})
	require.NoError(t, err)
	require.Equal(t, []StoredImage{{
		URL:    "https://cdn.example.com/first.png",
		Base64: "data:image/png;base64,aGk=",
	}}, out)
	require.Equal(t, []string{"first.png"}, objects.paths)
}

func TestUploadService_Store_LocalURLsMatchServedDirectory(t *testing.T) {
	orig := newUUID
	newUUID = func() string { return "3f2a" }
	t.Cleanup(func() { newUUID = orig })

	dir := t.TempDir()
	store, err := objectstore.NewLocal(dir, "/uploads")
	require.NoError(t, err)
	s, err := NewUploadService(store, nil)
	require.NoError(t, err)

	out, err := s.Store(context.Background(), []domain.Upload{
		{Filename: "bath.png", ContentType: "image/png", Data: []byte("png")},
	})
	require.NoError(t, err)
	require.Equal(t, "/uploads/3f2a.png", out[0].URL)

	data, err := os.ReadFile(filepath.Join(dir, "3f2a.png"))
	require.NoError(t, err)
	require.Equal(t, "png", string(data))
}

func TestUploadService_Store_KeepsInputOrder(t *testing.T) {
	s, err := NewUploadService(&fakeObjects{}, nil)
	require.NoError(t, err)

	files := []domain.Upload{
		{Filename: "a.jpg", ContentType: "image/jpeg", Data: []byte("a")},
		{Filename: "b.gif", ContentType: "image/gif", Data: []byte("b")},
		{Filename: "c.png", ContentType: "image/png", Data: []byte("c")},
	}
	out, err := s.Store(context.Background(), files)
	require.NoError(t, err)
	require.Len(t, out, 3)
	require.True(t, strings.HasSuffix(out[0].URL, ".jpg"))
	require.True(t, strings.HasSuffix(out[1].URL, ".gif"))
	require.True(t, strings.HasPrefix(out[2].Base64, "data:image/png;base64,"))
}

func TestUploadService_Store_Errors(t *testing.T) {
	s, err := NewUploadService(&fakeObjects{}, nil)
	require.NoError(t, err)

	_, err = s.Store(context.Background(), nil)
	require.True(t, hasCode(err, ErrorInvalidInput))

	_, err = s.Store(context.Background(), []domain.Upload{{Filename: "a.jpg"}})
	require.True(t, hasCode(err, ErrorInvalidInput))

	s, err = NewUploadService(&fakeObjects{fail: func(string, []byte) bool { return true }}, nil)
	require.NoError(t, err)
	_, err = s.Store(context.Background(), []domain.Upload{{Filename: "a.jpg", Data: []byte("x")}})
	require.True(t, hasCode(err, ErrorInternal))
}
