package upload

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"highrise/internal/config"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestMockUpload(t *testing.T) {
	m := NewMock(0)
	m.now = func() time.Time { return time.UnixMilli(1700000000000) }
	svc := NewService(m, 5<<20)

	img, err := svc.Upload(context.Background(), "Q3 chart.png", bytes.NewReader(pngBytes(t, 32, 16)))
	require.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.com/demo/image/upload/Q3-chart.png", img.URL)
	assert.Equal(t, "uploads/1700000000000-Q3-chart.png", img.PublicID)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, 32, img.Width)
	assert.Equal(t, 16, img.Height)

	require.NoError(t, svc.Delete(context.Background(), img.PublicID))
	assert.Nil(t, svc.FileServer())
}

func TestMockUploadWebP(t *testing.T) {
	// minimal RIFF/WEBP header; not decodable, so the CDN dimensions stand
	webp := append([]byte("RIFF\x24\x00\x00\x00WEBPVP8 "), make([]byte, 24)...)
	svc := NewService(NewMock(0), 5<<20)
	img, err := svc.Upload(context.Background(), "photo.webp", bytes.NewReader(webp))
	require.NoError(t, err)
	assert.Equal(t, "image/webp", img.ContentType)
	assert.Equal(t, 800, img.Width)
	assert.Equal(t, 600, img.Height)
}

func TestUploadRejects(t *testing.T) {
	svc := NewService(NewMock(0), 1024)
	ctx := context.Background()

	_, err := svc.Upload(ctx, "empty.png", bytes.NewReader(nil))
	require.ErrorIs(t, err, ErrEmptyFile)

	_, err = svc.Upload(ctx, "big.png", bytes.NewReader(make([]byte, 1025)))
	require.ErrorIs(t, err, ErrFileTooLarge)

	_, err = svc.Upload(ctx, "notes.png", strings.NewReader("just some text pretending to be an image"))
	require.ErrorIs(t, err, ErrUnsupportedType)
	assert.Contains(t, err.Error(), "text/plain")

	_, err = svc.Upload(ctx, "doc.pdf", strings.NewReader("%PDF-1.4 fake"))
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestMockLatencyHonoursContext(t *testing.T) {
	svc := NewService(NewMock(time.Hour), 5<<20)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Upload(ctx, "a.png", bytes.NewReader(pngBytes(t, 1, 1)))
	require.ErrorIs(t, err, context.Canceled)
}

func TestDiskUpload(t *testing.T) {
	dir := t.TempDir()
	svc, err := Open(config.Uploads{Driver: config.UploadsDisk, Dir: dir, BaseURL: "/uploads/", MaxBytes: 5 << 20})
	require.NoError(t, err)

	data := pngBytes(t, 4, 4)
	img, err := svc.Upload(context.Background(), "../../etc/passwd.png", bytes.NewReader(data))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(img.URL, "/uploads/"))
	assert.True(t, strings.HasSuffix(img.PublicID, ".png"))
	assert.Equal(t, 4, img.Width)

	stored, err := os.ReadFile(filepath.Join(dir, img.PublicID))
	require.NoError(t, err)
	assert.Equal(t, data, stored)

	fs := svc.FileServer()
	require.NotNil(t, fs)
	w := httptest.NewRecorder()
	fs.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/"+img.PublicID, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	require.NoError(t, svc.Delete(context.Background(), img.PublicID))
	require.ErrorIs(t, svc.Delete(context.Background(), img.PublicID), ErrNotFound)
	require.ErrorIs(t, svc.Delete(context.Background(), "../secret"), ErrNotFound)
}

func TestCleanName(t *testing.T) {
	assert.Equal(t, "my-photo.jpg", cleanName(`C:\Users\me\my photo.jpg`, ".jpg"))
	assert.Equal(t, "image.png", cleanName("???", ".png"))
	assert.Equal(t, "passwd", cleanName("../../etc/passwd", ".png"))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(config.Uploads{Driver: "s3"})
	require.ErrorContains(t, err, `unknown uploads driver "s3"`)
}
