package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linarqa/linarqa-web/internal/apiclient"
	"github.com/linarqa/linarqa-web/pkg/config"
	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
)

func testConfig() config.MediaConfig {
	return config.MediaConfig{MaxUploadMB: 1, ImageMaxWidth: 400, ImageMaxHeight: 400, ImageQuality: 80, MaxPixels: 1_000_000}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 7 {
		img.Set(x, x%h, color.RGBA{R: 200, G: 120, B: 30, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPrepareDownscalesAndReencodes(t *testing.T) {
	proc := NewProcessor(testConfig())
	photo, err := proc.Prepare(bytes.NewReader(pngBytes(t, 1200, 600)), "C:\\photos\\Yasmine.png")
	require.NoError(t, err)

	assert.Equal(t, "Yasmine.jpg", photo.Filename)
	assert.Equal(t, "image/jpeg", photo.ContentType)
	decoded, err := imaging.Decode(bytes.NewReader(photo.Data))
	require.NoError(t, err)
	assert.Equal(t, 400, decoded.Bounds().Dx())
	assert.Equal(t, 200, decoded.Bounds().Dy())
}

func TestPrepareKeepsSmallImages(t *testing.T) {
	proc := NewProcessor(testConfig())
	photo, err := proc.Prepare(bytes.NewReader(pngBytes(t, 120, 90)), "small.png")
	require.NoError(t, err)
	decoded, err := imaging.Decode(bytes.NewReader(photo.Data))
	require.NoError(t, err)
	assert.Equal(t, 120, decoded.Bounds().Dx())
}

func TestPrepareRejections(t *testing.T) {
	proc := NewProcessor(testConfig())

	cases := map[string]io.Reader{
		"not an image": strings.NewReader("%PDF-1.4 fake document"),
		"empty":        bytes.NewReader(nil),
		"too large":    bytes.NewReader(bytes.Repeat([]byte{0xff}, 2<<20)),
		// compresses far below the byte limit but declares 1.1 MP
		"too many pixels": bytes.NewReader(pngBytes(t, 1100, 1000)),
	}
	for name, r := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := proc.Prepare(r, "x.png")
			require.Error(t, err)
			assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
		})
	}
}

func TestPrepareChecksPixelsBeforeDecoding(t *testing.T) {
	proc := NewProcessor(testConfig())
	raw := pngBytes(t, 2000, 1000)
	require.Less(t, len(raw), 1<<20)

	_, err := proc.Prepare(bytes.NewReader(raw), "wide.png")
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	assert.Contains(t, err.Error(), "2000x1000 pixels")
	assert.Equal(t, map[string]string{"file": "dimensions"}, pkgerrors.As(err).Details())

	_, err = proc.PrepareDataURL("data:image/png;base64," + base64.StdEncoding.EncodeToString(raw))
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestNewProcessorDefaultsPixelBudget(t *testing.T) {
	proc := NewProcessor(config.MediaConfig{})
	assert.Equal(t, defaultMaxPixels, proc.maxPixels)
}

func TestValidateURL(t *testing.T) {
	proc := NewProcessor(testConfig())
	good, err := proc.ValidateURL(" https://cdn.linarqa.ma/p/1.jpg ")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.linarqa.ma/p/1.jpg", good)

	for _, bad := range []string{"", "cdn.linarqa.ma/p.jpg", "javascript:alert(1)", "ftp://host/p.jpg", "https://"} {
		_, err := proc.ValidateURL(bad)
		assert.Error(t, err, bad)
	}
}

func TestPrepareDataURL(t *testing.T) {
	proc := NewProcessor(testConfig())
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t, 64, 64))
	photo, err := proc.PrepareDataURL(dataURL)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(photo.DataURL(), "data:image/jpeg;base64,"))

	_, err = proc.PrepareDataURL("data:text/plain;base64,aGVsbG8=")
	assert.Error(t, err)
	_, err = proc.PrepareDataURL("data:image/png;base64,@@@")
	assert.Error(t, err)
}

type fakeAPI struct {
	calls []string
	body  any
	file  apiclient.File
	resp  map[string]any
}

func (f *fakeAPI) Post(_ context.Context, path string, body, out any) error {
	f.calls = append(f.calls, "POST "+path)
	f.body = body
	f.fill(out)
	return nil
}

func (f *fakeAPI) Patch(_ context.Context, path string, body, _ any) error {
	f.calls = append(f.calls, "PATCH "+path)
	f.body = body
	return nil
}

func (f *fakeAPI) PostMultipart(_ context.Context, path string, file apiclient.File, out any) error {
	f.calls = append(f.calls, "MULTIPART "+path)
	f.file = file
	f.fill(out)
	return nil
}

func (f *fakeAPI) fill(out any) {
	if m, ok := out.(*map[string]any); ok && f.resp != nil {
		*m = f.resp
	}
}

func TestServiceRoutesPhotos(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{resp: map[string]any{"photoUrl": "https://cdn/x.jpg"}}
	svc, err := NewService(api, NewProcessor(testConfig()))
	require.NoError(t, err)

	require.NoError(t, svc.SetPhotoURL(ctx, OwnerStudent, "12", "https://cdn/a.jpg"))
	assert.Equal(t, photoURLBody{PhotoURL: "https://cdn/a.jpg"}, api.body)

	require.NoError(t, svc.UploadFile(ctx, OwnerExtraStudent, "9", bytes.NewReader(pngBytes(t, 50, 50)), "a.png"))
	assert.Equal(t, "file", api.file.Field)
	assert.Equal(t, "image/jpeg", api.file.ContentType)

	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t, 30, 30))
	require.NoError(t, svc.UploadCamera(ctx, OwnerStudent, "12", dataURL))

	got, err := svc.UploadForEnrollment(ctx, bytes.NewReader(pngBytes(t, 20, 20)), "e.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/x.jpg", got)

	assert.Equal(t, []string{
		"PATCH /students/12/photo",
		"MULTIPART /extra-students/9/upload-photo",
		"POST /students/12/upload-camera-photo",
		"MULTIPART /enrollments/upload-photo",
	}, api.calls)
}

func TestServiceRejectsBeforeNetwork(t *testing.T) {
	api := &fakeAPI{}
	svc, err := NewService(api, NewProcessor(testConfig()))
	require.NoError(t, err)

	assert.Error(t, svc.SetPhotoURL(context.Background(), OwnerStudent, "1", "not a url"))
	assert.Error(t, svc.UploadFile(context.Background(), OwnerStudent, "1", strings.NewReader("plain text"), "a.txt"))
	assert.Empty(t, api.calls)
}
