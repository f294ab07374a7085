package media

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"

	"github.com/linarqa/linarqa-web/pkg/config"
	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
)

const (
	jpegContentType  = "image/jpeg"
	defaultMaxPixels = 40_000_000
	dataURLPrefix    = "data:"
	base64Marker     = ";base64,"
)

// Photo is an image ready to send upstream: downscaled and JPEG encoded.
type Photo struct {
	Filename    string
	ContentType string
	Data        []byte
}

// DataURL returns the photo as a base64 data URL.
func (p *Photo) DataURL() string {
	return dataURLPrefix + p.ContentType + base64Marker + base64.StdEncoding.EncodeToString(p.Data)
}

// Processor validates and normalises student photos before upload.
type Processor struct {
	maxBytes  int64
	maxWidth  int
	maxHeight int
	maxPixels int
	quality   int
}

func NewProcessor(cfg config.MediaConfig) *Processor {
	p := &Processor{
		maxBytes:  cfg.MaxUploadBytes(),
		maxWidth:  cfg.ImageMaxWidth,
		maxHeight: cfg.ImageMaxHeight,
		maxPixels: cfg.MaxPixels,
		quality:   cfg.ImageQuality,
	}
	if p.maxPixels <= 0 {
		p.maxPixels = defaultMaxPixels
	}
	if p.maxWidth <= 0 {
		p.maxWidth = 800
	}
	if p.maxHeight <= 0 {
		p.maxHeight = 800
	}
	if p.quality <= 0 || p.quality > 100 {
		p.quality = 85
	}
	return p
}

// MaxBytes is the largest accepted upload.
func (p *Processor) MaxBytes() int64 {
	return p.maxBytes
}

// ValidateURL accepts absolute http(s) URLs only.
func (p *Processor) ValidateURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "photo url is required")
	}
	u, err := url.Parse(trimmed)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "photo url must be a valid http or https address")
	}
	return u.String(), nil
}

// Prepare reads an uploaded image, checks its size and sniffed type, then
// fits it inside the configured bounds and re-encodes it as JPEG.
func (p *Processor) Prepare(r io.Reader, filename string) (*Photo, error) {
	if r == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "photo file is required")
	}
	raw, err := io.ReadAll(io.LimitReader(r, p.maxBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read photo")
	}
	return p.prepareBytes(raw, filename)
}

// PrepareDataURL does the same for a camera capture sent as a data URL.
func (p *Processor) PrepareDataURL(dataURL string) (*Photo, error) {
	trimmed := strings.TrimSpace(dataURL)
	idx := strings.Index(trimmed, base64Marker)
	if !strings.HasPrefix(trimmed, dataURLPrefix+"image/") || idx < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "camera capture must be a base64 image data url")
	}
	encoded := trimmed[idx+len(base64Marker):]
	if int64(base64.StdEncoding.DecodedLen(len(encoded))) > p.maxBytes+3 {
		return nil, tooLarge(p.maxBytes)
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "camera capture is not valid base64")
	}
	return p.prepareBytes(raw, "camera.jpg")
}

func (p *Processor) prepareBytes(raw []byte, filename string) (*Photo, error) {
	if len(raw) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "photo file is empty")
	}
	if int64(len(raw)) > p.maxBytes {
		return nil, tooLarge(p.maxBytes)
	}

	detected := mimetype.Detect(raw)
	if !strings.HasPrefix(detected.String(), "image/") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("photo must be an image, got %s", detected.String())).
			WithDetails(map[string]string{"mimeType": detected.String()})
	}

	// A small, highly compressed file can still declare huge dimensions;
	// read the header before paying for the decode.
	header, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "photo could not be decoded")
	}
	if int64(header.Width)*int64(header.Height) > int64(p.maxPixels) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("photo is %dx%d pixels, above the %d pixel limit", header.Width, header.Height, p.maxPixels)).
			WithDetails(map[string]string{"file": "dimensions"})
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "photo could not be decoded")
	}
	bounds := img.Bounds()
	if bounds.Dx() > p.maxWidth || bounds.Dy() > p.maxHeight {
		img = imaging.Fit(img, p.maxWidth, p.maxHeight, imaging.Lanczos)
	}

	var out bytes.Buffer
	if err := imaging.Encode(&out, img, imaging.JPEG, imaging.JPEGQuality(p.quality)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode photo")
	}
	return &Photo{
		Filename:    jpegName(filename),
		ContentType: jpegContentType,
		Data:        out.Bytes(),
	}, nil
}

func tooLarge(limit int64) error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("photo exceeds %d MB", limit>>20))
}

func jpegName(filename string) string {
	base := strings.TrimSuffix(path.Base(strings.ReplaceAll(filename, "\\", "/")), path.Ext(filename))
	if base == "" || base == "." || base == "/" {
		base = "photo"
	}
	return base + ".jpg"
}
