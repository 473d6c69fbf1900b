package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// Default bounds for stored images.
const (
	MaxWidth  = 1024
	MaxHeight = 1024
)

// Quality is the compression quality for lossy output, on a 0-1 scale.
const Quality = 0.8

// Codec errors.
var (
	ErrDecode = errors.New("image decode failed")
	ErrEncode = errors.New("image encode failed")
)

// AllowedMIME lists the accepted input MIME types.
var AllowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
}

// Result contains the encoded image.
type Result struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// DataURI renders the result as a self-contained data URI.
func (r *Result) DataURI() string {
	return "data:" + r.MIME + ";base64," + base64.StdEncoding.EncodeToString(r.Data)
}

// Base64 returns the payload base64-encoded without the data URI prefix.
func (r *Result) Base64() string {
	return base64.StdEncoding.EncodeToString(r.Data)
}

// Encode reads image data, validates the format by sniffing bytes, scales it
// to fit maxWidth x maxHeight and re-encodes it. Images with any transparency
// are written as PNG so the alpha channel survives; opaque images are written
// as JPEG at Quality.
func Encode(r io.Reader, maxWidth, maxHeight int) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading image data: %v", ErrDecode, err)
	}

	// Sniff actual MIME type from bytes (not trusting client headers).
	detected := http.DetectContentType(data)
	if !AllowedMIME[detected] {
		return nil, fmt.Errorf("%w: unsupported image format %s", ErrDecode, detected)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	w, h, err := scaledSize(src.Bounds().Dx(), src.Bounds().Dy(), maxWidth, maxHeight)
	if err != nil {
		return nil, err
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	mime := "image/png"
	if dst.Opaque() {
		mime = "image/jpeg"
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: int(Quality * 100)})
	} else {
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		err = enc.Encode(&buf, dst)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	return &Result{
		Data:   buf.Bytes(),
		MIME:   mime,
		Width:  w,
		Height: h,
	}, nil
}

// scaledSize clamps the larger axis of w x h to its bound, keeping the aspect
// ratio. Images already within bounds keep their size.
func scaledSize(w, h, maxWidth, maxHeight int) (int, int, error) {
	if maxWidth <= 0 || maxHeight <= 0 {
		return 0, 0, fmt.Errorf("%w: invalid target size %dx%d", ErrEncode, maxWidth, maxHeight)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("%w: empty source image", ErrDecode)
	}

	newW, newH := w, h
	if w > h {
		if w > maxWidth {
			newH = int(float64(h) * float64(maxWidth) / float64(w))
			newW = maxWidth
		}
	} else if h > maxHeight {
		newW = int(float64(w) * float64(maxHeight) / float64(h))
		newH = maxHeight
	}

	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}
	return newW, newH, nil
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
	image.RegisterFormat("gif", "GIF8?a", gif.Decode, gif.DecodeConfig)
	image.RegisterFormat("webp", "RIFF????WEBPVP8", webp.Decode, webp.DecodeConfig)
	image.RegisterFormat("bmp", "BM????\x00\x00\x00\x00", bmp.Decode, bmp.DecodeConfig)
}
