package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

func createTestJPEG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func createTestPNG(w, h int, alpha uint8) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{0, 0, 255, alpha})
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func decodeResult(t *testing.T, result *Result) image.Image {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	return img
}

func TestEncodeJPEG(t *testing.T) {
	data := createTestJPEG(100, 100)
	result, err := Encode(bytes.NewReader(data), MaxWidth, MaxHeight)
	if err != nil {
		t.Fatalf("Encode JPEG: %v", err)
	}
	if result.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", result.MIME)
	}
	if len(result.Data) == 0 {
		t.Error("expected non-empty data")
	}
}

func TestEncodeTransparentPNGKeepsAlpha(t *testing.T) {
	data := createTestPNG(64, 32, 128)
	result, err := Encode(bytes.NewReader(data), MaxWidth, MaxHeight)
	if err != nil {
		t.Fatalf("Encode PNG: %v", err)
	}
	if result.MIME != "image/png" {
		t.Fatalf("expected image/png for transparent input, got %s", result.MIME)
	}

	img := decodeResult(t, result)
	_, _, _, a := img.At(10, 10).RGBA()
	if a == 0xffff {
		t.Error("alpha channel lost during re-encode")
	}
}

func TestEncodeOpaquePNG(t *testing.T) {
	data := createTestPNG(40, 40, 255)
	result, err := Encode(bytes.NewReader(data), MaxWidth, MaxHeight)
	if err != nil {
		t.Fatalf("Encode PNG: %v", err)
	}
	if result.MIME != "image/jpeg" {
		t.Errorf("expected opaque input to be compressed as JPEG, got %s", result.MIME)
	}
}

func TestEncodeWideImage(t *testing.T) {
	data := createTestJPEG(2000, 1000)
	result, err := Encode(bytes.NewReader(data), 1024, 1024)
	if err != nil {
		t.Fatalf("Encode large image: %v", err)
	}

	bounds := decodeResult(t, result).Bounds()
	if bounds.Dx() != 1024 || bounds.Dy() != 512 {
		t.Errorf("expected 1024x512, got %dx%d", bounds.Dx(), bounds.Dy())
	}
	if result.Width != 1024 || result.Height != 512 {
		t.Errorf("result reports %dx%d", result.Width, result.Height)
	}
}

func TestEncodeTallImage(t *testing.T) {
	data := createTestJPEG(300, 1200)
	result, err := Encode(bytes.NewReader(data), 1024, 1024)
	if err != nil {
		t.Fatalf("Encode tall image: %v", err)
	}
	if result.Width != 256 || result.Height != 1024 {
		t.Errorf("expected 256x1024, got %dx%d", result.Width, result.Height)
	}
}

func TestEncodeSmallImageNotUpscaled(t *testing.T) {
	data := createTestJPEG(50, 50)
	result, err := Encode(bytes.NewReader(data), MaxWidth, MaxHeight)
	if err != nil {
		t.Fatalf("Encode small image: %v", err)
	}

	bounds := decodeResult(t, result).Bounds()
	if bounds.Dx() != 50 || bounds.Dy() != 50 {
		t.Errorf("small image should not be resized: got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestEncodeOnlyLargerAxisClamped(t *testing.T) {
	// Width is the larger axis and within bounds, so the over-tall bound is not applied.
	w, h, err := scaledSize(900, 800, 1024, 500)
	if err != nil {
		t.Fatalf("scaledSize: %v", err)
	}
	if w != 900 || h != 800 {
		t.Errorf("expected 900x800 unchanged, got %dx%d", w, h)
	}
}

func TestEncodeInvalidFormat(t *testing.T) {
	_, err := Encode(bytes.NewReader([]byte("not an image")), MaxWidth, MaxHeight)
	if !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
}

func TestEncodeTruncatedImage(t *testing.T) {
	data := createTestPNG(20, 20, 255)
	_, err := Encode(bytes.NewReader(data[:30]), MaxWidth, MaxHeight)
	if !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode for truncated PNG, got %v", err)
	}
}

func TestEncodeInvalidTarget(t *testing.T) {
	data := createTestJPEG(20, 20)
	_, err := Encode(bytes.NewReader(data), 0, 1024)
	if !errors.Is(err, ErrEncode) {
		t.Errorf("expected ErrEncode for zero-width target, got %v", err)
	}
}

func TestDataURI(t *testing.T) {
	r := &Result{Data: []byte("abc"), MIME: "image/png"}
	uri := r.DataURI()
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Errorf("unexpected data URI prefix: %s", uri)
	}
	if !strings.HasSuffix(uri, r.Base64()) {
		t.Errorf("data URI does not end with payload: %s", uri)
	}
}
