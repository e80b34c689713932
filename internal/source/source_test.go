package source

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"reflect"
	"sync"
	"testing"
	"testing/fstest"

	"golang.org/x/image/webp"
)

func TestFrameName(t *testing.T) {
	tests := []struct {
		index    int
		format   string
		expected string
	}{
		{0, "webp", "frame-001.webp"},
		{8, "jpg", "frame-009.jpg"},
		{119, "webp", "frame-120.webp"},
		{999, "png", "frame-1000.png"},
	}

	for _, tt := range tests {
		if got := FrameName("frame-", tt.index, tt.format); got != tt.expected {
			t.Errorf("FrameName(%d): expected %q, got %q", tt.index, tt.expected, got)
		}
	}
}

func TestFramePath(t *testing.T) {
	if got := FramePath("assets/images/forest-sequence/", "frame-", 0, "webp"); got != "assets/images/forest-sequence/frame-001.webp" {
		t.Errorf("Unexpected path %q", got)
	}
	if got := FramePath("frames", "f", 1, "jpg"); got != "frames/f002.jpg" {
		t.Errorf("Expected a separator to be added, got %q", got)
	}
	if got := FramePath("", "frame-", 119, "jpg"); got != "frame-120.jpg" {
		t.Errorf("Unexpected path %q", got)
	}
}

func TestFilesLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"seq/frame-001.png": {Data: encodePNG(t, 4, 3)},
		"seq/frame-002.png": {Data: []byte("not an image")},
	}
	src := NewFiles(fsys, "seq", "frame-", "png")
	ctx := context.Background()

	img, err := src.Load(ctx, 0)
	if err != nil {
		t.Fatalf("Load(0) failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
		t.Errorf("Expected 4x3 image, got %v", b)
	}

	if _, err := src.Load(ctx, 1); err == nil {
		t.Error("Expected a decode error for a corrupt frame")
	}
	if _, err := src.Load(ctx, 2); err == nil {
		t.Error("Expected an error for a missing frame")
	}
	if _, err := src.Load(ctx, -1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Expected ErrOutOfRange, got %v", err)
	}
}

func TestFilesSetFormat(t *testing.T) {
	fsys := fstest.MapFS{
		"frame-001.jpg": {Data: []byte{}},
	}
	src := NewFiles(fsys, "", "frame-", "webp")
	if src.Exists(0) {
		t.Error("frame-001.webp should not exist")
	}
	src.SetFormat("jpg")
	if !src.Exists(0) {
		t.Error("Expected frame-001.jpg after switching format")
	}
	if src.Name(0) != "frame-001.jpg" {
		t.Errorf("Unexpected name %q", src.Name(0))
	}
}

func TestFilesLoadCancelled(t *testing.T) {
	fsys := fstest.MapFS{"frame-001.png": {Data: encodePNG(t, 1, 1)}}
	src := NewFiles(fsys, ".", "frame-", "png")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Load(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestProbe(t *testing.T) {
	ctx := context.Background()
	for _, format := range []string{"jpg", "jpeg", "png", "PNG"} {
		if !Probe(ctx, format) {
			t.Errorf("Expected %s to be supported", format)
		}
	}
	if Probe(ctx, "avif") {
		t.Error("avif has no decoder")
	}
	if !Probe(ctx, "webp") {
		t.Error("Expected the webp reference image to decode")
	}
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if Probe(cancelled, "webp") {
		t.Error("Expected a cancelled probe to fail")
	}
}

func TestWebpReference(t *testing.T) {
	data, err := base64.StdEncoding.DecodeString(webpProbe)
	if err != nil {
		t.Fatal(err)
	}
	img, err := webp.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 2, 2) {
		t.Fatalf("Expected a 2x2 image, got %v", img.Bounds())
	}
	want := color.NRGBA{R: 34, G: 139, B: 34, A: 255}
	if got := color.NRGBAModel.Convert(img.At(1, 1)); got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestFallback(t *testing.T) {
	if got := Fallback("webp"); got != "jpg" {
		t.Errorf("Expected jpg, got %q", got)
	}
	if got := Fallback("png"); got != "png" {
		t.Errorf("Expected png to stay, got %q", got)
	}
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestVerify(t *testing.T) {
	fsys := fstest.MapFS{
		"frame-001.png": {Data: encodePNG(t, 2, 2)},
		"frame-002.png": {Data: []byte("garbage")},
		"frame-004.png": {Data: encodePNG(t, 2, 2)},
	}
	var mu sync.Mutex
	calls := 0
	r, err := Verify(context.Background(), NewFiles(fsys, ".", "frame-", "png"), 5, 2, func() {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if calls != 5 {
		t.Errorf("Expected 5 progress calls, got %d", calls)
	}
	if !reflect.DeepEqual(r.Missing, []int{2, 4}) || !reflect.DeepEqual(r.Broken, []int{1}) {
		t.Errorf("Unexpected report %+v", r)
	}
	if r.OK() {
		t.Error("Expected the report to fail")
	}
}

func TestVerifyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fsys := fstest.MapFS{"frame-001.png": {Data: encodePNG(t, 2, 2)}}
	if _, err := Verify(ctx, NewFiles(fsys, ".", "frame-", "png"), 3, 1, nil); err == nil {
		t.Error("Expected a cancelled verify to fail")
	}
}
