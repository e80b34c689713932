package system

import (
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPickEncoder(t *testing.T) {
	tests := []struct {
		listing  string
		expected string
	}{
		{" V....D h264_videotoolbox  VideoToolbox H.264 Encoder\n V....D h264_nvenc", "h264_videotoolbox"},
		{" V....D libx264\n V....D h264_nvenc  NVIDIA NVENC H.264 encoder", "h264_nvenc"},
		{" V....D libx264  libx264 H.264", "libx264"},
		{"", "libx264"},
	}
	for _, tt := range tests {
		if got := pickEncoder(tt.listing); got != tt.expected {
			t.Errorf("pickEncoder: expected %s, got %s", tt.expected, got)
		}
	}
}

func TestFindLatestAudio(t *testing.T) {
	dir := t.TempDir()
	names := []string{"rain.mp3", "birds.OGG", "readme.txt"}
	for i, name := range names {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		at := time.Now().Add(time.Duration(i-len(names)) * time.Hour)
		if err := os.Chtimes(p, at, at); err != nil {
			t.Fatal(err)
		}
	}

	got, err := FindLatestAudio(dir, false)
	if err != nil {
		t.Fatalf("FindLatestAudio failed: %v", err)
	}
	if filepath.Base(got) != "birds.OGG" {
		t.Errorf("Expected birds.OGG, got %s", got)
	}

	if err := os.Remove(filepath.Join(dir, "birds.OGG")); err != nil {
		t.Fatal(err)
	}
	if _, err := FindLatestAudio(dir, true); err == nil {
		t.Error("Expected no ogg files to be an error")
	}
	got, err = FindLatestAudio(dir, false)
	if err != nil || filepath.Base(got) != "rain.mp3" {
		t.Errorf("Expected rain.mp3, got %s (%v)", got, err)
	}
}

func TestFramePool(t *testing.T) {
	rect := image.Rect(0, 0, 4, 3)
	p := NewFramePool(rect, 1)

	a := p.Get()
	if a.Rect != rect {
		t.Fatalf("Expected %v, got %v", rect, a.Rect)
	}
	b := p.Get()
	p.Put(a)
	// Over the idle limit, of a foreign size, or nil: dropped.
	p.Put(b)
	p.Put(image.NewRGBA(image.Rect(0, 0, 9, 9)))
	p.Put(nil)

	if got := p.Get(); got != a {
		t.Error("Expected the idle buffer to be reused")
	}
	if got := p.Get(); got == a || got == b || got.Rect != rect {
		t.Error("Expected a fresh buffer once the pool is empty")
	}
	if p.Allocated() != 3 || p.Reused() != 1 {
		t.Errorf("Expected 3 allocated and 1 reused, got %d and %d", p.Allocated(), p.Reused())
	}
}
