package source

import (
	"bytes"
	"context"
	"encoding/base64"
	"strings"

	"golang.org/x/image/webp"
)

// Prober reports whether frames in format can be decoded.
type Prober func(ctx context.Context, format string) bool

// A 2x2 lossless WebP, solid forest green.
const webpProbe = "UklGRhoAAABXRUJQVlA4TA4AAAAvAUAAAOhiRSrS/wAAAA=="

// Probe decodes a tiny reference image for formats that need a decoder
// beyond the standard library. jpg and png are always supported.
func Probe(ctx context.Context, format string) bool {
	if ctx.Err() != nil {
		return false
	}
	switch strings.ToLower(format) {
	case "jpg", "jpeg", "png":
		return true
	case "webp":
		data, err := base64.StdEncoding.DecodeString(webpProbe)
		if err != nil {
			return false
		}
		img, err := webp.Decode(bytes.NewReader(data))
		return err == nil && img.Bounds().Dx() == 2 && img.Bounds().Dy() == 2
	}
	return false
}

// Fallback is the format used when format fails to probe.
func Fallback(format string) string {
	if strings.ToLower(format) == "webp" {
		return "jpg"
	}
	return format
}
