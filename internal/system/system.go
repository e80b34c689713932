package system

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/ivlev/forestscroll/internal/logger"
)

// InitResourceLimits raises the open file limit. A preload opens up to
// Workers frames at once, and a live host may open a sound file on top.
func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		logger.Log.Warnf("[!] Could not read the open file limit: %v", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		logger.Log.Warnf("[!] Could not raise the open file limit: %v", err)
	} else {
		logger.Log.Debugf("[*] Open file limit raised to %d", rLimit.Cur)
	}
}

var audioExtensions = []string{".mp3", ".wav", ".m4a", ".ogg", ".aac", ".flac"}

// FindLatestAudio returns the most recently modified audio file in dir.
// When oggOnly is set only .ogg files count, since the live host can only
// loop Ogg Vorbis.
func FindLatestAudio(dir string, oggOnly bool) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	extensions := audioExtensions
	if oggOnly {
		extensions = []string{".ogg"}
	}
	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !hasExtension(f.Name(), extensions) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no audio files found in %s", dir)
	}

	return latestFile, nil
}

func hasExtension(name string, extensions []string) bool {
	name = strings.ToLower(name)
	for _, ext := range extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

var (
	encoderOnce sync.Once
	encoderName string
)

// BestH264Encoder picks a hardware H.264 encoder when ffmpeg has one,
// falling back to libx264. The ffmpeg query runs once per process.
func BestH264Encoder() string {
	encoderOnce.Do(func() {
		out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
		if err != nil {
			encoderName = "libx264"
			return
		}
		encoderName = pickEncoder(string(out))
	})
	return encoderName
}

// Priority: VideoToolbox on macOS, then NVENC, then software.
func pickEncoder(listing string) string {
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(listing, name) {
			return name
		}
	}
	return "libx264"
}
