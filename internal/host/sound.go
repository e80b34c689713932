package host

import (
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
)

const sampleRate = 44100

// Soundscape loops an Ogg Vorbis file forever.
type Soundscape struct {
	file   *os.File
	player *audio.Player
}

func NewSoundscape(path string) (*Soundscape, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open soundscape: %w", err)
	}
	stream, err := vorbis.DecodeWithSampleRate(sampleRate, f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode soundscape %s: %w", path, err)
	}

	ctx := audio.CurrentContext()
	if ctx == nil {
		ctx = audio.NewContext(sampleRate)
	}
	p, err := ctx.NewPlayer(audio.NewInfiniteLoop(stream, stream.Length()))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("soundscape player: %w", err)
	}
	return &Soundscape{file: f, player: p}, nil
}

func (s *Soundscape) Play() {
	s.player.Play()
}

func (s *Soundscape) SetVolume(v float64) {
	s.player.SetVolume(max(0, min(v, 1)))
}

func (s *Soundscape) Close() error {
	err := s.player.Close()
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	return err
}
