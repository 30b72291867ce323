// Package player проигрывает короткие звуки уведомлений (mp3, wav).
package player

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

type decodeFunc func(io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)

var decoders = map[string]decodeFunc{
	"mp3": mp3.Decode,
	"wav": wav.Decode,
}

// Supported сообщает, умеет ли плеер формат.
func Supported(format string) bool {
	_, ok := decoders[strings.ToLower(format)]
	return ok
}

// Speaker — плеер на системном аудиовыходе. Динамик инициализируется один раз на частоту.
type Speaker struct {
	volumeDB float64

	mu   sync.Mutex
	rate beep.SampleRate
}

// New создаёт плеер с громкостью в dB (0 — без изменений, отрицательные — тише).
func New(volumeDB float64) *Speaker { return &Speaker{volumeDB: volumeDB} }

// Supports сообщает, умеет ли плеер формат.
func (s *Speaker) Supports(format string) bool { return Supported(format) }

// Play блокируется до конца звука или отмены контекста.
func (s *Speaker) Play(ctx context.Context, format string, r io.ReadCloser) error {
	decode, ok := decoders[strings.ToLower(format)]
	if !ok {
		return fmt.Errorf("unsupported sound format %q, use mp3 or wav", format)
	}
	streamer, f, err := decode(r)
	if err != nil {
		return fmt.Errorf("decode %s: %w", format, err)
	}
	defer streamer.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rate != f.SampleRate {
		if err := speaker.Init(f.SampleRate, f.SampleRate.N(time.Second/10)); err != nil {
			return fmt.Errorf("init speaker: %w", err)
		}
		s.rate = f.SampleRate
	}

	vol := &effects.Volume{Streamer: streamer, Base: 2, Volume: s.volumeDB}
	done := make(chan struct{})
	speaker.Play(beep.Seq(vol, beep.Callback(func() { close(done) })))
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return context.Cause(ctx)
	}
}
