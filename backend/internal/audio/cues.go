// Package audio озвучивает поглощения: короткие квадратные сигналы через beep.
package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// Частоты нот
const (
	NoteD2 = 73.42
	NoteE3 = 164.81
	NoteE4 = 329.63
)

// Длительности сигналов
const (
	BloopLowDuration  = 180 * time.Millisecond
	BloopHighDuration = 360 * time.Millisecond
	BoopDuration      = 200 * time.Millisecond

	cueAttack  = 5 * time.Millisecond
	cueRelease = 40 * time.Millisecond
)

// squareWave генератор меандра заданной длительности
type squareWave struct {
	freq     float64
	phase    float64
	position int
	duration int
	rate     beep.SampleRate
}

// NewSquare создает меандр частоты freq длительностью d
func NewSquare(freq float64, d time.Duration, rate beep.SampleRate) beep.Streamer {
	return &squareWave{freq: freq, duration: rate.N(d), rate: rate}
}

func (s *squareWave) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if s.position >= s.duration {
			return i, i > 0
		}
		val := -1.0
		if s.phase < 0.5 {
			val = 1.0
		}
		samples[i][0] = val
		samples[i][1] = val

		s.phase += s.freq / float64(s.rate)
		s.phase -= math.Floor(s.phase)
		s.position++
	}
	return len(samples), true
}

func (s *squareWave) Err() error { return nil }

// envelope линейные атака и затухание, без щелчков на границах нот
type envelope struct {
	streamer beep.Streamer
	position int
	attack   int
	release  int
	total    int
}

func newEnvelope(s beep.Streamer, d time.Duration, rate beep.SampleRate) beep.Streamer {
	return &envelope{
		streamer: s,
		attack:   rate.N(cueAttack),
		release:  rate.N(cueRelease),
		total:    rate.N(d),
	}
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		vol := 1.0
		if e.position < e.attack && e.attack > 0 {
			vol = float64(e.position) / float64(e.attack)
		}
		if left := e.total - e.position; left < e.release && e.release > 0 {
			vol = math.Max(0, float64(left)/float64(e.release))
		}
		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

func note(freq float64, d time.Duration, rate beep.SampleRate) beep.Streamer {
	return newEnvelope(NewSquare(freq, d, rate), d, rate)
}

// withVolume громкость в линейной шкале; 0 дает тишину
func withVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}

// Bloop сигнал поглощения: E3, затем E4 вдвое длиннее
func Bloop(rate beep.SampleRate, vol float64) beep.Streamer {
	return withVolume(beep.Seq(
		note(NoteE3, BloopLowDuration, rate),
		note(NoteE4, BloopHighDuration, rate),
	), vol)
}

// Boop сигнал отказа: низкая D2
func Boop(rate beep.SampleRate, vol float64) beep.Streamer {
	return withVolume(note(NoteD2, BoopDuration, rate), vol)
}
