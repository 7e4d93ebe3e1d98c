package acquire

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"
)

// Source produces the input voltage at time t in seconds.
type Source interface {
	Sample(t float64) float64
}

type Waveform uint8

const (
	Sine Waveform = iota
	Square
	Triangle
	Sawtooth
	DC
)

func (w Waveform) String() string {
	switch w {
	case Sine:
		return "sine"
	case Square:
		return "square"
	case Triangle:
		return "triangle"
	case Sawtooth:
		return "sawtooth"
	case DC:
		return "dc"
	default:
		return "?"
	}
}

func ParseWaveform(s string) (Waveform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sine", "sin", "":
		return Sine, nil
	case "square", "rect":
		return Square, nil
	case "triangle", "tri":
		return Triangle, nil
	case "sawtooth", "saw":
		return Sawtooth, nil
	case "dc":
		return DC, nil
	}
	return Sine, fmt.Errorf("unknown waveform %q", s)
}

// Generator is a periodic test signal with optional gaussian noise.
type Generator struct {
	Shape     Waveform
	Frequency float64 // Hz
	Amplitude float64 // volts, peak
	Offset    float64 // volts

	noise *distuv.Normal
}

// NewGenerator returns a generator. Noise is the standard deviation in volts;
// the same seed always yields the same noise sequence.
func NewGenerator(shape Waveform, freq, amplitude, offset, noise float64, seed uint64) *Generator {
	g := &Generator{Shape: shape, Frequency: freq, Amplitude: amplitude, Offset: offset}
	if noise > 0 {
		g.noise = &distuv.Normal{Mu: 0, Sigma: noise, Src: rand.NewPCG(seed, seed^0x9E3779B97F4A7C15)}
	}
	return g
}

func (g *Generator) Sample(t float64) float64 {
	v := g.Offset
	if g.Shape != DC && g.Frequency > 0 {
		phase := t*g.Frequency - math.Floor(t*g.Frequency)
		switch g.Shape {
		case Sine:
			v += g.Amplitude * math.Sin(2*math.Pi*phase)
		case Square:
			if phase < 0.5 {
				v += g.Amplitude
			} else {
				v -= g.Amplitude
			}
		case Triangle:
			v += g.Amplitude * (4*math.Abs(phase-0.5) - 1)
		case Sawtooth:
			v += g.Amplitude * (2*phase - 1)
		}
	}
	if g.noise != nil {
		v += g.noise.Rand()
	}
	return v
}
