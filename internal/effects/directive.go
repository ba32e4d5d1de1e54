package effects

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownEffect is returned by Parse for an unrecognised effect name.
var ErrUnknownEffect = errors.New("unknown effect")

// defaults lists the parameters of each insert effect in directive order.
var defaults = map[string][]float64{
	"delay":   {250, 0.4, 0.2, 0.3},   // ms, feedback, cross, wet
	"reverb":  {0.5, 0.7, 0.25},       // room size, feedback, wet
	"chorus":  {15, 0.3, 3, 1.5, 0.4}, // ms, feedback, depth ms, rate Hz, wet
	"dist":    {4, 0.5, 8000},         // drive, level, low-pass Hz
	"eq":      {1, 1, 1, 300, 3000},   // low, mid, high, crossovers Hz
	"limiter": {1, 50},                // ceiling, release ms
}

var aliases = map[string]string{
	"echo":       "delay",
	"distortion": "dist",
	"overdrive":  "dist",
	"tone":       "eq",
	"limit":      "limiter",
}

// Parse builds an insert effect from a directive of the form
// "name p1,p2,...", for example "reverb 0.6,0.8,0.3". Omitted trailing
// parameters take their defaults.
func Parse(directive string, sampleRate int) (Effector, error) {
	name, args, _ := strings.Cut(strings.TrimSpace(directive), " ")
	name = strings.ToLower(name)
	if a, ok := aliases[name]; ok {
		name = a
	}
	def, ok := defaults[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownEffect, name)
	}
	p := append([]float64(nil), def...)
	if args = strings.TrimSpace(args); args != "" {
		fields := strings.Split(args, ",")
		if len(fields) > len(p) {
			return nil, fmt.Errorf("%s takes at most %d parameters, got %d", name, len(p), len(fields))
		}
		for i, f := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, fmt.Errorf("%s parameter %d: %w", name, i+1, err)
			}
			p[i] = v
		}
	}
	f := func(i int) float32 { return float32(p[i]) }
	switch name {
	case "delay":
		return NewEcho(sampleRate, p[0], f(1), f(2), f(3)), nil
	case "reverb":
		return NewReverb(sampleRate, f(0), f(1), f(2)), nil
	case "chorus":
		return NewChorus(sampleRate, f(0), f(1), f(2), f(3), f(4)), nil
	case "dist":
		return NewOverdrive(sampleRate, f(0), f(1), f(2)), nil
	case "eq":
		return NewTone(sampleRate, f(0), f(1), f(2), f(3), f(4)), nil
	default:
		return NewLimiter(sampleRate, f(0), p[1]), nil
	}
}

// ParseChain builds a chain from directives, in order.
func ParseChain(directives []string, sampleRate int) (*Chain, error) {
	c := NewChain()
	for _, d := range directives {
		e, err := Parse(d, sampleRate)
		if err != nil {
			return nil, err
		}
		c.Add(e)
	}
	return c, nil
}
