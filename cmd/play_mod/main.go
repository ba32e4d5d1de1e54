package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/cbegin/modsynth-go"
)

const seekStep = 5000 // ms

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 44100, "output sample rate")
		output     = flag.String("output", "ebiten", "audio output: ebiten|oto|none")
		interp     = flag.String("interp", "linear", "interpolation: none|linear|cubic|sinc|fir")
		loop       = flag.Bool("loop", false, "loop playback; use with -loops to count then stop")
		loops      = flag.Int("loops", 3, "when -loop, stop after N loops (0 = loop forever)")
		scorePath  = flag.String("file", "", "path to a YAML or JSON score")
		volume     = flag.Float64("volume", 1.0, "master volume scalar")
		separation = flag.Int("separation", 100, "stereo separation in percent (0..200)")
		start      = flag.Int64("start", 0, "start position in ms")
		stop       = flag.Int64("stop", 0, "stop position in ms (0 = end of song)")
		keys       = flag.Bool("keys", true, "keyboard control when stdin is a terminal")
		verbose    = flag.Bool("v", false, "log playback transitions")
		fx         = flag.String("fx", "", `insert effects separated by ";", e.g. "reverb 0.6,0.8,0.3;echo 250"`)
	)
	flag.Parse()

	if strings.TrimSpace(*scorePath) == "" {
		log.Fatal("missing -file")
	}
	song, err := modsynth.LoadScore(*scorePath)
	if err != nil {
		log.Fatal(err)
	}
	mode, err := modsynth.ParseInterpolation(*interp)
	if err != nil {
		log.Fatal(err)
	}
	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	pl, err := modsynth.NewPlayer(*sampleRate,
		modsynth.WithOutput(modsynth.Output(*output)),
		modsynth.WithInterpolation(mode),
		modsynth.WithLoopPlayback(*loop),
		modsynth.WithStereoSeparation(*separation),
		modsynth.WithLogger(logger),
		modsynth.WithEffects(splitEffects(*fx)...),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer pl.Close()
	pl.SetMasterVolume(*volume)
	pl.SetStopPosition(*stop)
	ch := pl.Watch()
	if err := pl.Play(song); err != nil {
		log.Fatal(err)
	}
	if *start > 0 {
		pl.Seek(*start)
	}

	con := newConsole(*keys)
	defer con.restore()
	con.printf("playing %q (%s, %d channels, %d ms)", song.Name, song.Dialect, song.Channels(), pl.Duration())
	if con.raw {
		con.printf("keys: space pause, left/right seek, +/- volume, q quit")
	}
	quit := con.readKeys(pl)

	loopCount := 0
	for {
		select {
		case event := <-ch:
			switch event.Kind {
			case modsynth.EventPlaybackEnded:
				if err := pl.Err(); err != nil {
					con.restore()
					log.Fatal(err)
				}
				con.printf("playback completed")
				pl.Wait()
				return
			case modsynth.EventLoopCompleted:
				loopCount++
				con.printf("loop %d completed", loopCount)
				if *loop && *loops > 0 && loopCount >= *loops {
					pl.Stop()
				}
			}
		case <-quit:
			quit = nil
			if err := pl.Stop(); err != nil {
				log.Print(err)
			}
		}
	}
}

// console prints status lines and, in raw mode, reads single keys.
type console struct {
	fd    int
	raw   bool
	state *term.State
}

func newConsole(keys bool) *console {
	c := &console{fd: int(os.Stdin.Fd())}
	if !keys || !term.IsTerminal(c.fd) {
		return c
	}
	state, err := term.MakeRaw(c.fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "keyboard control disabled: %v\n", err)
		return c
	}
	c.state = state
	c.raw = true
	return c
}

func (c *console) restore() {
	if c.state != nil {
		_ = term.Restore(c.fd, c.state)
		c.state = nil
	}
}

// printf writes one line; raw mode needs an explicit carriage return.
func (c *console) printf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if c.state != nil {
		fmt.Print(line + "\r\n")
		return
	}
	fmt.Println(line)
}

// readKeys handles keyboard control until q or Ctrl-C, which close the
// returned channel.
func (c *console) readKeys(pl *modsynth.Player) <-chan struct{} {
	quit := make(chan struct{})
	if !c.raw {
		return quit
	}
	go func() {
		buf := make([]byte, 3)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				return
			}
			switch key := string(buf[:n]); key {
			case "q", "\x03":
				close(quit)
				return
			case " ":
				if pl.IsPaused() {
					pl.Resume()
					c.printf("resumed at %d ms", pl.Position())
				} else {
					pl.Pause()
					c.printf("paused at %d ms", pl.Position())
				}
			case "\x1b[C", "\x1b[D":
				pos := pl.Position() + seekStep
				if key == "\x1b[D" {
					pos = max(pl.Position()-seekStep, 0)
				}
				pl.Seek(pos)
				c.printf("seek to %d ms", pos)
			case "+", "=", "-":
				v := pl.MasterVolume() + 0.1
				if key == "-" {
					v = max(pl.MasterVolume()-0.1, 0)
				}
				pl.SetMasterVolume(v)
				c.printf("volume %.1f", v)
			}
		}
	}()
	return quit
}

// splitEffects splits a -fx value into effect directives.
func splitEffects(s string) []string {
	var out []string
	for _, d := range strings.Split(s, ";") {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out
}
