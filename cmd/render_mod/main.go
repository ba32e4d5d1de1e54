package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/cbegin/modsynth-go"
)

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 44100, "output sample rate")
		bits       = flag.Int("bits", 16, "bits per sample: 8|16|24")
		interp     = flag.String("interp", "sinc", "interpolation: none|linear|cubic|sinc|fir")
		separation = flag.Int("separation", 100, "stereo separation in percent (0..200)")
		seconds    = flag.Float64("seconds", 0, "render length in seconds (0 = whole song)")
		outDir     = flag.String("out", "", "output directory (default: next to each score)")
		jobs       = flag.Int("jobs", runtime.NumCPU(), "concurrent renders")
		fx         = flag.String("fx", "", `insert effects separated by ";", e.g. "reverb 0.6,0.8,0.3;echo 250"`)
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] score.yaml...\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	mode, err := modsynth.ParseInterpolation(*interp)
	if err != nil {
		log.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	opts := []modsynth.PlayerOption{
		modsynth.WithBitsPerSample(*bits),
		modsynth.WithInterpolation(mode),
		modsynth.WithStereoSeparation(*separation),
		modsynth.WithEffects(splitEffects(*fx)...),
	}

	var g errgroup.Group
	g.SetLimit(max(*jobs, 1))
	for _, path := range flag.Args() {
		g.Go(func() error {
			out := outputPath(path, *outDir)
			if err := render(path, out, *sampleRate, *seconds, opts); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			logger.Info("rendered", "score", path, "wav", out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
}

func outputPath(path, dir string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".wav"
	if dir == "" {
		dir = filepath.Dir(path)
	}
	return filepath.Join(dir, name)
}

func render(path, out string, sampleRate int, seconds float64, opts []modsynth.PlayerOption) error {
	song, err := modsynth.LoadScore(path)
	if err != nil {
		return err
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := modsynth.RenderWAV(f, song, sampleRate, seconds, opts...); err != nil {
		f.Close()
		os.Remove(out)
		return err
	}
	return f.Close()
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
