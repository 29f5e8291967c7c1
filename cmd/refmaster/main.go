// Command refmaster matches a target track's level, spectral balance,
// and loudness to a reference track.
//
// Usage:
//
//	refmaster in.wav ref.wav --out out.wav
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"

	"github.com/reftone/refmaster/dsp/dither"
	"github.com/reftone/refmaster/internal/wavio"
	"github.com/reftone/refmaster/mastering"
)

// CLI defines the refmaster command-line interface.
type CLI struct {
	Target    string `arg:"" type:"existingfile" help:"Target audio file to master."`
	Reference string `arg:"" type:"existingfile" help:"Reference audio file to match against."`
	Out       string `required:"" short:"o" help:"Output WAV path."`

	BitDepth   string `default:"pcm16" enum:"pcm16,pcm24,float32" help:"Output sample format."`
	UseLimiter bool   `help:"Run the final output through the limiter."`
	Normalize  bool   `help:"Normalize the final output to the limited maximum point."`
	Preview    bool   `help:"Write a short loud-excerpt preview instead of the full track."`
	PreviewOut string `help:"Additional preview output path (implies -preview semantics for that file only)."`

	SampleRate       float64 `default:"44100" help:"Internal processing sample rate."`
	FFTSize          int     `default:"32768" help:"FFT size for spectral analysis; must be a power of two."`
	PieceSeconds     float64 `default:"15" help:"Analysis piece length in seconds."`
	MaxMinutes       float64 `default:"60" help:"Reject inputs longer than this many minutes."`
	CorrectionSteps  int     `default:"4" help:"RMS correction loop iterations."`
	LoessSpan        float64 `default:"0.075" help:"LOESS smoothing span fraction for the FIR synthesizer."`
	AllowEquality    bool    `help:"Allow target and reference to be identical."`
	CacheDir         string  `help:"Directory for the reference statistics cache."`
	LimiterCeilingDB float64 `default:"-0.0162" help:"Limiter ceiling in dBFS (default matches the original linear threshold)."`
	Verbose          bool    `short:"v" help:"Print every emitted event, not just warnings and errors."`
}

func main() {
	var cli CLI

	kctx := kong.Parse(&cli,
		kong.Name("refmaster"),
		kong.Description("Match a target track's level, tone, and loudness to a reference."),
		kong.UsageOnError(),
	)

	if err := run(&cli); err != nil {
		fmt.Fprintln(os.Stderr, "refmaster:", err)
		kctx.Exit(1)
	}
}

func run(cli *CLI) error {
	bitDepth, err := parseBitDepth(cli.BitDepth)
	if err != nil {
		return err
	}

	cfg := mastering.ApplyOptions(
		mastering.WithInternalSampleRate(cli.SampleRate),
		mastering.WithFFTSize(cli.FFTSize),
		mastering.WithPieceSizeSeconds(cli.PieceSeconds),
		mastering.WithMaxLengthMinutes(cli.MaxMinutes),
		mastering.WithRMSCorrectionSteps(cli.CorrectionSteps),
		mastering.WithLoessSpan(cli.LoessSpan),
		mastering.WithAllowEquality(cli.AllowEquality),
		mastering.WithCacheDir(cli.CacheDir),
		mastering.WithLimiterThresholdDB(cli.LimiterCeilingDB),
	)

	results := []mastering.ResultSpec{{
		Path:       cli.Out,
		BitDepth:   bitDepth,
		UseLimiter: cli.UseLimiter,
		Normalize:  cli.Normalize,
		Preview:    cli.Preview,
	}}

	if cli.PreviewOut != "" {
		results = append(results, mastering.ResultSpec{
			Path:     cli.PreviewOut,
			BitDepth: bitDepth,
			Preview:  true,
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sink := mastering.FuncSink(func(code mastering.Code, level mastering.Level, message string) {
		if level == mastering.LevelInfo && !cli.Verbose {
			return
		}

		fmt.Fprintf(os.Stderr, "[%d] %s: %s\n", code, level, message)
	})

	err = mastering.Process(ctx, cli.Target, cli.Reference, wavio.Loader{}, wavio.Saver{DitherType: dither.DitherTriangular}, results, cfg, sink)
	if err != nil {
		return err
	}

	return nil
}

func parseBitDepth(s string) (mastering.BitDepth, error) {
	switch s {
	case "pcm16":
		return mastering.BitDepthPCM16, nil
	case "pcm24":
		return mastering.BitDepthPCM24, nil
	case "float32":
		return mastering.BitDepthFloat32, nil
	default:
		return 0, fmt.Errorf("unknown bit depth %q", s)
	}
}
