package main

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"webpconv/logger"
)

// Config carries one invocation's settings, built from flags and validated
// before any filesystem work starts.
type Config struct {
	InputPath string
	OutputDir string
	Quality   int
	Recursive bool
	Verbose   bool
	Jobs      int
	Codec     string
	NoColor   bool
}

var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func (cfg *Config) validate() error {
	if cfg.InputPath == "" {
		return fmt.Errorf("%w: no input path specified", ErrInvalidInput)
	}
	if cfg.Quality < 1 || cfg.Quality > 100 {
		return fmt.Errorf("%w: quality must be in range 1-100, got %d", ErrInvalidInput, cfg.Quality)
	}
	if cfg.Jobs < 1 {
		return fmt.Errorf("%w: jobs must be at least 1, got %d", ErrInvalidInput, cfg.Jobs)
	}
	return nil
}

func newRootCommand() *cobra.Command {
	cfg := &Config{}
	showVersion := false

	cmd := &cobra.Command{
		Use:   "webpconv <input>",
		Short: "Convert HEIC/HEIF images to WebP",
		Long: `webpconv converts HEIC/HEIF images to WebP, either a single file or a
directory tree. Outputs land next to their inputs unless an output
directory is given.`,
		Example: `  webpconv photo.heic
  webpconv photos/ -r -v
  webpconv photos/ -o converted/ -q 90`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			console := newConsole(cfg, cmd.ErrOrStderr())

			if showVersion {
				console.Box("webpconv version information", fmt.Sprintf(
					"Version: %s\nBuild date: %s\nGit commit: %s",
					Version, BuildDate, GitCommit,
				))
				return nil
			}

			if len(args) == 0 || args[0] == "" {
				_ = cmd.Usage()
				return fmt.Errorf("%w: no input path specified", ErrInvalidInput)
			}
			cfg.InputPath = args[0]

			if err := cfg.validate(); err != nil {
				return err
			}

			codec, err := newCodec(cfg.Codec)
			if err != nil {
				return err
			}
			if err := codec.Available(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			proc := NewProcessor(cfg, codec, console)
			proc.Out = cmd.OutOrStdout()

			stats, err := proc.Run(ctx)
			if err != nil {
				return err
			}
			if stats.Failed > 0 {
				return fmt.Errorf("%d of %d conversions failed", stats.Failed, stats.Total)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfg.OutputDir, "output", "o", "", "output directory (default: alongside each input)")
	flags.IntVarP(&cfg.Quality, "quality", "q", 85, "WebP quality 1-100")
	flags.BoolVarP(&cfg.Recursive, "recursive", "r", false, "process directories recursively")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "per-file dimensions and size-reduction stats")
	flags.IntVarP(&cfg.Jobs, "jobs", "j", 1, "parallel conversions")
	flags.StringVar(&cfg.Codec, "codec", codecWASM, "codec backend: wasm or magick")
	flags.BoolVar(&cfg.NoColor, "no-color", false, "disable colored output")
	flags.BoolVar(&showVersion, "version", false, "print version information and exit")

	return cmd
}

func newConsole(cfg *Config, out io.Writer) *logger.Console {
	opts := logger.DefaultOptions()
	opts.Output = out
	if cfg.NoColor {
		color.NoColor = true
		opts.EnableColors = false
	}
	return logger.NewConsole(opts)
}
