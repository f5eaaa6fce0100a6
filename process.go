package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"webpconv/logger"
)

// Processor drives one invocation end to end: discover candidates under the
// configured input, convert each through the codec, tally the outcomes.
type Processor struct {
	Config  *Config
	Codec   Codec
	Console *logger.Console

	// Out receives the summary table. Progress and error lines go through
	// Console to stderr; the table is the run's result, so it goes to stdout.
	Out io.Writer
}

func NewProcessor(cfg *Config, codec Codec, console *logger.Console) *Processor {
	return &Processor{
		Config:  cfg,
		Codec:   codec,
		Console: console,
		Out:     os.Stdout,
	}
}

// Run converts everything under the configured input path and returns the
// tally. Per-file conversion failures are counted, not returned; the error
// covers conditions that abort the run before or during discovery.
func (p *Processor) Run(ctx context.Context) (*RunStats, error) {
	input, err := filepath.Abs(p.Config.InputPath)
	if err != nil {
		return nil, wrapStage(ErrInvalidInput, "resolve input path", err)
	}

	info, err := os.Stat(input)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: input not found: %s", ErrNotFound, p.Config.InputPath)
		}
		return nil, fmt.Errorf("stat %s: %w", p.Config.InputPath, err)
	}

	if p.Config.OutputDir != "" {
		if err := os.MkdirAll(p.Config.OutputDir, 0o755); err != nil {
			return nil, wrapStage(ErrWrite, "create output directory", err)
		}
	}

	files, err := discoverFiles(input, p.Config.Recursive)
	if err != nil {
		return nil, err
	}

	stats := &RunStats{Total: len(files)}

	if info.IsDir() {
		p.Console.Info("Processing directory: %s (codec: %s, quality: %d, jobs: %d)",
			input, p.Codec.Name(), p.Config.Quality, p.Config.Jobs)

		if len(files) == 0 {
			p.Console.Warn("No HEIC files found")
			return stats, nil
		}

		p.Console.Info("Found %d HEIC file(s)", len(files))
		p.convertBatch(ctx, files, stats)
	} else {
		p.convertSingle(ctx, files[0], stats)
	}

	if err := ctx.Err(); err != nil {
		p.Console.Warn("Interrupted")
		return stats, err
	}

	p.Console.Info("Converted: %d/%d files", stats.Succeeded, stats.Total)
	if info.IsDir() {
		fmt.Fprintln(p.Out, summaryTable(stats).Render())
	}

	return stats, nil
}

// convertBatch fans the files out over Jobs workers. With the default of one
// worker this degenerates to a sequential loop in discovery order; with more,
// per-file lines arrive in completion order.
func (p *Processor) convertBatch(ctx context.Context, files []string, stats *RunStats) {
	workers := p.Config.Jobs
	if workers > len(files) {
		workers = len(files)
	}

	bar := &logger.ProgressBar{}
	if !p.Config.Verbose {
		bar = p.Console.NewProgressBar(int64(len(files)), "Converting")
	}

	jobs := make(chan string)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for source := range jobs {
				if ctx.Err() != nil {
					continue
				}
				p.convertOne(ctx, source, stats, bar)
			}
		}()
	}

feed:
	for _, source := range files {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- source:
		}
	}
	close(jobs)

	wg.Wait()
	bar.Complete()
}

func (p *Processor) convertOne(ctx context.Context, source string, stats *RunStats, bar *logger.ProgressBar) {
	task := ConversionTask{Source: source, Dest: outputPath(source, p.Config.OutputDir)}
	name := filepath.Base(task.Source)

	if p.Config.Verbose {
		p.Console.Info("Decoding: %s", task.Source)
	}

	result, err := p.Codec.Convert(ctx, task, p.Config.Quality)
	if err != nil {
		stats.recordFailure()
		if ctx.Err() == nil {
			p.Console.Error("Failed: %s: %v", name, err)
		}
		bar.Increment(1)
		return
	}

	stats.recordSuccess(result.InputBytes, result.OutputBytes)

	// The active bar already shows the running count, so plain success
	// lines only print when it is not drawing.
	if !bar.Active() {
		p.Console.Success("%s -> %s", name, filepath.Base(task.Dest))
	}
	if p.Config.Verbose {
		p.reportDetail(result)
	}

	bar.Increment(1)
}

// convertSingle handles a file given directly on the command line: spinner
// feedback while the codec works, timer and size detail in verbose mode.
func (p *Processor) convertSingle(ctx context.Context, source string, stats *RunStats) {
	task := ConversionTask{Source: source, Dest: outputPath(source, p.Config.OutputDir)}
	name := filepath.Base(task.Source)

	if p.Config.Verbose {
		p.Console.Info("Decoding: %s", task.Source)
		timer := p.Console.StartTimer("Conversion")

		result, err := p.Codec.Convert(ctx, task, p.Config.Quality)
		if err != nil {
			stats.recordFailure()
			if ctx.Err() == nil {
				p.Console.Error("Failed: %s: %v", name, err)
			}
			return
		}

		stats.recordSuccess(result.InputBytes, result.OutputBytes)
		p.Console.Success("%s -> %s", name, filepath.Base(task.Dest))
		p.reportDetail(result)
		timer.End()
		return
	}

	spin := p.Console.StartSpinner("Converting " + name)

	result, err := p.Codec.Convert(ctx, task, p.Config.Quality)
	if err != nil {
		stats.recordFailure()
		if ctx.Err() == nil {
			spin.Stop(false, fmt.Sprintf("Failed: %s: %v", name, err))
		} else {
			spin.Halt()
		}
		return
	}

	stats.recordSuccess(result.InputBytes, result.OutputBytes)
	spin.Stop(true, fmt.Sprintf("%s -> %s", name, filepath.Base(task.Dest)))
}

func (p *Processor) reportDetail(result ConversionResult) {
	p.Console.Log("  Dimensions: %dx%d", result.Width, result.Height)
	p.Console.Log("  Size: %s -> %s (%.1f%% smaller)",
		formatBytes(result.InputBytes), formatBytes(result.OutputBytes),
		sizeReduction(result.InputBytes, result.OutputBytes))
}
