package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"webpconv/logger"
)

// fakeCodec writes a fixed payload for every task, or fails tasks listed in
// fail, so orchestration can be tested without real image fixtures.
type fakeCodec struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (f *fakeCodec) Name() string     { return "fake" }
func (f *fakeCodec) Available() error { return nil }

func (f *fakeCodec) Convert(ctx context.Context, task ConversionTask, _ int) (ConversionResult, error) {
	if err := ctx.Err(); err != nil {
		return ConversionResult{Task: task}, err
	}

	f.mu.Lock()
	f.calls = append(f.calls, filepath.Base(task.Source))
	f.mu.Unlock()

	if err, ok := f.fail[filepath.Base(task.Source)]; ok {
		return ConversionResult{Task: task}, err
	}

	payload := []byte("RIFFxxxxWEBP")
	if err := os.WriteFile(task.Dest, payload, 0o644); err != nil {
		return ConversionResult{Task: task}, wrapStage(ErrWrite, "write output", err)
	}
	info, err := os.Stat(task.Source)
	if err != nil {
		return ConversionResult{Task: task}, wrapStage(ErrDecode, "open source", err)
	}
	return ConversionResult{
		Task:        task,
		Width:       8,
		Height:      6,
		InputBytes:  info.Size(),
		OutputBytes: int64(len(payload)),
	}, nil
}

func (f *fakeCodec) attempted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func newTestProcessor(cfg *Config, codec Codec) (*Processor, *bytes.Buffer, *bytes.Buffer) {
	errBuf := &bytes.Buffer{}
	outBuf := &bytes.Buffer{}

	opts := logger.DefaultOptions()
	opts.Output = errBuf
	opts.EnableColors = false

	proc := NewProcessor(cfg, codec, logger.NewConsole(opts))
	proc.Out = outBuf
	return proc, errBuf, outBuf
}

func TestProcessorPartialFailure(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.heic", "b.heic", "c.heic"} {
		touch(t, filepath.Join(dir, name))
	}

	codec := &fakeCodec{fail: map[string]error{
		"b.heic": wrapStage(ErrDecode, "decode image", errors.New("truncated container")),
	}}
	cfg := &Config{InputPath: dir, Quality: 85, Jobs: 1}
	proc, errBuf, outBuf := newTestProcessor(cfg, codec)

	stats, err := proc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Succeeded != 2 || stats.Failed != 1 || stats.Total != 3 {
		t.Fatalf("stats = %d succeeded, %d failed, %d total, want 2/1/3",
			stats.Succeeded, stats.Failed, stats.Total)
	}
	if got := codec.attempted(); len(got) != 3 || got[2] != "c.heic" {
		t.Fatalf("expected all three files attempted in order, got %v", got)
	}

	console := errBuf.String()
	if !strings.Contains(console, "a.heic -> a.webp") {
		t.Fatalf("missing success line for a.heic:\n%s", console)
	}
	if !strings.Contains(console, "Failed: b.heic") || !strings.Contains(console, "truncated container") {
		t.Fatalf("missing failure line for b.heic:\n%s", console)
	}
	if !strings.Contains(console, "Converted: 2/3 files") {
		t.Fatalf("missing final tally:\n%s", console)
	}
	if !strings.Contains(outBuf.String(), "2/3") {
		t.Fatalf("summary table missing tally:\n%s", outBuf.String())
	}

	if _, err := os.Stat(filepath.Join(dir, "b.webp")); !os.IsNotExist(err) {
		t.Fatal("failed conversion should not produce an output file")
	}
	for _, name := range []string{"a.webp", "c.webp"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected output %s: %v", name, err)
		}
	}
}

func TestProcessorZeroFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "notes.txt"))

	cfg := &Config{InputPath: dir, Quality: 85, Jobs: 1}
	proc, errBuf, outBuf := newTestProcessor(cfg, &fakeCodec{})

	stats, err := proc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Total != 0 || stats.Succeeded != 0 || stats.Failed != 0 {
		t.Fatalf("stats = %d/%d/%d total/succeeded/failed, want zeros",
			stats.Total, stats.Succeeded, stats.Failed)
	}
	if !strings.Contains(errBuf.String(), "No HEIC files found") {
		t.Fatalf("missing zero-files notice:\n%s", errBuf.String())
	}
	if outBuf.Len() != 0 {
		t.Fatalf("no summary table expected for an empty run, got:\n%s", outBuf.String())
	}
}

func TestProcessorSingleFile(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "photo.heic")
	touch(t, source)

	cfg := &Config{InputPath: source, Quality: 85, Jobs: 1}
	proc, errBuf, outBuf := newTestProcessor(cfg, &fakeCodec{})

	stats, err := proc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Succeeded != 1 || stats.Total != 1 {
		t.Fatalf("stats = %d/%d succeeded/total, want 1/1", stats.Succeeded, stats.Total)
	}
	if _, err := os.Stat(filepath.Join(dir, "photo.webp")); err != nil {
		t.Fatalf("expected output alongside source: %v", err)
	}
	if !strings.Contains(errBuf.String(), "photo.heic -> photo.webp") {
		t.Fatalf("missing conversion line:\n%s", errBuf.String())
	}
	if outBuf.Len() != 0 {
		t.Fatalf("single-file runs print no summary table, got:\n%s", outBuf.String())
	}
}

func TestProcessorSingleFileVerbose(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "photo.heic")
	touch(t, source)

	cfg := &Config{InputPath: source, Quality: 85, Jobs: 1, Verbose: true}
	proc, errBuf, _ := newTestProcessor(cfg, &fakeCodec{})

	if _, err := proc.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	console := errBuf.String()
	for _, want := range []string{"Decoding:", "Dimensions: 8x6", "smaller", "completed in"} {
		if !strings.Contains(console, want) {
			t.Fatalf("verbose output missing %q:\n%s", want, console)
		}
	}
}

func TestProcessorSingleFileFailure(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "photo.heic")
	touch(t, source)

	codec := &fakeCodec{fail: map[string]error{
		"photo.heic": wrapStage(ErrEncode, "encode webp", errors.New("picture too large")),
	}}
	cfg := &Config{InputPath: source, Quality: 85, Jobs: 1}
	proc, errBuf, _ := newTestProcessor(cfg, codec)

	stats, err := proc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Failed != 1 || stats.Succeeded != 0 {
		t.Fatalf("stats = %d/%d failed/succeeded, want 1/0", stats.Failed, stats.Succeeded)
	}
	if !strings.Contains(errBuf.String(), "Failed: photo.heic") {
		t.Fatalf("missing failure line:\n%s", errBuf.String())
	}
}

func TestProcessorMissingInput(t *testing.T) {
	cfg := &Config{InputPath: filepath.Join(t.TempDir(), "nope"), Quality: 85, Jobs: 1}
	proc, _, _ := newTestProcessor(cfg, &fakeCodec{})

	if _, err := proc.Run(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Run with missing input error = %v, want ErrNotFound", err)
	}
}

func TestProcessorInputStatError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	touch(t, blocker)

	// Routing the path through a regular file makes stat fail with ENOTDIR,
	// which is not a not-exist error and must not be reported as one.
	cfg := &Config{InputPath: filepath.Join(blocker, "photo.heic"), Quality: 85, Jobs: 1}
	proc, _, _ := newTestProcessor(cfg, &fakeCodec{})

	_, err := proc.Run(context.Background())
	if err == nil {
		t.Fatal("Run with unstatable input should fail")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("stat failure misreported as ErrNotFound: %v", err)
	}
	if !strings.Contains(err.Error(), "stat") {
		t.Fatalf("error should name the stat failure, got %v", err)
	}
}

func TestProcessorCreatesOutputDir(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.heic"))
	touch(t, filepath.Join(dir, "sub", "d.heic"))
	outDir := filepath.Join(dir, "converted", "webp")

	cfg := &Config{InputPath: dir, OutputDir: outDir, Quality: 85, Recursive: true, Jobs: 1}
	proc, _, _ := newTestProcessor(cfg, &fakeCodec{})

	stats, err := proc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Succeeded != 2 {
		t.Fatalf("succeeded = %d, want 2", stats.Succeeded)
	}
	for _, name := range []string{"a.webp", "d.webp"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatalf("expected %s in output directory: %v", name, err)
		}
	}
}

func TestProcessorIdempotent(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "photo.heic")
	touch(t, source)

	cfg := &Config{InputPath: source, Quality: 85, Jobs: 1}

	for run := 0; run < 2; run++ {
		proc, _, _ := newTestProcessor(cfg, &fakeCodec{})
		stats, err := proc.Run(context.Background())
		if err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
		if stats.Succeeded != 1 || stats.Failed != 0 {
			t.Fatalf("run %d stats = %d/%d succeeded/failed, want 1/0", run, stats.Succeeded, stats.Failed)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "photo.webp"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "RIFFxxxxWEBP" {
		t.Fatalf("second run corrupted the output: %q", data)
	}
}

func TestProcessorParallelJobs(t *testing.T) {
	dir := t.TempDir()
	names := []string{"a.heic", "b.heic", "c.heic", "d.heic", "e.heic", "f.heic"}
	for _, name := range names {
		touch(t, filepath.Join(dir, name))
	}

	codec := &fakeCodec{fail: map[string]error{
		"d.heic": wrapStage(ErrDecode, "decode image", errors.New("bad data")),
	}}
	cfg := &Config{InputPath: dir, Quality: 85, Jobs: 3}
	proc, errBuf, _ := newTestProcessor(cfg, codec)

	stats, err := proc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Succeeded != 5 || stats.Failed != 1 || stats.Processed != 6 {
		t.Fatalf("stats = %d/%d/%d succeeded/failed/processed, want 5/1/6",
			stats.Succeeded, stats.Failed, stats.Processed)
	}
	if got := codec.attempted(); len(got) != len(names) {
		t.Fatalf("attempted %d files, want %d", len(got), len(names))
	}
	if !strings.Contains(errBuf.String(), "Converted: 5/6 files") {
		t.Fatalf("missing final tally:\n%s", errBuf.String())
	}
}

func TestProcessorCancelledContext(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.heic", "b.heic"} {
		touch(t, filepath.Join(dir, name))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	codec := &fakeCodec{}
	cfg := &Config{InputPath: dir, Quality: 85, Jobs: 1}
	proc, errBuf, _ := newTestProcessor(cfg, codec)

	stats, err := proc.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run on cancelled context error = %v, want context.Canceled", err)
	}
	if stats.Succeeded != 0 {
		t.Fatalf("no conversions expected after cancellation, got %d", stats.Succeeded)
	}
	if got := codec.attempted(); len(got) != 0 {
		t.Fatalf("codec should not run after cancellation, attempted %v", got)
	}
	if !strings.Contains(errBuf.String(), "Interrupted") {
		t.Fatalf("missing interruption notice:\n%s", errBuf.String())
	}
}

func TestProcessorSingleFileCancelled(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "photo.heic")
	touch(t, source)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := &Config{InputPath: source, Quality: 85, Jobs: 1}
	proc, errBuf, _ := newTestProcessor(cfg, &fakeCodec{})

	stats, err := proc.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run on cancelled context error = %v, want context.Canceled", err)
	}
	if stats.Succeeded != 0 {
		t.Fatalf("no conversions expected after cancellation, got %d", stats.Succeeded)
	}

	console := errBuf.String()
	if strings.Contains(console, "Failed:") {
		t.Fatalf("cancellation should not print a failure line:\n%s", console)
	}
	if !strings.Contains(console, "Interrupted") {
		t.Fatalf("missing interruption notice:\n%s", console)
	}
}
