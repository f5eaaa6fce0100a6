package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Swappable seams so tests can fake the external binary.
var (
	commandContext = exec.CommandContext
	lookPath       = exec.LookPath
)

// magickCodec delegates both decode and encode to the ImageMagick 7 `magick`
// binary, for hosts where the system codec stack is preferred over the
// bundled WASM one.
type magickCodec struct {
	binary string
}

func newMagickCodec() *magickCodec {
	return &magickCodec{binary: "magick"}
}

func (*magickCodec) Name() string { return codecMagick }

func (c *magickCodec) Available() error {
	if _, err := lookPath(c.binary); err != nil {
		return fmt.Errorf("%w: ImageMagick binary %q not found in PATH", ErrInvalidInput, c.binary)
	}
	return nil
}

func (c *magickCodec) Convert(ctx context.Context, task ConversionTask, quality int) (ConversionResult, error) {
	res := ConversionResult{Task: task}

	info, err := os.Stat(task.Source)
	if err != nil {
		return res, wrapStage(ErrDecode, "open source", err)
	}
	res.InputBytes = info.Size()

	// [0] selects the container's primary image; HEIF files may hold several.
	frame := task.Source + "[0]"

	out, err := c.run(ctx, "identify", "-format", "%w %h", frame)
	if err != nil {
		return res, wrapStage(ErrDecode, "identify image", err)
	}
	res.Width, res.Height, err = parseIdentify(out)
	if err != nil {
		return res, wrapStage(ErrDecode, "identify image", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(task.Dest), ".webpconv-*.tmp")
	if err != nil {
		return res, wrapStage(ErrWrite, "create temp file", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()

	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	// The webp: prefix forces the output format despite the .tmp suffix.
	if _, err := c.run(ctx, frame, "-quality", strconv.Itoa(quality), "webp:"+tmpPath); err != nil {
		return res, wrapStage(ErrEncode, "magick convert", err)
	}

	tmpInfo, err := os.Stat(tmpPath)
	if err != nil {
		return res, wrapStage(ErrWrite, "stat temp file", err)
	}
	if tmpInfo.Size() == 0 {
		return res, wrapStage(ErrEncode, "encoder produced no output", nil)
	}

	if err := os.Rename(tmpPath, task.Dest); err != nil {
		return res, wrapStage(ErrWrite, "finalize output", err)
	}
	committed = true
	res.OutputBytes = tmpInfo.Size()
	return res, nil
}

// run executes the binary and returns stdout, folding captured stderr into
// the error so ImageMagick's own diagnostics reach the user verbatim.
func (c *magickCodec) run(ctx context.Context, args ...string) (string, error) {
	cmd := commandContext(ctx, c.binary, args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}

func parseIdentify(out string) (int, int, error) {
	fields := strings.Fields(strings.TrimSpace(out))
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("unexpected identify output %q", strings.TrimSpace(out))
	}
	width, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("unexpected identify output %q", strings.TrimSpace(out))
	}
	height, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("unexpected identify output %q", strings.TrimSpace(out))
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("invalid image dimensions %dx%d", width, height)
	}
	return width, height, nil
}
