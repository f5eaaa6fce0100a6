package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// ConversionTask names one source file and where its WebP output goes.
type ConversionTask struct {
	Source string
	Dest   string
}

// ConversionResult carries what the codec learned about a finished
// conversion: decoded dimensions and the byte counts for reporting.
type ConversionResult struct {
	Task        ConversionTask
	Width       int
	Height      int
	InputBytes  int64
	OutputBytes int64
}

// Codec converts one HEIC/HEIF file to WebP at the given quality (1-100).
// Implementations must write the output atomically: either the destination
// holds a complete WebP file, or nothing is left behind. Errors wrap one of
// ErrDecode, ErrEncode, or ErrWrite.
type Codec interface {
	Name() string
	Available() error
	Convert(ctx context.Context, task ConversionTask, quality int) (ConversionResult, error)
}

const (
	codecWASM   = "wasm"
	codecMagick = "magick"
)

// newCodec selects a backend by name. The wasm backend runs the codecs
// in-process and is always available; magick delegates to ImageMagick.
func newCodec(name string) (Codec, error) {
	switch name {
	case codecWASM:
		return &wasmCodec{}, nil
	case codecMagick:
		return newMagickCodec(), nil
	default:
		return nil, fmt.Errorf("%w: unknown codec %q (use %s or %s)", ErrInvalidInput, name, codecWASM, codecMagick)
	}
}

// outputPath derives the destination for source: same stem with a .webp
// extension, placed in outputDir when set, next to the source otherwise.
// Sources sharing a stem under one destination directory overwrite each
// other; the last conversion wins.
func outputPath(source, outputDir string) string {
	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}

	dir := outputDir
	if dir == "" {
		dir = filepath.Dir(source)
	}
	return filepath.Join(dir, stem+".webp")
}
