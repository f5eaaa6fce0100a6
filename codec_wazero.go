package main

import (
	"context"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/gen2brain/heic"
	"github.com/gen2brain/webp"
)

// encodeMethod is the libwebp effort setting (0 fastest, 6 slowest/best);
// 4 is the cwebp default.
const encodeMethod = 4

// wasmCodec converts in-process: libheif and libwebp compiled to WASM,
// executed under wazero. No external binaries, no CGo.
type wasmCodec struct{}

func (*wasmCodec) Name() string { return codecWASM }

func (*wasmCodec) Available() error { return nil }

func (*wasmCodec) Convert(ctx context.Context, task ConversionTask, quality int) (ConversionResult, error) {
	res := ConversionResult{Task: task}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	info, err := os.Stat(task.Source)
	if err != nil {
		return res, wrapStage(ErrDecode, "open source", err)
	}
	res.InputBytes = info.Size()

	f, err := os.Open(task.Source)
	if err != nil {
		return res, wrapStage(ErrDecode, "open source", err)
	}
	defer f.Close()

	img, err := heic.Decode(f)
	if err != nil {
		return res, wrapStage(ErrDecode, "decode image", err)
	}

	bounds := img.Bounds()
	res.Width, res.Height = bounds.Dx(), bounds.Dy()

	if err := ctx.Err(); err != nil {
		return res, err
	}

	size, err := writeWebP(task.Dest, img, quality)
	if err != nil {
		return res, err
	}
	res.OutputBytes = size
	return res, nil
}

// writeWebP encodes img to dest atomically: encode into a temp file in the
// destination directory, then rename into place. Any failure removes the
// temp file so a partial write is never mistaken for a valid conversion.
func writeWebP(dest string, img image.Image, quality int) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".webpconv-*.tmp")
	if err != nil {
		return 0, wrapStage(ErrWrite, "create temp file", err)
	}
	tmpPath := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if err := encodeWebP(tmp, img, quality); err != nil {
		return 0, wrapStage(ErrEncode, "encode webp", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, wrapStage(ErrWrite, "close temp file", err)
	}

	info, err := os.Stat(tmpPath)
	if err != nil {
		return 0, wrapStage(ErrWrite, "stat temp file", err)
	}
	if info.Size() == 0 {
		return 0, wrapStage(ErrEncode, "encoder produced no output", nil)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return 0, wrapStage(ErrWrite, "finalize output", err)
	}
	committed = true
	return info.Size(), nil
}

func encodeWebP(w io.Writer, img image.Image, quality int) error {
	return webp.Encode(w, img, webp.Options{Quality: quality, Method: encodeMethod})
}
