package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

type inputFile struct {
	io.Reader
	closers []func() error
}

func (f *inputFile) Close() error {
	var first error
	for i := len(f.closers) - 1; i >= 0; i-- {
		if err := f.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// openInput opens an export, decompressing .zst and .gz files on the fly.
func openInput(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	in := &inputFile{Reader: file, closers: []func() error{file.Close}}

	switch {
	case strings.HasSuffix(path, ".zst"):
		dec, err := zstd.NewReader(file)
		if err != nil {
			in.Close()
			return nil, fmt.Errorf("zstd reader for %s: %w", path, err)
		}
		in.Reader = dec
		in.closers = append(in.closers, func() error { dec.Close(); return nil })
	case strings.HasSuffix(path, ".gz"):
		zr, err := gzip.NewReader(file)
		if err != nil {
			in.Close()
			return nil, fmt.Errorf("gzip reader for %s: %w", path, err)
		}
		in.Reader = zr
		in.closers = append(in.closers, zr.Close)
	}
	return in, nil
}
