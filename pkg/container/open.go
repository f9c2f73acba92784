package container

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// zstd frame magic number
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

type zstdReadCloser struct {
	*zstd.Decoder
	f io.Closer
}

func (z *zstdReadCloser) Close() error {
	z.Decoder.Close()

	return z.f.Close()
}

// Open opens path for reading. Zstandard compressed files are decompressed
// on the fly, whatever their name.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	br := bufio.NewReader(f)
	magic, _ := br.Peek(len(zstdMagic))
	if !bytes.Equal(magic, zstdMagic) {
		return struct {
			io.Reader
			io.Closer
		}{br, f}, nil
	}

	zr, err := zstd.NewReader(br)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening zstd stream %s: %w", path, err)
	}

	return &zstdReadCloser{Decoder: zr, f: f}, nil
}

// ReadFile parses the WebP file at path.
func ReadFile(path string) (*Frame, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	frame, err := Parse(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return frame, nil
}
