package agreement

import (
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/nao1215/agreement/domain/model"
	"github.com/ulikunitz/xz"
)

// CompressionHandler wraps readers and writers with (de)compression.
type CompressionHandler interface {
	// CreateReader wraps reader with a decompressor. The returned func releases it.
	CreateReader(reader io.Reader) (io.Reader, func() error, error)
	// CreateWriter wraps writer with a compressor. The returned func flushes it.
	CreateWriter(writer io.Writer) (io.Writer, func() error, error)
	// Extension returns the file suffix of the compression, e.g. ".gz"
	Extension() string
}

type (
	openReader func(io.Reader) (io.Reader, func() error, error)
	openWriter func(io.Writer) (io.Writer, func() error, error)
)

// codec pairs the reader and writer of one compression. A nil writer means
// the compression is read-only.
type codec struct {
	name   string
	reader openReader
	writer openWriter
}

func noop() error { return nil }

var codecs = map[model.CompressionType]codec{
	model.CompressionNone: {
		name:   "none",
		reader: func(r io.Reader) (io.Reader, func() error, error) { return r, noop, nil },
		writer: func(w io.Writer) (io.Writer, func() error, error) { return w, noop, nil },
	},
	model.CompressionGZ: {
		name: "gzip",
		reader: func(r io.Reader) (io.Reader, func() error, error) {
			zr, err := gzip.NewReader(r)
			if err != nil {
				return nil, nil, err
			}
			return zr, zr.Close, nil
		},
		writer: func(w io.Writer) (io.Writer, func() error, error) {
			zw := gzip.NewWriter(w)
			return zw, zw.Close, nil
		},
	},
	model.CompressionBZ2: {
		name: "bzip2",
		reader: func(r io.Reader) (io.Reader, func() error, error) {
			return bzip2.NewReader(r), noop, nil
		},
	},
	model.CompressionXZ: {
		name: "xz",
		reader: func(r io.Reader) (io.Reader, func() error, error) {
			zr, err := xz.NewReader(r)
			if err != nil {
				return nil, nil, err
			}
			return zr, noop, nil
		},
		writer: func(w io.Writer) (io.Writer, func() error, error) {
			zw, err := xz.NewWriter(w)
			if err != nil {
				return nil, nil, err
			}
			return zw, zw.Close, nil
		},
	},
	model.CompressionZSTD: {
		name: "zstd",
		reader: func(r io.Reader) (io.Reader, func() error, error) {
			zr, err := zstd.NewReader(r)
			if err != nil {
				return nil, nil, err
			}
			return zr, func() error {
				zr.Close()
				return nil
			}, nil
		},
		writer: func(w io.Writer) (io.Writer, func() error, error) {
			zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
			if err != nil {
				return nil, nil, err
			}
			return zw, zw.Close, nil
		},
	},
}

type compressionHandler struct {
	compressionType model.CompressionType
}

// NewCompressionHandler returns the handler for compressionType.
func NewCompressionHandler(compressionType model.CompressionType) CompressionHandler {
	return &compressionHandler{compressionType: compressionType}
}

func (h *compressionHandler) CreateReader(reader io.Reader) (io.Reader, func() error, error) {
	c, ok := codecs[h.compressionType]
	if !ok {
		return nil, nil, fmt.Errorf("unsupported compression type for reading: %v", h.compressionType)
	}
	r, release, err := c.reader(reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s reader: %w", c.name, err)
	}
	return r, release, nil
}

func (h *compressionHandler) CreateWriter(writer io.Writer) (io.Writer, func() error, error) {
	c, ok := codecs[h.compressionType]
	if !ok {
		return nil, nil, fmt.Errorf("unsupported compression type for writing: %v", h.compressionType)
	}
	if c.writer == nil {
		return nil, nil, fmt.Errorf("%s compression is not supported for writing", c.name)
	}
	w, flush, err := c.writer(writer)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s writer: %w", c.name, err)
	}
	return w, flush, nil
}

func (h *compressionHandler) Extension() string {
	return h.compressionType.Extension()
}

// CreateWriterForFile creates path and returns a writer that compresses with
// compressionType. The returned cleanup flushes the compressor, syncs and
// closes the file; it must be called exactly once.
func CreateWriterForFile(path string, compressionType model.CompressionType) (io.Writer, func() error, error) {
	file, err := os.Create(path) //nolint:gosec // output path comes from the caller
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create file: %w", err)
	}

	writer, flush, err := NewCompressionHandler(compressionType).CreateWriter(file)
	if err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return nil, nil, err
	}

	return writer, func() error {
		return errors.Join(flush(), file.Sync(), file.Close())
	}, nil
}
