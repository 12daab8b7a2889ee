package trace

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/appdirbuilder/pkg/errors"
	"github.com/klauspost/compress/zstd"
)

// CompressedSuffix selects zstd compression for archived logs.
const CompressedSuffix = ".zst"

// SaveLog writes a raw trace log to path, zstd-compressed when path ends
// in .zst. Parent directories are created.
func SaveLog(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot create directory for %s", path)
	}

	if strings.HasSuffix(path, CompressedSuffix) {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return errors.Wrap(err, errors.ErrInternal, "zstd encoder initialization failed")
		}
		data = enc.EncodeAll(data, nil)
		if err := enc.Close(); err != nil {
			return errors.Wrap(err, errors.ErrInternal, "zstd encoder close failed")
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot write trace log %s", path)
	}
	return nil
}

// LoadLog reads a trace log written by SaveLog, or any plain strace log.
func LoadLog(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(err, errors.ErrInvalidInput, "trace log %s does not exist", path)
		}
		return nil, errors.Wrapf(err, errors.ErrFileSystem, "cannot open trace log %s", path)
	}
	defer func() {
		_ = f.Close()
	}()

	var r io.Reader = f
	if strings.HasSuffix(path, CompressedSuffix) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrFileSystem, "cannot decode trace log %s", path)
		}
		defer dec.Close()
		r = dec
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileSystem, "cannot read trace log %s", path)
	}
	return buf.Bytes(), nil
}
