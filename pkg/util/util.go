// Package util contains some methods that can be used by every other package.
package util

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pelletier/go-toml"
)

// Write creates the output file. If structure is not nil, it writes the date
// and the structure in a TOML format before the results, the same way every
// calculation launched from a configuration file does. This method returns
// the file for further writing. It must be closed at the end of the
// calculation.
func Write(path string, structure interface{}) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}

	if structure == nil {
		return f, nil
	}

	fmt.Fprintf(f, "# Date: %v\n", time.Now().Format("2006-01-02 15:04:05 -0700 MST"))

	var buf strings.Builder
	enc := toml.NewEncoder(&buf)
	err = enc.Encode(structure)
	if err != nil {
		f.Close()
		return nil, err
	}

	// Every header line starts with # so that the columns below stay
	// parsable.
	for _, l := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		fmt.Fprintf(f, "# %s\n", l)
	}

	return f, nil
}

// Open opens a trajectory file. Files ending with .zst or .gz are
// decompressed on the fly. The returned reader must be closed.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		dec, err := zstd.NewReader(bufio.NewReader(f))
		if err != nil {
			f.Close()
			return nil, &IOError{Path: path, Err: err}
		}
		return &readCloser{Reader: dec, close: func() error {
			dec.Close()
			return f.Close()
		}}, nil
	case ".gz":
		dec, err := gzip.NewReader(bufio.NewReader(f))
		if err != nil {
			f.Close()
			return nil, &IOError{Path: path, Err: err}
		}
		return &readCloser{Reader: dec, close: func() error {
			dec.Close()
			return f.Close()
		}}, nil
	}

	return f, nil
}

type readCloser struct {
	io.Reader
	close func() error
}

func (r *readCloser) Close() error {
	return r.close()
}

// WriteSeries writes one line per point: the abscissa with 4 decimals and
// the value with 8 decimals, separated by two spaces.
func WriteSeries(w io.Writer, xs, ys []float64) error {
	if len(xs) != len(ys) {
		return fmt.Errorf("length of xs isn't equal to ys (%d vs %d)", len(xs), len(ys))
	}

	bw := bufio.NewWriter(w)
	for i := range xs {
		fmt.Fprintf(bw, "%.4f  %.8f\n", xs[i], ys[i])
	}
	return bw.Flush()
}

// Pow returns x**n for n >= 0. Negative exponents aren't supported and
// return 1.
func Pow(x float64, n int) float64 {
	if n < 1 {
		return 1
	}
	res := x
	for i := 0; i < (n - 1); i++ {
		res *= x
	}
	return res
}
