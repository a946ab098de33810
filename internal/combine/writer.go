package combine

import (
	"bufio"
	"encoding/csv"
	"os"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
)

// CSVWriter streams ComparisonRows to a CSV file. The header is derived
// from the ComparisonRow struct tags and written before the first row.
type CSVWriter struct {
	f   *os.File
	buf *bufio.Writer
	cw  *csv.Writer
	enc *csvutil.Encoder
}

// NewCSVWriter creates (truncates) the output file.
func NewCSVWriter(path string) (*CSVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, eris.Wrapf(err, "combine: create %s", path)
	}
	buf := bufio.NewWriter(f)
	cw := csv.NewWriter(buf)
	return &CSVWriter{f: f, buf: buf, cw: cw, enc: csvutil.NewEncoder(cw)}, nil
}

// Write appends one comparison row.
func (w *CSVWriter) Write(row ComparisonRow) error {
	return eris.Wrap(w.enc.Encode(row), "combine: encode row")
}

// Close flushes buffers and closes the file.
func (w *CSVWriter) Close() error {
	w.cw.Flush()
	if err := w.cw.Error(); err != nil {
		_ = w.f.Close()
		return eris.Wrap(err, "combine: flush")
	}
	if err := w.buf.Flush(); err != nil {
		_ = w.f.Close()
		return eris.Wrap(err, "combine: flush")
	}
	return eris.Wrap(w.f.Close(), "combine: close")
}
