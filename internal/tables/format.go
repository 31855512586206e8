// Package tables reads and writes the pipeline's tabular contracts: MSD
// inputs, diffusivity estimates, Arrhenius parameters, extrapolated curves
// and DSA sweeps. Column order is fixed per file; extension columns may
// follow the contract columns and are ignored by readers that do not need
// them.
package tables

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

var (
	ErrHeader       = errors.New("tables: unexpected header")
	ErrShortRow     = errors.New("tables: row has too few columns")
	ErrParse        = errors.New("tables: unparsable value")
	ErrNonMonotonic = errors.New("tables: time not strictly increasing")
	ErrNoData       = errors.New("tables: no data rows")
)

// None marks an absent value, such as the boundary of an empty window.
const None = "none"

// LineError attaches a 1-based line number to a read failure.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

func (e *LineError) Unwrap() error { return e.Err }

// formatFloat writes the shortest representation that parses back to the
// same float64.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatInt(v int) string {
	return strconv.Itoa(v)
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func formatOptional(v float64, ok bool) string {
	if !ok {
		return None
	}
	return formatFloat(v)
}

// row decodes one record against a header index.
type row struct {
	line   int
	fields []string
	index  map[string]int
	err    error
}

func (r *row) has(col string) bool {
	_, ok := r.index[col]
	return ok
}

func (r *row) str(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

func (r *row) float(col string) float64 {
	if r.err != nil {
		return 0
	}
	s := r.str(col)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		r.err = &LineError{Line: r.line, Err: fmt.Errorf("%w: column %s: %q", ErrParse, col, s)}
		return 0
	}
	return v
}

func (r *row) optional(col string) (float64, bool) {
	if strings.EqualFold(r.str(col), None) {
		return math.NaN(), false
	}
	return r.float(col), true
}

func (r *row) int(col string) int {
	if r.err != nil {
		return 0
	}
	s := r.str(col)
	v, err := strconv.Atoi(s)
	if err != nil {
		r.err = &LineError{Line: r.line, Err: fmt.Errorf("%w: column %s: %q", ErrParse, col, s)}
		return 0
	}
	return v
}

func (r *row) bool(col string) bool {
	if r.err != nil {
		return false
	}
	s := r.str(col)
	v, err := strconv.ParseBool(s)
	if err != nil {
		r.err = &LineError{Line: r.line, Err: fmt.Errorf("%w: column %s: %q", ErrParse, col, s)}
		return false
	}
	return v
}

// readTable reads a CSV whose header must begin with the contract columns,
// calling fn for every data row.
func readTable(rd io.Reader, contract []string, fn func(*row) error) error {
	cr := csv.NewReader(rd)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return ErrNoData
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if len(header) < len(contract) {
		return fmt.Errorf("%w: got %v, want %v", ErrHeader, header, contract)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if i < len(contract) && h != contract[i] {
			return fmt.Errorf("%w: column %d is %q, want %q", ErrHeader, i+1, h, contract[i])
		}
		index[h] = i
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		line, _ := cr.FieldPos(0)
		if len(rec) < len(contract) {
			return &LineError{Line: line, Err: fmt.Errorf("%w: %d < %d", ErrShortRow, len(rec), len(contract))}
		}
		r := &row{line: line, fields: rec, index: index}
		if err := fn(r); err != nil {
			return err
		}
		if r.err != nil {
			return r.err
		}
	}
}

// tableWriter writes records and keeps the first error.
type tableWriter struct {
	cw  *csv.Writer
	err error
}

func newTableWriter(w io.Writer, header []string) *tableWriter {
	tw := &tableWriter{cw: csv.NewWriter(w)}
	tw.write(header)
	return tw
}

func (tw *tableWriter) write(rec []string) {
	if tw.err == nil {
		tw.err = tw.cw.Write(rec)
	}
}

func (tw *tableWriter) flush() error {
	tw.cw.Flush()
	if tw.err != nil {
		return tw.err
	}
	return tw.cw.Error()
}
