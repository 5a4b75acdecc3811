package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"marketreplay/internal/model"
)

// CSV reads events from a comma-separated file whose first row names the
// fields. Rows map positionally onto the header; short rows leave the
// missing trailing fields empty, values beyond the header are dropped.
type CSV struct {
	f      *os.File
	r      *csv.Reader
	header []string
	pos    int
}

// OpenCSV opens path and consumes the header row.
func OpenCSV(path string) (*CSV, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate ragged rows

	header, err := r.Read()
	if err == io.EOF {
		f.Close()
		return nil, fmt.Errorf("csv %s: empty file, no header row", path)
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	return &CSV{f: f, r: r, header: header}, nil
}

// Header returns the column names in file order.
func (c *CSV) Header() []string { return c.header }

// Next returns the next row as an Event. io.EOF signals end of the sequence.
func (c *CSV) Next() (model.Event, error) {
	row, err := c.r.Read()
	if err == io.EOF {
		return model.Event{}, io.EOF
	}
	if err != nil {
		return model.Event{}, fmt.Errorf("csv row %d: %w", c.pos, err)
	}

	fields := make(map[string]string, len(c.header))
	for i, name := range c.header {
		if i < len(row) {
			fields[name] = row[i]
		} else {
			fields[name] = ""
		}
	}

	ev := model.Event{Pos: c.pos, Fields: fields}
	c.pos++
	return ev, nil
}

// Close releases the underlying file.
func (c *CSV) Close() error { return c.f.Close() }
