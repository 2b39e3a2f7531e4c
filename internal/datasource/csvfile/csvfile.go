// Package csvfile implements a streaming CSV datasource for the subject
// record table. It avoids whole-file buffering: rows flow from a reader
// goroutine through a channel while the consumer coerces cells according to
// a precompiled per-column plan.
//
// Header handling:
//   - If options.has_header==true (default), the first line is the header;
//     names are mapped through options.header_map (source -> canonical) and
//     a UTF-8 BOM on the first cell is stripped.
//   - Every header cell is normalized (NFC) and cleared of Unicode format
//     characters, which real-world exports sprinkle into column names.
//
// Cell coercion follows options.types (column -> "real" | "int" | "text").
// Empty cells become missing. Unparsable numeric cells also become missing
// rather than failing the load, matching the tolerant numeric conversion the
// upstream instrument export requires.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"arrowdash/internal/config"
	"arrowdash/internal/dataset"
)

const utf8BOM = "\uFEFF"

// cellSanitizer normalizes to NFC and removes Unicode format characters
// (category Cf), which covers stray BOMs and zero-width junk inside cells.
var cellSanitizer = transform.Chain(norm.NFC, runes.Remove(runes.In(unicode.Cf)))

// Source loads a CSV file from the local filesystem.
type Source struct {
	path string
	opt  config.Options
}

// New constructs a Source for path with the given parser options.
func New(path string, opt config.Options) *Source {
	if opt == nil {
		opt = config.Options{}
	}
	return &Source{path: path, opt: opt}
}

// Fingerprint hashes the file contents.
func (s *Source) Fingerprint(ctx context.Context) (uint64, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return 0, fmt.Errorf("csvfile: open: %w", err)
	}
	defer f.Close()
	fp, err := dataset.Fingerprint(f)
	if err != nil {
		return 0, fmt.Errorf("csvfile: fingerprint: %w", err)
	}
	return fp, nil
}

// Load parses the file into a Table. The file bytes are hashed while they
// stream through the parser, so the returned fingerprint matches exactly
// what was loaded.
func (s *Source) Load(ctx context.Context) (*dataset.Table, uint64, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, 0, fmt.Errorf("csvfile: open: %w", err)
	}
	defer f.Close()

	hasher := xxh3.New()
	tbl, err := s.parse(ctx, io.TeeReader(f, hasher))
	if err != nil {
		return nil, 0, err
	}
	return tbl, hasher.Sum64(), nil
}

func (s *Source) parse(ctx context.Context, r io.Reader) (*dataset.Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = s.opt.Rune("comma", ',')
	cr.ReuseRecord = true
	cr.LazyQuotes = s.opt.Bool("lazy_quotes", false)
	cr.FieldsPerRecord = -1 // tolerant by default; width checked per row below

	hasHeader := s.opt.Bool("has_header", true)
	trim := s.opt.Bool("trim_space", true)
	headerMap := s.opt.StringMap("header_map")

	var columns []string
	if hasHeader {
		hdr, err := cr.Read()
		if err != nil {
			return nil, fmt.Errorf("csvfile: read header: %w", err)
		}
		columns = make([]string, len(hdr))
		for i, h := range hdr {
			if i == 0 {
				h = strings.TrimPrefix(h, utf8BOM)
			}
			h = sanitizeCell(h)
			h = strings.TrimSpace(h)
			if canonical, ok := headerMap[h]; ok {
				h = canonical
			}
			columns[i] = h
		}
	} else {
		return nil, fmt.Errorf("csvfile: headerless input is not supported; the reporting schema is name-addressed")
	}

	plan := compilePlan(columns, s.opt.StringMap("types"))

	// Reader goroutine feeds raw records; the consumer coerces and
	// accumulates. csv.Reader reuses its record buffer, so the reader
	// copies each record before sending.
	raw := make(chan []string, 256)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(raw)
		for {
			rec, err := cr.Read()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("csvfile: read row: %w", err)
			}
			cp := make([]string, len(rec))
			copy(cp, rec)
			select {
			case raw <- cp:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	var rows [][]any
	for rec := range raw {
		if len(rec) != len(columns) {
			// Width mismatch: drop softly, as trailing junk lines are
			// common in hand-exported files.
			continue
		}
		row := make([]any, len(columns))
		for i, cell := range rec {
			cell = sanitizeCell(cell)
			if trim {
				cell = strings.TrimSpace(cell)
			}
			row[i] = plan[i](cell)
		}
		rows = append(rows, row)
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tbl, err := dataset.New(columns, rows)
	if err != nil {
		return nil, fmt.Errorf("csvfile: %w", err)
	}
	return tbl, nil
}

// coerceFn converts one trimmed cell into its typed value; "" and
// unparsable numerics map to nil (missing).
type coerceFn func(cell string) any

// compilePlan builds a per-column coercion plan once, avoiding per-cell map
// lookups on the hot path.
func compilePlan(columns []string, types map[string]string) []coerceFn {
	plan := make([]coerceFn, len(columns))
	for i, col := range columns {
		switch types[col] {
		case "real":
			plan[i] = coerceReal
		case "int":
			plan[i] = coerceInt
		default: // "text" and unknown types pass through
			plan[i] = coerceText
		}
	}
	return plan
}

func coerceText(cell string) any {
	if cell == "" {
		return nil
	}
	return cell
}

func coerceReal(cell string) any {
	if cell == "" {
		return nil
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return nil
	}
	return f
}

func coerceInt(cell string) any {
	if cell == "" {
		return nil
	}
	if n, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return n
	}
	// Exports sometimes render integers as "1.0"; accept via float.
	if f, err := strconv.ParseFloat(cell, 64); err == nil {
		return int64(f)
	}
	return nil
}

func sanitizeCell(s string) string {
	out, _, err := transform.String(cellSanitizer, s)
	if err != nil {
		return s
	}
	return out
}
