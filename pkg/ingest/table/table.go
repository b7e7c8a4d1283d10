// Package table reads delimited text exports into raw rows.
//
// Unlike encoding/csv on a whole file, blank lines are kept as empty rows:
// section layouts count them.
package table

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	aterrors "github.com/otherjamesbrown/attend-cli/pkg/errors"
)

// Default read options.
const (
	DefaultEncoding  = "utf-8"
	DefaultDelimiter = ","
)

// maxLineSize bounds a single line of the export.
const maxLineSize = 1024 * 1024

// Options controls how an export is decoded and split.
type Options struct {
	// Encoding is a WHATWG encoding label such as "utf-8", "utf-16le" or
	// "windows-1252". "utf-16" detects endianness from the BOM.
	Encoding string

	// Delimiter separates fields. "\t" and "tab" mean a tab character.
	Delimiter string
}

// DefaultOptions returns UTF-8, comma-separated options.
func DefaultOptions() Options {
	return Options{Encoding: DefaultEncoding, Delimiter: DefaultDelimiter}
}

// ReadFile reads all rows of the export at path.
func ReadFile(ctx context.Context, path string, opts Options) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening export: %w", err)
	}
	defer f.Close()

	rows, err := Read(ctx, f, opts)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return rows, nil
}

// Read reads all rows from r.
func Read(ctx context.Context, r io.Reader, opts Options) ([][]string, error) {
	delim, err := ParseDelimiter(opts.Delimiter)
	if err != nil {
		return nil, err
	}
	enc, err := LookupEncoding(opts.Encoding)
	if err != nil {
		return nil, err
	}

	decoded := transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder()))
	scanner := bufio.NewScanner(decoded)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	rows := make([][]string, 0)
	for line := 0; scanner.Scan(); line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := splitLine(scanner.Text(), delim)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// splitLine splits one line into fields. A blank line is an empty row.
func splitLine(line string, delim rune) ([]string, error) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return []string{}, nil
	}

	cr := csv.NewReader(strings.NewReader(line))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	record, err := cr.Read()
	if err == io.EOF {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ParseDelimiter converts a configured delimiter into a single rune.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return ',', nil
	case `\t`, "tab", "\t":
		return '\t', nil
	}
	r := []rune(s)
	if len(r) != 1 || r[0] == '"' || r[0] == '\r' || r[0] == '\n' {
		return 0, fmt.Errorf("%w: delimiter must be a single character other than quote or newline, got %q", aterrors.ErrInvalidConfig, s)
	}
	return r[0], nil
}

// LookupEncoding resolves an encoding label. Empty means UTF-8.
func LookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	case "utf-16", "utf16":
		return unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown encoding %q", aterrors.ErrInvalidConfig, name)
	}
	return enc, nil
}
