package graph

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// maxLine bounds a single input line; adjacency lists of hubs can be long.
const maxLine = 64 << 20

// LineError describes an input line that was skipped.
type LineError struct {
	Line int
	Err  error
}

func (e LineError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

// ReadResult is the outcome of decoding an input stream.
type ReadResult struct {
	Records []Record
	Skipped []LineError
}

// ReadRecords decodes one record per line. Blank lines are ignored,
// malformed lines are collected in Skipped. Only I/O failures are returned
// as errors.
func ReadRecords(r io.Reader) (ReadResult, error) {
	var res ReadResult
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	seen := make(map[int64]struct{})
	for line := 1; sc.Scan(); line++ {
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(text, &rec); err != nil {
			res.Skipped = append(res.Skipped, LineError{Line: line, Err: err})
			continue
		}
		if _, dup := seen[rec.ID]; dup {
			res.Skipped = append(res.Skipped, LineError{Line: line, Err: fmt.Errorf("duplicate vertex %d", rec.ID)})
			continue
		}
		seen[rec.ID] = struct{}{}
		res.Records = append(res.Records, rec)
	}
	if err := sc.Err(); err != nil {
		return res, fmt.Errorf("scan: %w", err)
	}
	return res, nil
}

// ReadRecordsFile opens path and decodes it with ReadRecords.
func ReadRecordsFile(path string) (ReadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return ReadResult{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadRecords(f)
}

// WriteRecords encodes one record per line.
func WriteRecords(w io.Writer, records []Record) error {
	return writeLines(w, records)
}

// WritePositions encodes one position per line.
func WritePositions(w io.Writer, positions []Position) error {
	return writeLines(w, positions)
}

// WritePositionsFile writes positions to path, replacing any existing file.
func WritePositionsFile(path string, positions []Position) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WritePositions(f, positions); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadPositions decodes one position per line.
func ReadPositions(r io.Reader) ([]Position, error) {
	var out []Position
	dec := json.NewDecoder(r)
	for {
		var p Position
		if err := dec.Decode(&p); err == io.EOF {
			return out, nil
		} else if err != nil {
			return nil, fmt.Errorf("decode position %d: %w", len(out)+1, err)
		}
		out = append(out, p)
	}
}

// ReadPositionsFile opens path and decodes it with ReadPositions.
func ReadPositionsFile(path string) ([]Position, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadPositions(f)
}

func writeLines[T any](w io.Writer, items []T) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for i, it := range items {
		if err := enc.Encode(it); err != nil {
			return fmt.Errorf("encode item %d: %w", i, err)
		}
	}
	return bw.Flush()
}
