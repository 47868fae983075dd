// Package csvstore reads and writes the comma-separated record files that
// back the catalog, the ledger and the user directory. The format is the
// one the files already use: a fixed header line, one record per line,
// fields joined with bare commas and no quoting or escaping.
package csvstore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReadResult carries the parsed rows of a file together with the number of
// malformed rows that were skipped, so callers can surface the count.
type ReadResult struct {
	Rows    [][]string
	Skipped int
}

// Read parses the file at path, skipping the header line. Rows with fewer
// than minFields fields are counted in Skipped and dropped; parsing always
// continues. A missing file is the caller's concern and is returned as the
// underlying *PathError so it can test with os.IsNotExist.
func Read(path string, minFields int) (*ReadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	res := &ReadResult{}
	scanner := bufio.NewScanner(f)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			first = false
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) < minFields {
			res.Skipped++
			continue
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		res.Rows = append(res.Rows, fields)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return res, nil
}

// Write rewrites the whole file with the given header and rows. The data is
// written to a temporary file in the same directory and renamed over the
// original, so a failure mid-stream never truncates the existing file.
func Write(path, header string, rows [][]string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	w := bufio.NewWriter(tmp)
	writeErr := func() error {
		if _, err := w.WriteString(header + "\n"); err != nil {
			return err
		}
		for _, row := range rows {
			if _, err := w.WriteString(strings.Join(row, ",") + "\n"); err != nil {
				return err
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}
		return tmp.Close()
	}()
	if writeErr != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", path, writeErr)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// Append adds one row to the end of the file. When the file is missing or
// empty the header is written first; it is never duplicated on a file that
// already has content.
func Append(path, header string, row []string) error {
	needHeader := false
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		needHeader = true
	case err != nil:
		return fmt.Errorf("stat %s: %w", path, err)
	case info.Size() == 0:
		needHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s for append: %w", path, err)
	}

	var b strings.Builder
	if needHeader {
		b.WriteString(header + "\n")
	}
	b.WriteString(strings.Join(row, ",") + "\n")
	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		return fmt.Errorf("append to %s: %w", path, err)
	}
	return f.Close()
}
