// Package record appends human-readable run summaries to an output file
// and reads them back.
package record

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kiranshivaraju/loganalyzer/pkg/models"
)

// TimeLayout is the timestamp format used in records and the log file.
const TimeLayout = "2006-01-02 15:04:05"

const (
	prefixTimestamp = "Timestamp: "
	prefixSource    = "Source file: "
	prefixLines     = "Lines analyzed: "
	prefixBackend   = "Backend: "
	prefixModel     = "Model: "
)

var (
	blockRule  = strings.Repeat("=", 60)
	answerRule = strings.Repeat("-", 60)
)

// Writer persists records. Implementations must be safe for concurrent use.
type Writer interface {
	Write(rec models.Record) error
}

// FileWriter appends records to a file, opening and closing it per write.
type FileWriter struct {
	path string
	mu   sync.Mutex
}

func NewFileWriter(path string) *FileWriter {
	return &FileWriter{path: path}
}

func (w *FileWriter) Write(rec models.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}

	if _, err := io.WriteString(f, Format(rec)); err != nil {
		f.Close()
		return fmt.Errorf("write output file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}
	return nil
}

// Format renders rec as a single block, terminated by a blank line.
func Format(rec models.Record) string {
	var b strings.Builder
	b.WriteString(blockRule + "\n")
	b.WriteString(prefixTimestamp + rec.Timestamp.Format(TimeLayout) + "\n")
	b.WriteString(prefixSource + rec.SourceFile + "\n")
	b.WriteString(prefixLines + strconv.Itoa(rec.LineCount) + "\n")
	b.WriteString(prefixBackend + rec.Backend + "\n")
	b.WriteString(prefixModel + rec.Model + "\n")
	b.WriteString(answerRule + "\n")
	b.WriteString(rec.Answer + "\n")
	b.WriteString(blockRule + "\n\n")
	return b.String()
}

// Parse reads every block written by Format from r. Timestamps are
// interpreted in the local time zone, matching how they were written.
func Parse(r io.Reader) ([]models.Record, error) {
	var (
		records []models.Record
		cur     *models.Record
		answer  []string
		inBody  bool
		lineNo  int
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		lineNo++
		line := sc.Text()

		switch {
		case cur == nil:
			if line == blockRule {
				cur = &models.Record{}
			}
		case inBody:
			if line == blockRule {
				cur.Answer = strings.Join(answer, "\n")
				records = append(records, *cur)
				cur, answer, inBody = nil, nil, false
				continue
			}
			answer = append(answer, line)
		case line == answerRule:
			inBody = true
		default:
			if err := parseHeader(cur, line); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	if cur != nil {
		return nil, fmt.Errorf("line %d: unterminated record", lineNo)
	}
	if records == nil {
		return []models.Record{}, nil
	}
	return records, nil
}

// ReadFile parses every record in the file at path.
func ReadFile(path string) ([]models.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func parseHeader(rec *models.Record, line string) error {
	switch {
	case strings.HasPrefix(line, prefixTimestamp):
		ts, err := time.ParseInLocation(TimeLayout, strings.TrimPrefix(line, prefixTimestamp), time.Local)
		if err != nil {
			return fmt.Errorf("bad timestamp: %w", err)
		}
		rec.Timestamp = ts
	case strings.HasPrefix(line, prefixSource):
		rec.SourceFile = strings.TrimPrefix(line, prefixSource)
	case strings.HasPrefix(line, prefixLines):
		n, err := strconv.Atoi(strings.TrimPrefix(line, prefixLines))
		if err != nil {
			return fmt.Errorf("bad line count: %w", err)
		}
		rec.LineCount = n
	case strings.HasPrefix(line, prefixBackend):
		rec.Backend = strings.TrimPrefix(line, prefixBackend)
	case strings.HasPrefix(line, prefixModel):
		rec.Model = strings.TrimPrefix(line, prefixModel)
	default:
		return fmt.Errorf("unexpected header %q", line)
	}
	return nil
}

// Compile-time check that FileWriter implements Writer.
var _ Writer = (*FileWriter)(nil)
