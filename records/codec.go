package records

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// TimeRecord is one completed run. Records are never edited once created.
type TimeRecord struct {
	Seconds     int
	CompletedAt time.Time
	Difficulty  string
}

// EncodeLine formats a record as `seconds,timestamp,difficulty`.
func EncodeLine(record TimeRecord) string {
	return fmt.Sprintf("%d,%s,%s", record.Seconds, record.CompletedAt.Format(time.RFC3339), record.Difficulty)
}

// DecodeLine parses one persisted line. Lines with fewer than three fields
// or a non-numeric duration are rejected. Fields past the third are ignored.
// An unreadable timestamp keeps the record with a zero CompletedAt.
func DecodeLine(line string) (TimeRecord, bool) {
	parts := strings.Split(strings.TrimRight(line, "\r"), ",")
	if len(parts) < 3 {
		return TimeRecord{}, false
	}

	seconds, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || seconds < 0 {
		return TimeRecord{}, false
	}

	completedAt, _ := time.Parse(time.RFC3339, strings.TrimSpace(parts[1]))

	return TimeRecord{
		Seconds:     seconds,
		CompletedAt: completedAt,
		Difficulty:  parts[2],
	}, true
}

// ReadLines decodes every well-formed line and counts the skipped ones.
// Lines of any length are read; an oversized line is just another malformed
// line.
func ReadLines(r io.Reader) ([]TimeRecord, int, error) {
	var records []TimeRecord
	skipped := 0

	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return records, skipped, err
		}

		if trimmed := strings.TrimSpace(line); trimmed != "" {
			if record, ok := DecodeLine(strings.TrimRight(line, "\n")); ok {
				records = append(records, record)
			} else {
				skipped++
			}
		}

		if err != nil {
			return records, skipped, nil
		}
	}
}

func WriteLines(w io.Writer, records []TimeRecord) error {
	buffered := bufio.NewWriter(w)
	for _, record := range records {
		if _, err := buffered.WriteString(EncodeLine(record) + "\n"); err != nil {
			return err
		}
	}
	return buffered.Flush()
}
