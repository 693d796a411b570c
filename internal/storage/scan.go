package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"chaincodec/internal/model"
)

const maxLineSize = 10 * 1024 * 1024

// ScanRawEvents reads one RawEvent per non-empty line. fn receives the
// zero-based index of the event among non-empty lines; a line that does not
// parse is passed with a non-nil parseErr. Returning an error from fn stops
// the scan.
func ScanRawEvents(r io.Reader, fn func(index int, raw model.RawEvent, parseErr error) error) error {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, maxLineSize)

	index := 0
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var raw model.RawEvent
		var parseErr error
		if err := json.Unmarshal(line, &raw); err != nil {
			parseErr = model.InvalidRawEvent("record %d: %v", index, err)
		}
		if err := fn(index, raw, parseErr); err != nil {
			return err
		}
		index++
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}
	return nil
}
