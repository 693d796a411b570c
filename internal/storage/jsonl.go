package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"chaincodec/internal/model"
)

// JsonlSink appends decoded events to a JSONL file.
type JsonlSink struct {
	mu     sync.Mutex
	writer *Writer
}

var _ Sink = (*JsonlSink)(nil)

// NewJsonlSink opens path, truncating it unless appendMode is set.
func NewJsonlSink(path string, appendMode bool) (*JsonlSink, error) {
	writer, err := NewWriter(path, appendMode)
	if err != nil {
		return nil, err
	}
	return &JsonlSink{writer: writer}, nil
}

// PutEventBatch writes one line per event.
func (s *JsonlSink) PutEventBatch(_ context.Context, events []*model.DecodedEvent) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, event := range events {
		if err := s.writer.Write(event); err != nil {
			return fmt.Errorf("write decoded event: %w", err)
		}
	}
	return s.writer.Flush()
}

func (s *JsonlSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writer.Close()
}

// Writer writes JSON values one per line through a buffer.
type Writer struct {
	file   *os.File
	writer *bufio.Writer
}

// NewWriter creates the parent directory and opens path.
func NewWriter(path string, appendMode bool) (*Writer, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir: %w", err)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	return &Writer{
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

func (w *Writer) Write(value interface{}) error {
	line, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if _, err := w.writer.Write(line); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	return nil
}

func (w *Writer) Flush() error {
	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

func (w *Writer) Close() error {
	if w == nil {
		return nil
	}
	if err := w.writer.Flush(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
