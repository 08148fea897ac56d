package memory

import (
	"context"
	"fmt"
	"sync"

	"salonledger/internal/report"
	ports "salonledger/internal/sheets"
)

// Sink keeps the last workbook written to it. It backs tests and dry runs.
type Sink struct {
	mu     sync.Mutex
	name   string
	last   report.Workbook
	files  map[string]report.Workbook
	writes int
	err    error
}

var _ ports.FileWorkbookWriter = (*Sink)(nil)

func New(name string) *Sink {
	if name == "" {
		name = "memory"
	}
	return &Sink{name: name, files: map[string]report.Workbook{}}
}

func (s *Sink) Name() string { return s.name }

// FailWith makes every following write return err; nil clears it.
func (s *Sink) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *Sink) WriteWorkbook(ctx context.Context, wb report.Workbook) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.last = wb
	s.writes++
	return nil
}

func (s *Sink) WriteWorkbookAs(ctx context.Context, wb report.Workbook, filename string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.files[filename] = wb
	return fmt.Sprintf("mem:%s", filename), nil
}

// Last returns the most recent workbook and how many full writes happened.
func (s *Sink) Last() (report.Workbook, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.writes
}

// File returns a workbook written with WriteWorkbookAs.
func (s *Sink) File(name string) (report.Workbook, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wb, ok := s.files[name]
	return wb, ok
}
