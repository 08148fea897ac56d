package memory

import (
	"context"
	"errors"
	"testing"

	"salonledger/internal/report"
)

func TestSinkKeepsLastWorkbook(t *testing.T) {
	s := New("")
	if s.Name() != "memory" {
		t.Fatalf("default name = %q", s.Name())
	}

	wb := report.Build(nil)
	if err := s.WriteWorkbook(context.Background(), wb); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.WriteWorkbook(context.Background(), wb); err != nil {
		t.Fatalf("write: %v", err)
	}
	last, n := s.Last()
	if n != 2 || len(last.Tables) != len(report.SheetNames) {
		t.Fatalf("Last() = %d tables, %d writes", len(last.Tables), n)
	}

	ref, err := s.WriteWorkbookAs(context.Background(), wb, "subset.xlsx")
	if err != nil || ref != "mem:subset.xlsx" {
		t.Fatalf("WriteWorkbookAs() = %q, %v", ref, err)
	}
	if _, ok := s.File("subset.xlsx"); !ok {
		t.Fatal("subset not recorded")
	}
}

func TestSinkFailWith(t *testing.T) {
	s := New("remote")
	boom := errors.New("boom")
	s.FailWith(boom)

	if err := s.WriteWorkbook(context.Background(), report.Build(nil)); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, n := s.Last(); n != 0 {
		t.Fatalf("failed write counted: %d", n)
	}

	s.FailWith(nil)
	if err := s.WriteWorkbook(context.Background(), report.Build(nil)); err != nil {
		t.Fatalf("write after reset: %v", err)
	}
}
