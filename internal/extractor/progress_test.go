package extractor

import (
	"bytes"
	"testing"
)

func TestProgressWriterReportsMonotonicPercent(t *testing.T) {
	var buf bytes.Buffer
	var reports []float64

	pw := newProgressWriter(&buf, 100, func(p float64) {
		reports = append(reports, p)
	})

	chunk := make([]byte, 10)
	for i := 0; i < 10; i++ {
		if _, err := pw.Write(chunk); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	if len(reports) == 0 {
		t.Fatal("expected progress reports")
	}

	for i := 1; i < len(reports); i++ {
		if reports[i] < reports[i-1] {
			t.Errorf("progress went backwards: %f after %f", reports[i], reports[i-1])
		}
	}

	last := reports[len(reports)-1]
	if last != 100 {
		t.Errorf("expected final report 100, got %f", last)
	}
}

func TestProgressWriterClampsOvershoot(t *testing.T) {
	var buf bytes.Buffer
	var last float64

	pw := newProgressWriter(&buf, 50, func(p float64) { last = p })

	if _, err := pw.Write(make([]byte, 80)); err != nil {
		t.Fatalf("write: %v", err)
	}

	if last != 100 {
		t.Errorf("expected clamped 100, got %f", last)
	}
}

func TestProgressWriterUnknownTotal(t *testing.T) {
	var buf bytes.Buffer
	called := false

	pw := newProgressWriter(&buf, -1, func(p float64) { called = true })

	if _, err := pw.Write(make([]byte, 100)); err != nil {
		t.Fatalf("write: %v", err)
	}

	if called {
		t.Error("expected no reports with unknown total")
	}

	if buf.Len() != 100 {
		t.Errorf("expected 100 bytes written through, got %d", buf.Len())
	}
}

func TestProgressWriterNilCallback(t *testing.T) {
	var buf bytes.Buffer
	pw := newProgressWriter(&buf, 10, nil)

	if _, err := pw.Write(make([]byte, 10)); err != nil {
		t.Fatalf("write with nil callback: %v", err)
	}
}
