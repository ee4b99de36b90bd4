package app

import (
	"testing"

	"photocrawl/internal/crawl"
)

func TestNewOperation(t *testing.T) {
	op := NewOperation("scan", "/photos")

	if op.Name != "scan" || op.Parameters != "/photos" {
		t.Errorf("op = %+v", op)
	}
	if op.Status != "success" {
		t.Errorf("Status = %q, want success", op.Status)
	}
	if op.Persisted() {
		t.Error("new operation reports Persisted() = true")
	}

	op.Fail()
	if op.Status != "error" {
		t.Errorf("Status after Fail() = %q, want error", op.Status)
	}
}

func TestOperation_Persisted(t *testing.T) {
	tests := []struct {
		name string
		id   int64
		want bool
	}{
		{name: "not persisted when ID is 0", id: 0, want: false},
		{name: "persisted when ID is positive", id: 1, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := &Operation{ID: tt.id}
			if got := op.Persisted(); got != tt.want {
				t.Errorf("Persisted() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOperation_Run(t *testing.T) {
	op := NewOperation("scan", "/photos")
	op.ID = 7
	op.Counts = crawl.Counts{Copied: 3, Replaced: 1, SkippedDuplicate: 4, SkippedInferior: 2, SkippedDerived: 5, Failed: 6}

	r := op.Run()
	if r.ID != 7 || r.Operation != "scan" || r.Status != "success" {
		t.Errorf("Run() = %+v", r)
	}
	if r.Copied != 3 || r.Replaced != 1 || r.SkippedDuplicate != 4 || r.SkippedInferior != 2 || r.SkippedDerived != 5 || r.Failed != 6 {
		t.Errorf("Run() counts = %+v", r)
	}
}
