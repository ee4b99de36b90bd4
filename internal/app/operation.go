package app

import (
	"photocrawl/internal/crawl"
	"photocrawl/internal/model"
)

// Operation tracks a CLI command that may mutate the catalog.
// Operations start in memory with ID=0. Only catalog-mutating commands
// persist them as runs, which gives them an ID.
type Operation struct {
	ID         int64
	Name       string
	Parameters string
	Status     string // "success" or "error"
	Counts     crawl.Counts
}

func NewOperation(name, parameters string) *Operation {
	return &Operation{Name: name, Parameters: parameters, Status: "success"}
}

// Persisted returns true if this operation has been saved as a run.
func (op *Operation) Persisted() bool {
	return op.ID != 0
}

// Fail marks the operation as failed.
func (op *Operation) Fail() {
	op.Status = "error"
}

// Run converts the operation to the row stored in the runs table.
func (op *Operation) Run() *model.Run {
	return &model.Run{
		ID:               op.ID,
		Operation:        op.Name,
		Parameters:       op.Parameters,
		Status:           op.Status,
		Copied:           op.Counts.Copied,
		Replaced:         op.Counts.Replaced,
		SkippedDuplicate: op.Counts.SkippedDuplicate,
		SkippedInferior:  op.Counts.SkippedInferior,
		SkippedDerived:   op.Counts.SkippedDerived,
		Failed:           op.Counts.Failed,
	}
}
