package main

import (
	"strings"
	"testing"

	"voxelmatch.ai/internal/sim/grid"
	"voxelmatch.ai/internal/sim/tasks"
	"voxelmatch.ai/internal/sim/zone"
)

func TestRescorer_Check(t *testing.T) {
	seq := []grid.Representation{
		grid.Sparse{},
		grid.Sparse{{X: 0, Y: 0, Z: 0, ID: 1}},
		grid.Sparse{{X: 0, Y: 0, Z: 0, ID: 1}, {X: 1, Y: 0, Z: 0, ID: 2}},
	}
	s, err := tasks.NewSubtasks(zone.Default, nil, seq, nil)
	if err != nil {
		t.Fatalf("NewSubtasks: %v", err)
	}
	r := &rescorer{size: zone.Default, taskID: "c9", seq: s, byTurn: map[int]*tasks.Task{}}

	ok := tasks.ScoreEntry{TaskID: "c9", Turn: 2, Step: 1, Score: 2, Blocks: [][4]int{{0, 0, 0, 1}, {1, 0, 0, 2}}}
	if err := r.check(ok); err != nil {
		t.Fatalf("check: %v", err)
	}
	if err := r.check(tasks.ScoreEntry{TaskID: "other", Turn: 1}); err != nil {
		t.Fatalf("check other task: %v", err)
	}
	if r.checked != 1 || r.skipped != 1 {
		t.Fatalf("checked=%d skipped=%d", r.checked, r.skipped)
	}

	bad := ok
	bad.Step = 2
	bad.Score = 1
	err = r.check(bad)
	if err == nil || !strings.Contains(err.Error(), "score mismatch") {
		t.Fatalf("expected score mismatch, got %v", err)
	}
}
