package tasks

import (
	"testing"

	"voxelmatch.ai/internal/sim/grid"
)

func TestEvaluate(t *testing.T) {
	target := single(toy, 0, 0, 7)
	target.Set(0, 0, 1, 2)
	task := mustTask(t, toy, target)

	cand := single(toy, 0, 0, 7)
	e, err := task.Evaluate("c7", 1, 12, cand)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if e.TaskID != "c7" || e.Turn != 1 || e.Step != 12 {
		t.Fatalf("entry ids: %+v", e)
	}
	if e.Score != 1 || e.TargetSize != 2 || e.FullSize != 2 {
		t.Fatalf("entry scores: %+v", e)
	}
	if e.Progress() != 0.5 {
		t.Fatalf("progress=%v want 0.5", e.Progress())
	}
	// Toy zone centre is (1, 1); voxel (x=0, z=0) is (-1, -1) relative.
	if len(e.Blocks) != 1 || e.Blocks[0] != [4]int{-1, 0, -1, 7} {
		t.Fatalf("blocks=%v", e.Blocks)
	}

	back, err := grid.Densify(toy, grid.FromTuples(e.Blocks))
	if err != nil {
		t.Fatalf("Densify: %v", err)
	}
	if got := score(t, task, back); got != e.Score {
		t.Fatalf("re-scored %d want %d", got, e.Score)
	}
}

func TestScoreEntry_ProgressEmptyTarget(t *testing.T) {
	if p := (ScoreEntry{}).Progress(); p != 1 {
		t.Fatalf("progress=%v want 1", p)
	}
}
