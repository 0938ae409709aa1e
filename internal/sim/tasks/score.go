package tasks

import "voxelmatch.ai/internal/sim/grid"

// ScoreEntry records one candidate scored against a task.
type ScoreEntry struct {
	TaskID     string    `json:"task_id"`
	Turn       int       `json:"turn"`
	Step       uint64    `json:"step"`
	Score      int       `json:"score"`
	TargetSize int       `json:"target_size"`
	FullSize   int       `json:"full_size"`
	Alignment  Alignment `json:"alignment"`
	Blocks     [][4]int  `json:"blocks"`
}

// Progress is Score/TargetSize; an empty target counts as complete.
func (e ScoreEntry) Progress() float64 {
	if e.TargetSize == 0 {
		return 1
	}
	return float64(e.Score) / float64(e.TargetSize)
}

// Evaluate scores candidate and captures it as a ScoreEntry.
func (t *Task) Evaluate(taskID string, turn int, step uint64, candidate *grid.Grid) (ScoreEntry, error) {
	a, err := t.BestAlignment(candidate)
	if err != nil {
		return ScoreEntry{}, err
	}
	return ScoreEntry{
		TaskID:     taskID,
		Turn:       turn,
		Step:       step,
		Score:      a.Score,
		TargetSize: t.targetSize,
		FullSize:   t.fullSize,
		Alignment:  a,
		Blocks:     grid.Sparsify(candidate).Tuples(),
	}, nil
}
