package log

import (
	"path/filepath"
	"testing"
	"time"

	"voxelmatch.ai/internal/sim/tasks"
)

func TestScoreLogger_RotatesHourlyAndReadsBack(t *testing.T) {
	dir := t.TempDir()
	l := NewScoreLogger(dir)
	clock := time.Date(2026, 3, 1, 10, 59, 0, 0, time.UTC)
	l.w.now = func() time.Time { return clock }

	entries := []tasks.ScoreEntry{
		{TaskID: "c1", Turn: 1, Step: 1, Score: 1, TargetSize: 1, Blocks: [][4]int{{0, 0, 0, 1}}},
		{TaskID: "c1", Turn: 1, Step: 2, Score: 0, TargetSize: 1},
		{TaskID: "c2", Turn: 3, Step: 3, Score: 2, TargetSize: 4},
	}
	for i, e := range entries {
		if i == 2 {
			clock = clock.Add(2 * time.Minute)
		}
		if err := l.WriteScore(e); err != nil {
			t.Fatalf("WriteScore: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	files, err := ListScoreFiles(dir)
	if err != nil {
		t.Fatalf("ListScoreFiles: %v", err)
	}
	want := []string{
		filepath.Join(dir, "scores-2026-03-01-10.jsonl.zst"),
		filepath.Join(dir, "scores-2026-03-01-11.jsonl.zst"),
	}
	if len(files) != len(want) || files[0] != want[0] || files[1] != want[1] {
		t.Fatalf("files=%v want %v", files, want)
	}

	var got []tasks.ScoreEntry
	for _, f := range files {
		if err := ReadScores(f, func(e tasks.ScoreEntry) error {
			got = append(got, e)
			return nil
		}); err != nil {
			t.Fatalf("ReadScores: %v", err)
		}
	}
	if len(got) != len(entries) {
		t.Fatalf("read %d entries want %d", len(got), len(entries))
	}
	for i := range entries {
		if got[i].TaskID != entries[i].TaskID || got[i].Step != entries[i].Step || got[i].Score != entries[i].Score {
			t.Fatalf("entry %d: got %+v want %+v", i, got[i], entries[i])
		}
	}
	if got[0].Blocks[0] != [4]int{0, 0, 0, 1} {
		t.Fatalf("blocks=%v", got[0].Blocks)
	}
}
