package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"voxelmatch.ai/internal/persistence/dataset"
	persistlog "voxelmatch.ai/internal/persistence/log"
	"voxelmatch.ai/internal/sim/grid"
	"voxelmatch.ai/internal/sim/tasks"
	"voxelmatch.ai/internal/sim/zone"
)

func main() {
	_ = godotenv.Load(".env")

	var (
		logsDir     = flag.String("logs", os.Getenv("VM_LOGS"), "directory containing scores-*.jsonl.zst")
		datasetPath = flag.String("dataset", "", "task file the scores were recorded against")
		zonePath    = flag.String("zone", os.Getenv("VM_ZONE"), "path to zone.yaml (default: 9x11x11 zone)")
	)
	flag.Parse()

	if strings.TrimSpace(*logsDir) == "" || *datasetPath == "" {
		fmt.Fprintln(os.Stderr, "missing -logs or -dataset")
		os.Exit(2)
	}

	zcfg, err := zone.Load(*zonePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load zone:", err)
		os.Exit(1)
	}
	f, err := dataset.Load(*datasetPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load dataset:", err)
		os.Exit(1)
	}
	seq, err := f.Subtasks(zcfg.Size, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "subtasks:", err)
		os.Exit(1)
	}

	files, err := persistlog.ListScoreFiles(*logsDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list scores:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no score files found in", *logsDir)
		os.Exit(1)
	}

	r := &rescorer{size: zcfg.Size, taskID: f.TaskID, seq: seq, byTurn: map[int]*tasks.Task{}}
	for _, path := range files {
		if err := persistlog.ReadScores(path, r.check); err != nil {
			fmt.Fprintln(os.Stderr, "replay:", err)
			os.Exit(1)
		}
	}
	fmt.Printf("replay ok: checked=%d skipped=%d (task=%s)\n", r.checked, r.skipped, f.TaskID)
}

type rescorer struct {
	size   zone.Size
	taskID string
	seq    *tasks.Subtasks
	byTurn map[int]*tasks.Task

	checked int
	skipped int
}

func (r *rescorer) check(e tasks.ScoreEntry) error {
	if e.TaskID != r.taskID {
		r.skipped++
		return nil
	}
	task, ok := r.byTurn[e.Turn]
	if !ok {
		t, err := r.seq.SetTask(e.Turn)
		if err != nil {
			return fmt.Errorf("step %d: %w", e.Step, err)
		}
		task = t
		r.byTurn[e.Turn] = t
	}
	cand, err := grid.Densify(r.size, grid.FromTuples(e.Blocks))
	if err != nil {
		return fmt.Errorf("step %d: %w", e.Step, err)
	}
	got, err := task.MaximalIntersection(cand)
	if err != nil {
		return fmt.Errorf("step %d: %w", e.Step, err)
	}
	if got != e.Score {
		return fmt.Errorf("score mismatch at turn %d step %d: got=%d want=%d", e.Turn, e.Step, got, e.Score)
	}
	r.checked++
	return nil
}
