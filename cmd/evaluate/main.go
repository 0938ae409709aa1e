package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"voxelmatch.ai/internal/persistence/dataset"
	"voxelmatch.ai/internal/persistence/indexdb"
	persistlog "voxelmatch.ai/internal/persistence/log"
	"voxelmatch.ai/internal/sim/catalogs"
	"voxelmatch.ai/internal/sim/grid"
	"voxelmatch.ai/internal/sim/tasks"
	"voxelmatch.ai/internal/sim/zone"
)

func main() {
	_ = godotenv.Load(".env")

	var (
		datasetPath = flag.String("dataset", "", "task file (.json or .json.zst)")
		candPath    = flag.String("candidate", "", "candidate structure: block list or RLE dense grid (.json or .json.zst)")
		turn        = flag.Int("turn", 0, "dialogue turn to evaluate (0 = sample one with -seed)")
		seed        = flag.Int64("seed", 1337, "seed for turn sampling")
		step        = flag.Uint64("step", 0, "simulation step recorded with the score")
		zonePath    = flag.String("zone", envOr("VM_ZONE", ""), "path to zone.yaml (default: 9x11x11 zone)")
		blocksPath  = flag.String("blocks", envOr("VM_BLOCKS", ""), "path to blocks.json (default: built-in palette)")
		dbPath      = flag.String("db", envOr("VM_DB", ""), "sqlite index path (empty to disable)")
		logsDir     = flag.String("logs", envOr("VM_LOGS", ""), "score log directory (empty to disable)")
		run         = flag.String("run", envOr("VM_RUN", "default"), "run id recorded in the index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[evaluate] ", log.LstdFlags|log.Lmicroseconds)

	if *datasetPath == "" || *candPath == "" {
		fmt.Fprintln(os.Stderr, "missing -dataset or -candidate")
		os.Exit(2)
	}

	zcfg, err := zone.Load(*zonePath)
	if err != nil {
		logger.Fatalf("load zone: %v", err)
	}
	cats, err := catalogs.LoadBlocks(*blocksPath)
	if err != nil {
		logger.Fatalf("load blocks: %v", err)
	}

	f, err := dataset.Load(*datasetPath)
	if err != nil {
		logger.Fatalf("load dataset: %v", err)
	}
	if err := f.CheckPalette(cats); err != nil {
		logger.Fatalf("dataset: %v", err)
	}
	seq, err := f.Subtasks(zcfg.Size, rand.New(rand.NewSource(*seed)))
	if err != nil {
		logger.Fatalf("build subtasks: %v", err)
	}
	task := seq.Current()
	if *turn != 0 {
		if task, err = seq.SetTask(*turn); err != nil {
			logger.Fatalf("set task: %v", err)
		}
	}
	turnID, _ := seq.TurnID()

	rep, err := dataset.LoadBlocks(*candPath, zcfg.Size)
	if err != nil {
		logger.Fatalf("load candidate: %v", err)
	}
	cand, err := grid.Densify(zcfg.Size, rep)
	if err != nil {
		logger.Fatalf("candidate: %v", err)
	}

	entry, err := task.Evaluate(f.TaskID, turnID, *step, cand)
	if err != nil {
		logger.Fatalf("evaluate: %v", err)
	}
	logger.Printf("task=%s turn=%d/%d zone=%s target=%d full=%d [%s]",
		f.TaskID, turnID, seq.Turns()-1, zcfg.Size, task.TargetSize(), task.FullSize(), composition(cats, task))
	fmt.Printf("score=%d/%d progress=%.3f rotation=%d offset=(%d,%d)\n",
		entry.Score, entry.TargetSize, entry.Progress(),
		entry.Alignment.Rotation, entry.Alignment.Offset.DX, entry.Alignment.Offset.DZ)

	if dir := strings.TrimSpace(*logsDir); dir != "" {
		sl := persistlog.NewScoreLogger(dir)
		if err := sl.WriteScore(entry); err != nil {
			logger.Printf("score log: %v", err)
		}
		if err := sl.Close(); err != nil {
			logger.Printf("score log close: %v", err)
		}
	}
	if p := strings.TrimSpace(*dbPath); p != "" {
		idx, err := indexdb.OpenSQLite(p)
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		idx.RecordTask(f.TaskID, turnID, task)
		idx.RecordScore(*run, entry)
		if st := idx.Stats(); st.DropTaskTotal+st.DropScoreTotal > 0 {
			logger.Printf("index dropped %d task and %d score rows", st.DropTaskTotal, st.DropScoreTotal)
		}
		if err := idx.Close(); err != nil {
			logger.Printf("close index: %v", err)
		}
	}
}

// composition summarises the target's block types, e.g. "BLUE=2 RED=1".
func composition(cats catalogs.BlockCatalog, task *tasks.Task) string {
	counts := map[string]int{}
	for _, b := range grid.Sparsify(task.TargetGrid(0)) {
		counts[cats.Name(b.ID)]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%d", name, counts[name]))
	}
	return strings.Join(parts, " ")
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
