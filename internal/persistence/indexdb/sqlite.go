package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"voxelmatch.ai/internal/sim/tasks"
)

// SQLiteIndex is a queryable secondary index of tasks and scores. Writes
// are queued and applied by a single writer goroutine; the compressed score
// logs remain the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropTask  atomic.Uint64
	dropScore atomic.Uint64
}

type Stats struct {
	QueueLen       int    `json:"queue_len"`
	DropTaskTotal  uint64 `json:"drop_task_total"`
	DropScoreTotal uint64 `json:"drop_score_total"`
}

type reqKind int

const (
	reqTask reqKind = iota + 1
	reqScore
)

type req struct {
	kind reqKind

	task  taskRow
	score scoreRow
}

type taskRow struct {
	TaskID     string
	Turn       int
	TargetSize int
	FullSize   int
	Admissible [4]int
	Chat       string
}

type scoreRow struct {
	Run        string
	Entry      tasks.ScoreEntry
	RecordedAt string
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	return openSQLite(path, 65536)
}

func openSQLite(path string, queue int) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, queue),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1');`,
		`CREATE TABLE IF NOT EXISTS tasks (
			task_id TEXT NOT NULL,
			turn INTEGER NOT NULL,
			target_size INTEGER NOT NULL,
			full_size INTEGER NOT NULL,
			admissible_json TEXT NOT NULL,
			chat TEXT NOT NULL,
			PRIMARY KEY (task_id, turn)
		);`,
		`CREATE TABLE IF NOT EXISTS scores (
			run TEXT NOT NULL,
			task_id TEXT NOT NULL,
			turn INTEGER NOT NULL,
			step INTEGER NOT NULL,
			score INTEGER NOT NULL,
			target_size INTEGER NOT NULL,
			rotation INTEGER NOT NULL,
			dx INTEGER NOT NULL,
			dz INTEGER NOT NULL,
			blocks_json TEXT NOT NULL,
			recorded_at TEXT NOT NULL,
			PRIMARY KEY (run, task_id, turn, step)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_scores_task_turn ON scores(task_id, turn, score);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close drains the queue, commits and closes the database.
func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueLen:       len(s.ch),
		DropTaskTotal:  s.dropTask.Load(),
		DropScoreTotal: s.dropScore.Load(),
	}
}

// RecordTask indexes the sizes and admissible offset counts of a task.
func (s *SQLiteIndex) RecordTask(taskID string, turn int, t *tasks.Task) {
	if s == nil || s.closed.Load() || t == nil {
		return
	}
	r := taskRow{
		TaskID:     taskID,
		Turn:       turn,
		TargetSize: t.TargetSize(),
		FullSize:   t.FullSize(),
		Chat:       t.Chat(),
	}
	for rot := range r.Admissible {
		r.Admissible[rot] = len(t.Admissible(rot))
	}
	select {
	case s.ch <- req{kind: reqTask, task: r}:
	default:
		s.dropTask.Add(1)
	}
}

// RecordScore indexes one scored candidate under run. Entries are dropped
// if the writer falls behind.
func (s *SQLiteIndex) RecordScore(run string, e tasks.ScoreEntry) {
	if s == nil || s.closed.Load() {
		return
	}
	r := scoreRow{
		Run:        run,
		Entry:      e,
		RecordedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	select {
	case s.ch <- req{kind: reqScore, score: r}:
	default:
		s.dropScore.Add(1)
	}
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertTask, _ := s.db.Prepare(`INSERT OR REPLACE INTO tasks(task_id,turn,target_size,full_size,admissible_json,chat) VALUES(?,?,?,?,?,?)`)
	insertScore, _ := s.db.Prepare(`INSERT OR REPLACE INTO scores(run,task_id,turn,step,score,target_size,rotation,dx,dz,blocks_json,recorded_at) VALUES(?,?,?,?,?,?,?,?,?,?,?)`)
	defer func() {
		if insertTask != nil {
			_ = insertTask.Close()
		}
		if insertScore != nil {
			_ = insertScore.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqTask:
			t := r.task
			adm, _ := json.Marshal(t.Admissible)
			if insertTask != nil {
				if _, err := tx.Stmt(insertTask).Exec(t.TaskID, t.Turn, t.TargetSize, t.FullSize, string(adm), t.Chat); err != nil {
					rollback()
					continue
				}
				opCount++
			}

		case reqScore:
			e := r.score.Entry
			blocks, _ := json.Marshal(e.Blocks)
			if insertScore != nil {
				if _, err := tx.Stmt(insertScore).Exec(
					r.score.Run,
					e.TaskID,
					e.Turn,
					int64(e.Step),
					e.Score,
					e.TargetSize,
					e.Alignment.Rotation,
					e.Alignment.Offset.DX,
					e.Alignment.Offset.DZ,
					string(blocks),
					r.score.RecordedAt,
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	commit()
}
