package tasks

import (
	"errors"
	"math/rand"
	"testing"

	"voxelmatch.ai/internal/sim/grid"
	"voxelmatch.ai/internal/sim/zone"
)

func strp(s string) *string { return &s }

func stagedSequence() ([]*string, []grid.Representation) {
	dialog := []*string{
		strp("Architect: put a blue block in the middle"),
		nil,
		strp("Architect: now stack a red one on it"),
		strp("Architect: finish with green to the east"),
	}
	seq := []grid.Representation{
		grid.Sparse{},
		grid.Sparse{{X: 0, Y: 0, Z: 0, ID: 1}},
		grid.Sparse{{X: 0, Y: 0, Z: 0, ID: 1}, {X: 0, Y: 1, Z: 0, ID: 3}},
		grid.Sparse{{X: 0, Y: 0, Z: 0, ID: 1}, {X: 0, Y: 1, Z: 0, ID: 3}, {X: 1, Y: 0, Z: 0, ID: 2}},
	}
	return dialog, seq
}

func TestSubtasks_SetTask(t *testing.T) {
	dialog, seq := stagedSequence()
	s, err := NewSubtasks(zone.Default, dialog, seq, rand.New(rand.NewSource(5)))
	if err != nil {
		t.Fatalf("NewSubtasks: %v", err)
	}
	task, err := s.SetTask(2)
	if err != nil {
		t.Fatalf("SetTask: %v", err)
	}
	if s.Current() != task {
		t.Fatalf("SetTask should make the task current")
	}
	if turn, ok := s.TurnID(); !ok || turn != 2 {
		t.Fatalf("TurnID=(%d,%v) want (2,true)", turn, ok)
	}
	if task.TargetSize() != 2 || task.FullSize() != 3 {
		t.Fatalf("sizes target=%d full=%d want 2/3", task.TargetSize(), task.FullSize())
	}
	if want := "Architect: put a blue block in the middle"; task.Chat() != want {
		t.Fatalf("chat=%q want %q", task.Chat(), want)
	}
	start := task.Starting()
	if len(start) != 1 || start[0] != (grid.Block{X: 0, Y: 0, Z: 0, ID: 1}) {
		t.Fatalf("starting=%v", start)
	}

	built, err := grid.Densify(zone.Default, seq[2])
	if err != nil {
		t.Fatalf("Densify: %v", err)
	}
	if got, _ := task.MaximalIntersection(built); got != 2 {
		t.Fatalf("score=%d want 2", got)
	}

	last, err := s.SetTask(3)
	if err != nil {
		t.Fatalf("SetTask(3): %v", err)
	}
	if want := "Architect: put a blue block in the middle\nArchitect: now stack a red one on it"; last.Chat() != want {
		t.Fatalf("chat=%q want %q", last.Chat(), want)
	}
}

func TestSubtasks_SetTaskOutOfRange(t *testing.T) {
	dialog, seq := stagedSequence()
	s, err := NewSubtasks(zone.Default, dialog, seq, nil)
	if err != nil {
		t.Fatalf("NewSubtasks: %v", err)
	}
	for _, turn := range []int{0, -1, 4} {
		if _, err := s.SetTask(turn); !errors.Is(err, ErrTurnOutOfRange) {
			t.Fatalf("SetTask(%d): expected ErrTurnOutOfRange, got %v", turn, err)
		}
	}
}

func TestSubtasks_SampleIsReproducible(t *testing.T) {
	dialog, seq := stagedSequence()
	turns := func(seed int64) []int {
		s, err := NewSubtasks(zone.Default, dialog, seq, rand.New(rand.NewSource(seed)))
		if err != nil {
			t.Fatalf("NewSubtasks: %v", err)
		}
		var out []int
		for i := 0; i < 20; i++ {
			if _, err := s.Sample(); err != nil {
				t.Fatalf("Sample: %v", err)
			}
			turn, ok := s.TurnID()
			if !ok || turn < 1 || turn > 3 {
				t.Fatalf("sampled turn %d (ok=%v) outside [1,3]", turn, ok)
			}
			out = append(out, turn)
		}
		return out
	}
	a, b := turns(99), turns(99)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different turns: %v vs %v", a, b)
		}
	}
}

func TestSubtasks_SetTaskObj(t *testing.T) {
	dialog, seq := stagedSequence()
	s, err := NewSubtasks(zone.Default, dialog, seq, nil)
	if err != nil {
		t.Fatalf("NewSubtasks: %v", err)
	}
	ext := mustTask(t, zone.Default, grid.New(zone.Default))
	if got := s.SetTaskObj(ext); got != ext || s.Current() != ext {
		t.Fatalf("SetTaskObj should make the given task current")
	}
	if _, ok := s.TurnID(); ok {
		t.Fatalf("TurnID should be cleared after SetTaskObj")
	}
}

func TestNewSubtasks_Errors(t *testing.T) {
	if _, err := NewSubtasks(zone.Default, nil, []grid.Representation{grid.Sparse{}}, nil); !errors.Is(err, ErrTooFewTurns) {
		t.Fatalf("expected ErrTooFewTurns, got %v", err)
	}
	seq := []grid.Representation{grid.Sparse{}, grid.Sparse{{X: 9, Y: 0, Z: 0, ID: 1}}}
	if _, err := NewSubtasks(zone.Default, nil, seq, nil); !errors.Is(err, grid.ErrOutOfZone) {
		t.Fatalf("expected ErrOutOfZone, got %v", err)
	}
}

func TestSingle(t *testing.T) {
	task := mustTask(t, toy, single(toy, 1, 1, 2))
	s := NewSingle(task)
	if got, err := s.Sample(); err != nil || got != task {
		t.Fatalf("Sample=(%p,%v)", got, err)
	}
	if _, err := s.SetTask(1); !errors.Is(err, ErrTurnOutOfRange) {
		t.Fatalf("expected ErrTurnOutOfRange, got %v", err)
	}
	other := mustTask(t, toy, grid.New(toy))
	s.SetTaskObj(other)
	if s.Current() != other {
		t.Fatalf("SetTaskObj should replace the current task")
	}
	if got, _ := s.SetTask(0); got != task || s.Current() != task {
		t.Fatalf("SetTask(0) should restore the wrapped task")
	}
}
