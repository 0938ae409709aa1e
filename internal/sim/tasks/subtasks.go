package tasks

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"voxelmatch.ai/internal/sim/grid"
	"voxelmatch.ai/internal/sim/zone"
)

var (
	ErrTooFewTurns    = errors.New("structure sequence needs at least two turns")
	ErrTurnOutOfRange = errors.New("turn out of range")
)

// Tasks holds a set of tasks of which one is current.
type Tasks interface {
	// Sample selects a task and makes it current.
	Sample() (*Task, error)
	// SetTask selects the task with the given id and makes it current.
	SetTask(id int) (*Task, error)
	// SetTaskObj makes an externally built task current.
	SetTaskObj(t *Task) *Task
	Current() *Task
}

var (
	_ Tasks = (*Subtasks)(nil)
	_ Tasks = (*Single)(nil)
)

// Subtasks is a staged build: structure i is what exists after dialogue
// turn i, and the last structure is the finished build. Task ids are turns
// in [1, Turns()-1].
type Subtasks struct {
	size   zone.Size
	dialog []*string
	seq    []grid.Representation
	full   *grid.Grid
	rng    *rand.Rand

	turn    int
	hasTurn bool
	current *Task
}

// NewSubtasks samples an initial turn from rng. A nil rng uses a fixed seed.
func NewSubtasks(size zone.Size, dialog []*string, seq []grid.Representation, rng *rand.Rand) (*Subtasks, error) {
	if len(seq) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewTurns, len(seq))
	}
	full, err := grid.Densify(size, seq[len(seq)-1])
	if err != nil {
		return nil, fmt.Errorf("full structure: %w", err)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	s := &Subtasks{
		size:   size,
		dialog: dialog,
		seq:    seq,
		full:   full,
		rng:    rng,
	}
	if _, err := s.Sample(); err != nil {
		return nil, err
	}
	return s, nil
}

// Turns is the number of structures in the sequence.
func (s *Subtasks) Turns() int { return len(s.seq) }

// TurnID returns the turn of the current task; ok is false after SetTaskObj.
func (s *Subtasks) TurnID() (turn int, ok bool) { return s.turn, s.hasTurn }

func (s *Subtasks) Sample() (*Task, error) {
	return s.SetTask(s.rng.Intn(len(s.seq)-1) + 1)
}

func (s *Subtasks) SetTask(turn int) (*Task, error) {
	t, err := s.build(turn)
	if err != nil {
		return nil, err
	}
	s.turn, s.hasTurn = turn, true
	s.current = t
	return t, nil
}

func (s *Subtasks) SetTaskObj(t *Task) *Task {
	s.turn, s.hasTurn = 0, false
	s.current = t
	return t
}

func (s *Subtasks) Current() *Task { return s.current }

func (s *Subtasks) build(turn int) (*Task, error) {
	if turn < 1 || turn >= len(s.seq) {
		return nil, fmt.Errorf("%w: %d not in [1,%d]", ErrTurnOutOfRange, turn, len(s.seq)-1)
	}
	target, err := grid.Densify(s.size, s.seq[turn])
	if err != nil {
		return nil, fmt.Errorf("turn %d: %w", turn, err)
	}
	prev, err := grid.Densify(s.size, s.seq[turn-1])
	if err != nil {
		return nil, fmt.Errorf("turn %d: %w", turn-1, err)
	}
	return New(s.size, target,
		WithChat(s.chatUntil(turn)),
		WithStarting(grid.Sparsify(prev)),
		WithFull(s.full),
	)
}

func (s *Subtasks) chatUntil(turn int) string {
	lines := make([]string, 0, turn)
	for i := 0; i < turn && i < len(s.dialog); i++ {
		if s.dialog[i] != nil {
			lines = append(lines, *s.dialog[i])
		}
	}
	return strings.Join(lines, "\n")
}

// Single wraps one fixed task. Its only id is 0.
type Single struct {
	task    *Task
	current *Task
}

func NewSingle(t *Task) *Single { return &Single{task: t, current: t} }

func (s *Single) Sample() (*Task, error) {
	s.current = s.task
	return s.task, nil
}

func (s *Single) SetTask(id int) (*Task, error) {
	if id != 0 {
		return nil, fmt.Errorf("%w: %d not in [0,0]", ErrTurnOutOfRange, id)
	}
	return s.Sample()
}

func (s *Single) SetTaskObj(t *Task) *Task {
	s.current = t
	return t
}

func (s *Single) Current() *Task { return s.current }
