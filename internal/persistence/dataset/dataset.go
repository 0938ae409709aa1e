package dataset

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"voxelmatch.ai/internal/sim/catalogs"
	"voxelmatch.ai/internal/sim/grid"
	"voxelmatch.ai/internal/sim/tasks"
	"voxelmatch.ai/internal/sim/zone"
)

//go:embed task.schema.json
var taskSchemaJSON []byte

//go:embed blocks.schema.json
var blocksSchemaJSON []byte

// File is one staged build: the dialogue and the structure after each turn.
// Blocks are [x, y, z, code] with x and z relative to the zone centre.
type File struct {
	TaskID     string     `json:"task_id"`
	Dialog     []*string  `json:"dialog,omitempty"`
	Structures [][][4]int `json:"structures"`
}

// BlocksFile holds a single structure, typically a candidate build, either
// as a block list or as an RLE-encoded dense grid (see grid.EncodeRLE).
type BlocksFile struct {
	Blocks [][4]int `json:"blocks,omitempty"`
	Dense  string   `json:"dense,omitempty"`
}

const (
	taskSchemaURL   = "https://voxelmatch.ai/schemas/task.schema.json"
	blocksSchemaURL = "https://voxelmatch.ai/schemas/blocks.schema.json"
)

var (
	schemaOnce   sync.Once
	taskSchema   *jsonschema.Schema
	blocksSchema *jsonschema.Schema
	schemaErr    error
)

func schemas() (*jsonschema.Schema, *jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(taskSchemaURL, bytes.NewReader(taskSchemaJSON)); err != nil {
			schemaErr = err
			return
		}
		if err := c.AddResource(blocksSchemaURL, bytes.NewReader(blocksSchemaJSON)); err != nil {
			schemaErr = err
			return
		}
		if taskSchema, schemaErr = c.Compile(taskSchemaURL); schemaErr != nil {
			return
		}
		blocksSchema, schemaErr = c.Compile(blocksSchemaURL)
	})
	return taskSchema, blocksSchema, schemaErr
}

// Load reads a task file (.json or .json.zst) and validates it.
func Load(path string) (File, error) {
	var f File
	raw, err := readFile(path)
	if err != nil {
		return f, err
	}
	ts, _, err := schemas()
	if err != nil {
		return f, fmt.Errorf("compile schema: %w", err)
	}
	if err := decodeValidated(raw, ts, &f); err != nil {
		return f, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return f, nil
}

// LoadBlocks reads a structure file (.json or .json.zst). Dense grids are
// decoded for the given zone size.
func LoadBlocks(path string, size zone.Size) (grid.Representation, error) {
	raw, err := readFile(path)
	if err != nil {
		return nil, err
	}
	_, bs, err := schemas()
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	var bf BlocksFile
	if err := decodeValidated(raw, bs, &bf); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if bf.Dense != "" {
		g, err := grid.DecodeRLE(size, bf.Dense)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		return grid.Dense{Grid: g}, nil
	}
	return grid.FromTuples(bf.Blocks), nil
}

func decodeValidated(raw []byte, s *jsonschema.Schema, out any) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return nil
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if !strings.HasSuffix(path, ".zst") {
		return io.ReadAll(f)
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return io.ReadAll(dec)
}

// Write stores v as JSON, zstd-compressed when path ends in .zst.
func Write(path string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if !strings.HasSuffix(path, ".zst") {
		_, err = f.Write(b)
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	if _, err := enc.Write(b); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

func (f File) Representations() []grid.Representation {
	out := make([]grid.Representation, 0, len(f.Structures))
	for _, s := range f.Structures {
		out = append(out, grid.FromTuples(s))
	}
	return out
}

// Subtasks builds the staged task sequence; rng drives Sample.
func (f File) Subtasks(size zone.Size, rng *rand.Rand) (*tasks.Subtasks, error) {
	s, err := tasks.NewSubtasks(size, f.Dialog, f.Representations(), rng)
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", f.TaskID, err)
	}
	return s, nil
}

// CheckPalette rejects block codes the catalog does not define.
func (f File) CheckPalette(c catalogs.BlockCatalog) error {
	for turn, s := range f.Structures {
		for _, b := range s {
			if err := c.Check(int32(b[3])); err != nil {
				return fmt.Errorf("task %s turn %d: %w", f.TaskID, turn, err)
			}
		}
	}
	return nil
}
