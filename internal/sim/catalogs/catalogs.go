package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
)

var ErrUnknownBlock = errors.New("unknown block type")

type BlockCatalog struct {
	Palette []BlockDef
	ByName  map[string]BlockDef
	ByCode  map[int32]BlockDef
	Digest  string
}

type BlockDef struct {
	ID    string `json:"id"`
	Code  int32  `json:"code"`
	Color string `json:"color,omitempty"`
}

// DefaultBlocks is the IGLU palette: air plus six coloured blocks.
func DefaultBlocks() BlockCatalog {
	c, err := parseBlocks([]byte(defaultBlocksJSON))
	if err != nil {
		panic(err)
	}
	return c
}

const defaultBlocksJSON = `[
  {"id": "AIR", "code": 0},
  {"id": "BLUE", "code": 1, "color": "#2a6fdb"},
  {"id": "GREEN", "code": 2, "color": "#3fa34d"},
  {"id": "RED", "code": 3, "color": "#d64541"},
  {"id": "ORANGE", "code": 4, "color": "#f08a24"},
  {"id": "PURPLE", "code": 5, "color": "#8e44ad"},
  {"id": "YELLOW", "code": 6, "color": "#f1c40f"}
]`

// LoadBlocks reads blocks.json. An empty path yields DefaultBlocks.
func LoadBlocks(path string) (BlockCatalog, error) {
	if path == "" {
		return DefaultBlocks(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return BlockCatalog{}, err
	}
	return parseBlocks(raw)
}

func parseBlocks(raw []byte) (BlockCatalog, error) {
	var out BlockCatalog
	var defs []BlockDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return out, fmt.Errorf("blocks.json: %w", err)
	}
	out.ByName = make(map[string]BlockDef, len(defs))
	out.ByCode = make(map[int32]BlockDef, len(defs))
	for _, d := range defs {
		if d.ID == "" {
			return out, fmt.Errorf("blocks.json: empty id")
		}
		if _, dup := out.ByName[d.ID]; dup {
			return out, fmt.Errorf("blocks.json: duplicate id %s", d.ID)
		}
		if _, dup := out.ByCode[d.Code]; dup {
			return out, fmt.Errorf("blocks.json: duplicate code %d", d.Code)
		}
		out.ByName[d.ID] = d
		out.ByCode[d.Code] = d
	}
	if air, ok := out.ByName["AIR"]; !ok || air.Code != 0 {
		return out, fmt.Errorf("blocks.json: AIR must exist with code 0")
	}

	out.Palette = make([]BlockDef, 0, len(defs))
	for _, d := range out.ByCode {
		out.Palette = append(out.Palette, d)
	}
	sort.Slice(out.Palette, func(i, j int) bool { return out.Palette[i].Code < out.Palette[j].Code })
	palJSON, _ := json.Marshal(out.Palette)
	out.Digest = sha256Hex(palJSON)
	return out, nil
}

// Check returns ErrUnknownBlock when code is not in the palette.
func (c BlockCatalog) Check(code int32) error {
	if _, ok := c.ByCode[code]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBlock, code)
	}
	return nil
}

// Name returns the block id for code, or its number when unknown.
func (c BlockCatalog) Name(code int32) string {
	if d, ok := c.ByCode[code]; ok {
		return d.ID
	}
	return fmt.Sprintf("#%d", code)
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
