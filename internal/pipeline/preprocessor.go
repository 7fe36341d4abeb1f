package pipeline

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/OldStager01/getaround-pricing/pkg/models"
)

type BlockType string

const (
	BlockNumeric     BlockType = "numeric"
	BlockCategorical BlockType = "categorical"
	BlockBoolean     BlockType = "boolean"
)

const (
	HandleUnknownError  = "error"
	HandleUnknownIgnore = "ignore"
)

// Block encodes one input column into one or more output features.
type Block struct {
	Type          BlockType `json:"type"`
	Name          string    `json:"name"`
	Mean          float64   `json:"mean,omitempty"`
	Scale         float64   `json:"scale,omitempty"`
	Categories    []string  `json:"categories,omitempty"`
	HandleUnknown string    `json:"handle_unknown,omitempty"`

	index map[string]int
}

func (b *Block) width() int {
	if b.Type == BlockCategorical {
		return len(b.Categories)
	}
	return 1
}

// Preprocessor turns a normalized record into the regressor's feature vector.
type Preprocessor struct {
	Version string  `json:"version"`
	Blocks  []Block `json:"blocks"`

	width int
}

func LoadPreprocessor(path string) (*Preprocessor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrArtifactUnavailable, path, err)
	}

	var p Preprocessor
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrArtifactUnavailable, path, err)
	}

	if err := p.init(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifactUnavailable, path, err)
	}

	return &p, nil
}

// NewPreprocessor validates blocks and builds the category indexes.
func NewPreprocessor(version string, blocks []Block) (*Preprocessor, error) {
	p := &Preprocessor{Version: version, Blocks: blocks}
	if err := p.init(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactUnavailable, err)
	}
	return p, nil
}

func (p *Preprocessor) init() error {
	if len(p.Blocks) == 0 {
		return fmt.Errorf("preprocessor has no blocks")
	}

	p.width = 0
	for i := range p.Blocks {
		b := &p.Blocks[i]

		switch b.Type {
		case BlockNumeric:
			if _, ok := numericColumns[b.Name]; !ok {
				return fmt.Errorf("block %d: %q is not a numeric column", i, b.Name)
			}
			if b.Scale == 0 {
				b.Scale = 1
			}

		case BlockCategorical:
			if _, ok := categoricalColumns[b.Name]; !ok {
				return fmt.Errorf("block %d: %q is not a categorical column", i, b.Name)
			}
			if len(b.Categories) == 0 {
				return fmt.Errorf("block %d: %q has no categories", i, b.Name)
			}
			switch b.HandleUnknown {
			case "":
				b.HandleUnknown = HandleUnknownError
			case HandleUnknownError, HandleUnknownIgnore:
			default:
				return fmt.Errorf("block %d: invalid handle_unknown %q", i, b.HandleUnknown)
			}
			b.index = make(map[string]int, len(b.Categories))
			for j, c := range b.Categories {
				if _, dup := b.index[c]; dup {
					return fmt.Errorf("block %d: duplicate category %q", i, c)
				}
				b.index[c] = j
			}

		case BlockBoolean:
			if _, ok := booleanColumns[b.Name]; !ok {
				return fmt.Errorf("block %d: %q is not a boolean column", i, b.Name)
			}

		default:
			return fmt.Errorf("block %d: unknown block type %q", i, b.Type)
		}

		p.width += b.width()
	}

	return nil
}

// Width is the length of every vector Transform produces.
func (p *Preprocessor) Width() int {
	return p.width
}

// Categories returns the vocabulary the preprocessor accepts for a categorical column.
func (p *Preprocessor) Categories(column string) []string {
	for _, b := range p.Blocks {
		if b.Type == BlockCategorical && b.Name == column {
			out := make([]string, len(b.Categories))
			copy(out, b.Categories)
			return out
		}
	}
	return nil
}

func (p *Preprocessor) Transform(f models.CarFeatures) ([]float64, error) {
	out := make([]float64, p.width)
	offset := 0

	for i := range p.Blocks {
		b := &p.Blocks[i]

		switch b.Type {
		case BlockNumeric:
			out[offset] = (numericColumns[b.Name](f) - b.Mean) / b.Scale

		case BlockCategorical:
			value := categoricalColumns[b.Name](f)
			j, ok := b.index[value]
			if ok {
				out[offset+j] = 1
			} else if b.HandleUnknown == HandleUnknownError {
				return nil, fmt.Errorf("%w: %s=%q", ErrUnknownCategory, b.Name, value)
			}

		case BlockBoolean:
			if booleanColumns[b.Name](f) {
				out[offset] = 1
			}
		}

		offset += b.width()
	}

	return out, nil
}
