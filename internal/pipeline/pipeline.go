// Package pipeline serves the externally trained preprocessing transformer and
// regressor. Both are loaded once and are read-only afterwards.
package pipeline

import (
	"fmt"
	"time"

	"github.com/OldStager01/getaround-pricing/pkg/models"
)

type Config struct {
	PreprocessorPath string
	RegressorPath    string
}

type Pipeline struct {
	preprocessor *Preprocessor
	regressor    *Regressor
	loadedAt     time.Time
}

type Info struct {
	PreprocessorVersion string        `json:"preprocessor_version"`
	RegressorVersion    string        `json:"regressor_version"`
	RegressorKind       RegressorKind `json:"regressor_kind"`
	Features            int           `json:"features"`
	Trees               int           `json:"trees,omitempty"`
	LoadedAt            time.Time     `json:"loaded_at"`
}

func Load(cfg Config) (*Pipeline, error) {
	pre, err := LoadPreprocessor(cfg.PreprocessorPath)
	if err != nil {
		return nil, err
	}

	reg, err := LoadRegressor(cfg.RegressorPath)
	if err != nil {
		return nil, err
	}

	return New(pre, reg)
}

func New(pre *Preprocessor, reg *Regressor) (*Pipeline, error) {
	if pre == nil || reg == nil {
		return nil, fmt.Errorf("%w: preprocessor and regressor are both required", ErrArtifactUnavailable)
	}
	if pre.Width() != reg.NFeatures {
		return nil, fmt.Errorf("%w: preprocessor emits %d features, regressor expects %d",
			ErrArtifactUnavailable, pre.Width(), reg.NFeatures)
	}

	return &Pipeline{
		preprocessor: pre,
		regressor:    reg,
		loadedAt:     time.Now().UTC(),
	}, nil
}

// Predict runs an already normalized record through both artifacts.
func (p *Pipeline) Predict(f models.CarFeatures) (float64, error) {
	x, err := p.preprocessor.Transform(f)
	if err != nil {
		return 0, err
	}
	return p.regressor.Predict(x)
}

func (p *Pipeline) Preprocessor() *Preprocessor {
	return p.preprocessor
}

func (p *Pipeline) Info() Info {
	return Info{
		PreprocessorVersion: p.preprocessor.Version,
		RegressorVersion:    p.regressor.Version,
		RegressorKind:       p.regressor.Kind,
		Features:            p.regressor.NFeatures,
		Trees:               len(p.regressor.Trees),
		LoadedAt:            p.loadedAt,
	}
}
