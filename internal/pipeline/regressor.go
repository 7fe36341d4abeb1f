package pipeline

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

type RegressorKind string

const (
	KindLinear           RegressorKind = "linear"
	KindRandomForest     RegressorKind = "random_forest"
	KindGradientBoosting RegressorKind = "gradient_boosting"
)

// Node is one entry of a flattened decision tree. Feature < 0 marks a leaf.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
	Value     float64 `json:"value,omitempty"`
}

type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Regressor maps a feature vector to a price.
type Regressor struct {
	Version      string        `json:"version"`
	Kind         RegressorKind `json:"kind"`
	NFeatures    int           `json:"n_features"`
	Intercept    float64       `json:"intercept,omitempty"`
	Coefficients []float64     `json:"coefficients,omitempty"`
	BaseScore    float64       `json:"base_score,omitempty"`
	Trees        []Tree        `json:"trees,omitempty"`

	coef *mat.VecDense
}

func LoadRegressor(path string) (*Regressor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrArtifactUnavailable, path, err)
	}

	var r Regressor
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrArtifactUnavailable, path, err)
	}

	if err := r.init(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifactUnavailable, path, err)
	}

	return &r, nil
}

// NewLinearRegressor builds a linear model; mostly useful for tests and fixtures.
func NewLinearRegressor(version string, intercept float64, coefficients []float64) (*Regressor, error) {
	r := &Regressor{
		Version:      version,
		Kind:         KindLinear,
		NFeatures:    len(coefficients),
		Intercept:    intercept,
		Coefficients: coefficients,
	}
	if err := r.init(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactUnavailable, err)
	}
	return r, nil
}

// NewTreeRegressor builds a random forest or gradient boosting model.
func NewTreeRegressor(version string, kind RegressorKind, nFeatures int, baseScore float64, trees []Tree) (*Regressor, error) {
	r := &Regressor{
		Version:   version,
		Kind:      kind,
		NFeatures: nFeatures,
		BaseScore: baseScore,
		Trees:     trees,
	}
	if err := r.init(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactUnavailable, err)
	}
	return r, nil
}

func (r *Regressor) init() error {
	if r.NFeatures <= 0 {
		return fmt.Errorf("n_features must be positive, got %d", r.NFeatures)
	}

	switch r.Kind {
	case KindLinear:
		if len(r.Coefficients) != r.NFeatures {
			return fmt.Errorf("linear model has %d coefficients for %d features", len(r.Coefficients), r.NFeatures)
		}
		r.coef = mat.NewVecDense(r.NFeatures, r.Coefficients)

	case KindRandomForest, KindGradientBoosting:
		if len(r.Trees) == 0 {
			return fmt.Errorf("%s model has no trees", r.Kind)
		}
		for i, t := range r.Trees {
			if err := t.validate(r.NFeatures); err != nil {
				return fmt.Errorf("tree %d: %w", i, err)
			}
		}

	default:
		return fmt.Errorf("unknown regressor kind %q", r.Kind)
	}

	return nil
}

func (r *Regressor) Predict(x []float64) (float64, error) {
	if len(x) != r.NFeatures {
		return 0, fmt.Errorf("%w: got %d features, model expects %d", ErrPipelineFailure, len(x), r.NFeatures)
	}

	var y float64
	switch r.Kind {
	case KindLinear:
		y = r.Intercept + mat.Dot(r.coef, mat.NewVecDense(len(x), x))

	case KindRandomForest:
		leaves, err := r.leaves(x)
		if err != nil {
			return 0, err
		}
		y = stat.Mean(leaves, nil)

	case KindGradientBoosting:
		leaves, err := r.leaves(x)
		if err != nil {
			return 0, err
		}
		y = r.BaseScore + floats.Sum(leaves)

	default:
		return 0, fmt.Errorf("%w: unknown regressor kind %q", ErrPipelineFailure, r.Kind)
	}

	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, fmt.Errorf("%w: non-finite prediction", ErrPipelineFailure)
	}

	return y, nil
}

func (r *Regressor) leaves(x []float64) ([]float64, error) {
	out := make([]float64, len(r.Trees))
	for i := range r.Trees {
		v, err := r.Trees[i].eval(x)
		if err != nil {
			return nil, fmt.Errorf("%w: tree %d: %v", ErrPipelineFailure, i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (t Tree) validate(nFeatures int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("empty tree")
	}
	for i, n := range t.Nodes {
		if n.Feature < 0 {
			continue
		}
		if n.Feature >= nFeatures {
			return fmt.Errorf("node %d splits on feature %d of %d", i, n.Feature, nFeatures)
		}
		if n.Left <= i || n.Left >= len(t.Nodes) || n.Right <= i || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d has invalid children %d/%d", i, n.Left, n.Right)
		}
	}
	return nil
}

// eval walks from the root. Children always point forward, so the walk is
// bounded by the node count.
func (t Tree) eval(x []float64) (float64, error) {
	i := 0
	for steps := 0; steps <= len(t.Nodes); steps++ {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Value, nil
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return 0, fmt.Errorf("tree walk did not reach a leaf")
}
