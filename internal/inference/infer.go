package inference

import (
	"errors"
	"fmt"
	"math"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/features"
)

// ErrInference reports a bundle that cannot evaluate the given row.
var ErrInference = errors.New("inference failed")

// PositiveThreshold is the probability above which a row is labelled
// positive.
const PositiveThreshold = 0.5

// Outcome is one classifier's estimate.
type Outcome struct {
	Key         string
	Name        string
	Kind        string
	Probability float64
	Positive    bool
}

// Result holds one outcome per classifier, in key order.
type Result struct {
	Outcomes []Outcome
}

// Infer scales vec and evaluates every classifier on it.
func (b *Bundle) Infer(vec features.Vector) (Result, error) {
	scaled, err := b.Scaler.transform(vec)
	if err != nil {
		return Result{}, err
	}

	outcomes := make([]Outcome, 0, len(b.keys))
	for _, key := range b.keys {
		c := b.Classifiers[key]

		p, err := c.probability(scaled)
		if err != nil {
			return Result{}, fmt.Errorf("%w: model %s: %v", ErrInference, key, err)
		}

		outcomes = append(outcomes, Outcome{
			Key:         key,
			Name:        c.Name,
			Kind:        c.Kind,
			Probability: p,
			Positive:    p > PositiveThreshold,
		})
	}

	return Result{Outcomes: outcomes}, nil
}

func (s *Scaler) transform(vec features.Vector) ([]float64, error) {
	if len(s.Mean) != len(vec) || len(s.Scale) != len(vec) {
		return nil, fmt.Errorf("%w: scaler expects %d features, got %d", ErrInference, len(s.Mean), len(vec))
	}

	out := make([]float64, len(vec))
	for i, x := range vec {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (x - s.Mean[i]) / scale
	}
	return out, nil
}

// probability returns the positive-class probability for a scaled row.
func (c *Classifier) probability(x []float64) (float64, error) {
	switch c.Kind {
	case KindGradientBoosting:
		margin := c.BaseScore
		for i := range c.Trees {
			leaf, err := c.Trees[i].leaf(x, false)
			if err != nil {
				return 0, err
			}
			margin += leaf[0]
		}
		return sigmoid(margin), nil

	default:
		var sum float64
		for i := range c.Trees {
			leaf, err := c.Trees[i].leaf(x, true)
			if err != nil {
				return 0, err
			}
			p, err := positiveShare(leaf)
			if err != nil {
				return 0, err
			}
			sum += p
		}
		return sum / float64(len(c.Trees)), nil
	}
}

// leaf walks the tree to the leaf reached by x. Decision trees send
// x <= threshold left; boosted trees send x < threshold left.
func (t *Tree) leaf(x []float64, inclusive bool) ([]float64, error) {
	node := 0
	for t.Left[node] != -1 {
		f := t.Feature[node]
		if f < 0 || f >= len(x) {
			return nil, fmt.Errorf("node %d splits on feature %d of %d", node, f, len(x))
		}

		goLeft := x[f] < t.Threshold[node]
		if inclusive {
			goLeft = x[f] <= t.Threshold[node]
		}

		if goLeft {
			node = t.Left[node]
		} else {
			node = t.Right[node]
		}
	}
	return t.Value[node], nil
}

// positiveShare normalizes a leaf's class distribution and returns the
// share of the positive class.
func positiveShare(dist []float64) (float64, error) {
	var total float64
	for _, v := range dist {
		if v < 0 {
			return 0, errors.New("negative class weight")
		}
		total += v
	}
	if total == 0 {
		return 0, errors.New("empty class distribution")
	}
	return dist[1] / total, nil
}

func sigmoid(m float64) float64 {
	return 1 / (1 + math.Exp(-m))
}
