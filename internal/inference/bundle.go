// Package inference loads the pre-trained scaler and tree ensembles and
// evaluates them on encoded feature rows.
package inference

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/features"
)

// FormatVersion is the bundle layout this package reads.
const FormatVersion = 1

// Classifier kinds.
const (
	KindDecisionTree     = "decision_tree"
	KindRandomForest     = "random_forest"
	KindGradientBoosting = "gradient_boosting"
)

// Loader errors.
var (
	ErrArtifactMissing = errors.New("model artifact not found")
	ErrArtifactCorrupt = errors.New("model artifact is corrupt")
)

// Scaler standardizes each column as (x-mean)/scale.
type Scaler struct {
	Mean  []float64 `json:"mean" yaml:"mean"`
	Scale []float64 `json:"scale" yaml:"scale"`
}

// Tree is a flat node table. Node i is a leaf when Left[i] == -1.
// For decision trees and forests a leaf value is a class distribution
// [negative, positive]; for boosted trees it is [weight].
type Tree struct {
	Feature   []int       `json:"feature" yaml:"feature"`
	Threshold []float64   `json:"threshold" yaml:"threshold"`
	Left      []int       `json:"left" yaml:"left"`
	Right     []int       `json:"right" yaml:"right"`
	Value     [][]float64 `json:"value" yaml:"value"`
}

// Classifier is one model of the bundle.
type Classifier struct {
	Kind      string  `json:"kind" yaml:"kind"`
	Name      string  `json:"name" yaml:"name"`
	BaseScore float64 `json:"base_score" yaml:"base_score"`
	Trees     []Tree  `json:"trees" yaml:"trees"`
}

// Bundle is a loaded artifact. It is read-only once Load returns.
type Bundle struct {
	FormatVersion   int                    `json:"format_version" yaml:"format_version"`
	EncodingVersion int                    `json:"encoding_version" yaml:"encoding_version"`
	FeatureColumns  []string               `json:"feature_columns" yaml:"feature_columns"`
	Scaler          *Scaler                `json:"scaler" yaml:"scaler"`
	Classifiers     map[string]*Classifier `json:"classifiers" yaml:"classifiers"`

	keys []string
}

// ModelInfo describes a loaded classifier.
type ModelInfo struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Trees int    `json:"trees"`
}

// selfTestInput is evaluated once at load.
var selfTestInput = features.Input{
	Age: 40, Sex: "M", ChestPainType: "ASY", RestingBP: 120, Cholesterol: 200,
	FastingBS: 0, RestingECG: "Normal", MaxHR: 150, ExerciseAngina: "N",
	Oldpeak: 0, STSlope: "Flat",
}

// Load reads, checks and self-tests the bundle at path. The decoder is
// chosen by extension: .json, .yaml or .yml.
func Load(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactMissing, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrArtifactCorrupt, err)
	}

	bundle, err := Decode(data, filepath.Ext(path))
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("path", path).
		Strs("models", bundle.Keys()).
		Int("encoding_version", bundle.EncodingVersion).
		Msg("Model bundle loaded")

	return bundle, nil
}

// Decode parses a bundle in the format named by ext and validates it.
func Decode(data []byte, ext string) (*Bundle, error) {
	bundle := &Bundle{}

	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, bundle); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrArtifactCorrupt, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, bundle); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrArtifactCorrupt, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported artifact format %q", ErrArtifactCorrupt, ext)
	}

	if err := bundle.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactCorrupt, err)
	}

	bundle.keys = make([]string, 0, len(bundle.Classifiers))
	for key := range bundle.Classifiers {
		bundle.keys = append(bundle.keys, key)
	}
	sort.Strings(bundle.keys)

	if err := bundle.selfTest(); err != nil {
		return nil, fmt.Errorf("%w: self-test failed: %v", ErrArtifactCorrupt, err)
	}

	return bundle, nil
}

// Keys returns the classifier keys in evaluation order.
func (b *Bundle) Keys() []string {
	return append([]string(nil), b.keys...)
}

// Models describes the classifiers in evaluation order.
func (b *Bundle) Models() []ModelInfo {
	models := make([]ModelInfo, 0, len(b.keys))
	for _, key := range b.keys {
		c := b.Classifiers[key]
		models = append(models, ModelInfo{Key: key, Name: c.Name, Kind: c.Kind, Trees: len(c.Trees)})
	}
	return models
}

func (b *Bundle) validate() error {
	if b.FormatVersion != FormatVersion {
		return fmt.Errorf("unsupported format_version %d", b.FormatVersion)
	}
	if b.EncodingVersion != features.EncodingVersion {
		return fmt.Errorf("encoding_version %d does not match serving encoding %d", b.EncodingVersion, features.EncodingVersion)
	}
	if !equalStrings(b.FeatureColumns, features.Columns) {
		return fmt.Errorf("feature_columns %v do not match %v", b.FeatureColumns, features.Columns)
	}
	if b.Scaler == nil || len(b.Scaler.Mean) == 0 || len(b.Scaler.Scale) == 0 {
		return errors.New("scaler is missing")
	}
	if err := b.Scaler.validate(len(features.Columns)); err != nil {
		return err
	}
	if len(b.Classifiers) == 0 {
		return errors.New("no classifiers")
	}

	for key, c := range b.Classifiers {
		if c == nil {
			return fmt.Errorf("classifier %s is empty", key)
		}
		if err := c.validate(); err != nil {
			return fmt.Errorf("classifier %s: %w", key, err)
		}
	}
	return nil
}

func (s *Scaler) validate(n int) error {
	if len(s.Mean) != n || len(s.Scale) != n {
		return fmt.Errorf("scaler has %d means and %d scales, want %d", len(s.Mean), len(s.Scale), n)
	}
	for i := 0; i < n; i++ {
		if !finite(s.Mean[i]) || !finite(s.Scale[i]) {
			return fmt.Errorf("scaler column %d is not finite", i)
		}
	}
	return nil
}

func (c *Classifier) validate() error {
	minLeafWidth := 2
	distribution := true
	switch c.Kind {
	case KindDecisionTree:
		if len(c.Trees) != 1 {
			return fmt.Errorf("decision tree needs exactly one tree, got %d", len(c.Trees))
		}
	case KindRandomForest:
	case KindGradientBoosting:
		minLeafWidth = 1
		distribution = false
		if !finite(c.BaseScore) {
			return errors.New("base_score is not finite")
		}
	default:
		return fmt.Errorf("unknown kind %q", c.Kind)
	}

	if len(c.Trees) == 0 {
		return errors.New("no trees")
	}
	for i := range c.Trees {
		if err := c.Trees[i].validate(minLeafWidth, distribution, len(features.Columns)); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

// validate checks the node table is consistent. Children must come after
// their parent, which rules out cycles. Every node is checked, not only the
// ones the self-test reaches. Distribution leaves must hold non-negative
// weights with a positive sum.
func (t *Tree) validate(minLeafWidth int, distribution bool, numFeatures int) error {
	n := len(t.Feature)
	if n == 0 {
		return errors.New("empty tree")
	}
	if len(t.Threshold) != n || len(t.Left) != n || len(t.Right) != n || len(t.Value) != n {
		return fmt.Errorf("node arrays differ in length: feature=%d threshold=%d left=%d right=%d value=%d",
			n, len(t.Threshold), len(t.Left), len(t.Right), len(t.Value))
	}

	for i := 0; i < n; i++ {
		if t.Left[i] == -1 {
			if err := validateLeaf(t.Value[i], minLeafWidth, distribution); err != nil {
				return fmt.Errorf("leaf %d: %w", i, err)
			}
			continue
		}

		if t.Left[i] <= i || t.Left[i] >= n || t.Right[i] <= i || t.Right[i] >= n {
			return fmt.Errorf("node %d has children out of range (%d, %d)", i, t.Left[i], t.Right[i])
		}
		if t.Feature[i] < 0 || t.Feature[i] >= numFeatures {
			return fmt.Errorf("node %d splits on feature %d of %d", i, t.Feature[i], numFeatures)
		}
		if !finite(t.Threshold[i]) {
			return fmt.Errorf("node %d has a non-finite threshold", i)
		}
	}
	return nil
}

func validateLeaf(value []float64, minWidth int, distribution bool) error {
	if len(value) < minWidth {
		return fmt.Errorf("%d values, want at least %d", len(value), minWidth)
	}

	var total float64
	for _, v := range value {
		if !finite(v) {
			return errors.New("non-finite value")
		}
		if distribution && v < 0 {
			return errors.New("negative class weight")
		}
		total += v
	}
	if distribution && total <= 0 {
		return errors.New("empty class distribution")
	}
	return nil
}

// selfTest evaluates the fixed sample and requires every probability to be
// finite and in [0,1].
func (b *Bundle) selfTest() error {
	result, err := b.Infer(features.Encode(selfTestInput))
	if err != nil {
		return err
	}
	for _, o := range result.Outcomes {
		if math.IsNaN(o.Probability) || o.Probability < 0 || o.Probability > 1 {
			return fmt.Errorf("model %s returned probability %v", o.Key, o.Probability)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
