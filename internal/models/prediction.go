package models

import (
	"time"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/constants"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/features"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/risk"
)

// Prediction is one stored submission with its per-model results.
type Prediction struct {
	ID              int64               `json:"id" db:"prediction_id"`
	UserID          int64               `json:"user_id" db:"user_id"`
	Input           features.Input      `json:"input"`
	EncodingVersion int                 `json:"encoding_version" db:"encoding_version"`
	CreatedAt       time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at" db:"updated_at"`
	Results         []*PredictionResult `json:"results"`

	// Owner fields are filled by queries that join users.
	Username string `json:"username,omitempty"`
	FullName string `json:"full_name,omitempty"`
}

// TableName returns the database table name for the Prediction model.
func (p *Prediction) TableName() string {
	return constants.TablePredictions
}

// NewPrediction creates an unsaved prediction of userID for in.
func NewPrediction(userID int64, in features.Input) *Prediction {
	now := time.Now()
	return &Prediction{
		UserID:          userID,
		Input:           in,
		EncodingVersion: features.EncodingVersion,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// HighRisk reports whether any model placed the prediction in the high tier.
func (p *Prediction) HighRisk() bool {
	for _, r := range p.Results {
		if r.RiskTier == risk.High {
			return true
		}
	}
	return false
}

// PredictionResult is one model's outcome. The two description texts are
// derived from the tier and the label and are not stored.
type PredictionResult struct {
	ID                 int64     `json:"-" db:"result_id"`
	PredictionID       int64     `json:"-" db:"prediction_id"`
	ModelKey           string    `json:"model" db:"model_key"`
	ModelName          string    `json:"model_name" db:"model_name"`
	Label              string    `json:"label" db:"label"`
	Positive           bool      `json:"positive" db:"positive"`
	ProbabilityPercent float64   `json:"probability" db:"probability_percent"`
	RiskTier           risk.Tier `json:"risk_tier" db:"risk_tier"`
	RiskDescription    string    `json:"risk_description"`
	Description        string    `json:"description"`
	CreatedAt          time.Time `json:"-" db:"created_at"`
}

// TableName returns the database table name for the PredictionResult model.
func (r *PredictionResult) TableName() string {
	return constants.TablePredictionResults
}

// NewPredictionResult builds the presented result of one model.
func NewPredictionResult(modelKey, modelName string, probability float64, positive bool) *PredictionResult {
	percent := risk.Percent(probability)
	label, _ := risk.Label(positive)

	r := &PredictionResult{
		ModelKey:           modelKey,
		ModelName:          modelName,
		Label:              label,
		Positive:           positive,
		ProbabilityPercent: percent,
		RiskTier:           risk.Classify(percent),
		CreatedAt:          time.Now(),
	}
	r.Describe()
	return r
}

// Describe fills the derived description texts.
func (r *PredictionResult) Describe() {
	r.RiskDescription = r.RiskTier.Description()
	_, r.Description = risk.Label(r.Positive)
}

// PredictResponse is the flat body of the inference endpoint.
type PredictResponse struct {
	EncodingVersion int                 `json:"encoding_version"`
	Results         []*PredictionResult `json:"results"`
	Saved           bool                `json:"saved"`
	PredictionID    int64               `json:"prediction_id,omitempty"`
	Warning         string              `json:"warning,omitempty"`
}

// PredictionFilter narrows prediction listings. Zero values mean no bound.
type PredictionFilter struct {
	UserID int64
	// From is inclusive, Until is exclusive.
	From  time.Time
	Until time.Time
}

// DashboardStats is the admin overview.
type DashboardStats struct {
	TotalPatients       int           `json:"total_patients"`
	TotalPredictions    int           `json:"total_predictions"`
	HighRiskPredictions int           `json:"high_risk_predictions"`
	TodayPredictions    int           `json:"today_predictions"`
	RecentPredictions   []*Prediction `json:"recent_predictions"`
}
