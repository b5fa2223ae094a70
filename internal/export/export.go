// Package export renders stored predictions as downloadable JSON, CSV and
// PDF reports.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/constants"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/models"
)

// Format is a supported export format.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
)

// ErrUnknownFormat is returned for a format outside the supported set.
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat resolves s, ignoring case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatCSV, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType is the media type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return constants.ContentTypeCSV
	case FormatPDF:
		return constants.ContentTypePDF
	case FormatJSON:
		return constants.ContentTypeJSON
	}
	return constants.ContentTypeOctetStream
}

// Filename is the download name for f.
func (f Format) Filename() string {
	return "predictions." + string(f)
}

// Report is a set of predictions with the date range they were selected by.
// A zero From and Until means every prediction.
type Report struct {
	Predictions []*models.Prediction
	From        time.Time
	// Until is the last day included.
	Until time.Time
}

// Title names the report after its range.
func (r Report) Title() string {
	if r.From.IsZero() || r.Until.IsZero() {
		return "All Predictions Report"
	}
	return fmt.Sprintf("Predictions Report from %s to %s",
		r.From.Format(constants.DateLayout), r.Until.Format(constants.DateLayout))
}

// Render encodes r in format f.
func Render(f Format, r Report) ([]byte, error) {
	switch f {
	case FormatJSON:
		return renderJSON(r)
	case FormatCSV:
		return renderCSV(r)
	case FormatPDF:
		return renderPDF(r)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// ResultSummary renders every model outcome of p on one line.
func ResultSummary(p *models.Prediction) string {
	parts := make([]string, 0, len(p.Results))
	for _, res := range p.Results {
		parts = append(parts, fmt.Sprintf("%s: %s (%.2f%%, %s risk)",
			res.ModelName, res.Label, res.ProbabilityPercent, res.RiskTier))
	}
	return strings.Join(parts, "; ")
}

func userLabel(p *models.Prediction) string {
	switch {
	case p.FullName != "" && p.Username != "":
		return fmt.Sprintf("%s (%s)", p.FullName, p.Username)
	case p.Username != "":
		return p.Username
	}
	return strconv.FormatInt(p.UserID, 10)
}

type jsonReport struct {
	Title       string               `json:"title"`
	GeneratedAt time.Time            `json:"generated_at"`
	Count       int                  `json:"count"`
	Predictions []*models.Prediction `json:"predictions"`
}

func renderJSON(r Report) ([]byte, error) {
	predictions := r.Predictions
	if predictions == nil {
		predictions = []*models.Prediction{}
	}
	return json.MarshalIndent(jsonReport{
		Title:       r.Title(),
		GeneratedAt: time.Now().UTC(),
		Count:       len(predictions),
		Predictions: predictions,
	}, "", "  ")
}

var csvHeader = []string{
	"prediction_id", "username", "full_name", "created_at",
	"age", "sex", "chest_pain_type", "resting_bp", "cholesterol", "fasting_bs",
	"resting_ecg", "max_hr", "exercise_angina", "oldpeak", "st_slope",
	"results",
}

func renderCSV(r Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}

	for _, p := range r.Predictions {
		in := p.Input
		record := []string{
			strconv.FormatInt(p.ID, 10),
			p.Username,
			p.FullName,
			p.CreatedAt.Format(time.RFC3339),
			strconv.Itoa(in.Age),
			in.Sex,
			in.ChestPainType,
			strconv.Itoa(in.RestingBP),
			strconv.Itoa(in.Cholesterol),
			strconv.Itoa(in.FastingBS),
			in.RestingECG,
			strconv.Itoa(in.MaxHR),
			in.ExerciseAngina,
			strconv.FormatFloat(in.Oldpeak, 'f', -1, 64),
			in.STSlope,
			ResultSummary(p),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
