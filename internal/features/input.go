package features

import (
	"errors"
	"fmt"
	"strings"
)

// Lower-cased request keys.
const (
	KeyAge            = "age"
	KeySex            = "sex"
	KeyChestPainType  = "chestpaintype"
	KeyRestingBP      = "restingbp"
	KeyCholesterol    = "cholesterol"
	KeyFastingBS      = "fastingbs"
	KeyRestingECG     = "restingecg"
	KeyMaxHR          = "maxhr"
	KeyExerciseAngina = "exerciseangina"
	KeyOldpeak        = "oldpeak"
	KeySTSlope        = "stslope"
)

// RequiredKeys is the pinned order used for validation and error messages.
var RequiredKeys = []string{
	KeyAge, KeySex, KeyChestPainType, KeyRestingBP, KeyCholesterol,
	KeyFastingBS, KeyRestingECG, KeyMaxHR, KeyExerciseAngina, KeyOldpeak, KeySTSlope,
}

// Input is a validated submission.
type Input struct {
	Age            int     `json:"age"`
	Sex            string  `json:"sex"`
	ChestPainType  string  `json:"chestpaintype"`
	RestingBP      int     `json:"restingbp"`
	Cholesterol    int     `json:"cholesterol"`
	FastingBS      int     `json:"fastingbs"`
	RestingECG     string  `json:"restingecg"`
	MaxHR          int     `json:"maxhr"`
	ExerciseAngina string  `json:"exerciseangina"`
	Oldpeak        float64 `json:"oldpeak"`
	STSlope        string  `json:"stslope"`
}

// Summary renders the input on one line, in pinned order.
func (in Input) Summary() string {
	return fmt.Sprintf("Age: %d, Sex: %s, ChestPainType: %s, RestingBP: %d, Cholesterol: %d, FastingBS: %d, RestingECG: %s, MaxHR: %d, ExerciseAngina: %s, Oldpeak: %g, ST_Slope: %s",
		in.Age, in.Sex, in.ChestPainType, in.RestingBP, in.Cholesterol, in.FastingBS,
		in.RestingECG, in.MaxHR, in.ExerciseAngina, in.Oldpeak, in.STSlope)
}

// Normalizer error kinds.
var (
	ErrMissingFields    = errors.New("missing required fields")
	ErrInvalidEnumValue = errors.New("invalid enum value")
	ErrInvalidNumeric   = errors.New("invalid numeric value")
)

// ValidationError describes why a submission was rejected. It unwraps to
// one of the kinds above.
type ValidationError struct {
	Kind    error
	Fields  []string
	Value   interface{}
	Allowed []string
	Reason  string
}

// Error returns the client-facing message.
func (e *ValidationError) Error() string {
	switch e.Kind {
	case ErrMissingFields:
		return "Missing required fields: " + strings.Join(e.Fields, ", ")
	case ErrInvalidEnumValue:
		return fmt.Sprintf("Invalid value for %s: %s. Must be one of [%s]",
			e.Field(), formatValue(e.Value), strings.Join(e.Allowed, ", "))
	default:
		msg := fmt.Sprintf("Invalid numeric value for %s: %s", e.Field(), formatValue(e.Value))
		if e.Reason != "" {
			msg += ". " + e.Reason
		}
		return msg
	}
}

// Unwrap returns the error kind.
func (e *ValidationError) Unwrap() error {
	return e.Kind
}

// Field returns the first offending field.
func (e *ValidationError) Field() string {
	if len(e.Fields) == 0 {
		return ""
	}
	return e.Fields[0]
}

func formatValue(v interface{}) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprint(v)
}
