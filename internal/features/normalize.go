package features

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/utils"
)

// Pair is one member of a decoded JSON object.
type Pair struct {
	Key   string
	Value interface{}
}

// numericField describes how one numeric key is coerced and bounded.
type numericField struct {
	key     string
	integer bool
	rule    string
	reason  string
	set     func(in *Input, v float64)
}

var numericFields = []numericField{
	{KeyAge, true, "gte=1,lte=120", "Must be an integer between 1 and 120",
		func(in *Input, v float64) { in.Age = int(v) }},
	{KeyRestingBP, true, "gte=0,lte=300", "Must be an integer between 0 and 300",
		func(in *Input, v float64) { in.RestingBP = int(v) }},
	{KeyCholesterol, true, "gte=0,lte=1000", "Must be an integer between 0 and 1000",
		func(in *Input, v float64) { in.Cholesterol = int(v) }},
	{KeyFastingBS, true, "gte=0,lte=1", "Must be 0 or 1",
		func(in *Input, v float64) { in.FastingBS = int(v) }},
	{KeyMaxHR, true, "gte=0,lte=300", "Must be an integer between 0 and 300",
		func(in *Input, v float64) { in.MaxHR = int(v) }},
	{KeyOldpeak, false, "gte=-10,lte=10", "Must be a number between -10 and 10",
		func(in *Input, v float64) { in.Oldpeak = v }},
}

// Normalize validates a decoded submission. Keys are matched
// case-insensitively; when two keys collide after lower-casing, the one that
// sorts last wins.
func Normalize(raw map[string]interface{}) (Input, error) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]Pair, len(keys))
	for i, k := range keys {
		pairs[i] = Pair{Key: k, Value: raw[k]}
	}
	return NormalizePairs(pairs)
}

// NormalizePairs validates a submission given in document order. When two
// keys collide after lower-casing, the later one wins.
//
// Checks run in a fixed order: presence of every required key, then the
// categorical fields, then the numeric fields. The first failing check is
// returned.
func NormalizePairs(pairs []Pair) (Input, error) {
	data := make(map[string]interface{}, len(pairs))
	for _, p := range pairs {
		data[strings.ToLower(p.Key)] = p.Value
	}

	var missing []string
	for _, key := range RequiredKeys {
		if _, ok := data[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return Input{}, &ValidationError{Kind: ErrMissingFields, Fields: missing}
	}

	var in Input
	categorical := map[string]*string{
		KeySex:            &in.Sex,
		KeyChestPainType:  &in.ChestPainType,
		KeyRestingECG:     &in.RestingECG,
		KeyExerciseAngina: &in.ExerciseAngina,
		KeySTSlope:        &in.STSlope,
	}
	for _, enum := range enums {
		value := data[enum.Key]
		s, ok := value.(string)
		if ok {
			_, ok = enum.Encode(s)
		}
		if !ok {
			return Input{}, &ValidationError{
				Kind:    ErrInvalidEnumValue,
				Fields:  []string{enum.Key},
				Value:   value,
				Allowed: enum.Values(),
			}
		}
		*categorical[enum.Key] = s
	}

	for _, field := range numericFields {
		value := data[field.key]
		v, err := coerceNumber(value, field.key == KeyFastingBS)
		if err != nil || (field.integer && v != math.Trunc(v)) {
			reason := "Must be a number"
			if field.integer {
				reason = "Must be an integer"
			}
			return Input{}, &ValidationError{Kind: ErrInvalidNumeric, Fields: []string{field.key}, Value: value, Reason: reason}
		}
		if err := utils.GetValidator().Var(v, field.rule); err != nil {
			return Input{}, &ValidationError{Kind: ErrInvalidNumeric, Fields: []string{field.key}, Value: value, Reason: field.reason}
		}
		field.set(&in, v)
	}

	return in, nil
}

// coerceNumber accepts JSON numbers and numeric strings, plus booleans when
// allowBool is set. Non-finite values are rejected.
func coerceNumber(value interface{}, allowBool bool) (float64, error) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, err
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, err
		}
		f = parsed
	case bool:
		if !allowBool {
			return 0, ErrInvalidNumeric
		}
		if v {
			f = 1
		}
	default:
		return 0, ErrInvalidNumeric
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrInvalidNumeric
	}
	return f, nil
}
