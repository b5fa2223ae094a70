// Package features turns a free-form JSON submission into the ordered
// numeric row the classifiers were trained on.
package features

// EncodingVersion identifies the category codes below. A model bundle
// records the version it was trained with and is rejected on mismatch.
const EncodingVersion = 1

// Code is one admissible value of a categorical field and its encoding.
type Code struct {
	Value   string
	Encoded float64
}

// Enum is a categorical field. Codes are listed in the order they are
// reported to clients.
type Enum struct {
	Key    string
	Column string
	Codes  []Code
}

// Encode returns the code of value.
func (e Enum) Encode(value string) (float64, bool) {
	for _, c := range e.Codes {
		if c.Value == value {
			return c.Encoded, true
		}
	}
	return 0, false
}

// Values lists the admissible values.
func (e Enum) Values() []string {
	values := make([]string, len(e.Codes))
	for i, c := range e.Codes {
		values[i] = c.Value
	}
	return values
}

// Categorical fields, declared in the order they are validated.
var (
	SexEnum = Enum{Key: KeySex, Column: "Sex", Codes: []Code{
		{"M", 1}, {"F", 0},
	}}
	ChestPainTypeEnum = Enum{Key: KeyChestPainType, Column: "ChestPainType", Codes: []Code{
		{"TA", 3}, {"ATA", 1}, {"NAP", 2}, {"ASY", 0},
	}}
	RestingECGEnum = Enum{Key: KeyRestingECG, Column: "RestingECG", Codes: []Code{
		{"Normal", 1}, {"ST", 2}, {"LVH", 0},
	}}
	ExerciseAnginaEnum = Enum{Key: KeyExerciseAngina, Column: "ExerciseAngina", Codes: []Code{
		{"N", 0}, {"Y", 1},
	}}
	STSlopeEnum = Enum{Key: KeySTSlope, Column: "ST_Slope", Codes: []Code{
		{"Up", 2}, {"Flat", 1}, {"Down", 0},
	}}

	enums = []Enum{SexEnum, ChestPainTypeEnum, RestingECGEnum, ExerciseAnginaEnum, STSlopeEnum}
)
