package features

// Vector is one encoded row, ordered as Columns.
type Vector []float64

// Columns is the training column order.
var Columns = []string{
	"Age", "Sex", "ChestPainType", "RestingBP", "Cholesterol", "FastingBS",
	"RestingECG", "MaxHR", "ExerciseAngina", "Oldpeak", "ST_Slope",
}

// Encode maps a validated input onto the model's numeric row.
func Encode(in Input) Vector {
	return Vector{
		float64(in.Age),
		code(SexEnum, in.Sex),
		code(ChestPainTypeEnum, in.ChestPainType),
		float64(in.RestingBP),
		float64(in.Cholesterol),
		float64(in.FastingBS),
		code(RestingECGEnum, in.RestingECG),
		float64(in.MaxHR),
		code(ExerciseAnginaEnum, in.ExerciseAngina),
		in.Oldpeak,
		code(STSlopeEnum, in.STSlope),
	}
}

// code returns the encoding of a value Normalize already accepted.
func code(e Enum, value string) float64 {
	c, _ := e.Encode(value)
	return c
}
