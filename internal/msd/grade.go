package msd

// Grade is a coarse label for fit quality shown by the check command.
type Grade string

const (
	GradeOK   Grade = "OK"
	GradeWarn Grade = "WARN"
	GradePoor Grade = "POOR"
)

// GradeR2 labels an R² value: OK from 0.95, WARN from 0.80, POOR below.
func GradeR2(r2 float64) Grade {
	switch {
	case r2 >= 0.95:
		return GradeOK
	case r2 >= 0.80:
		return GradeWarn
	default:
		return GradePoor
	}
}
