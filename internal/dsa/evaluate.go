package dsa

// Result is one (scenario, temperature) evaluation.
type Result struct {
	Scenario    Scenario
	Temperature float64
	DBulk       float64 // m²/s
	DEff        float64
	TauDiff     float64 // s
	TauWait     float64 // s
	Ratio       float64 // TauDiff / TauWait
	InWindow    bool
}

// Evaluate computes D_eff = D_bulk(1+f_pipe), τ_diff = L_c²/D_eff and the
// ratio against τ_wait.
func Evaluate(s Scenario, temperature, dBulk float64, b Bounds) Result {
	dEff := dBulk * (1 + s.FPipe)
	tauDiff := s.LCapture * s.LCapture / dEff
	tauWait := s.TauWait()
	ratio := tauDiff / tauWait
	return Result{
		Scenario:    s,
		Temperature: temperature,
		DBulk:       dBulk,
		DEff:        dEff,
		TauDiff:     tauDiff,
		TauWait:     tauWait,
		Ratio:       ratio,
		InWindow:    b.Contains(ratio),
	}
}
