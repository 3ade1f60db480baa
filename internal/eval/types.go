package eval

// #region eval-config
// EvalConfig holds the expectations checked after a respawn commits.
type EvalConfig struct {
	SuccessorReputation float64 // reputation every respawned persona starts with
	Tolerance           float64 // float comparison slack for reputation
}

// DefaultEvalConfig returns the expectations matching the respawn defaults.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		SuccessorReputation: 0.55,
		Tolerance:           1e-9,
	}
}

// #endregion eval-config

// #region eval-metric
// EvalMetric captures a single validation check result.
type EvalMetric struct {
	Name  string
	Value float64
	Pass  bool
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the output of post-commit validation.
type EvalResult struct {
	Passed  bool
	Metrics []EvalMetric
	Reason  string
}

// #endregion eval-result
