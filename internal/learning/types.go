package learning

// #region summary
// Summary is the ranked profile of a persona's recurring mistakes.
type Summary struct {
	// SourceDecisions counts decisions where the persona voted and a final
	// decision was recorded.
	SourceDecisions int `json:"source_decisions"`
	// MistakePatterns holds "pattern:count" entries, highest count first,
	// ties in first-seen order.
	MistakePatterns []string `json:"mistake_patterns"`
}

// Top returns up to n leading mistake patterns.
func (s Summary) Top(n int) []string {
	if n > len(s.MistakePatterns) {
		n = len(s.MistakePatterns)
	}
	out := make([]string, n)
	copy(out, s.MistakePatterns[:n])
	return out
}
// #endregion summary

// #region decision
// Vote is a single persona's ballot on a decision.
type Vote struct {
	PersonaID  string
	Vote       string
	Confidence float64
	RedFlags   []string
}

// Decision is a normalized decision artifact.
type Decision struct {
	BoardID       string
	Votes         []Vote
	FinalDecision string
}
// #endregion decision

// #region final-decisions
const (
	FinalApprove = "APPROVE"
	FinalBlock   = "BLOCK"
	FinalRewrite = "REWRITE"
)

// expectedVote maps a final decision to the vote that agrees with it.
var expectedVote = map[string]string{
	FinalApprove: "YES",
	FinalBlock:   "NO",
	FinalRewrite: "REWRITE",
}

// PatternHighConfidenceMismatch counts confident votes against the outcome.
const PatternHighConfidenceMismatch = "high_confidence_mismatch"
// #endregion final-decisions
