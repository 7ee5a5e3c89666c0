package models

// Chat outcomes recorded by the usage ledger and metrics.
const (
	OutcomeSuccess = "success"
	OutcomeBlocked = "blocked"
	OutcomeError   = "error"
)

// ProviderUsage aggregates request counts for one provider.
type ProviderUsage struct {
	Success int64            `json:"success"`
	Blocked int64            `json:"blocked"`
	Error   int64            `json:"error"`
	Models  map[string]int64 `json:"models"`
}

// UsageReport is returned by GET /api/usage.
type UsageReport struct {
	Providers map[string]*ProviderUsage `json:"providers"`
}
