// Package billing talks to the payment provider's REST API for the
// subscription flows: checkout, customer portal and status lookup. The
// ledger itself never depends on billing state.
package billing

// Plan is one entry of the fixed subscription catalog.
type Plan struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	AmountCents int64  `json:"amountCents"`
	Interval    string `json:"interval"`
	TrialDays   int    `json:"trialDays,omitempty"`
}

// Plans returns the subscription catalog in display order.
func Plans() []Plan {
	return []Plan{
		{
			ID:          "freemium",
			Name:        "Freemium",
			Description: "Entry plan with a 7 day free trial",
			AmountCents: 500,
			Interval:    "month",
			TrialDays:   7,
		},
		{
			ID:          "standard",
			Name:        "Standard",
			Description: "Standard plan",
			AmountCents: 1499,
			Interval:    "month",
		},
		{
			ID:          "premium",
			Name:        "Premium",
			Description: "Premium plan",
			AmountCents: 2999,
			Interval:    "month",
		},
	}
}

// PlanByID looks up a catalog entry.
func PlanByID(id string) (Plan, bool) {
	for _, p := range Plans() {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

// planByAmount maps a recurring price back to its catalog entry, used
// when deriving the tier from an active subscription.
func planByAmount(amountCents int64) (Plan, bool) {
	for _, p := range Plans() {
		if p.AmountCents == amountCents {
			return p, true
		}
	}
	return Plan{}, false
}
