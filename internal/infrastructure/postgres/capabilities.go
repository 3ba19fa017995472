package postgres

import "context"

// Capabilities records optional schema features, detected once at startup.
type Capabilities struct {
	// LoanTerms is true when loans has both duration_days and penalty.
	LoanTerms bool
}

const loanTermsColumnsQuery = `
	SELECT column_name
	FROM information_schema.columns
	WHERE table_schema = current_schema()
	  AND table_name = 'loans'
	  AND column_name IN ('duration_days', 'penalty')`

// DetectCapabilities inspects the live schema.
func DetectCapabilities(ctx context.Context, g *Gateway) (Capabilities, error) {
	rows, err := g.QueryAll(ctx, loanTermsColumnsQuery)
	if err != nil {
		return Capabilities{}, err
	}
	found := map[string]bool{}
	for _, row := range rows {
		if name, ok := row["column_name"].(string); ok {
			found[name] = true
		}
	}
	return Capabilities{LoanTerms: found["duration_days"] && found["penalty"]}, nil
}
