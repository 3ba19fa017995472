package entity

// Stats is the dashboard summary.
type Stats struct {
	Users       int64 `json:"users"`
	Books       int64 `json:"books"`
	ActiveLoans int64 `json:"active_loans"`
}
