package application

import "github.com/oksasatya/go-library-management/internal/domain/entity"

// Principal is the authenticated caller of a service operation.
type Principal struct {
	UserID int64
	Role   entity.Role
}

// scope returns the user id reads must be restricted to, or nil for
// principals that may see everyone's records.
func (p Principal) scope() *int64 {
	if p.Role.IsLibrarian() {
		return nil
	}
	id := p.UserID
	return &id
}
