package user

import (
	"github.com/skybi/restkit/internal/ownership"
)

// User represents a user registered to the service
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Mobile      string `json:"mobile,omitempty"`
	Restricted  bool   `json:"restricted"`
	Admin       bool   `json:"admin"`
}

// Identity returns the identity used to decide whether the user may access owned records
func (user *User) Identity() *ownership.Identity {
	if user == nil {
		return nil
	}
	return &ownership.Identity{
		ID:    user.ID,
		Admin: user.Admin,
	}
}
