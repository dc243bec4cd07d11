package types

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
	// RoleApi is granted to requests carrying the admin api key.
	RoleApi Role = "api"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer, RoleApi:
		return true
	}
	return false
}

// Allows reports whether r is one of roles.
func (r Role) Allows(roles ...Role) bool {
	for _, role := range roles {
		if r == role {
			return true
		}
	}
	return false
}

type Profile struct {
	UserId      string    `json:"userId"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ContactRequest struct {
	Id        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Company   string    `json:"company,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

func (c *ContactRequest) Validate() error {
	problems := make([]string, 0)
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Message = strings.TrimSpace(c.Message)
	if c.Name == "" {
		problems = append(problems, "name is required")
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		problems = append(problems, fmt.Sprintf("email %q is not valid", c.Email))
	}
	if c.Message == "" {
		problems = append(problems, "message is required")
	}
	if len(c.Message) > 5000 {
		problems = append(problems, "message is too long")
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// WatchSubscription ties a push device token to a flow category.
type WatchSubscription struct {
	Category string `json:"category"`
	Token    string `json:"token"`
}
