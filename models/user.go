package models

import (
	"time"
)

// UserType distinguishes employees from administrators
type UserType string

const (
	UserTypeEmployee UserType = "Employee"
	UserTypeAdmin    UserType = "Admin"
)

// User represents an account allowed to file bills
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Type      UserType  `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is the serialized current-user record kept in the session store
type Session struct {
	Email string   `json:"email"`
	Type  UserType `json:"type,omitempty"`
}
