// Package models holds the server-side account types.
package models

import "time"

// User is an operator account. Role is common.RoleAdmin or common.RoleScanner.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash []byte
	Role         string
	CreatedAt    time.Time
}
