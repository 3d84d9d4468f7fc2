// Package domain contains entities without logic, just meta-data
package domain

import "github.com/google/uuid"

type ClientID string

// NewClientID returns a fresh random client identifier.
func NewClientID() ClientID {
	return ClientID(uuid.NewString())
}
