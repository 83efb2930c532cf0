package db

import "errors"

// ErrIdentityTaken is returned when a name or slug is already claimed by a
// different document of the same type.
var ErrIdentityTaken = errors.New("identity already claimed")

// IdentityTakenError names the conflicting field and its current owner.
type IdentityTakenError struct {
	Field   string // "name" or "slug"; empty when the index rejected a concurrent insert
	OwnerID string
}

func (e *IdentityTakenError) Error() string {
	if e.Field == "" {
		return ErrIdentityTaken.Error()
	}
	return e.Field + " " + ErrIdentityTaken.Error() + " by " + e.OwnerID
}

func (e *IdentityTakenError) Is(target error) bool {
	return target == ErrIdentityTaken
}
