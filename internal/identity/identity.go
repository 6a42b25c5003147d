package identity

import (
	"errors"
	"fmt"
	"strings"
)

// Patient charts, staff directory entries and a handful of legacy imports
// all describe "a person" with different field sets. This package resolves
// those shapes into one canonical ParticipantRef at the boundary so nothing
// downstream does ad hoc field-presence checks.

type EntityKind string

const (
	EntityKindPatient EntityKind = "patient"
	EntityKindStaff   EntityKind = "staff"
	EntityKindLegacy  EntityKind = "legacy"
)

// Entity is the tagged union of source record shapes.
// Patient records carry FirstName/LastName/Email and an ID;
// staff records add Role; legacy records may only have a combined Name.
type Entity struct {
	Kind EntityKind `json:"kind"`

	ID        string `json:"id,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
}

// ParticipantRef is the normalized view used everywhere past this package.
// Always derived, never stored independently.
type ParticipantRef struct {
	ID          string `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email,omitempty"`
	Role        string `json:"role"`
	DisplayName string `json:"display_name"`
}

// ErrUnresolvable means no id, name, or email is present on the entity.
// Callers must treat this as a hard precondition failure for starting a
// call, not a warning.
var ErrUnresolvable = errors.New("identity: cannot determine participant")

// ResolveRef derives the canonical participant view. defaultRole is applied
// when the entity carries no role of its own (patient records never do).
func ResolveRef(e Entity, defaultRole string) (ParticipantRef, error) {
	id, err := ResolveIdentifier(e)
	if err != nil {
		return ParticipantRef{}, err
	}

	first, last := splitName(e)
	role := e.Role
	if role == "" {
		role = defaultRole
	}

	return ParticipantRef{
		ID:          id,
		FirstName:   first,
		LastName:    last,
		Email:       strings.TrimSpace(e.Email),
		Role:        role,
		DisplayName: ResolveDisplayName(e),
	}, nil
}

// ResolveIdentifier derives the stable cross-system identifier used for
// signaling addressing and room-name construction.
// Preference order: record id, email, normalized full name.
func ResolveIdentifier(e Entity) (string, error) {
	if id := strings.TrimSpace(e.ID); id != "" {
		return id, nil
	}
	if email := strings.TrimSpace(e.Email); email != "" {
		return strings.ToLower(email), nil
	}

	first, last := splitName(e)
	full := strings.TrimSpace(first + " " + last)
	if full == "" {
		return "", ErrUnresolvable
	}
	return strings.ToLower(strings.ReplaceAll(full, " ", ".")), nil
}

// ResolveDisplayName produces a human label. Never returns an empty string.
func ResolveDisplayName(e Entity) string {
	first, last := splitName(e)
	if s := strings.TrimSpace(first + " " + last); s != "" {
		return s
	}
	if s := strings.TrimSpace(e.Name); s != "" {
		return s
	}
	if s := strings.TrimSpace(e.Email); s != "" {
		return s
	}
	if id := strings.TrimSpace(e.ID); id != "" {
		return fmt.Sprintf("user-%s", id)
	}
	return "user-unknown"
}

// splitName returns discrete first/last components, falling back to
// splitting a combined legacy name on the first space.
func splitName(e Entity) (first, last string) {
	first = strings.TrimSpace(e.FirstName)
	last = strings.TrimSpace(e.LastName)
	if first != "" || last != "" {
		return first, last
	}

	name := strings.TrimSpace(e.Name)
	if name == "" {
		return "", ""
	}
	parts := strings.SplitN(name, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.TrimSpace(parts[1])
}
