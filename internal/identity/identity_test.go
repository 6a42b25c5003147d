package identity

import (
	"errors"
	"testing"
)

func TestResolveIdentifier(t *testing.T) {
	cases := []struct {
		name    string
		entity  Entity
		want    string
		wantErr bool
	}{
		{
			name:   "id wins over everything",
			entity: Entity{Kind: EntityKindPatient, ID: "p-42", Email: "a@b.c", Name: "A B"},
			want:   "p-42",
		},
		{
			name:   "email fallback is lowercased",
			entity: Entity{Kind: EntityKindStaff, Email: "Doc@Clinic.Org"},
			want:   "doc@clinic.org",
		},
		{
			name:   "legacy combined name is normalized",
			entity: Entity{Kind: EntityKindLegacy, Name: "Jane Van Dam"},
			want:   "jane.van.dam",
		},
		{
			name:   "discrete names used when present",
			entity: Entity{Kind: EntityKindPatient, FirstName: "Jo", LastName: "Ng"},
			want:   "jo.ng",
		},
		{
			name:    "nothing resolvable",
			entity:  Entity{Kind: EntityKindLegacy},
			wantErr: true,
		},
		{
			name:    "whitespace only is unresolvable",
			entity:  Entity{Kind: EntityKindLegacy, Name: "   ", Email: "  "},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveIdentifier(tc.entity)
			if tc.wantErr {
				if !errors.Is(err, ErrUnresolvable) {
					t.Fatalf("expected ErrUnresolvable, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestResolveDisplayName(t *testing.T) {
	cases := []struct {
		name   string
		entity Entity
		want   string
	}{
		{"first and last", Entity{FirstName: "A", LastName: "B"}, "A B"},
		{"first only", Entity{FirstName: "A"}, "A"},
		{"combined name fallback", Entity{Name: "Legacy User"}, "Legacy User"},
		{"email fallback", Entity{Email: "x@y.z"}, "x@y.z"},
		{"synthesized from id", Entity{ID: "77"}, "user-77"},
		{"never empty", Entity{}, "user-unknown"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveDisplayName(tc.entity); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
			if ResolveDisplayName(tc.entity) == "" {
				t.Fatalf("display name must never be empty")
			}
		})
	}
}

func TestResolveRef(t *testing.T) {
	ref, err := ResolveRef(Entity{
		Kind:      EntityKindPatient,
		ID:        "p-1",
		FirstName: "Ada",
		LastName:  "Okafor",
		Email:     "ada@clinic.org",
	}, "patient")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.ID != "p-1" || ref.Role != "patient" || ref.DisplayName != "Ada Okafor" {
		t.Fatalf("unexpected ref: %+v", ref)
	}

	// Staff role on the record wins over the default.
	ref, err = ResolveRef(Entity{Kind: EntityKindStaff, ID: "s-1", Name: "N P", Role: "nurse"}, "patient")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Role != "nurse" {
		t.Fatalf("expected record role to win, got %q", ref.Role)
	}
	if ref.FirstName != "N" || ref.LastName != "P" {
		t.Fatalf("expected split legacy name, got %+v", ref)
	}

	if _, err := ResolveRef(Entity{Kind: EntityKindLegacy}, "patient"); !errors.Is(err, ErrUnresolvable) {
		t.Fatalf("expected ErrUnresolvable, got %v", err)
	}
}
