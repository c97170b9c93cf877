// ABOUTME: Tests for contact data models
// ABOUTME: Validates required fields, patch diffing and sort order helpers
package models

import (
	"testing"
)

func TestMissingFields(t *testing.T) {
	c := Contact{Name: "João Silva", Email: "joao@email.com", Phone: " ", Mobile: ""}

	missing := c.MissingFields()

	if len(missing) != 2 {
		t.Fatalf("expected 2 missing fields, got %v", missing)
	}
	if missing[0] != "phone" || missing[1] != "mobile" {
		t.Errorf("expected [phone mobile], got %v", missing)
	}
}

func TestDiffOnlyChangedFields(t *testing.T) {
	id := int64(1)
	before := Contact{ID: &id, Name: "João Silva", Email: "joao@email.com", City: "São Paulo"}
	after := before
	after.Name = "João Editado"
	after.City = ""

	patch := Diff(before, after)

	if patch.Name == nil || *patch.Name != "João Editado" {
		t.Errorf("expected name in patch, got %v", patch.Name)
	}
	if patch.City == nil || *patch.City != "" {
		t.Errorf("expected cleared city in patch, got %v", patch.City)
	}
	if patch.Email != nil {
		t.Errorf("unchanged email should not be in patch")
	}
	if patch.IsEmpty() {
		t.Error("patch should not be empty")
	}
	if got := patch.Apply(before); got != after {
		t.Errorf("Apply(Diff) mismatch: got %+v want %+v", got, after)
	}
}

func TestDiffIdentical(t *testing.T) {
	c := Contact{Name: "Ana"}
	if !Diff(c, c).IsEmpty() {
		t.Error("diff of identical contacts should be empty")
	}
}

func TestSortOrderToggle(t *testing.T) {
	s := SortAscending
	if s.String() != "asc" {
		t.Errorf("expected asc, got %s", s)
	}
	s = s.Toggle()
	if s != SortDescending || s.String() != "desc" {
		t.Errorf("expected desc after toggle, got %s", s)
	}
	if s.Toggle() != SortAscending {
		t.Error("double toggle should return to ascending")
	}
}

func TestParseSortOrder(t *testing.T) {
	tests := []struct {
		in   string
		want SortOrder
		ok   bool
	}{
		{"asc", SortAscending, true},
		{"DESC", SortDescending, true},
		{"", SortAscending, true},
		{"sideways", SortAscending, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseSortOrder(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseSortOrder(%q) = %v,%v want %v,%v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestDraftID(t *testing.T) {
	var c Contact
	if !c.IsDraft() || c.IDValue() != 0 {
		t.Error("zero contact should be a draft with id 0")
	}
	id := int64(7)
	c.ID = &id
	if c.IsDraft() || c.IDValue() != 7 {
		t.Error("contact with id should not be a draft")
	}
}
