// ABOUTME: Data models for the contacts client
// ABOUTME: Defines Contact, ContactPatch, ReportBucket, SortOrder and ListFilter
package models

import "strings"

// NotInformed labels report buckets whose state/city the server left blank.
const NotInformed = "Not informed"

// Contact mirrors the API's contact resource. ID is nil until the server assigns one.
type Contact struct {
	ID       *int64 `json:"id,omitempty"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Mobile   string `json:"mobile"`
	Address  string `json:"address"`
	District string `json:"district"`
	City     string `json:"city,omitempty"`
	State    string `json:"state"`
	Photo    string `json:"photo,omitempty"`
	Initials string `json:"initials,omitempty"`
}

// IsDraft reports whether the contact has not been persisted yet.
func (c Contact) IsDraft() bool {
	return c.ID == nil
}

// IDValue returns the server id, or 0 for drafts.
func (c Contact) IDValue() int64 {
	if c.ID == nil {
		return 0
	}
	return *c.ID
}

// MissingFields lists the required fields that are blank, in form order.
func (c Contact) MissingFields() []string {
	var missing []string
	required := []struct {
		name  string
		value string
	}{
		{"name", c.Name},
		{"email", c.Email},
		{"phone", c.Phone},
		{"mobile", c.Mobile},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// ContactPatch carries only the fields that changed in an edit.
type ContactPatch struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Mobile   *string `json:"mobile,omitempty"`
	Address  *string `json:"address,omitempty"`
	District *string `json:"district,omitempty"`
	City     *string `json:"city,omitempty"`
	State    *string `json:"state,omitempty"`
	Photo    *string `json:"photo,omitempty"`
}

// Diff builds the patch that turns before into after.
func Diff(before, after Contact) ContactPatch {
	var p ContactPatch
	set := func(dst **string, old, updated string) {
		if old != updated {
			v := updated
			*dst = &v
		}
	}
	set(&p.Name, before.Name, after.Name)
	set(&p.Email, before.Email, after.Email)
	set(&p.Phone, before.Phone, after.Phone)
	set(&p.Mobile, before.Mobile, after.Mobile)
	set(&p.Address, before.Address, after.Address)
	set(&p.District, before.District, after.District)
	set(&p.City, before.City, after.City)
	set(&p.State, before.State, after.State)
	set(&p.Photo, before.Photo, after.Photo)
	return p
}

// IsEmpty reports whether the patch changes nothing.
func (p ContactPatch) IsEmpty() bool {
	return p == ContactPatch{}
}

// Apply returns c with the patch's fields written over it.
func (p ContactPatch) Apply(c Contact) Contact {
	get := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	get(&c.Name, p.Name)
	get(&c.Email, p.Email)
	get(&c.Phone, p.Phone)
	get(&c.Mobile, p.Mobile)
	get(&c.Address, p.Address)
	get(&c.District, p.District)
	get(&c.City, p.City)
	get(&c.State, p.State)
	get(&c.Photo, p.Photo)
	return c
}

// ReportBucket is one slice of an aggregate report.
type ReportBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// SortOrder is the list ordering requested from the server.
type SortOrder int

const (
	SortAscending SortOrder = iota
	SortDescending
)

func (s SortOrder) String() string {
	if s == SortDescending {
		return "desc"
	}
	return "asc"
}

// Toggle flips between ascending and descending.
func (s SortOrder) Toggle() SortOrder {
	if s == SortDescending {
		return SortAscending
	}
	return SortDescending
}

// ParseSortOrder accepts "asc" or "desc" (case-insensitive).
func ParseSortOrder(v string) (SortOrder, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "asc", "":
		return SortAscending, true
	case "desc":
		return SortDescending, true
	}
	return SortAscending, false
}

// ListFilter narrows a contact listing. Zero values are omitted from the request.
type ListFilter struct {
	Search    string
	SortOrder SortOrder
}
