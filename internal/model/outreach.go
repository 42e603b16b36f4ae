package model

import "time"

// OutreachMethod is how a business was contacted.
type OutreachMethod string

const (
	OutreachEmail    OutreachMethod = "email"
	OutreachPhone    OutreachMethod = "phone"
	OutreachInPerson OutreachMethod = "in_person"
)

// Valid reports whether the method is one of the known values.
func (m OutreachMethod) Valid() bool {
	switch m {
	case OutreachEmail, OutreachPhone, OutreachInPerson:
		return true
	}
	return false
}

// OutreachLog records one contact attempt toward a business. Logging an
// attempt advances the owning business to contacted.
type OutreachLog struct {
	ID          string         `json:"id" db:"id"`
	BusinessID  string         `json:"business_id" db:"business_id"`
	Method      OutreachMethod `json:"method" db:"method"`
	Notes       string         `json:"notes,omitempty" db:"notes"`
	ContactedAt time.Time      `json:"contacted_at" db:"contacted_at"`
}
