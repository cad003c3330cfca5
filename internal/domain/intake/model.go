package intake

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Preferred ways a patient agrees to be contacted.
const (
	ContactEmail = "email"
	ContactPhone = "phone"
	ContactSMS   = "sms"
)

var validContactMethods = map[string]bool{
	ContactEmail: true,
	ContactPhone: true,
	ContactSMS:   true,
}

const dateLayout = "2006-01-02"

// Date is a calendar date serialized as YYYY-MM-DD, with no time or zone
// component.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	*d = Date{t}
	return nil
}

// IntakeRecord is one patient intake submission. A record starts unbooked;
// BookingID and BookingDatetime are set together once a booking event is
// matched to it, and never independently.
type IntakeRecord struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	FirstName       string     `db:"first_name" json:"firstName"`
	LastName        string     `db:"last_name" json:"lastName"`
	Email           string     `db:"email" json:"email"`
	Phone           string     `db:"phone" json:"phone"`
	DateOfBirth     Date       `db:"date_of_birth" json:"dateOfBirth"`
	ContactMethod   string     `db:"contact_method" json:"contactMethod"`
	ReasonForVisit  string     `db:"reason_for_visit" json:"reasonForVisit"`
	Consent         bool       `db:"consent" json:"consent"`
	BookingID       *string    `db:"booking_id" json:"bookingId"`
	BookingDatetime *time.Time `db:"booking_datetime" json:"bookingDatetime"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
}

// Booked reports whether the record has been linked to a booking.
func (r *IntakeRecord) Booked() bool {
	return r.BookingID != nil
}

// Input carries the client-writable fields of an intake record. Identity,
// timestamps and booking linkage are server-owned and never read from it.
type Input struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	DateOfBirth    string `json:"dateOfBirth"`
	ContactMethod  string `json:"contactMethod"`
	ReasonForVisit string `json:"reasonForVisit"`
	Consent        bool   `json:"consent"`
}

// PatchInput is the partial-update counterpart of Input: nil means the
// field was absent from the request and keeps its stored value.
type PatchInput struct {
	FirstName      *string `json:"firstName"`
	LastName       *string `json:"lastName"`
	Email          *string `json:"email"`
	Phone          *string `json:"phone"`
	DateOfBirth    *string `json:"dateOfBirth"`
	ContactMethod  *string `json:"contactMethod"`
	ReasonForVisit *string `json:"reasonForVisit"`
	Consent        *bool   `json:"consent"`
}
