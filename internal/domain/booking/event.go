package booking

// TriggerBookingCreated is the only trigger the reconciler acts on; all
// other triggers are acknowledged and dropped.
const TriggerBookingCreated = "BOOKING_CREATED"

// Event is the scheduling provider's webhook envelope. Only the fields the
// reconciler reads are decoded; the rest of the payload is ignored.
type Event struct {
	TriggerEvent string  `json:"triggerEvent"`
	Payload      Payload `json:"payload"`
}

type Payload struct {
	UID       string     `json:"uid"`
	StartTime string     `json:"startTime"`
	Attendees []Attendee `json:"attendees"`
}

type Attendee struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// AttendeeEmail returns the first attendee's email, the identity used to
// match the booking back to an intake record.
func (e Event) AttendeeEmail() string {
	if len(e.Payload.Attendees) == 0 {
		return ""
	}
	return e.Payload.Attendees[0].Email
}
