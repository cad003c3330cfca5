package intake

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(1990, time.April, 12)

	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(b) != `"1990-04-12"` {
		t.Errorf("expected \"1990-04-12\", got %s", b)
	}

	var back Date
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !back.Equal(d.Time) {
		t.Errorf("expected %v, got %v", d, back)
	}
}

func TestDateUnmarshalRejectsOtherLayouts(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"12/04/1990"`), &d); err == nil {
		t.Error("expected error for non-ISO date")
	}
	if err := json.Unmarshal([]byte(`"1990-04-12T00:00:00Z"`), &d); err == nil {
		t.Error("expected error for datetime string")
	}
}

func TestBooked(t *testing.T) {
	rec := &IntakeRecord{}
	if rec.Booked() {
		t.Error("new record should not be booked")
	}

	bid := "cal-booking-42"
	at := time.Now()
	rec.BookingID = &bid
	rec.BookingDatetime = &at
	if !rec.Booked() {
		t.Error("record with booking id should be booked")
	}
}

func TestRecordJSONFieldNames(t *testing.T) {
	rec := &IntakeRecord{
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Email:       "ada@example.com",
		Phone:       "555-0100",
		DateOfBirth: NewDate(1990, time.April, 12),
	}
	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, key := range []string{
		"id", "firstName", "lastName", "email", "phone", "dateOfBirth",
		"contactMethod", "reasonForVisit", "consent",
		"bookingId", "bookingDatetime", "createdAt",
	} {
		if _, ok := m[key]; !ok {
			t.Errorf("expected key %q in serialized record", key)
		}
	}
	if m["bookingId"] != nil {
		t.Errorf("expected null bookingId for unbooked record, got %v", m["bookingId"])
	}
}
