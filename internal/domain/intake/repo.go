package intake

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListFilter narrows List results. Zero values mean "no constraint".
type ListFilter struct {
	ContactMethod string
	Consent       *bool
	Booked        *bool
	// Search matches case-insensitively against first name, last name and
	// email.
	Search string
}

type Repository interface {
	Create(ctx context.Context, rec *IntakeRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*IntakeRecord, error)
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*IntakeRecord, int, error)
	Update(ctx context.Context, rec *IntakeRecord) error

	// ListUnbookedByEmail returns every unbooked record with the given
	// email, newest first.
	ListUnbookedByEmail(ctx context.Context, email string) ([]*IntakeRecord, error)

	// ClaimBooking links a booking to the record only if the record is
	// still unbooked. It reports whether the claim won; a false return
	// with nil error means another writer got there first.
	ClaimBooking(ctx context.Context, id uuid.UUID, bookingID string, bookingAt time.Time) (bool, error)
}
