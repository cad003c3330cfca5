package intake

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// validate applies the shared field rules and returns the parsed date of
// birth on success.
func validate(in Input) (Date, *ValidationError) {
	verr := NewValidationError()

	if strings.TrimSpace(in.FirstName) == "" {
		verr.Add("firstName", "this field is required")
	}
	if strings.TrimSpace(in.LastName) == "" {
		verr.Add("lastName", "this field is required")
	}
	if strings.TrimSpace(in.Email) == "" {
		verr.Add("email", "this field is required")
	} else if !emailPattern.MatchString(in.Email) {
		verr.Add("email", "enter a valid email address")
	}
	if strings.TrimSpace(in.Phone) == "" {
		verr.Add("phone", "this field is required")
	}

	var dob Date
	if in.DateOfBirth == "" {
		verr.Add("dateOfBirth", "this field is required")
	} else {
		d, err := ParseDate(in.DateOfBirth)
		if err != nil {
			verr.Add("dateOfBirth", "date must be in YYYY-MM-DD format")
		} else {
			dob = d
		}
	}

	if in.ContactMethod != "" && !validContactMethods[in.ContactMethod] {
		verr.Add("contactMethod", "must be one of: email, phone, sms")
	}

	if !verr.Empty() {
		return Date{}, verr
	}
	return dob, nil
}

func (s *Service) Create(ctx context.Context, in Input) (*IntakeRecord, error) {
	dob, verr := validate(in)
	if verr != nil {
		return nil, verr
	}

	rec := &IntakeRecord{
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Email:          in.Email,
		Phone:          in.Phone,
		DateOfBirth:    dob,
		ContactMethod:  in.ContactMethod,
		ReasonForVisit: in.ReasonForVisit,
		Consent:        in.Consent,
	}
	if rec.ContactMethod == "" {
		rec.ContactMethod = ContactEmail
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*IntakeRecord, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter, limit, offset int) ([]*IntakeRecord, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

// Update replaces every client-writable field. Optional fields absent from
// the input fall back to their defaults; booking linkage and timestamps are
// untouched.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (*IntakeRecord, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	dob, verr := validate(in)
	if verr != nil {
		return nil, verr
	}

	rec.FirstName = in.FirstName
	rec.LastName = in.LastName
	rec.Email = in.Email
	rec.Phone = in.Phone
	rec.DateOfBirth = dob
	rec.ReasonForVisit = in.ReasonForVisit
	rec.Consent = in.Consent
	rec.ContactMethod = in.ContactMethod
	if rec.ContactMethod == "" {
		rec.ContactMethod = ContactEmail
	}

	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Patch updates only the fields present in the input.
func (s *Service) Patch(ctx context.Context, id uuid.UUID, in PatchInput) (*IntakeRecord, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := Input{
		FirstName:      rec.FirstName,
		LastName:       rec.LastName,
		Email:          rec.Email,
		Phone:          rec.Phone,
		DateOfBirth:    rec.DateOfBirth.String(),
		ContactMethod:  rec.ContactMethod,
		ReasonForVisit: rec.ReasonForVisit,
		Consent:        rec.Consent,
	}
	if in.FirstName != nil {
		merged.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		merged.LastName = *in.LastName
	}
	if in.Email != nil {
		merged.Email = *in.Email
	}
	if in.Phone != nil {
		merged.Phone = *in.Phone
	}
	if in.DateOfBirth != nil {
		merged.DateOfBirth = *in.DateOfBirth
	}
	if in.ContactMethod != nil {
		merged.ContactMethod = *in.ContactMethod
	}
	if in.ReasonForVisit != nil {
		merged.ReasonForVisit = *in.ReasonForVisit
	}
	if in.Consent != nil {
		merged.Consent = *in.Consent
	}

	dob, verr := validate(merged)
	if verr != nil {
		return nil, verr
	}

	rec.FirstName = merged.FirstName
	rec.LastName = merged.LastName
	rec.Email = merged.Email
	rec.Phone = merged.Phone
	rec.DateOfBirth = dob
	rec.ContactMethod = merged.ContactMethod
	rec.ReasonForVisit = merged.ReasonForVisit
	rec.Consent = merged.Consent

	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// FindUnbookedByEmail returns the newest unbooked record for the email, or
// ErrNotFound when none exists.
func (s *Service) FindUnbookedByEmail(ctx context.Context, email string) (*IntakeRecord, error) {
	recs, err := s.repo.ListUnbookedByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return recs[0], nil
}
