package booking

import "github.com/careops/intake/internal/domain/intake"

// CandidateSelector picks which of the candidate records a booking should
// attach to. Candidates arrive newest first and are never empty. Returning
// nil drops the event as unmatched.
type CandidateSelector func(candidates []*intake.IntakeRecord, ev Event) *intake.IntakeRecord

// MostRecentFirst attaches the booking to the newest unbooked record.
func MostRecentFirst(candidates []*intake.IntakeRecord, _ Event) *intake.IntakeRecord {
	if len(candidates) == 0 {
		return nil
	}
	return candidates[0]
}
