// Package viewstate holds the per-visitor input state of the landing page,
// kept apart from rendering so the form flow can be tested on its own.
package viewstate

import (
	"strings"
	"time"
)

// Outcome is the result of submitting the waitlist email.
type Outcome string

const (
	OutcomeSubscribed Outcome = "subscribed"
	OutcomeInvalid    Outcome = "invalid"
	OutcomeFailed     Outcome = "failed"
	// OutcomeNotSent means the email passed the local check but there was
	// no site to send it to.
	OutcomeNotSent Outcome = "not_sent"
)

// Notice returns the message shown beneath the waitlist prompt.
func (o Outcome) Notice() string {
	switch o {
	case OutcomeSubscribed:
		return "Subscription successful"
	case OutcomeInvalid:
		return "Invalid email address"
	case OutcomeFailed:
		return "Failed to subscribe"
	case OutcomeNotSent:
		return "Not sent (no --api)"
	default:
		return ""
	}
}

// State is the serializable view state for one visitor session.
type State struct {
	SessionID      string    `json:"session_id"`
	JobDescription string    `json:"job_description"`
	Email          string    `json:"email"`
	JobSubmitted   bool      `json:"job_submitted"`
	ShowWaitlist   bool      `json:"show_waitlist"`
	EmailSubmitted bool      `json:"email_submitted"`
	Outcome        Outcome   `json:"outcome,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// New returns the initial state for a session.
func New(sessionID string) State {
	return State{SessionID: sessionID}
}

// SetJobDescription updates the job description buffer.
func (s *State) SetJobDescription(value string) {
	s.JobDescription = value
}

// SubmitJob commits the job description. A non-empty value reveals the
// waitlist prompt the first time; later or empty submissions change nothing.
// It reports whether the transition happened.
func (s *State) SubmitJob(value string) bool {
	if s.JobSubmitted || strings.TrimSpace(value) == "" {
		return false
	}
	s.JobDescription = value
	s.JobSubmitted = true
	s.ShowWaitlist = true
	return true
}

// SetEmail updates the email buffer.
func (s *State) SetEmail(value string) {
	s.Email = value
}

// SubmitEmail records the email and the outcome of storing it. Submitting
// before the waitlist prompt is visible is ignored.
func (s *State) SubmitEmail(value string, outcome Outcome) bool {
	if !s.ShowWaitlist {
		return false
	}
	s.Email = value
	s.Outcome = outcome
	s.EmailSubmitted = outcome == OutcomeSubscribed
	return true
}
