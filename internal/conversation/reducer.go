package conversation

import "strings"

// Event is an input to Reduce.
type Event interface {
	event()
}

// Answer is visitor text submitted for the current prompt.
type Answer struct {
	Text string
}

// Reset restarts the conversation from the first prompt.
type Reset struct{}

// LeadAssigned records the outbox lead for a submission before any delivery
// attempt, so an interrupted submission can be matched to its lead later.
type LeadAssigned struct {
	LeadID string
}

// Delivered reports that the record reached the collection endpoint.
type Delivered struct {
	LeadID string
}

// DeliveryFailed reports that the submission attempt did not succeed.
type DeliveryFailed struct {
	LeadID string
	Reason string
}

// Retry asks for another submission after a failure.
type Retry struct{}

func (Answer) event()         {}
func (Reset) event()          {}
func (LeadAssigned) event()   {}
func (Delivered) event()      {}
func (DeliveryFailed) event() {}
func (Retry) event()          {}

// Submit is the command emitted when the record must be delivered. LeadID is
// empty on the first attempt and carries the stored lead on retries.
type Submit struct {
	Record Record
	LeadID string
}

// Reduce applies ev to s and returns the next state plus the submission to
// perform, if any. Events that do not apply to the current phase return s
// unchanged and a nil command.
func Reduce(s State, ev Event) (State, *Submit) {
	switch e := ev.(type) {
	case Reset:
		return New(), nil

	case Answer:
		q, ok := s.CurrentQuestion()
		if !ok {
			return s, nil
		}
		text := strings.TrimSpace(e.Text)
		if text == "" {
			return s, nil
		}

		next := s
		next.Answers = s.Answers.with(q.Field, text)
		next.StepIndex = s.StepIndex + 1
		visitor := Message{Speaker: SpeakerVisitor, Text: text}

		if next.StepIndex < len(Script) {
			upcoming := Script[next.StepIndex]
			next.Phase = awaitingPhase(upcoming.Field)
			next.Transcript = s.appendMessages(visitor, Message{Speaker: SpeakerAgent, Text: upcoming.Prompt})
			return next, nil
		}

		next.Phase = PhaseSubmitting
		next.Transcript = s.appendMessages(visitor)
		return next, &Submit{Record: next.Answers}

	case LeadAssigned:
		if s.Phase != PhaseSubmitting || e.LeadID == "" {
			return s, nil
		}
		next := s
		next.LeadID = e.LeadID
		return next, nil

	case Delivered:
		if s.Phase != PhaseSubmitting {
			return s, nil
		}
		next := s
		next.Phase = PhaseComplete
		next.LeadID = e.LeadID
		next.LastError = ""
		next.Transcript = s.appendMessages(Message{Speaker: SpeakerAgent, Text: ThankYouMessage})
		return next, nil

	case DeliveryFailed:
		if s.Phase != PhaseSubmitting {
			return s, nil
		}
		next := s
		next.Phase = PhaseDeliveryFailed
		next.LeadID = e.LeadID
		next.LastError = e.Reason
		next.Transcript = s.appendMessages(Message{Speaker: SpeakerAgent, Text: FailureMessage})
		return next, nil

	case Retry:
		if s.Phase != PhaseDeliveryFailed {
			return s, nil
		}
		next := s
		next.Phase = PhaseSubmitting
		return next, &Submit{Record: s.Answers, LeadID: s.LeadID}
	}

	return s, nil
}
