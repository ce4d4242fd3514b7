package conversation

import "slices"

// Speaker identifies the author of a transcript message.
type Speaker string

const (
	SpeakerAgent   Speaker = "agent"
	SpeakerVisitor Speaker = "visitor"
)

// Message is one transcript entry.
type Message struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// Phase is the tag of the conversation state.
type Phase string

const (
	PhaseAwaitingName    Phase = "awaiting_name"
	PhaseAwaitingSphere  Phase = "awaiting_sphere"
	PhaseAwaitingProcess Phase = "awaiting_process"
	PhaseAwaitingContact Phase = "awaiting_contact"
	PhaseSubmitting      Phase = "submitting"
	PhaseComplete        Phase = "complete"
	PhaseDeliveryFailed  Phase = "delivery_failed"
)

func awaitingPhase(f Field) Phase {
	return Phase("awaiting_" + string(f))
}

// State is the full conversation value. Treat it as immutable: Reduce never
// mutates its input and never shares transcript backing arrays.
type State struct {
	Phase      Phase     `json:"phase"`
	StepIndex  int       `json:"step_index"`
	Answers    Record    `json:"answers"`
	Transcript []Message `json:"transcript"`
	LeadID     string    `json:"lead_id,omitempty"`
	LastError  string    `json:"last_error,omitempty"`
}

// New returns the initial state: awaiting the first field with its prompt in
// the transcript.
func New() State {
	first := Script[0]
	return State{
		Phase:      awaitingPhase(first.Field),
		Transcript: []Message{{Speaker: SpeakerAgent, Text: first.Prompt}},
	}
}

// Awaiting reports whether the state is waiting for a visitor answer.
func (s State) Awaiting() bool {
	return s.StepIndex < len(Script) && s.Phase == awaitingPhase(Script[s.StepIndex].Field)
}

// CurrentQuestion returns the question being asked, if any.
func (s State) CurrentQuestion() (Question, bool) {
	if !s.Awaiting() {
		return Question{}, false
	}
	return Script[s.StepIndex], true
}

// InputEnabled reports whether the widget should accept visitor text.
func (s State) InputEnabled() bool {
	return s.Awaiting()
}

// CanRetry reports whether a failed submission may be retried.
func (s State) CanRetry() bool {
	return s.Phase == PhaseDeliveryFailed
}

// Complete reports whether all answers have been collected.
func (s State) Complete() bool {
	return s.StepIndex == len(Script)
}

func (s State) appendMessages(msgs ...Message) []Message {
	out := slices.Clone(s.Transcript)
	return append(out, msgs...)
}
