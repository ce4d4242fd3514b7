package chat

import "github.com/smagents/landing/internal/conversation"

// View is the client-facing rendering of a conversation.
type View struct {
	Phase        conversation.Phase     `json:"phase"`
	StepIndex    int                    `json:"step_index"`
	TotalSteps   int                    `json:"total_steps"`
	Answers      conversation.Record    `json:"answers"`
	Transcript   []conversation.Message `json:"transcript"`
	InputEnabled bool                   `json:"input_enabled"`
	CanRetry     bool                   `json:"can_retry"`
	LeadID       string                 `json:"lead_id,omitempty"`
}

// NewView renders st for clients.
func NewView(st conversation.State) View {
	transcript := st.Transcript
	if transcript == nil {
		transcript = []conversation.Message{}
	}
	return View{
		Phase:        st.Phase,
		StepIndex:    st.StepIndex,
		TotalSteps:   len(conversation.Script),
		Answers:      st.Answers,
		Transcript:   transcript,
		InputEnabled: st.InputEnabled(),
		CanRetry:     st.CanRetry(),
		LeadID:       st.LeadID,
	}
}

// MessageRequest is the body of POST /api/chat/messages.
type MessageRequest struct {
	Text string `json:"text"`
}

// StateResponse wraps a view with whether the action changed the conversation.
type StateResponse struct {
	Accepted bool `json:"accepted"`
	State    View `json:"state"`
}
