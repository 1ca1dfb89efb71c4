package forms

// State is the lifecycle phase of a submission.
type State string

const (
	StateIdle      State = "idle"
	StatePending   State = "pending"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// MessageSubmitFailed is the translation key of the single user-facing
// failure message.
const MessageSubmitFailed = "forms.error.submit"

// Status drives which branch of the form UI is rendered.
type Status struct {
	State State
	// Message is a translation key, set only when State is StateFailed.
	Message string
}

func idle() Status { return Status{State: StateIdle} }

func failed(message string) Status { return Status{State: StateFailed, Message: message} }

func (s Status) IsIdle() bool      { return s.State == StateIdle || s.State == "" }
func (s Status) IsPending() bool   { return s.State == StatePending }
func (s Status) IsSucceeded() bool { return s.State == StateSucceeded }
func (s Status) IsFailed() bool    { return s.State == StateFailed }
