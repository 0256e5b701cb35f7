package domain

// Channel is the transport used for one notification attempt.
type Channel string

const (
	ChannelEmail   Channel = "email"
	ChannelMessage Channel = "message"
)

func (c Channel) String() string {
	return string(c)
}

// Role identifies which contact of the obligation an attempt targets.
type Role string

const (
	RoleClient     Role = "client"
	RoleAccountant Role = "accountant"
)

func (r Role) String() string {
	return string(r)
}

type Outcome string

const (
	OutcomePending Outcome = "pending"
	OutcomeSent    Outcome = "sent"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

func (o Outcome) String() string {
	return string(o)
}

// SkipReasonSimulated marks attempts that would have been sent outside simulation.
const SkipReasonSimulated = "simulated"

// NotificationAttempt is one (channel, recipient) pair considered for an obligation.
type NotificationAttempt struct {
	Channel       Channel `json:"channel"`
	Role          Role    `json:"role"`
	Recipient     string  `json:"recipient"`
	ObligationID  string  `json:"obligation_id"`
	Text          string  `json:"-"`
	Outcome       Outcome `json:"outcome"`
	SkipReason    string  `json:"skip_reason,omitempty"`
	FailureReason string  `json:"failure_reason,omitempty"`
	Simulated     bool    `json:"simulated"`
}

// IsPlanned reports whether the attempt passed its preconditions and still
// waits for a send decision.
func (a *NotificationAttempt) IsPlanned() bool {
	return a.Outcome == OutcomePending
}

func (a *NotificationAttempt) MarkSent() {
	a.Outcome = OutcomeSent
	a.SkipReason = ""
	a.FailureReason = ""
}

func (a *NotificationAttempt) MarkSkipped(reason string) {
	a.Outcome = OutcomeSkipped
	a.SkipReason = reason
	a.FailureReason = ""
}

func (a *NotificationAttempt) MarkSimulated() {
	a.MarkSkipped(SkipReasonSimulated)
	a.Simulated = true
}

func (a *NotificationAttempt) MarkFailed(err error) {
	a.Outcome = OutcomeFailed
	a.SkipReason = ""
	a.FailureReason = "unknown failure"
	if err != nil {
		a.FailureReason = err.Error()
	}
}
