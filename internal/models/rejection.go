package models

// Scan outcomes and rejection codes. Every resolved scan attempt lands on
// exactly one of these; accepted scans get one of the admitted outcomes,
// everything else is a typed rejection.
const (
	OutcomeFullyAdmitted        = "fully_admitted"
	OutcomePartiallyAdmitted    = "partially_admitted"
	OutcomeForged               = "forged"
	OutcomeExpired              = "expired"
	OutcomeOutsideEventWindow   = "outside_event_window"
	OutcomeMismatch             = "mismatch"
	OutcomeNotConfirmed         = "not_confirmed"
	OutcomeInvalidQuantity      = "invalid_quantity"
	OutcomeAlreadyFullyAdmitted = "already_fully_admitted"
	OutcomeConflict             = "conflict"
	OutcomeNotFound             = "not_found"
)

// Rejection is a typed refusal with a short operator-facing message.
// It implements error so it can flow back through the normal error path
// without being coerced into a generic failure.
type Rejection struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (r *Rejection) Error() string {
	return r.Message
}

func NewRejection(code, message string) *Rejection {
	return &Rejection{Code: code, Message: message}
}

// Benign reports whether the rejection is an expected-under-contention
// outcome (duplicate scan or lost race) rather than a real error.
func (r *Rejection) Benign() bool {
	return r.Code == OutcomeAlreadyFullyAdmitted || r.Code == OutcomeConflict
}
