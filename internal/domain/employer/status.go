package employer

import "github.com/cockroachdb/errors"

// Status is the moderation state of a submission.
//
//	pending ──► approved
//	   └──────► rejected
//
// approved and rejected are terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

var validTransitions = map[Status][]Status{
	StatusPending: {StatusApproved, StatusRejected},
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusPending, StatusApproved, StatusRejected:
		return st, nil
	}
	return "", errors.Newf("unknown submission status %q", s)
}

func IsTransitionAllowed(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s Status) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}
