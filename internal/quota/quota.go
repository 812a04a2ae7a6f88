package quota

import "github.com/indigo-web/formbody/http/status"

// Quotas tracks the two byte budgets of a single body parse: one for data
// kept in memory (headers and field values), one for data streamed to disk.
// The value is immutable: every decrement returns a replacement, so a parse
// step takes and hands back its own quota state.
type Quotas struct {
	Body, Files int
}

func New(body, files int) Quotas {
	return Quotas{Body: body, Files: files}
}

// DecrBody charges n bytes against the in-memory budget. n may be negative:
// steps that complete a delimiter refund the overhead bytes charged along
// with the chunks that carried them. A budget dropping below zero terminates
// the parse; quota state past that point is unusable.
func (q Quotas) DecrBody(n int) (Quotas, error) {
	q.Body -= n
	if q.Body < 0 {
		return q, status.ErrBodyTooLarge
	}

	return q, nil
}

// DecrFiles is DecrBody for the on-disk budget. Both budgets fail with the
// same error on purpose: the response must not reveal which limit tripped.
func (q Quotas) DecrFiles(n int) (Quotas, error) {
	q.Files -= n
	if q.Files < 0 {
		return q, status.ErrBodyTooLarge
	}

	return q, nil
}
