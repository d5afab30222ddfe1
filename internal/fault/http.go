package fault

import "fmt"

// FromStatus classifies an unexpected HTTP response:
//   - 401/403 → Unauthenticated, irrecoverable
//   - 404 → NotFound, irrecoverable
//   - 400/422 → ValidationFailed, irrecoverable
//   - 408/429 and 5xx → NetworkFailure, recoverable
//   - other 4xx → NetworkFailure, irrecoverable
func FromStatus(statusCode int, body, op string) *Fault {
	kind, category := classifyStatus(statusCode)
	return &Fault{
		Kind:       kind,
		Category:   category,
		StatusCode: statusCode,
		Body:       body,
		Op:         op,
		Err:        fmt.Errorf("unexpected status %d", statusCode),
	}
}

func classifyStatus(statusCode int) (Kind, Category) {
	switch {
	case statusCode == 401 || statusCode == 403:
		return Unauthenticated, Irrecoverable
	case statusCode == 404:
		return NotFound, Irrecoverable
	case statusCode == 400 || statusCode == 422:
		return ValidationFailed, Irrecoverable
	case statusCode == 408 || statusCode == 429:
		return NetworkFailure, Recoverable
	case statusCode >= 500 && statusCode < 600:
		return NetworkFailure, Recoverable
	default:
		return NetworkFailure, Irrecoverable
	}
}

// Network wraps a transport-level failure. Always recoverable; the
// request may succeed on retry.
func Network(op string, err error) *Fault {
	return &Fault{
		Kind:     NetworkFailure,
		Category: Recoverable,
		Op:       op,
		Err:      err,
	}
}
