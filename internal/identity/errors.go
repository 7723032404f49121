package identity

import "errors"

var (
	// ErrUnauthenticated covers every credential failure: missing, malformed,
	// expired, wrong-type tokens and unknown subjects. Callers must surface it
	// uniformly and never leak which check failed.
	ErrUnauthenticated = errors.New("identity: could not validate credentials")

	// ErrInvalidToken indicates a token that failed signature, expiry or claim
	// validation.
	ErrInvalidToken = errors.New("identity: invalid token")

	// ErrTokenReused indicates a refresh token whose ledger record was missing
	// or already consumed. Treated as a security signal worth logging.
	ErrTokenReused = errors.New("identity: refresh token reused or revoked")

	ErrNotFound = errors.New("identity: not found")
	ErrConflict = errors.New("identity: already exists")
)

// FieldErrors reports per-field validation failures, surfaced as a 400 with a
// field-scoped error map.
type FieldErrors map[string][]string

func (e FieldErrors) Error() string {
	return "invalid parameter"
}
