package session

import "errors"

// Session errors.
var (
	// ErrNotFound is returned by stores when no record exists for a key.
	ErrNotFound = errors.New("session: not found")

	// ErrInvalidRecord is returned when a stored record fails to parse or
	// carries an unknown kind discriminant.
	ErrInvalidRecord = errors.New("session: invalid session record")

	// ErrSaveFailed is returned when a session could not be persisted.
	// Login flows must surface this to the user: a login that silently
	// fails to stick is worse than a visible error.
	ErrSaveFailed = errors.New("session: save failed")

	// ErrVerifyFailed marks a post-save verification mismatch: the primary
	// store does not contain the bytes that were just written. It is
	// reported through the logger, not returned to callers.
	ErrVerifyFailed = errors.New("session: write verification failed")

	// ErrCredentialNotFound is returned by CredentialSource lookups when
	// the credential row definitively does not exist. It is an
	// authoritative revocation signal, unlike transport errors which the
	// validator treats as fail-open.
	ErrCredentialNotFound = errors.New("session: credential not found")
)
