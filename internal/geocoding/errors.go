package geocoding

import "fmt"

// FailureKind classifies why an address could not be resolved. The kind
// decides retry eligibility and is persisted on the building for operators.
type FailureKind string

const (
	// NoMatch: the provider returned zero results. Retried, since roll
	// addresses are often fixable by a later variant or data refresh.
	NoMatch FailureKind = "no_match"
	// AmbiguousMatch: several candidates and the policy refuses to pick
	// one. Permanent until an operator corrects the address.
	AmbiguousMatch FailureKind = "ambiguous_match"
	// ProviderError: transient provider trouble (timeout, 5xx, 429).
	ProviderError FailureKind = "provider_error"
	// InvalidInput: the address itself is unusable. Never retried.
	InvalidInput FailureKind = "invalid_input"
)

// Error is the adapter's failure result for one lookup.
type Error struct {
	Kind    FailureKind
	Address string
	Detail  string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("geocode %q: %s", e.Address, e.Kind)
	}
	return fmt.Sprintf("geocode %q: %s: %s", e.Address, e.Kind, e.Detail)
}

// Retryable reports whether a later batch run may succeed without operator
// intervention.
func (e *Error) Retryable() bool {
	return e.Kind == ProviderError || e.Kind == NoMatch
}
