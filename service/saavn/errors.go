package saavn

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstreamUnavailable covers connection failures, timeouts, non-2xx responses,
	// unparsable bodies and an open circuit breaker.
	ErrUpstreamUnavailable = errors.New("saavn: upstream unavailable")

	// ErrNotFound is a well-formed response carrying no entity.
	ErrNotFound = errors.New("saavn: not found")

	// ErrDecryptionFailed means a media URL could not be recovered. It never leaves the normalizer.
	ErrDecryptionFailed = errors.New("saavn: media url decryption failed")
)

// PartialEnrichmentError reports detail fetches that failed during one Enrich call.
// It is logged, never returned to catalog callers.
type PartialEnrichmentError struct {
	Requested int
	Errs      map[string]error // song id -> cause
}

func (e *PartialEnrichmentError) Error() string {
	return fmt.Sprintf("saavn: enriched %d of %d songs", e.Requested-len(e.Errs), e.Requested)
}

// Unwrap exposes the individual causes to errors.Is / errors.As.
func (e *PartialEnrichmentError) Unwrap() []error {
	errs := make([]error, 0, len(e.Errs))
	for _, err := range e.Errs {
		errs = append(errs, err)
	}
	return errs
}
