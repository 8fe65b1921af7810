package app

import "github.com/promopulse/promotion-service/internal/domain"

const (
	defaultPageLimit = 100
	maxPageLimit     = 1000
)

// normalizePage applies the limit/offset defaults and bounds shared by every
// listing: limit defaults to 100 and must stay within [1, 1000]; offset
// defaults to 0 and must not be negative. Out-of-range values are rejected
// rather than clamped.
func normalizePage(limit, offset *int) error {
	if *limit == 0 {
		*limit = defaultPageLimit
	}
	if *limit < 1 || *limit > maxPageLimit {
		return domain.NewValidationError("limit must be between 1 and %d, got %d", maxPageLimit, *limit)
	}
	if *offset < 0 {
		return domain.NewValidationError("offset must not be negative, got %d", *offset)
	}
	return nil
}
