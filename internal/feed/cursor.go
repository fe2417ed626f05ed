// Package feed selects which listing a browsing user sees next, injecting
// promotional listings at random into forward navigation.
package feed

import "errors"

// Boundary signals for paging. Both leave the cursor unchanged.
var (
	ErrAtEnd   = errors.New("feed: already at the last listing")
	ErrAtStart = errors.New("feed: already at the first listing")
)

// Advance computes the next zero-based cursor for a paging request over total
// listings. Moving past either end returns a boundary error and the cursor
// unchanged.
func Advance(cursor, total int, forward bool) (int, error) {
	if forward {
		if cursor >= total-1 {
			return cursor, ErrAtEnd
		}
		return cursor + 1, nil
	}
	if cursor <= 0 {
		return cursor, ErrAtStart
	}
	return cursor - 1, nil
}

// InjectPromo decides whether a successful forward transition renders a
// promotional interlude instead of the next regular listing. roll is a
// uniform draw in [0, 1). Never injects twice in a row: the press after an
// interlude must reveal the regular listing the interlude displaced.
func InjectPromo(roll, rate float64, promoCount int, afterPromo bool) bool {
	return promoCount > 0 && !afterPromo && roll < rate
}
