// Package pipeline turns accumulated wizard state into the canonical listing
// payload and back. Every function here is pure and never fails; degraded fields
// are reported through Diagnostics.
package pipeline

import (
	"listing_editor/internal/domain"
)

// Run sanitizes st, assembles the payload against lk and fills locale gaps.
func Run(st domain.State, lk *domain.Lookups) (domain.Listing, Diagnostics) {
	clean, diag := SanitizeState(st)
	l, more := Assemble(clean, lk)
	FillGaps(&l)
	return l, append(diag, more...)
}
