// Package wizard folds step patches into a listing draft. Every function returns
// a new Draft; the input draft and its state are never modified.
package wizard

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"listing_editor/internal/domain"
)

const (
	FirstStep = 1
	LastStep  = 4
)

// New starts a draft. A non-empty listingID opens it in edit mode over seed, which
// is expected to come from the rehydrator; every step then counts as visited.
func New(listingID string, seed domain.State) domain.Draft {
	d := domain.Draft{
		ID:        uuid.NewString(),
		Mode:      domain.ModeCreate,
		Step:      FirstStep,
		Completed: []int{},
		State:     domain.State{}.Apply(seed),
		UpdatedAt: time.Now().UTC(),
	}
	if listingID != "" {
		d.Mode = domain.ModeEdit
		d.ListingID = listingID
		for s := FirstStep; s <= LastStep; s++ {
			d.Completed = append(d.Completed, s)
		}
	}
	return d
}

// Reduce applies patch as the output of step and advances the cursor. A nil value
// in patch clears that key.
func Reduce(d domain.Draft, step int, patch domain.State) (domain.Draft, error) {
	if step < FirstStep || step > LastStep {
		return d, fmt.Errorf("%w: %d", domain.ErrInvalidStep, step)
	}
	next := d
	next.State = d.State.Apply(patch)
	next.Completed = append([]int(nil), d.Completed...)
	if !slices.Contains(next.Completed, step) {
		next.Completed = append(next.Completed, step)
		slices.Sort(next.Completed)
	}
	next.Step = min(step+1, LastStep)
	next.UpdatedAt = time.Now().UTC()
	return next, nil
}

// Slice returns the part of the state a step edits.
func Slice(d domain.Draft, step int) (domain.State, error) {
	keys, ok := domain.StepKeys[step]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidStep, step)
	}
	return d.State.Pick(keys...), nil
}

// Ready reports whether every step has been completed at least once.
func Ready(d domain.Draft) bool {
	for s := FirstStep; s <= LastStep; s++ {
		if !slices.Contains(d.Completed, s) {
			return false
		}
	}
	return true
}
