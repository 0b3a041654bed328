package planner

import "errors"

var (
	// ErrBudgetMismatch means the rounded per-gap day counts do not add up to
	// the vacation budget. It signals a logic defect and must abort the run.
	ErrBudgetMismatch = errors.New("planner: allocated days do not match vacation budget")

	// ErrNoCapacity means there is a positive budget but no gap that may
	// receive a vacation day (every gap is low, or no weeks remain).
	ErrNoCapacity = errors.New("planner: no interval can take vacation days")

	// ErrBudgetExceeded means more fixed vacation days were given than the budget allows.
	ErrBudgetExceeded = errors.New("planner: fixed vacation days exceed budget")

	// ErrInvalidBudget means a negative vacation budget.
	ErrInvalidBudget = errors.New("planner: vacation budget must not be negative")

	// ErrUnknownRegion means the holiday set has no entry for the region.
	ErrUnknownRegion = errors.New("planner: unknown region")

	// ErrNoBoundaries means Allocate was called without the year-end boundary.
	ErrNoBoundaries = errors.New("planner: no boundary dates")

	// ErrRoundInput means RoundPreservingSum got a target it cannot reach or
	// a value that is not finite.
	ErrRoundInput = errors.New("planner: cannot round values")
)
