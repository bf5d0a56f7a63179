package scheduler

import "errors"

var (
	// ErrUnknownSystem marks a lookup against an unregistered SystemId.
	ErrUnknownSystem = errors.New("scheduler: unknown system")

	// ErrUnknownCondition marks a lookup against an unregistered
	// ConditionId.
	ErrUnknownCondition = errors.New("scheduler: unknown condition")

	// ErrCyclicTags marks a tag graph with no valid topological order.
	ErrCyclicTags = errors.New("scheduler: cyclic tag ordering")

	// ErrUnknownTag marks a Before/After reference to a tag that
	// was never declared.
	ErrUnknownTag = errors.New("scheduler: unknown tag")
)
