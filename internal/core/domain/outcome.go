package domain

// InventoryOutcome describes what happened to the inventory side of a
// coordinated operation. It is a result value, not an error: the order
// store is the system of record and its mutations stand regardless of
// inventory bookkeeping.
type InventoryOutcome string

const (
	// OutcomeAdjusted means the inventory record was updated; both stores
	// are consistent.
	OutcomeAdjusted InventoryOutcome = "adjusted"

	// OutcomeUntracked means no inventory record exists for the menu item,
	// so there was nothing to adjust.
	OutcomeUntracked InventoryOutcome = "untracked"

	// OutcomeAdjustFailed means the order store changed but inventory did
	// not. The stores disagree until someone reconciles them.
	OutcomeAdjustFailed InventoryOutcome = "adjust_failed"

	// OutcomeSkipped means the operation had nothing to do, e.g. releasing
	// a line that was already deleted.
	OutcomeSkipped InventoryOutcome = "skipped"
)
