package counting

import (
	"stocktake/internal/core/id"
	"stocktake/internal/core/types"
)

// RemainingExpected computes the expected quantity still to be found for a
// product in the active area, given what completed areas already recorded.
//
// The par level is a session-level baseline, not a per-area one. A product
// kept in several areas must not be expected at full par in each: quantities
// recorded in areas that are already completed are subtracted first, and the
// result is floored at zero.
//
// The active area is excluded from the completed sum even when it is itself
// completed, so a reviewer sees the figure that was live while that area was
// being counted.
//
// The value is advisory and must be recomputed on every read; it changes as
// areas complete.
func RemainingExpected(session *CountSession, productID id.ID, parLevel types.Quantity, activeAreaID id.ID) types.Quantity {
	if parLevel <= 0 {
		return 0
	}

	var counted types.Quantity
	for i := range session.Areas {
		area := &session.Areas[i]
		if area.ID == activeAreaID {
			continue
		}
		if area.Status != AreaCompleted {
			continue
		}
		if item := area.findItem(productID); item != nil {
			counted += item.TotalQuantity
		}
	}

	remaining := parLevel - counted
	if remaining < 0 {
		return 0
	}
	return remaining
}
