// Package fare computes per-seat prices and per-booking totals. All
// functions are deterministic and side-effect free; amounts are whole
// currency units.
package fare

import (
	"errors"
	"fmt"

	"github.com/roadlink/booking-backend/internal/models"
)

// ErrInvalidFareInput is returned for negative or otherwise unusable
// pricing inputs. These indicate a configuration or programming error,
// not a user mistake.
var ErrInvalidFareInput = errors.New("invalid fare input")

// PriceForSeat prices one seat from the trip's pricing configuration.
// Window seats carry a surcharge, middle seats a discount floored at zero,
// aisle seats the base price. Driver seats are never priced; they are
// excluded from inventory entirely.
func PriceForSeat(basePrice int64, class models.SeatClass, windowExtra, middleDiscount int64) (int64, error) {
	if basePrice < 0 || windowExtra < 0 || middleDiscount < 0 {
		return 0, fmt.Errorf("%w: base=%d window_extra=%d middle_discount=%d",
			ErrInvalidFareInput, basePrice, windowExtra, middleDiscount)
	}

	switch class {
	case models.SeatClassWindow:
		return basePrice + windowExtra, nil
	case models.SeatClassMiddle:
		price := basePrice - middleDiscount
		if price < 0 {
			price = 0
		}
		return price, nil
	case models.SeatClassAisle:
		return basePrice, nil
	case models.SeatClassDriver:
		return 0, fmt.Errorf("%w: driver seats are not priced", ErrInvalidFareInput)
	default:
		return 0, fmt.Errorf("%w: unknown seat class %q", ErrInvalidFareInput, class)
	}
}

// TotalForSelection sums the already-materialized seat prices of a selection
func TotalForSelection(seats []models.TripSeat) int64 {
	var total int64
	for _, seat := range seats {
		total += seat.SeatPrice
	}
	return total
}

// AdvanceForTotal computes the advance payment for a total, rounding
// half-up to the nearest whole currency unit. The result is the exact
// amount charged through the payment gateway, so the rounding rule is
// part of the contract, not a cosmetic choice.
func AdvanceForTotal(total int64, advancePercentage int) (int64, error) {
	if total < 0 {
		return 0, fmt.Errorf("%w: negative total %d", ErrInvalidFareInput, total)
	}
	if advancePercentage < 0 || advancePercentage > 100 {
		return 0, fmt.Errorf("%w: advance percentage %d out of range", ErrInvalidFareInput, advancePercentage)
	}

	// round-half-up on non-negative integers
	return (total*int64(advancePercentage) + 50) / 100, nil
}
