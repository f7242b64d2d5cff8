package transform

import (
	"math"

	"github.com/HenryFroio/farmanossa-expo-demo-sub002/internal/types"
)

// FallbackDurationMinutes is the domain-calibrated typical delivery duration,
// used whenever a measured duration is missing or implausible. It is not a
// sentinel: callers cannot distinguish a fallback 10.0 from a measured 10.0.
const FallbackDurationMinutes = 10.0

// Duration validity bounds, in minutes. Results at or below zero or above
// maxPlausibleMinutes are implausible; results under minPlausibleMinutes are
// manual-registration artifacts. Both collapse to the fallback.
const (
	minPlausibleMinutes = 5.0
	maxPlausibleMinutes = 300.0
)

// EstimateDurationMinutes derives the elapsed delivery time from an order's
// event history: the first event (in list order) whose status equals departure
// to the first whose status equals arrival. Missing events or implausible
// results yield FallbackDurationMinutes; plausible results are rounded to two
// decimal places.
func EstimateDurationMinutes(history []types.StatusEvent, departure, arrival types.OrderStatus) float64 {
	var departureAt, arrivalAt *types.StatusEvent
	for i := range history {
		if departureAt == nil && history[i].Status == departure {
			departureAt = &history[i]
		}
		if arrivalAt == nil && history[i].Status == arrival {
			arrivalAt = &history[i]
		}
	}

	if departureAt == nil || arrivalAt == nil {
		return FallbackDurationMinutes
	}

	minutes := arrivalAt.Timestamp.Sub(departureAt.Timestamp).Minutes()
	if minutes <= 0 || minutes > maxPlausibleMinutes {
		return FallbackDurationMinutes
	}
	if minutes < minPlausibleMinutes {
		return FallbackDurationMinutes
	}

	return math.Round(minutes*100) / 100
}
