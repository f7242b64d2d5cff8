package transform

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/HenryFroio/farmanossa-expo-demo-sub002/internal/types"
)

// plateFormat matches both the legacy (ABC1234) and Mercosul (ABC1D23) plate
// formats: three letters, one digit, one alphanumeric, two digits. Hyphens and
// spaces are stripped before matching.
var plateFormat = regexp.MustCompile(`^[A-Z]{3}[0-9][A-Z0-9][0-9]{2}$`)

// VehicleRegistry resolves an internal vehicle reference to its registry entry.
type VehicleRegistry interface {
	GetMotorcycle(ctx context.Context, id string) (*types.Motorcycle, error)
}

// PlateResolver resolves a possibly-indirect vehicle identifier to a display
// plate. Inputs already in plate format short-circuit without a lookup; lookup
// misses and errors degrade to pass-through, never to an absent value.
type PlateResolver struct {
	registry VehicleRegistry
}

// NewPlateResolver creates a resolver backed by the given registry.
func NewPlateResolver(registry VehicleRegistry) *PlateResolver {
	return &PlateResolver{registry: registry}
}

// Resolve returns the canonical plate for idOrPlate. Empty input returns
// empty. Plate-formatted input is returned unchanged. Anything else is looked
// up in the vehicle registry; on a hit the registry plate is returned, on a
// miss or lookup failure the original input is returned unchanged.
func (r *PlateResolver) Resolve(ctx context.Context, idOrPlate string) string {
	if idOrPlate == "" {
		return ""
	}

	if IsPlateFormat(idOrPlate) {
		return idOrPlate
	}

	moto, err := r.registry.GetMotorcycle(ctx, idOrPlate)
	if err != nil {
		slog.Warn("vehicle lookup failed, passing identifier through",
			"component", "transform",
			"action", "plate_lookup_failed",
			"vehicle_ref", idOrPlate,
			"error", err,
		)
		return idOrPlate
	}
	if moto == nil || moto.Plate == "" {
		return idOrPlate
	}
	return moto.Plate
}

// IsPlateFormat reports whether the value, with hyphens and spaces removed,
// matches a known plate format.
func IsPlateFormat(value string) bool {
	stripped := strings.NewReplacer("-", "", " ", "").Replace(value)
	return plateFormat.MatchString(strings.ToUpper(stripped))
}
