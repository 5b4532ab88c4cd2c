package utils

import (
	"github.com/google/uuid"
)

// Namespace for deterministic placeId derivation. Changing it would remap
// every migrated pin, so it is fixed.
var placeIDNamespace = uuid.MustParse("9a7b6c5d-4e3f-2a1b-0c9d-8e7f6a5b4c3d")

// GeneratePinID returns a fresh random pin identifier. Used when healing
// synthesizes an id for a record that lost its own.
func GeneratePinID() string {
	return uuid.New().String()
}

// DerivePlaceID deterministically derives a canonical place key from a pin
// id. The same pin id always yields the same placeId, which keeps migration
// idempotent and reproducible across runs.
func DerivePlaceID(pinID string) string {
	return "place-" + uuid.NewSHA1(placeIDNamespace, []byte(pinID)).String()
}
