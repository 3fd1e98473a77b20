package planet

import (
	"fmt"

	"coords-bot/internal/shared/errors"
)

// MaxCoordinate is the largest field value that keeps SortKey order equal to
// numeric order.
const MaxCoordinate = 999

// Coordinates locate a planet slot in the game universe.
type Coordinates struct {
	Galaxy int
	System int
	Planet int
}

// DisplayKey formats coordinates as "galaxy:system:planet" without padding.
func DisplayKey(galaxy, system, planet int) string {
	return fmt.Sprintf("%d:%d:%d", galaxy, system, planet)
}

// SortKey zero-pads each field to three digits so lexicographic order matches
// numeric order for fields in [0, 999]. Larger values are not monotonic,
// which is why Validate rejects them.
func SortKey(galaxy, system, planet int) string {
	return fmt.Sprintf("%03d%03d%03d", galaxy, system, planet)
}

func (c Coordinates) DisplayKey() string {
	return DisplayKey(c.Galaxy, c.System, c.Planet)
}

func (c Coordinates) SortKey() string {
	return SortKey(c.Galaxy, c.System, c.Planet)
}

func (c Coordinates) Validate() error {
	fields := []struct {
		name  string
		value int
	}{
		{"galaxy", c.Galaxy},
		{"system", c.System},
		{"planet", c.Planet},
	}
	for _, f := range fields {
		if f.value < 0 || f.value > MaxCoordinate {
			return errors.Validationf("invalid argument: %s must be between 0 and %d, got %d", f.name, MaxCoordinate, f.value)
		}
	}
	return nil
}
