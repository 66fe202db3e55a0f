package force

import "fmt"

// DefaultCoolingRate is the temperature multiplier applied once per cycle.
const DefaultCoolingRate = 0.93

// Cooling lowers the temperature bounding vertex displacement.
type Cooling interface {
	Cool(temp float64) float64
}

// Linear multiplies the temperature by a constant rate in (0, 1].
type Linear struct {
	Rate float64
}

// NewLinear validates rate and returns a Linear cooling schedule.
func NewLinear(rate float64) (Linear, error) {
	if rate <= 0 || rate > 1 {
		return Linear{}, fmt.Errorf("cooling rate %v outside (0, 1]", rate)
	}
	return Linear{Rate: rate}, nil
}

// Cool implements [Cooling]. A zero Rate uses DefaultCoolingRate.
func (l Linear) Cool(temp float64) float64 {
	rate := l.Rate
	if rate == 0 {
		rate = DefaultCoolingRate
	}
	return temp * rate
}
