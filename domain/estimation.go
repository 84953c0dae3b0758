package domain

import (
	"math"
	"strconv"
)

// Estimation is an immutable card value: a number, positive infinity
// ("too big to estimate") or null (the "?" card).
type Estimation struct {
	value *float64
}

func NewEstimation(v float64) Estimation {
	return Estimation{value: &v}
}

func NullEstimation() Estimation {
	return Estimation{}
}

func InfiniteEstimation() Estimation {
	return NewEstimation(math.Inf(1))
}

// EstimationFromPtr maps nil to the null card.
func EstimationFromPtr(v *float64) Estimation {
	if v == nil {
		return NullEstimation()
	}
	return NewEstimation(*v)
}

func (e Estimation) Value() (float64, bool) {
	if e.value == nil {
		return 0, false
	}
	return *e.value, true
}

// Ptr returns a copy of the underlying number, nil for the null card.
func (e Estimation) Ptr() *float64 {
	if e.value == nil {
		return nil
	}
	v := *e.value
	return &v
}

func (e Estimation) IsNull() bool {
	return e.value == nil
}

func (e Estimation) IsInfinite() bool {
	return e.value != nil && math.IsInf(*e.value, 1)
}

// Equal is exact: two nulls are equal, NaN equals nothing.
func (e Estimation) Equal(other Estimation) bool {
	if e.value == nil || other.value == nil {
		return e.value == nil && other.value == nil
	}
	return *e.value == *other.value
}

func (e Estimation) String() string {
	switch {
	case e.value == nil:
		return "?"
	case e.IsInfinite():
		return "Infinity"
	default:
		return strconv.FormatFloat(*e.value, 'f', -1, 64)
	}
}

// DefaultEstimations is the card set of a newly created session.
func DefaultEstimations() []Estimation {
	return []Estimation{
		NewEstimation(0),
		NewEstimation(0.5),
		NewEstimation(1),
		NewEstimation(2),
		NewEstimation(3),
		NewEstimation(5),
		NewEstimation(8),
		NewEstimation(13),
		NewEstimation(20),
		NewEstimation(40),
		NewEstimation(100),
		InfiniteEstimation(),
		NullEstimation(),
	}
}

func containsEstimation(values []Estimation, e Estimation) bool {
	for _, v := range values {
		if v.Equal(e) {
			return true
		}
	}
	return false
}
