// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package normalize

import (
	"fmt"
	"math"
)

// DecayPolicy maps evidence age to a confidence multiplier. A policy
// must return 1.0 at age zero and must be monotonically non-increasing
// as age grows; ValidatePolicy probes both properties before a policy
// is put to work.
type DecayPolicy interface {
	// Factor returns the multiplier applied to a record's base
	// confidence. ageMonths is never negative.
	Factor(ageMonths float64) float64
}

// NoDecay keeps confidence untouched regardless of age.
type NoDecay struct{}

func (NoDecay) Factor(float64) float64 { return 1.0 }

// LinearDecay reduces confidence by RatePerMonth for every month of
// age, flooring at Floor so old evidence never drops to zero weight.
type LinearDecay struct {
	RatePerMonth float64
	Floor        float64
}

func (d LinearDecay) Factor(ageMonths float64) float64 {
	return math.Max(d.Floor, 1.0-d.RatePerMonth*ageMonths)
}

// ExponentialDecay halves the confidence multiplier every
// HalfLifeMonths months.
type ExponentialDecay struct {
	HalfLifeMonths float64
}

func (d ExponentialDecay) Factor(ageMonths float64) float64 {
	if d.HalfLifeMonths <= 0 {
		return 1.0
	}
	return math.Exp2(-ageMonths / d.HalfLifeMonths)
}

// DefaultDecay is the policy used when a normalizer is built without
// an explicit one: a gentle linear ramp that keeps two-year-old
// evidence at roughly three quarters of its original confidence.
func DefaultDecay() DecayPolicy {
	return LinearDecay{RatePerMonth: 0.01, Floor: 0.25}
}

// probe ages, in months, used to spot-check monotonicity
var probeAges = []float64{0, 1, 3, 6, 12, 24, 60, 120}

// ValidatePolicy checks that policy returns 1.0 at age zero and is
// non-increasing across a spread of probe ages. It cannot prove
// monotonicity for arbitrary functions, but it catches the mistakes
// that matter in practice.
func ValidatePolicy(policy DecayPolicy) error {
	if policy == nil {
		return fmt.Errorf("%w: policy is nil", ErrInvalidDecayPolicy)
	}
	prev := math.Inf(1)
	for _, age := range probeAges {
		factor := policy.Factor(age)
		if math.IsNaN(factor) || factor < 0 || factor > 1 {
			return fmt.Errorf("%w: factor %g at age %g is outside [0, 1]", ErrInvalidDecayPolicy, factor, age)
		}
		if age == 0 && factor != 1.0 {
			return fmt.Errorf("%w: factor at age 0 must be 1.0, got %g", ErrInvalidDecayPolicy, factor)
		}
		if factor > prev {
			return fmt.Errorf("%w: factor increases at age %g (%g > %g)", ErrInvalidDecayPolicy, age, factor, prev)
		}
		prev = factor
	}
	return nil
}
