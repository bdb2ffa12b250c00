package montecarlo

import (
	"errors"
	"fmt"
	"math"

	"parlay-lab/internal/mathutil"
)

// pOver never reports certainty either way.
const (
	MinPOver = 0.01
	MaxPOver = 0.99
)

// ErrInvalidRequest marks a request the worker refuses to simulate.
var ErrInvalidRequest = errors.New("invalid simulation request")

// Request asks for P(final stat >= Line) for an in-progress prop.
type Request struct {
	ID           string  `json:"id"`
	Projected    float64 `json:"projected"` // projected final value
	SigmaRem     float64 `json:"sigma_rem"` // std dev of what is still to come
	Line         float64 `json:"line"`
	CurrentValue float64 `json:"current_value"` // already accrued
	SimCount     int     `json:"sim_count"`
}

// Response answers exactly one Request, matched by ID.
type Response struct {
	ID    string  `json:"id"`
	POver float64 `json:"p_over"`
	Err   error   `json:"-"`
}

// Source is the uniform random source draws are taken from.
// *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Validate rejects requests that cannot produce a meaningful probability.
func (r Request) Validate() error {
	if err := r.checkFinite(); err != nil {
		return err
	}
	return r.checkSimCount()
}

func (r Request) checkFinite() error {
	for name, v := range map[string]float64{
		"projected":     r.Projected,
		"sigma_rem":     r.SigmaRem,
		"line":          r.Line,
		"current_value": r.CurrentValue,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidRequest, name)
		}
	}
	return nil
}

func (r Request) checkSimCount() error {
	if r.SimCount <= 0 {
		return fmt.Errorf("%w: sim_count must be positive, got %d", ErrInvalidRequest, r.SimCount)
	}
	return nil
}

// Estimate runs SimCount Gaussian draws of the remaining production and
// returns the share of outcomes finishing at or above the line, clamped to
// [MinPOver, MaxPOver]. The remaining contribution is floored at zero.
// With no remaining uncertainty it short-circuits to MaxPOver or MinPOver
// without drawing, so SimCount is not checked on that path.
func Estimate(req Request, src Source) (float64, error) {
	if err := req.checkFinite(); err != nil {
		return 0, err
	}

	if req.SigmaRem <= 0 {
		if req.Projected >= req.Line {
			return MaxPOver, nil
		}
		return MinPOver, nil
	}
	if err := req.checkSimCount(); err != nil {
		return 0, err
	}

	remainingMean := req.Projected - req.CurrentValue
	over := 0
	for i := 0; i < req.SimCount; i++ {
		remaining := remainingMean + boxMuller(src)*req.SigmaRem
		if remaining < 0 {
			remaining = 0
		}
		if req.CurrentValue+remaining >= req.Line {
			over++
		}
	}

	return mathutil.Clamp(float64(over)/float64(req.SimCount), MinPOver, MaxPOver), nil
}

// boxMuller draws one standard normal from two uniforms.
func boxMuller(src Source) float64 {
	u1 := src.Float64()
	for u1 == 0 {
		u1 = src.Float64()
	}
	u2 := src.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// Analytic is the closed-form counterpart of Estimate under the same model,
// clamped the same way. Useful as a reference for sizing SimCount.
func Analytic(req Request) float64 {
	if req.SigmaRem <= 0 {
		if req.Projected >= req.Line {
			return MaxPOver
		}
		return MinPOver
	}
	needed := req.Line - req.CurrentValue
	if needed <= 0 {
		// Floored remaining production can't drop the total below the line.
		return MaxPOver
	}
	p := mathutil.NormalSurvival(needed, req.Projected-req.CurrentValue, req.SigmaRem)
	return mathutil.Clamp(p, MinPOver, MaxPOver)
}
