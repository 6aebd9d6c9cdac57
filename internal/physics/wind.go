package physics

import (
	"errors"
	"math"
)

// BetzLimit is the maximum fraction of wind power a turbine can extract.
const BetzLimit = 16.0 / 27.0

var (
	ErrInvalidRotor       = errors.New("rotor diameter must be positive")
	ErrInvalidCoefficient = errors.New("power coefficient must be within [0, Betz limit]")
	ErrInvalidCutSpeeds   = errors.New("cut-in speed must be below cut-out speed")
)

// WindTurbine models a turbine with a constant power coefficient.
// In practice Cp depends on tip-speed ratio and blade pitch.
type WindTurbine struct {
	RotorDiameterM   float64
	PowerCoefficient float64

	// Operating window in m/s; the turbine produces nothing outside it.
	CutInSpeedMS  float64
	CutOutSpeedMS float64
}

// Validate checks the turbine parameters.
func (t WindTurbine) Validate() error {
	if t.RotorDiameterM <= 0 {
		return ErrInvalidRotor
	}
	if t.PowerCoefficient < 0 || t.PowerCoefficient > BetzLimit {
		return ErrInvalidCoefficient
	}
	if t.CutOutSpeedMS > 0 && t.CutInSpeedMS >= t.CutOutSpeedMS {
		return ErrInvalidCutSpeeds
	}
	return nil
}

// RotorAreaM2 returns the swept area of the rotor.
func (t WindTurbine) RotorAreaM2() float64 {
	r := t.RotorDiameterM / 2
	return math.Pi * r * r
}

// IsOn reports whether the turbine runs at the given wind speed.
// A zero cut-out speed means no upper limit.
func (t WindTurbine) IsOn(windSpeedMS float64) bool {
	if windSpeedMS < t.CutInSpeedMS {
		return false
	}
	return t.CutOutSpeedMS <= 0 || windSpeedMS <= t.CutOutSpeedMS
}

// PowerOutputWatts returns ½·ρ·A·Cp·v³ ignoring the operating window.
func (t WindTurbine) PowerOutputWatts(windSpeedMS, airDensityKgM3 float64) float64 {
	return airDensityKgM3 * t.RotorAreaM2() * t.PowerCoefficient * math.Pow(windSpeedMS, 3) / 2
}

// SpecificWindPower returns the kinetic power flux of the wind in W/m².
func SpecificWindPower(windSpeedMS, airDensityKgM3 float64) float64 {
	return airDensityKgM3 * math.Pow(windSpeedMS, 3) / 2
}

// MaxSpecificWindPower is the Betz-limited share of SpecificWindPower.
func MaxSpecificWindPower(windSpeedMS, airDensityKgM3 float64) float64 {
	return SpecificWindPower(windSpeedMS, airDensityKgM3) * BetzLimit
}
