package physics

import (
	"errors"
	"math"
)

const (
	// FaradayConstant in C/mol.
	FaradayConstant = 96485.0
	// GasConstant in J/(mol·K).
	GasConstant = 8.314
	// HydrogenMolarMass in kg/mol.
	HydrogenMolarMass = 2.016e-3

	electronsPerH2 = 2

	// concentrationCapV replaces the concentration overpotential at and
	// beyond the limiting current density, where it diverges.
	concentrationCapV = 5.0
)

var (
	ErrInvalidStack = errors.New("electrolyser stack needs cells, area and positive current densities")
	ErrInvalidLUT   = errors.New("lookup table needs a positive max current and at least one point")
)

// ElectrolyserStack models a PEM stack with
// V_cell(I) = V_rev + A·ln(j/j0) + I·R_cell + (R·T/nF)·ln(jL/(jL−j)), j = I/area.
type ElectrolyserStack struct {
	Cells                      int     `json:"cells"`
	AreaCM2                    float64 `json:"area_cm2"`
	ReversibleVoltageV         float64 `json:"reversible_voltage_v"`
	ThermoneutralVoltageV      float64 `json:"thermoneutral_voltage_v"`
	CellResistanceOhm          float64 `json:"cell_resistance_ohm"`
	TafelSlopeV                float64 `json:"tafel_slope_v"`
	ExchangeCurrentDensityACM2 float64 `json:"exchange_current_density_a_cm2"`
	LimitingCurrentDensityACM2 float64 `json:"limiting_current_density_a_cm2"`
	TemperatureK               float64 `json:"temperature_k"`
}

// DefaultPEMStack is a 10-cell, 250 cm² stack operated at 80 °C.
func DefaultPEMStack() ElectrolyserStack {
	return ElectrolyserStack{
		Cells:                      10,
		AreaCM2:                    250,
		ReversibleVoltageV:         1.18,
		ThermoneutralVoltageV:      1.48,
		CellResistanceOhm:          0.05,
		TafelSlopeV:                0.06,
		ExchangeCurrentDensityACM2: 1e-4,
		LimitingCurrentDensityACM2: 6.0,
		TemperatureK:               353,
	}
}

func (s ElectrolyserStack) Validate() error {
	if s.Cells <= 0 || s.AreaCM2 <= 0 || s.ExchangeCurrentDensityACM2 <= 0 ||
		s.LimitingCurrentDensityACM2 <= 0 || s.TemperatureK <= 0 {
		return ErrInvalidStack
	}
	return nil
}

// OperatingPoint is the stack state at one current.
type OperatingPoint struct {
	CurrentA      float64 `json:"current_a"`
	StackVoltageV float64 `json:"stack_voltage_v"`
	PowerW        float64 `json:"power_w"`
	HydrogenKgH   float64 `json:"hydrogen_kg_h"`
	HeatW         float64 `json:"heat_w"`
}

// CellVoltage returns the voltage of one cell at currentA (> 0).
func (s ElectrolyserStack) CellVoltage(currentA float64) float64 {
	j := currentA / s.AreaCM2
	activation := s.TafelSlopeV * math.Log(j/s.ExchangeCurrentDensityACM2)
	ohmic := currentA * s.CellResistanceOhm

	concentration := concentrationCapV
	if j < s.LimitingCurrentDensityACM2 {
		concentration = GasConstant * s.TemperatureK / (electronsPerH2 * FaradayConstant) *
			math.Log(s.LimitingCurrentDensityACM2/(s.LimitingCurrentDensityACM2-j))
	}
	return s.ReversibleVoltageV + activation + ohmic + concentration
}

// Operate evaluates the stack at currentA.
func (s ElectrolyserStack) Operate(currentA float64) OperatingPoint {
	cells := float64(s.Cells)
	v := s.CellVoltage(currentA)
	molPerSecond := currentA * cells / (electronsPerH2 * FaradayConstant)

	return OperatingPoint{
		CurrentA:      currentA,
		StackVoltageV: v * cells,
		PowerW:        currentA * v * cells,
		HydrogenKgH:   molPerSecond * HydrogenMolarMass * 3600,
		HeatW:         currentA * (v - s.ThermoneutralVoltageV) * cells,
	}
}

// LUT tabulates points operating points evenly spaced up to maxCurrentA,
// starting at maxCurrentA/points.
func (s ElectrolyserStack) LUT(maxCurrentA float64, points int) ([]OperatingPoint, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if maxCurrentA <= 0 || points < 1 {
		return nil, ErrInvalidLUT
	}

	lut := make([]OperatingPoint, points)
	step := maxCurrentA / float64(points)
	for i := range lut {
		lut[i] = s.Operate(step * float64(i+1))
	}
	return lut, nil
}
