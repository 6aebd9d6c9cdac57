package physics

import "math"

const (
	// Specific gas constants in J/(kg·K).
	rDryAir      = 287.05
	rWaterVapour = 461.495

	// ZeroCelsiusK is 0 °C expressed in Kelvin.
	ZeroCelsiusK = 273.15

	// StandardAirDensity is the ISA sea-level density in kg/m³.
	StandardAirDensity = 1.225
)

// KelvinToCelsius converts a temperature from K to °C.
func KelvinToCelsius(k float64) float64 {
	return k - ZeroCelsiusK
}

// CelsiusToKelvin converts a temperature from °C to K.
func CelsiusToKelvin(c float64) float64 {
	return c + ZeroCelsiusK
}

// SaturationVapourPressure returns the saturation vapour pressure in Pa
// for a temperature in °C (Tetens formula).
func SaturationVapourPressure(temperatureC float64) float64 {
	return 6.112 * math.Exp((17.67*temperatureC)/(temperatureC+243.5)) * 100
}

// HumidAirDensity returns the density of moist air in kg/m³ using the ideal
// gas law for the dry-air and water-vapour partial pressures.
// relativeHumidity is a fraction in [0, 1].
func HumidAirDensity(temperatureC, pressurePa, relativeHumidity float64) float64 {
	temperatureK := CelsiusToKelvin(temperatureC)

	e := relativeHumidity * SaturationVapourPressure(temperatureC)
	pd := pressurePa - e

	return pd/(rDryAir*temperatureK) + e/(rWaterVapour*temperatureK)
}
