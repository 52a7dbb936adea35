// Package constants holds the physical constants shared by the kinetics
// and solver packages.
package constants

const (
	// Boltzmann is the Boltzmann constant in eV/K.
	Boltzmann = 8.617333262145e-5

	// Planck is the Planck constant in eV·s.
	Planck = 4.135667696e-15

	// Faraday is the Faraday constant in C/mol.
	Faraday = 96485.3321233100184

	// ZeroCelsius is 0 °C expressed in kelvin.
	ZeroCelsius = 273.15
)
