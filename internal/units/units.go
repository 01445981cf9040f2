// Package units provides shared constants and conversion for length units
package units

// Unit constants
const (
	Angstrom  = "angstrom"
	Nanometer = "nm"
)

// AngstromsPerNanometer is the number of angstroms in one nanometer.
const AngstromsPerNanometer = 10.0

// ValidUnits contains all valid unit values
var ValidUnits = []string{Angstrom, Nanometer}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "angstrom, nm"
}

// ConvertLength converts a length from angstroms to the target units.
// Simulation dumps store coordinates in angstroms.
func ConvertLength(lengthAngstrom float64, targetUnits string) float64 {
	switch targetUnits {
	case Angstrom:
		return lengthAngstrom
	case Nanometer:
		return lengthAngstrom / AngstromsPerNanometer
	default:
		return lengthAngstrom
	}
}

// ConvertVolume converts a volume from cubic angstroms to the target units.
// Volumes scale by the cube of the length factor.
func ConvertVolume(volumeAngstrom3 float64, targetUnits string) float64 {
	switch targetUnits {
	case Angstrom:
		return volumeAngstrom3
	case Nanometer:
		return volumeAngstrom3 / (AngstromsPerNanometer * AngstromsPerNanometer * AngstromsPerNanometer)
	default:
		return volumeAngstrom3
	}
}
