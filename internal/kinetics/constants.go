package kinetics

const (
	// GasConstant is the universal gas constant in J/(mol K).
	GasConstant = 8.314462618
	OneAtm      = 101325.0

	// Bounds of the temperature inversion.
	MinTemperature = 200.0
	MaxTemperature = 6000.0

	calorie = 4.184
)

// atomic weights in kg/mol
var atomicWeights = map[string]float64{
	"H":  1.00794e-3,
	"C":  12.011e-3,
	"N":  14.0067e-3,
	"O":  15.9994e-3,
	"AR": 39.948e-3,
	"HE": 4.002602e-3,
}
