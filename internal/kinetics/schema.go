package kinetics

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// MechanismSpec is the on-disk mechanism schema. It is this project's own
// compact YAML format: irreversible elementary reactions with modified
// Arrhenius rates and optional third bodies, NASA-7 thermodynamics.
type MechanismSpec struct {
	Name        string         `yaml:"name" validate:"required"`
	Description string         `yaml:"description,omitempty"`
	Units       Units          `yaml:"units,omitempty" validate:"omitempty,oneof=si cgs"`
	Species     []SpeciesSpec  `yaml:"species" validate:"required,min=1,dive"`
	Reactions   []ReactionSpec `yaml:"reactions,omitempty" validate:"omitempty,dive"`
}

type SpeciesSpec struct {
	Name        string             `yaml:"name" validate:"required,excludesall=+"`
	Composition map[string]float64 `yaml:"composition" validate:"required,min=1,dive,keys,element,endkeys,gt=0"`
	Thermo      ThermoSpec         `yaml:"thermo"`
}

type ThermoSpec struct {
	TMid float64   `yaml:"t-mid" validate:"gt=0"`
	Low  []float64 `yaml:"low" validate:"len=7"`
	High []float64 `yaml:"high" validate:"len=7"`
}

type ReactionSpec struct {
	Equation     string             `yaml:"equation" validate:"required"`
	A            float64            `yaml:"A" validate:"gte=0"`
	B            float64            `yaml:"b"`
	Ea           float64            `yaml:"Ea"`
	Efficiencies map[string]float64 `yaml:"efficiencies,omitempty" validate:"omitempty,dive,gte=0"`
}

// Units of the rate parameters in a mechanism file.
//
//	si:  m, mol, s, J/mol
//	cgs: cm, mol, s, cal/mol
type Units string

const (
	UnitsSI  Units = "si"
	UnitsCGS Units = "cgs"
)

var mechValidate *validator.Validate

func init() {
	mechValidate = validator.New()
	_ = mechValidate.RegisterValidation("element", validateElement)
}

func validateElement(fl validator.FieldLevel) bool {
	_, ok := atomicWeights[strings.ToUpper(fl.Field().String())]
	return ok
}

func (s *MechanismSpec) Validate() error {
	return mechValidate.Struct(s)
}
