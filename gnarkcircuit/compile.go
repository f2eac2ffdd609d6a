package gnarkcircuit

import (
	"time"

	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/PolyhedraZK/rwasm-zkcircuit/circuit"
	"github.com/PolyhedraZK/rwasm-zkcircuit/tables"
)

// Compile compiles the gnark rendition of c, sized for the table rows of
// session, to an R1CS over the circuit field.
func Compile(c *circuit.Circuit, session *tables.Session, opts ...frontend.CompileOption) (constraint.ConstraintSystem, error) {
	start := time.Now()
	ccs, err := frontend.Compile(c.Field.Field(), r1cs.NewBuilder, New(c, session), opts...)
	if err != nil {
		return nil, err
	}
	c.Logger.Info().
		Int("nbConstraints", ccs.GetNbConstraints()).
		Int("nbPublic", ccs.GetNbPublicVariables()).
		Int("nbSecret", ccs.GetNbSecretVariables()).
		Dur("took", time.Since(start)).
		Msg("compiled gnark circuit")
	return ccs, nil
}
