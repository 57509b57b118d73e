package quvario_test

import (
	"fmt"
	"log"

	"github.com/Starryblack/quVario"
	"github.com/Starryblack/quVario/sym"
)

func Example() {
	// Parse the trial wavefunction with variational parameter a.
	psi, err := sym.Parse("exp(-a*r)")
	if err != nil {
		log.Fatalf("%+v", err)
	}

	// Build the energy functional under the hydrogen Hamiltonian.
	fn, err := quvario.NewFunctional(quvario.NewHamiltonian("r"), psi)
	if err != nil {
		log.Fatalf("%+v", err)
	}

	// Tighten the upper bound on the ground state energy.
	param, energy, err := fn.Minimize()
	if err != nil {
		log.Fatalf("%+v", err)
	}
	fmt.Printf("optimised parameter %.4f\n", param)
	fmt.Printf("energy upper bound %.4f\n", energy)
	// Output:
	// optimised parameter 1.0000
	// energy upper bound -0.5000
}
