// Package quvario estimates ground state energies of one electron
// atoms with the variational method. A trial wavefunction with one
// free parameter is pushed through the Hamiltonian symbolically, the
// resulting energy functional is evaluated by adaptive quadrature over
// the radial coordinate, and a derivative-free simplex search tightens
// the parameter until the energy bound is minimal. Everything is in
// atomic units, so the hydrogen ground state sits at -1/2.
package quvario

import (
	"github.com/pkg/errors"

	"github.com/Starryblack/quVario/sym"
)

// CoordSystem names the symbols of a radially symmetric coordinate
// system.
type CoordSystem struct {
	Radial string
}

// Spherical returns the spherical coordinate system with the given
// radial symbol.
func Spherical(radial string) CoordSystem { return CoordSystem{Radial: radial} }

// Laplacian applies the radial part of the Laplace operator,
// f'' + (2/r)*f'. Angular terms vanish for the spherically symmetric
// wavefunctions handled here.
func (c CoordSystem) Laplacian(f sym.Expr) (sym.Expr, error) {
	d1, err := sym.Diff(f, c.Radial)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	d2, err := sym.Diff(d1, c.Radial)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	r := sym.S(c.Radial)
	return sym.AddOf(d2, sym.MulOf(sym.N(2), sym.PowOf(r, sym.N(-1)), d1)), nil
}

// Jacobian returns the radial volume element r**2.
func (c CoordSystem) Jacobian() sym.Expr {
	return sym.PowOf(sym.S(c.Radial), sym.N(2))
}

// Hamiltonian is the energy operator of a single electron bound to a
// point charge Z, in atomic units: -1/2 times the Laplacian plus the
// Coulomb attraction -Z/r.
type Hamiltonian struct {
	Coord  CoordSystem
	Charge float64
}

// NewHamiltonian returns the hydrogen Hamiltonian in spherical
// coordinates with the given radial symbol.
func NewHamiltonian(radial string) Hamiltonian {
	return Hamiltonian{Coord: Spherical(radial), Charge: 1}
}

// Apply returns H acting on psi.
func (h Hamiltonian) Apply(psi sym.Expr) (sym.Expr, error) {
	lap, err := h.Coord.Laplacian(psi)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	r := sym.S(h.Coord.Radial)
	kinetic := sym.MulOf(sym.F(-1, 2), lap)
	potential := sym.MulOf(sym.NFloat(-h.Charge), sym.PowOf(r, sym.N(-1)), psi)
	return sym.AddOf(kinetic, potential), nil
}

// Integrands builds the two radial integrands of the energy
// functional, psi*H(psi) and psi*psi, both weighted by the volume
// element. Trial functions are real, so conjugation is the identity.
func (h Hamiltonian) Integrands(psi sym.Expr) (expect, norm sym.Expr, err error) {
	hpsi, err := h.Apply(psi)
	if err != nil {
		return nil, nil, errors.Wrap(err, "")
	}
	jac := h.Coord.Jacobian()
	return sym.MulOf(psi, hpsi, jac), sym.MulOf(psi, psi, jac), nil
}
