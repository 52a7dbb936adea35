// Package kinetics evaluates rate constants, reaction rates and current
// density for a reaction network.
//
// Three independent pieces are composed by [Kinetics]:
//
//   - free energy: [ReactionFreeEnergy] derives ΔG of each step from the
//     formation energies of the adsorbates
//   - rate constants: [Compose] multiplies the pre-exponential factor,
//     experimental constants and the Boltzmann factor of the chemical and
//     electrical barriers
//   - rates: [PowerLaw] and [Rate] apply mass-action kinetics to the
//     concentration vector built by [Concentrate]
//
// Every 2×R quantity is a [Pair] of forward and backward vectors. A zero
// Pair means the contribution is disabled.
//
// # Example
//
//	k, _ := kinetics.New(ds, log)
//	v := k.Rates(0.1, cR, cP, theta)
//	j := k.Current(v)
package kinetics
