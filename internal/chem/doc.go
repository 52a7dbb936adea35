// Package chem holds the species catalog, the stoichiometric model and the
// operating parameters of an electrocatalytic reaction network.
//
// The catalog order is fixed for the lifetime of a [Dataset]:
//
//	reactants + products + adsorbed + catalyst + "e-"
//
// Every matrix in the package is indexed by that order. The electron column
// is split off the stoichiometric matrix into [Reactions.Ne] when the
// reactions are built, so [Reactions.Nu] covers every species except "e-".
//
// # Views
//
// [Dataset.Nuc] and [Dataset.Nua] re-slice [Reactions.Nu] on every call and
// share its backing array, so they can never drift from it. [Dataset.Nux]
// picks the balance matrix for the reactor mode: Nuc for a stirred-tank
// flow reactor, Nua for static operation.
//
// # Copies
//
// [Dataset.Clone] is a deep copy. Solvers and fitters take a clone at
// construction and never share mutable data with their caller.
package chem
