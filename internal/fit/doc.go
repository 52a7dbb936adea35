// Package fit adjusts activation and adsorbate formation energies until a
// steady-state sweep reproduces measured current densities.
//
// The search vector is concat(Ga, G_formation_ads), each entry bounded to
// ±20% of its starting value. The objective is
//
//	Σ (j_exp − |j_model|)² / j_exp
//
// evaluated with a full sweep over the experimental potentials. Failed
// sweeps and zero measured currents score +Inf so the global search moves
// past them.
package fit
