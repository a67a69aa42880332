// Package mechanism models a torque-driven disk linkage and its support
// reactions.
//
// A disk of mass m and radius r spins on an arm that the drive torque M0
// accelerates about A. The arm's angular acceleration is
//
//	alpha2 = M0 / (m (r^2/4 + BC^2 + AB^2))
//
// and the disk spin decays linearly, omega1(t) = omega1(0) + alpha1 t.
// The reactions at the bearings D and E follow in closed form; see
// [Linkage.ReactionsAt]. All quantities are SI.
package mechanism
