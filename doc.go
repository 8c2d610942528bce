// Package gruntz computes limits of symbolic expressions with the Gruntz
// algorithm.
//
// A limit at a finite point, or at minus infinity, is first turned into a
// limit at plus infinity by substitution. The engine then finds the most
// rapidly varying subexpressions of the expression, rewrites everything in
// terms of one infinitesimal w, expands the result as a truncated series in
// w and reads the limit off the leading term. When the leading exponent is
// zero the engine recurses on the leading coefficient.
//
// Design goals:
//   - Exact rational arithmetic (math/big.Rat)
//   - Deterministic canonical simplification and stable output
//   - Explicit failure taxonomy instead of wrong answers
//   - JSON and MCP-ready tool interface for agent backends
//
// Quick start:
//
//	x := gruntz.S("x")
//	v, err := gruntz.Gruntz(gruntz.MulOf(gruntz.SinOf(x), gruntz.PowOf(x, gruntz.N(-1))), x, gruntz.N(0), gruntz.Right)
//	// v == 1
package gruntz
