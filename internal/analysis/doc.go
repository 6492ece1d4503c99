// Package analysis characterises particle runs after the fact.
//
//   - [LyapunovExponent]: largest exponent via twin-trajectory separation
//   - [Separation]: phase-space distance between two particle states
//   - [DominantFrequency]: strongest oscillation in a recorded series
//
// A positive exponent means nearby starts diverge, so long runs of that
// scene are only reproducible bit-for-bit, not approximately:
//
//	lambda, err := analysis.LyapunovExponent(ctx, cfg, 1e-8, 500)
//	if lambda > 0 {
//	    // chaotic
//	}
package analysis
