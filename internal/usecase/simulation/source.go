package simulation

import "math/rand/v2"

// NormalSource draws standard normal variates.
type NormalSource interface {
	NormFloat64() float64
}

// SourceFactory returns the random stream of one trial. A run is
// reproducible as long as the factory is a pure function of its arguments.
type SourceFactory func(seed, trial uint64) NormalSource

// PCGSource seeds a PCG stream per trial, so trial t draws the same numbers
// whichever worker runs it.
func PCGSource(seed, trial uint64) NormalSource {
	return rand.New(rand.NewPCG(seed, trial))
}
