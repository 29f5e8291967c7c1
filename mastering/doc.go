// Package mastering implements the reference-matching mastering engine:
// a batch processor that takes a TARGET and REFERENCE stereo signal and
// produces a mastered TARGET whose loudness, spectral balance, peak
// level, and stereo width statistically match the REFERENCE.
//
// The entry point is Process. Audio container decoding/encoding and
// sample-rate conversion to the internal rate are external collaborator
// concerns, injected as a Loader/Saver pair; see internal/wavio for a
// reference implementation.
package mastering
