// Package analysis implements the mock voice fraud analyzer. It derives a
// fraud score from RMS energy and zero-crossing rate, perturbs it with random
// jitter to simulate model uncertainty, and maps score ranges to categorical
// signal labels.
package analysis
