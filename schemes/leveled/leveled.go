// Package leveled implements a level and scale aware scheduler for the evaluation of
// arithmetic circuits over approximately encoded (CKKS) values.
//
// The [Evaluator] tracks the level and the scale of every [Value] and inserts the
// mod-switches, rescales, relinearizations and scale normalizations that the operands
// of an operation require before dispatching it to a [Backend], which performs the
// actual cryptographic primitives.
//
// Levels are counted from the top of the modulus chain: fresh encodings are at level 0,
// and each rescale or mod-switch increases the level until params.Parameters.MaxLevel.
package leveled
