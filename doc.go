/*
Package sealdemo schedules the homomorphic operations of CKKS circuits. Values carry their level
and scale, and the evaluator aligns operands before each operation, relinearizes every product of
ciphertexts and leaves the rescales to the caller. Circuits can run on the lattigo CKKS scheme or
on a simulator that reproduces its bookkeeping and its noise.
*/
package sealdemo
