package params

var (
	// ExampleParametersSEALBasics is the parameter set of the SEAL "CKKS basics" example:
	// a ring of degree 2^{13} and the coefficient modulus {60, 40, 40, 60}.
	//
	// The last 60-bit prime is the key-switching prime, hence it is given in LogP.
	// The chain therefore has three levels and supports two rescales. The base prime
	// leaves 20 bits above the nominal scale 2^{40} for the integer part of the result.
	ExampleParametersSEALBasics = ParametersLiteral{
		LogN:            13,
		LogQ:            []int{60, 40, 40},
		LogP:            []int{60},
		LogDefaultScale: 40,
	}

	// ExampleParametersDepth4 supports four rescales, enough for polynomials of degree up to 8.
	ExampleParametersDepth4 = ParametersLiteral{
		LogN:            14,
		LogQ:            []int{60, 40, 40, 40, 40},
		LogP:            []int{60},
		LogDefaultScale: 40,
	}
)
