package rlwe

var (
	// testInsecure are insecure parameters used for the sole purpose of fast testing.
	testInsecure = []ParametersLiteral{
		{
			LogN:         10,
			LogQ:         []int{55, 40, 40},
			DefaultScale: NewScale(1 << 40),
		},
		{
			LogN:         11,
			LogQ:         []int{60},
			Xs:           &DefaultXs,
			Xe:           &DefaultXe,
			DefaultScale: NewScale(1 << 30),
		},
	}
)
