package ring

// Add evaluates p3 = p1 + p2 coefficient-wise in the ring.
func (r Ring) Add(p1, p2, p3 []uint64) {
	AddVec(p1[:r.N], p2[:r.N], p3[:r.N], r.Modulus)
}

// Sub evaluates p3 = p1 - p2 coefficient-wise in the ring.
func (r Ring) Sub(p1, p2, p3 []uint64) {
	SubVec(p1[:r.N], p2[:r.N], p3[:r.N], r.Modulus)
}

// Neg evaluates p2 = -p1 coefficient-wise in the ring.
func (r Ring) Neg(p1, p2 []uint64) {
	NegVec(p1[:r.N], p2[:r.N], r.Modulus)
}

// Reduce evaluates p2 = p1 coefficient-wise mod modulus in the ring.
func (r Ring) Reduce(p1, p2 []uint64) {
	BarrettReduceVec(p1[:r.N], p2[:r.N], r.Modulus, r.BRedConstant)
}

// MulCoeffsBarrett evaluates p3 = p1 * p2 coefficient-wise in the ring.
func (r Ring) MulCoeffsBarrett(p1, p2, p3 []uint64) {
	MulBarrettReduceVec(p1[:r.N], p2[:r.N], p3[:r.N], r.Modulus, r.BRedConstant)
}

// MulCoeffsMontgomery evaluates p3 = p1 * p2 * 2^-64 coefficient-wise in the ring.
func (r Ring) MulCoeffsMontgomery(p1, p2, p3 []uint64) {
	MulMontgomeryReduceVec(p1[:r.N], p2[:r.N], p3[:r.N], r.Modulus, r.MRedConstant)
}

// MulCoeffsMontgomeryThenAdd evaluates p3 = p3 + (p1 * p2 * 2^-64) coefficient-wise in the ring.
func (r Ring) MulCoeffsMontgomeryThenAdd(p1, p2, p3 []uint64) {
	MulMontgomeryReduceThenAddVec(p1[:r.N], p2[:r.N], p3[:r.N], r.Modulus, r.MRedConstant)
}

// AddScalar evaluates p2 = p1 + scalar coefficient-wise in the ring.
func (r Ring) AddScalar(p1 []uint64, scalar uint64, p2 []uint64) {
	AddScalarVec(p1[:r.N], BRedAdd(scalar, r.Modulus, r.BRedConstant), p2[:r.N], r.Modulus)
}

// SubScalar evaluates p2 = p1 - scalar coefficient-wise in the ring.
func (r Ring) SubScalar(p1 []uint64, scalar uint64, p2 []uint64) {
	SubScalarVec(p1[:r.N], BRedAdd(scalar, r.Modulus, r.BRedConstant), p2[:r.N], r.Modulus)
}

// MulScalar evaluates p2 = p1 * scalar coefficient-wise in the ring.
func (r Ring) MulScalar(p1 []uint64, scalar uint64, p2 []uint64) {
	r.MulScalarMontgomery(p1, MForm(BRedAdd(scalar, r.Modulus, r.BRedConstant), r.Modulus, r.BRedConstant), p2)
}

// MulScalarMontgomery evaluates p2 = p1 * scalarMont * 2^-64 coefficient-wise in the ring.
func (r Ring) MulScalarMontgomery(p1 []uint64, scalarMont uint64, p2 []uint64) {
	MulScalarMontgomeryReduceVec(p1[:r.N], scalarMont, p2[:r.N], r.Modulus, r.MRedConstant)
}

// MulScalarMontgomeryThenAdd evaluates p2 = p2 + p1 * scalarMont * 2^-64 coefficient-wise in the ring.
func (r Ring) MulScalarMontgomeryThenAdd(p1 []uint64, scalarMont uint64, p2 []uint64) {
	MulScalarMontgomeryReduceThenAddVec(p1[:r.N], scalarMont, p2[:r.N], r.Modulus, r.MRedConstant)
}

// SubThenMulScalarMontgomery evaluates p3 = (p1 - p2) * scalarMont * 2^-64 coefficient-wise in the ring.
func (r Ring) SubThenMulScalarMontgomery(p1, p2 []uint64, scalarMont uint64, p3 []uint64) {
	SubThenMulScalarMontgomeryReduceVec(p1[:r.N], p2[:r.N], scalarMont, p3[:r.N], r.Modulus, r.MRedConstant)
}

// MForm evaluates p2 = p1 * 2^64 coefficient-wise in the ring.
func (r Ring) MForm(p1, p2 []uint64) {
	MFormVec(p1[:r.N], p2[:r.N], r.Modulus, r.BRedConstant)
}

// IMForm evaluates p2 = p1 * 2^-64 coefficient-wise in the ring.
func (r Ring) IMForm(p1, p2 []uint64) {
	IMFormVec(p1[:r.N], p2[:r.N], r.Modulus, r.MRedConstant)
}
