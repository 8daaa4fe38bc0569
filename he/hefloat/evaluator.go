package hefloat

import (
	"fmt"
	"math"
	"math/big"

	"github.com/Pro7ech/fedavg/ring"
	"github.com/Pro7ech/fedavg/rlwe"
)

// Evaluator is a struct that holds the necessary elements to execute the homomorphic
// operations between ciphertexts and real scalars: addition, multiplication by a scalar
// followed by a rescaling, rescaling and level dropping.
//
// All methods return a new ciphertext and never modify their inputs.
// An Evaluator is not safe for concurrent use, see ShallowCopy.
type Evaluator struct {
	parameters Parameters
	buffQ      ring.RNSPoly
}

// NewEvaluator creates a new Evaluator from the target parameters.
func NewEvaluator(parameters Parameters) *Evaluator {
	return &Evaluator{
		parameters: parameters,
		buffQ:      parameters.RingQ().NewRNSPoly(),
	}
}

// GetParameters returns the underlying parameters of the receiver.
func (eval Evaluator) GetParameters() Parameters {
	return eval.parameters
}

// GetRLWEParameters returns the underlying rlwe.Parameters of the receiver.
func (eval Evaluator) GetRLWEParameters() *rlwe.Parameters {
	return &eval.parameters.Parameters
}

// ShallowCopy creates a shallow copy of this Evaluator in which the read-only data-structures are
// shared with the receiver and the temporary buffers are reallocated. The receiver and the returned
// Evaluator can be used concurrently.
func (eval Evaluator) ShallowCopy() *Evaluator {
	return NewEvaluator(eval.parameters)
}

// AddNew returns op0 + op1 in a new ciphertext.
//
// The method returns an error wrapping rlwe.ErrLevelMismatch if the operands are not at the
// same level and an error wrapping rlwe.ErrScaleMismatch if they do not share the same scale.
// The output spans the largest number of slots of the two operands.
func (eval Evaluator) AddNew(op0, op1 *rlwe.Ciphertext) (opOut *rlwe.Ciphertext, err error) {

	if err = eval.checkOperand(op0); err != nil {
		return nil, fmt.Errorf("cannot AddNew: op0: %w", err)
	}

	if err = eval.checkOperand(op1); err != nil {
		return nil, fmt.Errorf("cannot AddNew: op1: %w", err)
	}

	if op0.Level() != op1.Level() {
		return nil, fmt.Errorf("cannot AddNew: %w: op0.Level()=%d != op1.Level()=%d", rlwe.ErrLevelMismatch, op0.Level(), op1.Level())
	}

	if op0.Scale.Cmp(op1.Scale) != 0 {
		return nil, fmt.Errorf("cannot AddNew: %w: op0.Scale=2^%.4f != op1.Scale=2^%.4f", rlwe.ErrScaleMismatch, op0.LogScale(), op1.LogScale())
	}

	if op0.IsNTT != op1.IsNTT || op0.IsMontgomery != op1.IsMontgomery {
		return nil, fmt.Errorf("cannot AddNew: operands are not in the same domain")
	}

	level := op0.Level()

	opOut = rlwe.NewCiphertext(eval.parameters, max(op0.Degree(), op1.Degree()), level)
	*opOut.MetaData = *op0.MetaData.Clone()
	opOut.LogSlots = max(op0.LogSlots, op1.LogSlots)

	rQ := eval.parameters.RingQAtLevel(level)

	for i := range opOut.Value {
		switch {
		case i <= op0.Degree() && i <= op1.Degree():
			rQ.Add(op0.Value[i], op1.Value[i], opOut.Value[i])
		case i <= op0.Degree():
			opOut.Value[i].CopyLvl(level, &op0.Value[i])
		default:
			opOut.Value[i].CopyLvl(level, &op1.Value[i])
		}
	}

	return
}

// MulScalarThenRescaleNew returns op0 * constant in a new ciphertext.
//
// Each polynomial of op0 is multiplied by round(constant * q_{L}), with q_{L} the last modulus
// of op0, and the result is divided (with rounding) by q_{L}. The output is thus one level
// below op0 and has the same scale as op0.
//
// The method returns an error wrapping rlwe.ErrLevelExhausted if op0 is at level zero.
func (eval Evaluator) MulScalarThenRescaleNew(op0 *rlwe.Ciphertext, constant float64) (opOut *rlwe.Ciphertext, err error) {

	if err = eval.checkOperand(op0); err != nil {
		return nil, fmt.Errorf("cannot MulScalarThenRescaleNew: %w", err)
	}

	if math.IsNaN(constant) || math.IsInf(constant, 0) {
		return nil, fmt.Errorf("cannot MulScalarThenRescaleNew: constant is not finite")
	}

	level := op0.Level()

	if level == 0 {
		return nil, fmt.Errorf("cannot MulScalarThenRescaleNew: %w: input is at level 0", rlwe.ErrLevelExhausted)
	}

	rQ := eval.parameters.RingQAtLevel(level)

	qL := new(big.Float).SetPrec(rlwe.ScalePrecision).SetUint64(rQ[level].Modulus)

	scalar := new(big.Int)
	scaleUp(constant, qL, scalar)

	tmp := rlwe.NewCiphertext(eval.parameters, op0.Degree(), level)
	*tmp.MetaData = *op0.MetaData.Clone()

	for i := range tmp.Value {
		rQ.MulScalarBigint(op0.Value[i], scalar, tmp.Value[i])
	}

	opOut = eval.rescale(tmp)

	// The multiplication by round(constant * q_{L}) and the division
	// by q_{L} cancel out on the scale.
	opOut.Scale = rlwe.NewScale(op0.Scale)

	return
}

// RescaleNew divides op0 by its last modulus and returns the result in a new ciphertext
// one level below op0, with a scale divided by the last modulus.
//
// The method returns an error wrapping rlwe.ErrLevelExhausted if op0 is at level zero.
func (eval Evaluator) RescaleNew(op0 *rlwe.Ciphertext) (opOut *rlwe.Ciphertext, err error) {

	if err = eval.checkOperand(op0); err != nil {
		return nil, fmt.Errorf("cannot RescaleNew: %w", err)
	}

	if op0.Level() == 0 {
		return nil, fmt.Errorf("cannot RescaleNew: %w: input is at level 0", rlwe.ErrLevelExhausted)
	}

	opOut = eval.rescale(op0)

	opOut.Scale = op0.Scale.Div(rlwe.NewScale(eval.parameters.Q()[op0.Level()]))

	return
}

// DropLevelNew returns a copy of op0 with its last levels moduli dropped.
// The scale is left unchanged.
//
// The method returns an error wrapping rlwe.ErrLevelExhausted if levels is
// larger than the level of op0.
func (eval Evaluator) DropLevelNew(op0 *rlwe.Ciphertext, levels int) (opOut *rlwe.Ciphertext, err error) {

	if err = eval.checkOperand(op0); err != nil {
		return nil, fmt.Errorf("cannot DropLevelNew: %w", err)
	}

	if levels < 0 {
		return nil, fmt.Errorf("cannot DropLevelNew: levels=%d cannot be negative", levels)
	}

	level := op0.Level() - levels

	if level < 0 {
		return nil, fmt.Errorf("cannot DropLevelNew: %w: cannot drop %d levels from a ciphertext at level %d", rlwe.ErrLevelExhausted, levels, op0.Level())
	}

	opOut = rlwe.NewCiphertext(eval.parameters, op0.Degree(), level)
	*opOut.MetaData = *op0.MetaData.Clone()

	for i := range opOut.Value {
		opOut.Value[i].CopyLvl(level, &op0.Value[i])
	}

	return
}

// rescale returns op0 divided by its last modulus in a new ciphertext.
// The metadata of the output are those of op0, with the Montgomery form
// removed if it was set.
func (eval Evaluator) rescale(op0 *rlwe.Ciphertext) (opOut *rlwe.Ciphertext) {

	level := op0.Level()

	rQ := eval.parameters.RingQAtLevel(level)

	opOut = rlwe.NewCiphertext(eval.parameters, op0.Degree(), level-1)
	*opOut.MetaData = *op0.MetaData.Clone()
	opOut.IsMontgomery = false

	buffQ := eval.buffQ

	for i := range op0.Value {

		in := op0.Value[i]

		if op0.IsMontgomery {
			in = *op0.Value[i].Clone()
			rQ.IMForm(in, in)
		}

		if op0.IsNTT {
			rQ.DivRoundByLastModulusNTT(in, buffQ, opOut.Value[i])
		} else {
			rQ.DivRoundByLastModulus(in, buffQ, opOut.Value[i])
		}
	}

	return
}

// checkOperand checks that the ciphertext is compatible with the parameters of the receiver.
func (eval Evaluator) checkOperand(op *rlwe.Ciphertext) (err error) {

	if op == nil || op.MetaData == nil {
		return fmt.Errorf("ciphertext or its metadata is nil")
	}

	return op.CheckLevel(eval.parameters)
}
