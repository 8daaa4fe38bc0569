package rlwe

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Pro7ech/fedavg/ring"
	"github.com/Pro7ech/fedavg/utils/buffer"
	"github.com/Pro7ech/fedavg/utils/sampling"
)

var flagParamString = flag.String("params", "", "specify the test cryptographic parameters as a JSON string. Overrides -short and -long.")

func testString(params Parameters, level int, opname string) string {
	return fmt.Sprintf("%s/logN=%d/Qi=%d/logQ=%.0f",
		opname,
		params.LogN(),
		level+1,
		params.LogQ())
}

type TestContext struct {
	params Parameters
	kgen   *KeyGenerator
	enc    *Encryptor
	dec    *Decryptor
	sk     *SecretKey
	pk     *PublicKey
}

func NewTestContext(params Parameters) (tc *TestContext, err error) {

	source := sampling.NewSource([32]byte{'r', 'l', 'w', 'e'})

	kgen := NewKeyGenerator(params, source.NewSource())
	sk, pk := kgen.GenKeyPairNew()

	return &TestContext{
		params: params,
		kgen:   kgen,
		sk:     sk,
		pk:     pk,
		enc:    NewEncryptor(params, sk, source.NewSource()),
		dec:    NewDecryptor(params, sk),
	}, nil
}

func TestRLWE(t *testing.T) {

	var err error

	defaultParamsLiteral := testInsecure

	if *flagParamString != "" {
		var jsonParams ParametersLiteral
		if err = json.Unmarshal([]byte(*flagParamString), &jsonParams); err != nil {
			t.Fatal(err)
		}
		defaultParamsLiteral = []ParametersLiteral{jsonParams}
	}

	testUserDefinedParameters(t)
	testSecurity(t)

	for _, paramsLit := range defaultParamsLiteral {

		var params Parameters
		if params, err = NewParametersFromLiteral(paramsLit); err != nil {
			t.Fatal(err)
		}

		tc, err := NewTestContext(params)
		require.NoError(t, err)

		testParameters(tc, t)
		testKeyGenerator(tc, t)

		for _, level := range []int{0, params.MaxLevel()} {
			testEncryptor(tc, level, t)
		}

		testDecryptor(tc, t)
		testWriteAndRead(tc, t)
	}

	testMarshaller(t)
}

func testUserDefinedParameters(t *testing.T) {

	t.Run("Parameters/Q", func(t *testing.T) {
		params, err := NewParametersFromLiteral(ParametersLiteral{
			LogN: 4,
			Q:    []uint64{65537},
		})
		require.NoError(t, err)
		require.Equal(t, 1, params.QCount())
		require.Equal(t, 0, params.MaxLevel())
		require.Equal(t, 0, params.Security())
		require.Equal(t, 0, params.DefaultScale().Cmp(NewScale(1)))
	})

	t.Run("Parameters/LogQ", func(t *testing.T) {
		params, err := NewParametersFromLiteral(ParametersLiteral{
			LogN: 10,
			LogQ: []int{40, 40, 30},
		})
		require.NoError(t, err)
		require.Equal(t, 3, params.QCount())

		q := params.Q()
		require.NotEqual(t, q[0], q[1])

		for i, logqi := range []int{40, 40, 30} {
			require.Equal(t, logqi, big.NewInt(0).SetUint64(q[i]).BitLen())
			require.Equal(t, uint64(1), q[i]%uint64(2*params.N()))
		}
	})

	t.Run("Parameters/Invalid", func(t *testing.T) {

		for name, pl := range map[string]ParametersLiteral{
			"QAndLogQ":       {LogN: 4, Q: []uint64{65537}, LogQ: []int{20}},
			"NoModuli":       {LogN: 4},
			"NotPrime":       {LogN: 4, Q: []uint64{65535}},
			"NotNTTFriendly": {LogN: 13, Q: []uint64{12289}},
			"Duplicate":      {LogN: 4, Q: []uint64{65537, 65537}},
			"LogNTooSmall":   {LogN: 2, Q: []uint64{65537}},
			"LogNTooLarge":   {LogN: MaxLogN + 1, LogQ: []int{60}},
			"InvalidXs":      {LogN: 4, Q: []uint64{65537}, Xs: &ring.Ternary{P: 0.5, H: 2}},
			"UniformXe":      {LogN: 4, Q: []uint64{65537}, Xe: &ring.Uniform{}},
		} {
			t.Run(name, func(t *testing.T) {
				_, err := NewParametersFromLiteral(pl)
				require.Error(t, err)
				require.True(t, errors.Is(err, ErrInvalidParameters))
			})
		}
	})

	t.Run("Parameters/Serialization", func(t *testing.T) {
		params, err := NewParametersFromLiteral(ParametersLiteral{
			LogN:         4,
			Q:            []uint64{65537},
			DefaultScale: NewScale(1 << 10),
		})
		require.NoError(t, err)
		buffer.RequireSerializerCorrect(t, &params)
	})

	t.Run("Parameters/UnmarshalJSON", func(t *testing.T) {

		var err error
		// checks that Parameters can be unmarshalled with log-moduli definition without error
		dataWithLogModuli := []byte(`{"LogN":13,"LogQ":[50,50]}`)
		var paramsWithLogModuli Parameters
		err = json.Unmarshal(dataWithLogModuli, &paramsWithLogModuli)
		require.Nil(t, err)
		require.Equal(t, 2, paramsWithLogModuli.QCount())
		require.True(t, paramsWithLogModuli.Xe().Equal(&DefaultXe)) // Omitting Xe should result in Default being used
		require.True(t, paramsWithLogModuli.Xs().Equal(&DefaultXs)) // Omitting Xs should result in Default being used

		// checks that one can provide custom parameters for the secret-key and error distributions
		dataWithCustomSecrets := []byte(`{
			"LogN":13,
			"Q":[65537],
			"Xs":{"Type":"Ternary", "H":5462, "P":0},
			"Xe":{"Type":"DiscreteGaussian","Sigma":6.4,"Bound":38},
			"DefaultScale":"1024"
		}`)
		var paramsWithCustomSecrets Parameters
		err = json.Unmarshal(dataWithCustomSecrets, &paramsWithCustomSecrets)
		require.Nil(t, err)
		require.True(t, paramsWithCustomSecrets.Xe().Equal(&ring.DiscreteGaussian{Sigma: 6.4, Bound: 38}))
		require.True(t, paramsWithCustomSecrets.Xs().Equal(&ring.Ternary{H: 5462}))
		require.Equal(t, 1024.0, paramsWithCustomSecrets.DefaultScale().Float64())

		// checks that the JSON encoding round-trips
		data, err := json.Marshal(paramsWithCustomSecrets)
		require.NoError(t, err)
		var paramsRoundTrip Parameters
		require.NoError(t, json.Unmarshal(data, &paramsRoundTrip))
		require.True(t, paramsWithCustomSecrets.Equal(&paramsRoundTrip))

		var paramsWithBadDist Parameters
		// checks that providing an ambiguous gaussian distribution yields an error
		dataWithBadDist := []byte(`{"LogN":13,"LogQ":[50,50],"Xs":{"Type":"DiscreteGaussian", "Sigma":3.2}}`)
		err = json.Unmarshal(dataWithBadDist, &paramsWithBadDist)
		require.NotNil(t, err)
		require.Equal(t, paramsWithBadDist, Parameters{})

		// checks that providing an ambiguous ternary distribution yields an error
		dataWithBadDist = []byte(`{"LogN":13,"LogQ":[50,50],"Xs":{"Type":"Ternary", "H":5462,"P":0.3}}`)

		err = json.Unmarshal(dataWithBadDist, &paramsWithBadDist)
		require.NotNil(t, err)
		require.Equal(t, paramsWithBadDist, Parameters{})
	})
}

func testSecurity(t *testing.T) {

	t.Run("Security/MaxLogQ", func(t *testing.T) {

		for LogN, bounds := range map[int][3]int{
			12: {109, 75, 58},
			13: {218, 152, 118},
			14: {438, 305, 237},
			15: {881, 611, 476},
			16: {1772, 1228, 956},
		} {
			for i, security := range []int{Security128, Security192, Security256} {
				bound, err := MaxLogQ(LogN, security)
				require.NoError(t, err)
				require.Equal(t, bounds[i], bound)
			}
		}

		_, err := MaxLogQ(11, Security128)
		require.True(t, errors.Is(err, ErrInvalidParameters))

		_, err = MaxLogQ(13, 100)
		require.True(t, errors.Is(err, ErrInvalidParameters))
	})

	t.Run("Security/NewParametersFromLiteral", func(t *testing.T) {

		// 60 + 40 bits < 109 bits
		params, err := NewParametersFromLiteral(ParametersLiteral{
			LogN:     12,
			LogQ:     []int{60, 40},
			Security: Security128,
		})
		require.NoError(t, err)
		require.Equal(t, Security128, params.Security())

		// 60 + 40 bits > 75 bits
		_, err = NewParametersFromLiteral(ParametersLiteral{
			LogN:     12,
			LogQ:     []int{60, 40},
			Security: Security192,
		})
		require.True(t, errors.Is(err, ErrInvalidParameters))

		// Security level not tabulated
		_, err = NewParametersFromLiteral(ParametersLiteral{
			LogN:     12,
			LogQ:     []int{30},
			Security: 80,
		})
		require.True(t, errors.Is(err, ErrInvalidParameters))

		// Unchecked
		_, err = NewParametersFromLiteral(ParametersLiteral{
			LogN: 12,
			LogQ: []int{60, 60, 60},
		})
		require.NoError(t, err)
	})
}

func testParameters(tc *TestContext, t *testing.T) {

	params := tc.params

	t.Run(testString(params, params.MaxLevel(), "Parameters/Accessors"), func(t *testing.T) {
		require.Equal(t, 1<<params.LogN(), params.N())
		require.Equal(t, params.QCount(), params.RingQ().ModuliChainLength())
		require.Equal(t, params.Q(), params.RingQ().ModuliChain())
		require.InDelta(t, params.RingQ().LogModuli(), params.LogQ(), 1e-9)
		require.Equal(t, 0, params.QBigInt().Cmp(params.RingQ().Modulus()))
	})

	t.Run(testString(params, params.MaxLevel(), "Parameters/Literal"), func(t *testing.T) {
		other, err := NewParametersFromLiteral(params.ParametersLiteral())
		require.NoError(t, err)
		require.True(t, params.Equal(&other))
	})
}

func testKeyGenerator(tc *TestContext, t *testing.T) {

	params := tc.params
	sk, pk := tc.sk, tc.pk

	// Checks that the secret-key has ternary coefficients
	t.Run(testString(params, params.MaxLevel(), "KeyGenerator/GenSecretKey"), func(t *testing.T) {

		rQ := params.RingQ()

		skINTT := rQ.NewRNSPoly()
		rQ.IMForm(sk.Value, skINTT)
		rQ.INTT(skINTT, skINTT)

		for i, s := range rQ {
			for _, c := range skINTT.At(i) {
				require.True(t, c == 0 || c == 1 || c == s.Modulus-1)
			}
		}

		// All limbs represent the same integer polynomial.
		for j := range skINTT.At(0) {
			isZero := skINTT.At(0)[j] == 0
			for i := range rQ {
				require.Equal(t, isZero, skINTT.At(i)[j] == 0)
			}
		}
	})

	// Checks that [-as + e, a] + [as] has the norm of the error
	t.Run(testString(params, params.MaxLevel(), "KeyGenerator/GenPublicKey"), func(t *testing.T) {
		require.GreaterOrEqual(t, math.Log2(params.NoiseFreshSK())+1, NoisePublicKey(pk, sk, params))
	})

	t.Run(testString(params, params.MaxLevel(), "KeyGenerator/Deterministic"), func(t *testing.T) {

		seed := [32]byte{0x01}

		sk0, pk0 := NewKeyGenerator(params, sampling.NewSource(seed)).GenKeyPairNew()
		sk1, pk1 := NewKeyGenerator(params, sampling.NewSource(seed)).GenKeyPairNew()

		require.True(t, sk0.Equal(sk1))
		require.True(t, pk0.Equal(pk1))

		sk2, pk2 := NewKeyGenerator(params, sampling.NewSource([32]byte{0x02})).GenKeyPairNew()
		require.False(t, sk0.Equal(sk2))
		require.False(t, pk0.Equal(pk2))
	})

	t.Run(testString(params, params.MaxLevel(), "KeyGenerator/FreshSourcePerKey"), func(t *testing.T) {
		kgen := NewKeyGenerator(params, sampling.NewSource([32]byte{0x03}))
		require.False(t, kgen.GenSecretKeyNew().Equal(kgen.GenSecretKeyNew()))
	})
}

func testEncryptor(tc *TestContext, level int, t *testing.T) {

	params := tc.params
	sk, pk := tc.sk, tc.pk
	enc := tc.enc
	dec := tc.dec

	t.Run(testString(params, level, "Encryptor/Encrypt/Pk"), func(t *testing.T) {
		ringQ := params.RingQAtLevel(level)

		pt := NewPlaintext(params, level)
		ct, err := enc.WithKey(pk).EncryptNew(pt)
		require.NoError(t, err)
		require.Equal(t, level, ct.Level())

		require.NoError(t, dec.Decrypt(ct, pt))

		if pt.IsNTT {
			ringQ.INTT(pt.Value, pt.Value)
		}

		require.GreaterOrEqual(t, math.Log2(params.NoiseFreshPK())+1, ringQ.Stats(pt.Value)[0])
	})

	t.Run(testString(params, level, "Encryptor/Encrypt/Pk/NoNTT"), func(t *testing.T) {

		pt := NewPlaintext(params, level)
		pt.IsNTT = false

		ct, err := enc.WithKey(pk).EncryptNew(pt)
		require.NoError(t, err)
		require.False(t, ct.IsNTT)

		require.GreaterOrEqual(t, math.Log2(params.NoiseFreshPK())+1, NoiseCiphertext(ct, pt, sk, params))
	})

	t.Run(testString(params, level, "Encryptor/Encrypt/Pk/Message"), func(t *testing.T) {

		ringQ := params.RingQAtLevel(level)

		pt := NewPlaintext(params, level)
		pt.IsNTT = false

		coeffs := make([]big.Int, params.N())
		for i := range coeffs {
			coeffs[i].SetInt64(int64(i*1000) - 1<<20)
		}
		ringQ.SetCoefficientsBigint(coeffs, pt.Value)

		ct, err := enc.WithKey(pk).EncryptNew(pt)
		require.NoError(t, err)

		have, err := dec.DecryptNew(ct)
		require.NoError(t, err)

		values := make([]big.Int, params.N())
		ringQ.PolyToBigintCentered(have.Value, 1, values)

		bound := 16 * params.NoiseFreshPK()
		for i := range values {
			diff, _ := new(big.Float).SetInt(new(big.Int).Sub(&values[i], &coeffs[i])).Float64()
			require.Less(t, math.Abs(diff), bound)
		}
	})

	t.Run(testString(params, level, "Encryptor/Encrypt/Pk/WithSources"), func(t *testing.T) {

		seed := [32]byte{0x01}

		ct0 := NewCiphertext(params, 1, level)
		require.NoError(t, NewEncryptor(params, pk, sampling.NewSource(seed)).EncryptZero(ct0))

		ct1 := NewCiphertext(params, 1, level)
		require.NoError(t, NewEncryptor(params, pk, sampling.NewSource(seed)).EncryptZero(ct1))

		require.True(t, ct0.Equal(ct1))
	})

	t.Run(testString(params, level, "Encryptor/Encrypt/Pk/ShallowCopy"), func(t *testing.T) {
		pkEnc1 := enc.WithKey(pk)
		pkEnc2 := pkEnc1.ShallowCopy()
		require.True(t, pkEnc1.params.Equal(&pkEnc2.params))
		require.True(t, pkEnc1.encKey == pkEnc2.encKey)
		require.False(t, pkEnc1.EncryptorBuffers == pkEnc2.EncryptorBuffers)
		require.False(t, pkEnc1.xuSampler == pkEnc2.xuSampler)
		require.False(t, pkEnc1.xeSampler == pkEnc2.xeSampler)
		require.False(t, pkEnc1.xaSampler == pkEnc2.xaSampler)
	})

	t.Run(testString(params, level, "Encryptor/Encrypt/Sk"), func(t *testing.T) {
		ringQ := params.RingQAtLevel(level)

		pt := NewPlaintext(params, level)
		ct := NewCiphertext(params, 1, level)

		require.NoError(t, enc.Encrypt(pt, ct))
		require.NoError(t, dec.Decrypt(ct, pt))

		if pt.IsNTT {
			ringQ.INTT(pt.Value, pt.Value)
		}
		require.GreaterOrEqual(t, math.Log2(params.NoiseFreshSK())+1, ringQ.Stats(pt.Value)[0])
	})

	t.Run(testString(params, level, "Encryptor/Encrypt/Sk/WithSource"), func(t *testing.T) {

		ct0 := NewCiphertext(params, 1, level)
		require.NoError(t, NewEncryptor(params, sk, sampling.NewSource([32]byte{0x01})).EncryptZero(ct0))

		ct1 := NewCiphertext(params, 1, level)
		require.NoError(t, NewEncryptor(params, sk, sampling.NewSource([32]byte{0x01})).EncryptZero(ct1))
		require.True(t, ct0.Equal(ct1))

		require.NoError(t, NewEncryptor(params, sk, sampling.NewSource([32]byte{0x02})).EncryptZero(ct1))
		require.False(t, ct0.Equal(ct1))
	})

	t.Run(testString(params, level, "Encryptor/WithKey/Sk->Sk"), func(t *testing.T) {
		sk2 := tc.kgen.GenSecretKeyNew()
		skEnc1 := NewEncryptor(params, sk, nil)
		skEnc2 := skEnc1.WithKey(sk2)
		require.True(t, skEnc1.params.Equal(&skEnc2.params))
		require.True(t, skEnc1.encKey == sk)
		require.True(t, skEnc2.encKey == sk2)
		require.True(t, skEnc1.EncryptorBuffers == skEnc2.EncryptorBuffers)
		require.True(t, skEnc1.xaSampler == skEnc2.xaSampler)
		require.True(t, skEnc1.xeSampler == skEnc2.xeSampler)
		require.True(t, skEnc1.xuSampler == skEnc2.xuSampler)
	})

	t.Run(testString(params, level, "Encryptor/Errors"), func(t *testing.T) {
		require.Error(t, NewEncryptor(params, nil, nil).EncryptZero(NewCiphertext(params, 1, level)))
		require.Error(t, enc.EncryptZero(NewCiphertext(params, 2, level)))
	})
}

func testDecryptor(tc *TestContext, t *testing.T) {

	params := tc.params

	t.Run(testString(params, params.MaxLevel(), "Decryptor/LevelExhausted"), func(t *testing.T) {

		ct, err := tc.enc.EncryptNew(nil)
		require.NoError(t, err)

		// Adds a limb that the parameters do not have.
		for i := range ct.Value {
			ct.Value[i] = append(ct.Value[i], ring.NewPoly(params.N()))
		}

		_, err = tc.dec.DecryptNew(ct)
		require.True(t, errors.Is(err, ErrLevelExhausted))

		require.True(t, errors.Is(tc.dec.Decrypt(ct, NewPlaintext(params, 0)), ErrLevelExhausted))
	})

	t.Run(testString(params, params.MaxLevel(), "Decryptor/WrongKey"), func(t *testing.T) {

		pt := NewPlaintext(params, params.MaxLevel())
		ct, err := tc.enc.WithKey(tc.pk).EncryptNew(pt)
		require.NoError(t, err)

		dec := tc.dec.WithKey(NewKeyGenerator(params, sampling.NewSource([32]byte{0xff})).GenSecretKeyNew())
		have, err := dec.DecryptNew(ct)
		require.NoError(t, err)

		rQ := params.RingQ()
		rQ.INTT(have.Value, have.Value)
		require.Greater(t, rQ.Stats(have.Value)[0], params.LogQ()-8)
	})

	t.Run(testString(params, params.MaxLevel(), "Decryptor/ShallowCopy"), func(t *testing.T) {
		dec := tc.dec.ShallowCopy()
		require.True(t, dec.sk == tc.dec.sk)
		require.False(t, &dec.buff[0][0] == &tc.dec.buff[0][0])
	})
}

func testWriteAndRead(tc *TestContext, t *testing.T) {

	params := tc.params

	level := params.MaxLevel()

	t.Run(testString(params, level, "WriteAndRead/Plaintext"), func(t *testing.T) {
		op := NewPlaintext(params, level)
		ring.NewUniformSampler(sampling.NewSource([32]byte{}), params.Q()).Read(op.Value)
		buffer.RequireSerializerCorrect(t, op)
	})

	t.Run(testString(params, level, "WriteAndRead/Ciphertext"), func(t *testing.T) {
		for degree := 0; degree < 3; degree++ {
			t.Run(fmt.Sprintf("degree=%d", degree), func(t *testing.T) {
				op := NewCiphertext(params, degree, level)
				op.Randomize(params, sampling.NewSource([32]byte{}))
				buffer.RequireSerializerCorrect(t, op)
			})
		}
	})

	t.Run(testString(params, level, "WriteAndRead/Ciphertext/Corrupted"), func(t *testing.T) {

		op := NewCiphertext(params, 1, level)
		op.Randomize(params, sampling.NewSource([32]byte{}))

		data, err := op.MarshalBinary()
		require.NoError(t, err)

		for _, n := range []int{0, 1, op.MetaData.BinarySize() + 4, len(data) - 1} {
			require.True(t, errors.Is(new(Ciphertext).UnmarshalBinary(data[:n]), ErrDeserialization))
		}
	})

	t.Run(testString(params, level, "WriteAndRead/Sk"), func(t *testing.T) {
		buffer.RequireSerializerCorrect(t, tc.sk)

		data, err := tc.sk.MarshalBinary()
		require.NoError(t, err)
		require.True(t, errors.Is(new(SecretKey).UnmarshalBinary(data[:len(data)/2]), ErrDeserialization))
	})

	t.Run(testString(params, level, "WriteAndRead/Pk"), func(t *testing.T) {
		buffer.RequireSerializerCorrect(t, tc.pk)

		data, err := tc.pk.MarshalBinary()
		require.NoError(t, err)
		require.True(t, errors.Is(new(PublicKey).UnmarshalBinary(data[:len(data)-8]), ErrDeserialization))
	})

	t.Run(testString(params, level, "WriteAndRead/Parameters"), func(t *testing.T) {
		buffer.RequireSerializerCorrect(t, &params)
	})
}

func testMarshaller(t *testing.T) {

	t.Run("WriteAndRead/Scale", func(t *testing.T) {
		scale := NewScale(math.Exp2(40))
		buffer.RequireSerializerCorrect(t, &scale)

		scale = NewScale(new(big.Int).Lsh(big.NewInt(1), 100))
		buffer.RequireSerializerCorrect(t, &scale)
	})

	t.Run("WriteAndRead/MetaData", func(t *testing.T) {
		m := MetaData{}
		m.Scale = NewScale(math.Exp2(40))
		m.IsNTT = true
		m.IsMontgomery = true
		m.LogSlots = 7
		buffer.RequireSerializerCorrect(t, &m)
	})

	t.Run("WriteAndRead/ParametersLiteral", func(t *testing.T) {
		buffer.RequireSerializerCorrect(t, &ParametersLiteral{
			LogN:         10,
			LogQ:         []int{55, 40},
			Xs:           &ring.Ternary{H: 64},
			DefaultScale: NewScale(1 << 40),
			Security:     Security128,
		})
	})

	t.Run("Scale/Arithmetic", func(t *testing.T) {
		a := NewScale(math.Exp2(40))
		b := NewScale(math.Exp2(20))
		require.Equal(t, math.Exp2(60), a.Mul(b).Float64())
		require.Equal(t, math.Exp2(20), a.Div(b).Float64())
		require.Equal(t, 1, a.Cmp(b))
		require.InDelta(t, 40.0, a.Log2(), 1e-9)
		require.Equal(t, 0, a.BigInt().Cmp(new(big.Int).Lsh(big.NewInt(1), 40)))

		data, err := json.Marshal(a)
		require.NoError(t, err)
		var c Scale
		require.NoError(t, json.Unmarshal(data, &c))
		require.True(t, a.Equal(&c))
	})
}
