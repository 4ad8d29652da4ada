// Package f16 converts between float32 and IEEE-754 binary16.
//
// Nearest-centroid search uses it to emulate half-precision scratch
// buffers: values are stored as float32 but carry only binary16 precision.
package f16

import "math"

// Bits is a binary16 bit pattern: 1 sign bit, 5 exponent bits (bias 15)
// and 10 fraction bits.
type Bits uint16

const (
	signMask Bits = 0x8000
	expMask  Bits = 0x7C00
	fracMask Bits = 0x03FF
)

// MaxValue is the largest finite binary16 value.
const MaxValue = 65504

// ToFloat32 widens h to float32. The conversion is exact.
func ToFloat32(h Bits) float32 {
	sign := uint32(h&signMask) << 16
	exp := uint32(h&expMask) >> 10
	frac := uint32(h & fracMask)

	switch {
	case exp == 0 && frac == 0:
		return math.Float32frombits(sign)
	case exp == 0:
		// subnormal: shift the fraction until the implicit bit appears
		e := int32(-14)
		for frac&0x0400 == 0 {
			frac <<= 1
			e--
		}
		frac &= 0x03FF
		return math.Float32frombits(sign | uint32(127+e)<<23 | frac<<13)
	case exp == 0x1F:
		return math.Float32frombits(sign | 0x7F800000 | frac<<13)
	default:
		return math.Float32frombits(sign | (exp-15+127)<<23 | frac<<13)
	}
}

// FromFloat32 narrows f to binary16, rounding to nearest with ties to even.
// Values beyond MaxValue become infinities.
func FromFloat32(f float32) Bits {
	bits := math.Float32bits(f)
	sign := Bits(bits>>16) & signMask
	exp := int32(bits>>23) & 0xFF
	frac := bits & 0x007FFFFF

	if exp == 0xFF {
		if frac == 0 {
			return sign | expMask
		}
		// keep NaN quiet and non-zero
		return sign | expMask | 0x0200 | Bits(frac>>13)&fracMask
	}
	if exp == 0 {
		return sign
	}

	e := exp - 127 + 15
	if e >= 0x1F {
		return sign | expMask
	}

	if e <= 0 {
		if e < -10 {
			return sign
		}
		mant := frac | 0x00800000
		shift := uint32(14 - e)
		return sign | Bits(roundShift(mant, shift))
	}

	m := roundShift(frac, 13)
	if m == 0x0400 {
		m = 0
		e++
		if e >= 0x1F {
			return sign | expMask
		}
	}
	return sign | Bits(uint32(e)<<10) | Bits(m)
}

// roundShift returns v>>shift rounded to nearest, ties to even.
func roundShift(v, shift uint32) uint32 {
	m := v >> shift
	rem := v & (1<<shift - 1)
	half := uint32(1) << (shift - 1)
	if rem > half || (rem == half && m&1 == 1) {
		m++
	}
	return m
}

// Round returns f rounded to the nearest binary16 value.
func Round(f float32) float32 {
	return ToFloat32(FromFloat32(f))
}

// RoundSlice writes Round(src[i]) to dst[i]. dst must be at least as long
// as src.
func RoundSlice(dst, src []float32) {
	for i, v := range src {
		dst[i] = Round(v)
	}
}
