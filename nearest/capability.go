package nearest

import "strings"

// ISA is a SIMD instruction set reported by the host CPU.
type ISA uint8

const (
	// Generic means no SIMD extension was detected.
	Generic ISA = iota
	// NEON is ARM64 Advanced SIMD.
	NEON
	// SVE2 is ARM64 scalable vectors.
	SVE2
	// AVX2 is x86-64 AVX2 with FMA.
	AVX2
	// AVX512 is x86-64 AVX-512 Foundation.
	AVX512
)

func (i ISA) String() string {
	switch i {
	case Generic:
		return "generic"
	case NEON:
		return "neon"
	case SVE2:
		return "sve2"
	case AVX2:
		return "avx2"
	case AVX512:
		return "avx512"
	default:
		return "unknown"
	}
}

// Capabilities describes the CPU features detected at startup.
type Capabilities struct {
	Arch string
	ISAs []ISA
}

// Best returns the widest detected instruction set.
func (c Capabilities) Best() ISA {
	best := Generic
	for _, isa := range c.ISAs {
		if isa > best {
			best = isa
		}
	}
	return best
}

func (c Capabilities) String() string {
	if len(c.ISAs) == 0 {
		return c.Arch + "/" + Generic.String()
	}
	names := make([]string, len(c.ISAs))
	for i, isa := range c.ISAs {
		names[i] = isa.String()
	}
	return c.Arch + "/" + strings.Join(names, ",")
}

var detected Capabilities

// DetectCapabilities reports the SIMD features of the host.
func DetectCapabilities() Capabilities {
	return Capabilities{Arch: detected.Arch, ISAs: append([]ISA(nil), detected.ISAs...)}
}
