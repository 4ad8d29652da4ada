//go:build amd64

package nearest

import "golang.org/x/sys/cpu"

func init() {
	detected.Arch = "amd64"
	if cpu.X86.HasAVX2 && cpu.X86.HasFMA {
		detected.ISAs = append(detected.ISAs, AVX2)
	}
	if cpu.X86.HasAVX512F {
		detected.ISAs = append(detected.ISAs, AVX512)
	}
}
