//go:build arm64

package nearest

import "golang.org/x/sys/cpu"

func init() {
	detected.Arch = "arm64"
	if cpu.ARM64.HasASIMD {
		detected.ISAs = append(detected.ISAs, NEON)
	}
	if cpu.ARM64.HasSVE2 {
		detected.ISAs = append(detected.ISAs, SVE2)
	}
}
