//go:build !amd64 && !arm64

package nearest

import "runtime"

func init() {
	detected.Arch = runtime.GOARCH
}
