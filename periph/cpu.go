package periph

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// Features reports which crypto instructions the host CPU backing the
// emulated engines provides.
type Features struct {
	AES  bool
	SHA2 bool
}

// DetectFeatures probes the host CPU.
func DetectFeatures() Features {
	switch runtime.GOARCH {
	case "amd64", "386":
		return Features{AES: cpu.X86.HasAES && cpu.X86.HasPCLMULQDQ}
	case "arm64":
		return Features{AES: cpu.ARM64.HasAES, SHA2: cpu.ARM64.HasSHA2}
	default:
		return Features{}
	}
}
