//go:build !noasm

package dv

import "golang.org/x/sys/cpu"

func selectKernels() kernels {
	if cpu.X86.HasSSE2 || cpu.ARM64.HasASIMD {
		return packedKernels
	}

	return referenceKernels
}
