//go:build noasm

package dv

func selectKernels() kernels {
	return referenceKernels
}
