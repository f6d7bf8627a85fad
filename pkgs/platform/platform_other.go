//go:build !unix

package platform

func kernelMajor() int { return 0 }
