//go:build !linux && !darwin

package util

func physicalCores() int { return 0 }
