package main

import (
	"math"
	"math/big"
)

// Radians converts degrees to radians.
func Radians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// Factorial computes n! exactly.
func Factorial(n int64) *big.Int {
	if n < 2 {
		return big.NewInt(1)
	}

	return new(big.Int).MulRange(1, n)
}

// GCD computes the greatest common divisor of a and b.
func GCD(a, b int64) int64 {
	return new(big.Int).GCD(nil, nil, big.NewInt(a), big.NewInt(b)).Int64()
}
