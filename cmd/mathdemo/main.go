// mathdemo prints the results of standard mathematical functions on fixed
// inputs.
package main

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strings"
)

var STDOUT = bufio.NewWriterSize(os.Stdout, 4096)

func main() {
	defer STDOUT.Flush()

	banner := strings.Repeat("=", 50)

	fmt.Fprintln(STDOUT, banner)
	fmt.Fprintln(STDOUT, "Mathematical Computations Demo")
	fmt.Fprintln(STDOUT, banner)

	angle := 45.0
	angleRad := Radians(angle)
	fmt.Fprintf(STDOUT, "\nTrigonometric functions for %.0f degrees:\n", angle)
	fmt.Fprintf(STDOUT, "  sin(%.0f°) = %.4f\n", angle, math.Sin(angleRad))
	fmt.Fprintf(STDOUT, "  cos(%.0f°) = %.4f\n", angle, math.Cos(angleRad))
	fmt.Fprintf(STDOUT, "  tan(%.0f°) = %.4f\n", angle, math.Tan(angleRad))

	number := 10.0
	fmt.Fprintf(STDOUT, "\nLogarithmic and exponential functions:\n")
	fmt.Fprintf(STDOUT, "  log(%.0f) = %.4f\n", number, math.Log(number))
	fmt.Fprintf(STDOUT, "  log10(%.0f) = %.4f\n", number, math.Log10(number))
	fmt.Fprintf(STDOUT, "  exp(2) = %.4f\n", math.Exp(2))

	base, exponent := 4.0, 3.0
	fmt.Fprintf(STDOUT, "\nPower and roots:\n")
	fmt.Fprintf(STDOUT, "  %.0f^%.0f = %.4f\n", base, exponent, math.Pow(base, exponent))
	fmt.Fprintf(STDOUT, "  sqrt(16) = %.4f\n", math.Sqrt(16))
	fmt.Fprintf(STDOUT, "  cbrt(27) = %.4f\n", math.Cbrt(27))

	fmt.Fprintf(STDOUT, "\nMathematical constants:\n")
	fmt.Fprintf(STDOUT, "  π (pi) = %.6f\n", math.Pi)
	fmt.Fprintf(STDOUT, "  e = %.6f\n", math.E)
	fmt.Fprintf(STDOUT, "  τ (tau) = %.6f\n", 2*math.Pi)

	value := 7.3
	fmt.Fprintf(STDOUT, "\nRounding functions for %.1f:\n", value)
	fmt.Fprintf(STDOUT, "  ceil(%.1f) = %.0f\n", value, math.Ceil(value))
	fmt.Fprintf(STDOUT, "  floor(%.1f) = %.0f\n", value, math.Floor(value))

	n := int64(5)
	fmt.Fprintf(STDOUT, "\nFactorial:\n")
	fmt.Fprintf(STDOUT, "  %d! = %s\n", n, Factorial(n))

	a, b := int64(48), int64(18)
	fmt.Fprintf(STDOUT, "\nGreatest Common Divisor:\n")
	fmt.Fprintf(STDOUT, "  gcd(%d, %d) = %d\n", a, b, GCD(a, b))

	x := 1.0
	fmt.Fprintf(STDOUT, "\nHyperbolic functions for x=%.0f:\n", x)
	fmt.Fprintf(STDOUT, "  sinh(%.0f) = %.4f\n", x, math.Sinh(x))
	fmt.Fprintf(STDOUT, "  cosh(%.0f) = %.4f\n", x, math.Cosh(x))
	fmt.Fprintf(STDOUT, "  tanh(%.0f) = %.4f\n", x, math.Tanh(x))

	fmt.Fprintln(STDOUT, "\n"+banner)
	fmt.Fprintln(STDOUT, "Computations completed successfully!")
	fmt.Fprintln(STDOUT, banner)
}
