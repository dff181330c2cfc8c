package stats

import "math"

// BenfordResult is the outcome of a Benford's-Law goodness-of-fit test over
// the leading digits of an amount set.
type BenfordResult struct {
	// Tested reports whether the test ran. It is false when the sample is
	// too small for the chi-square approximation to mean anything.
	Tested bool

	// SampleSize is the number of nonzero amounts tested.
	SampleSize int

	// ChiSquare is the test statistic over leading-digit counts (df=8).
	ChiSquare float64

	// PValue is the upper-tail probability of the statistic.
	PValue float64

	// Anomalous reports whether the distribution deviates from Benford's
	// Law at the configured significance level.
	Anomalous bool
}

// benfordTest runs the chi-square goodness-of-fit test of the leading-digit
// distribution of amounts against Benford's Law: digit d is expected with
// probability log10(1 + 1/d). Amounts equal to zero are ignored. The test
// requires at least minSamples nonzero amounts.
func benfordTest(amounts []float64, minSamples int, alpha float64) BenfordResult {
	var counts [9]int
	n := 0
	for _, a := range amounts {
		d := leadingDigit(a)
		if d == 0 {
			continue
		}
		counts[d-1]++
		n++
	}

	if n < minSamples {
		return BenfordResult{SampleSize: n, PValue: 1}
	}

	var chi2 float64
	for d := 1; d <= 9; d++ {
		expected := float64(n) * math.Log10(1+1/float64(d))
		diff := float64(counts[d-1]) - expected
		chi2 += diff * diff / expected
	}

	p := chiSquarePValue(chi2, 8)
	return BenfordResult{
		Tested:     true,
		SampleSize: n,
		ChiSquare:  chi2,
		PValue:     p,
		Anomalous:  p < alpha,
	}
}

// leadingDigit returns the first significant digit of |x|, or 0 when x is
// zero or not finite.
func leadingDigit(x float64) int {
	x = math.Abs(x)
	if x == 0 || math.IsInf(x, 0) || math.IsNaN(x) {
		return 0
	}
	for x >= 10 {
		x /= 10
	}
	for x < 1 {
		x *= 10
	}
	return int(x)
}

// chiSquarePValue returns the upper-tail probability P(X >= chi2) for a
// chi-square distribution with df degrees of freedom, via the regularized
// upper incomplete gamma function Q(df/2, chi2/2).
func chiSquarePValue(chi2 float64, df int) float64 {
	if chi2 <= 0 {
		return 1
	}
	return gammaQ(float64(df)/2, chi2/2)
}

// gammaQ computes the regularized upper incomplete gamma function Q(a, x)
// using the series expansion for x < a+1 and the Lentz continued fraction
// otherwise.
func gammaQ(a, x float64) float64 {
	if x < 0 || a <= 0 {
		return math.NaN()
	}
	if x == 0 {
		return 1
	}
	if x < a+1 {
		return 1 - gammaPSeries(a, x)
	}
	return gammaQContinuedFraction(a, x)
}

func gammaPSeries(a, x float64) float64 {
	const maxIter = 200
	const eps = 3e-14

	lg, _ := math.Lgamma(a)
	ap := a
	sum := 1.0 / a
	del := sum
	for i := 0; i < maxIter; i++ {
		ap++
		del *= x / ap
		sum += del
		if math.Abs(del) < math.Abs(sum)*eps {
			break
		}
	}
	return sum * math.Exp(-x+a*math.Log(x)-lg)
}

func gammaQContinuedFraction(a, x float64) float64 {
	const maxIter = 200
	const eps = 3e-14
	const fpmin = 1e-300

	lg, _ := math.Lgamma(a)
	b := x + 1 - a
	c := 1 / fpmin
	d := 1 / b
	h := d
	for i := 1; i <= maxIter; i++ {
		an := -float64(i) * (float64(i) - a)
		b += 2
		d = an*d + b
		if math.Abs(d) < fpmin {
			d = fpmin
		}
		c = b + an/c
		if math.Abs(c) < fpmin {
			c = fpmin
		}
		d = 1 / d
		del := d * c
		h *= del
		if math.Abs(del-1) < eps {
			break
		}
	}
	return math.Exp(-x+a*math.Log(x)-lg) * h
}
