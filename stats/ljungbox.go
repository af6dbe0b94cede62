package stats

import (
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/regiocast/timeseries"
)

// MinLjungBoxObservations is the smallest sample LjungBox will test.
const MinLjungBoxObservations = 10

// LjungBoxResult represents the result of a Ljung-Box test.
type LjungBoxResult struct {
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
	Lags      int     `json:"lags"`
	DOF       int     `json:"dof"`
}

// WhiteNoise reports whether the test fails to reject "no autocorrelation"
// at the 5% level.
func (r *LjungBoxResult) WhiteNoise() bool {
	return r != nil && r.PValue > 0.05
}

// LjungBox performs the Ljung-Box test for autocorrelation in residuals.
// fitdf is the number of estimated ARMA parameters (p + q). It returns nil when
// the sample is too short or constant.
func LjungBox(series *timeseries.Series, lags, fitdf int) *LjungBoxResult {
	n := series.Len()
	if n < MinLjungBoxObservations || lags < 1 {
		return nil
	}
	if lags >= n {
		lags = n - 1
	}

	acf := ACF(series, lags)
	if acf == nil {
		return nil
	}

	q := 0.0
	for k := 1; k <= lags; k++ {
		q += (acf[k] * acf[k]) / float64(n-k)
	}
	q *= float64(n * (n + 2))

	dof := lags - fitdf
	if dof < 1 {
		dof = 1
	}

	chi := distuv.ChiSquared{K: float64(dof)}

	return &LjungBoxResult{
		Statistic: q,
		PValue:    chi.Survival(q),
		Lags:      lags,
		DOF:       dof,
	}
}

// DurbinWatson calculates the Durbin-Watson statistic for first-order
// autocorrelation. Values near 2 indicate none. ok is false for fewer than
// two residuals or all-zero residuals.
func DurbinWatson(residuals []float64) (statistic float64, ok bool) {
	if len(residuals) < 2 {
		return 0, false
	}

	numerator := 0.0
	denominator := 0.0
	for i := 1; i < len(residuals); i++ {
		diff := residuals[i] - residuals[i-1]
		numerator += diff * diff
	}
	for _, r := range residuals {
		denominator += r * r
	}

	if denominator == 0 {
		return 0, false
	}
	return numerator / denominator, true
}
