// Package arima implements ARIMA (AutoRegressive Integrated Moving Average) models.
package arima

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/sartorproj/regiocast/stats"
	"github.com/sartorproj/regiocast/timeseries"
)

var (
	// ErrInsufficientData is returned when the series is too short to difference.
	ErrInsufficientData = errors.New("insufficient data points for the specified order")
	// ErrNonFinite is returned when the series contains NaN or Inf values.
	ErrNonFinite = errors.New("series contains non-finite values")
	// ErrNotFitted is returned by Predict before a successful Fit.
	ErrNotFitted = errors.New("model must be fitted before prediction")
)

const (
	coeffBound     = 0.99
	startBound     = 0.9
	maxIterations  = 500
	maxEvaluations = 5000
)

// Order represents ARIMA model order (p, d, q).
type Order struct {
	P int `json:"p" yaml:"p"` // AR order (number of autoregressive terms)
	D int `json:"d" yaml:"d"` // Differencing order
	Q int `json:"q" yaml:"q"` // MA order (number of moving average terms)

	// Constant adds a mean (d=0) or drift (d>=1) term, estimated as the mean
	// of the differenced series. Without it a differenced model forecasts no
	// trend beyond what the AR and MA terms carry.
	Constant bool `json:"constant" yaml:"constant"`
}

// String formats the order as (p,d,q).
func (o Order) String() string {
	return fmt.Sprintf("(%d,%d,%d)", o.P, o.D, o.Q)
}

// Validate rejects negative orders.
func (o Order) Validate() error {
	if o.P < 0 || o.D < 0 || o.Q < 0 {
		return fmt.Errorf("invalid order %s: orders must be non-negative", o)
	}
	return nil
}

// params is the number of estimated parameters.
func (o Order) params() int {
	k := o.P + o.Q
	if o.Constant {
		k++
	}
	return k
}

// MinObservations is the shortest series Fit accepts: one point more than
// the differencing order.
func (o Order) MinObservations() int {
	return o.D + 1
}

// Model represents an ARIMA model.
type Model struct {
	Order      Order
	ARCoeffs   []float64 // AR coefficients (phi)
	MACoeffs   []float64 // MA coefficients (theta)
	Intercept  float64   // Mean of the differenced series when Order.Constant is set, else 0
	Variance   float64   // Residual variance
	AIC        float64
	AICc       float64 // Corrected AIC for small sample sizes
	BIC        float64
	LogLik     float64
	Converged  bool // Optimizer met its convergence criterion
	Degenerate bool // Too few observations to estimate AR/MA terms; they are held at zero
	Iterations int

	fitted     bool
	data       *timeseries.Series
	levels     []*timeseries.Series // levels[i] is the series differenced i times
	residuals  []float64
}

// NewWithOrder creates a new ARIMA model from an Order value.
func NewWithOrder(order Order) *Model {
	return &Model{
		Order:    order,
		ARCoeffs: make([]float64, max(order.P, 0)),
		MACoeffs: make([]float64, max(order.Q, 0)),
	}
}

// Fit fits the ARIMA model to the given time series data by conditional
// sum of squares. Only the values are used; they are taken as equally spaced.
func (m *Model) Fit(series *timeseries.Series) error {
	if err := m.Order.Validate(); err != nil {
		return err
	}
	if series.Len() < m.Order.MinObservations() {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientData, series.Len(), m.Order.MinObservations())
	}
	if !series.AllFinite() {
		return ErrNonFinite
	}

	m.fitted = false
	m.data = series.Copy()
	m.ARCoeffs = make([]float64, m.Order.P)
	m.MACoeffs = make([]float64, m.Order.Q)
	m.Converged, m.Degenerate, m.Iterations = false, false, 0

	m.levels = []*timeseries.Series{m.data}
	for i := 0; i < m.Order.D; i++ {
		next := m.levels[i].Diff()
		if next.Len() == 0 {
			return errors.New("differencing resulted in empty series")
		}
		m.levels = append(m.levels, next)
	}

	if err := m.fitCSS(); err != nil {
		return err
	}

	m.calculateIC()

	m.fitted = true
	return nil
}

func (m *Model) diffData() *timeseries.Series {
	return m.levels[len(m.levels)-1]
}

// fitCSS estimates the ARMA part on the differenced series.
func (m *Model) fitCSS() error {
	diff := m.diffData()
	y := diff.Values
	n := len(y)
	p := m.Order.P
	q := m.Order.Q

	m.Intercept = 0
	if m.Order.Constant {
		m.Intercept = diff.Mean()
	}

	switch {
	case p == 0 && q == 0:
		m.Converged = true
	case n-max(p, q) <= p+q:
		// Not enough residuals to identify the ARMA terms: a random walk,
		// with drift when the constant is enabled.
		m.Degenerate = true
		m.Converged = true
	default:
		if err := m.optimizeCSS(diff); err != nil {
			return err
		}
	}

	m.residuals = m.filter(y, m.ARCoeffs, m.MACoeffs)
	m.Variance = m.residualVariance()

	if math.IsNaN(m.Variance) || math.IsInf(m.Variance, 0) {
		return errors.New("residual variance is not finite")
	}
	return nil
}

// optimizeCSS minimizes the conditional sum of squares with Nelder-Mead.
// The optimizer works on unconstrained values that constrain maps onto a
// stationary AR and an invertible MA polynomial. AR terms start from the
// sample partial autocorrelations, MA terms from zero.
func (m *Model) optimizeCSS(diff *timeseries.Series) error {
	y := diff.Values
	p := m.Order.P

	x0 := make([]float64, p+m.Order.Q)
	if pacf := stats.PACF(diff, p); len(pacf) > p {
		for i := 0; i < p; i++ {
			if r := pacf[i+1]; !math.IsNaN(r) {
				r = math.Max(-startBound, math.Min(startBound, r))
				x0[i] = math.Atanh(r / coeffBound)
			}
		}
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			ar, ma := constrain(x, p)
			sse := m.sse(y, ar, ma)
			if math.IsNaN(sse) || math.IsInf(sse, 0) {
				return math.MaxFloat64
			}
			return sse
		},
	}

	settings := &optimize.Settings{
		MajorIterations: maxIterations,
		FuncEvaluations: maxEvaluations,
	}

	result, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if err != nil {
		return fmt.Errorf("css optimization: %w", err)
	}
	if math.IsNaN(result.F) || result.F == math.MaxFloat64 {
		return errors.New("css objective is not finite")
	}

	ar, ma := constrain(result.X, p)
	copy(m.ARCoeffs, ar)
	copy(m.MACoeffs, ma)
	m.Iterations = result.Stats.MajorIterations
	m.Converged = result.Status == optimize.FunctionConvergence || result.Status == optimize.MethodConverge

	return nil
}

// constrain maps x[:p] to AR and x[p:] to MA coefficients. Each value becomes
// a partial autocorrelation in (-0.99, 0.99) and the Durbin-Levinson
// recursion turns those into polynomial coefficients, so every AR estimate is
// stationary. MA coefficients are the negated recursion output, which keeps
// 1 + theta_1 z + ... + theta_q z^q free of roots inside the unit circle.
func constrain(x []float64, p int) (ar, ma []float64) {
	ar = fromPartials(partials(x[:p]))
	ma = fromPartials(partials(x[p:]))
	for i := range ma {
		ma[i] = -ma[i]
	}
	return ar, ma
}

func partials(x []float64) []float64 {
	r := make([]float64, len(x))
	for i, v := range x {
		r[i] = coeffBound * math.Tanh(v)
	}
	return r
}

// fromPartials converts partial autocorrelations into AR coefficients.
func fromPartials(r []float64) []float64 {
	phi := make([]float64, len(r))
	prev := make([]float64, len(r))
	for k := range r {
		phi[k] = r[k]
		for j := 0; j < k; j++ {
			phi[j] = prev[j] - r[k]*prev[k-1-j]
		}
		copy(prev, phi)
	}
	return phi
}

// sse is the conditional sum of squares for the given coefficients.
func (m *Model) sse(y, ar, ma []float64) float64 {
	residuals := m.filter(y, ar, ma)
	total := 0.0
	for t := max(len(ar), len(ma)); t < len(y); t++ {
		total += residuals[t] * residuals[t]
	}
	return total
}

// filter runs the ARMA recursion over y and returns the residuals.
// Pre-sample residuals are the deviations from the intercept.
func (m *Model) filter(y, ar, ma []float64) []float64 {
	n := len(y)
	residuals := make([]float64, n)

	startIdx := max(len(ar), len(ma))
	for t := 0; t < n; t++ {
		if t < startIdx {
			residuals[t] = y[t] - m.Intercept
			continue
		}

		pred := m.Intercept
		for i := range ar {
			pred += ar[i] * (y[t-i-1] - m.Intercept)
		}
		for i := range ma {
			pred += ma[i] * residuals[t-i-1]
		}

		residuals[t] = y[t] - pred
	}
	return residuals
}

// residualVariance uses the conditional residuals when there are any, and
// all residuals otherwise.
func (m *Model) residualVariance() float64 {
	startIdx := max(m.Order.P, m.Order.Q)
	k := m.Order.params()

	sse := 0.0
	count := 0
	for t := startIdx; t < len(m.residuals); t++ {
		sse += m.residuals[t] * m.residuals[t]
		count++
	}
	if count == 0 {
		for _, r := range m.residuals {
			sse += r * r
		}
		count = len(m.residuals)
	}
	if count == 0 {
		return 0
	}

	if !m.Degenerate && count > k {
		return sse / float64(count-k)
	}
	return sse / float64(count)
}

// calculateIC calculates AIC, AICc, and BIC.
func (m *Model) calculateIC() {
	n := len(m.residuals)
	k := m.Order.params() + 1 // coefficients + variance

	sse := 0.0
	for _, r := range m.residuals {
		sse += r * r
	}

	if m.Variance > 0 {
		m.LogLik = -float64(n)/2*math.Log(2*math.Pi) - float64(n)/2*math.Log(m.Variance) - sse/(2*m.Variance)
	} else {
		m.LogLik = math.Inf(-1)
	}

	m.AIC = -2*m.LogLik + 2*float64(k)

	kf := float64(k)
	nf := float64(n)
	if nf-kf-1 > 0 {
		m.AICc = m.AIC + 2*kf*(kf+1)/(nf-kf-1)
	} else {
		m.AICc = math.Inf(1)
	}

	m.BIC = -2*m.LogLik + kf*math.Log(nf)
}

// Predict generates forecasts for the specified number of steps ahead.
func (m *Model) Predict(steps int) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	if steps < 1 {
		return nil, errors.New("steps must be at least 1")
	}

	p := m.Order.P
	q := m.Order.Q

	y := m.diffData().Values
	n := len(y)

	extY := make([]float64, n+steps)
	copy(extY, y)

	for h := 0; h < steps; h++ {
		t := n + h
		pred := m.Intercept

		for i := 0; i < p && t-i-1 >= 0; i++ {
			pred += m.ARCoeffs[i] * (extY[t-i-1] - m.Intercept)
		}

		// Future residuals have expectation zero.
		for i := 0; i < q && t-i-1 >= 0 && t-i-1 < n; i++ {
			pred += m.MACoeffs[i] * m.residuals[t-i-1]
		}

		extY[t] = pred
	}

	forecasts := m.integrate(extY[n:])
	for i, f := range forecasts {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("forecast %d is not finite", i+1)
		}
	}

	return forecasts, nil
}

// integrate undoes differencing level by level, anchoring each cumulative
// sum on the last observed value of that level.
func (m *Model) integrate(forecasts []float64) []float64 {
	result := make([]float64, len(forecasts))
	copy(result, forecasts)

	for level := len(m.levels) - 2; level >= 0; level-- {
		values := m.levels[level].Values
		running := values[len(values)-1]
		for j := range result {
			running += result[j]
			result[j] = running
		}
	}

	return result
}

// Residuals returns the model residuals on the differenced scale.
func (m *Model) Residuals() []float64 {
	if !m.fitted {
		return nil
	}
	result := make([]float64, len(m.residuals))
	copy(result, m.residuals)
	return result
}

// Summary returns a summary of the fitted model, or nil before Fit.
func (m *Model) Summary() *Summary {
	if !m.fitted {
		return nil
	}

	residSeries := timeseries.New(m.Residuals())
	dw, ok := stats.DurbinWatson(m.residuals)
	if !ok {
		dw = math.NaN()
	}

	return &Summary{
		Order:        m.Order,
		ARCoeffs:     append([]float64(nil), m.ARCoeffs...),
		MACoeffs:     append([]float64(nil), m.MACoeffs...),
		Intercept:    m.Intercept,
		Variance:     Stat(m.Variance),
		AIC:          Stat(m.AIC),
		AICc:         Stat(m.AICc),
		BIC:          Stat(m.BIC),
		LogLik:       Stat(m.LogLik),
		NObs:         m.data.Len(),
		Converged:    m.Converged,
		Degenerate:   m.Degenerate,
		Iterations:   m.Iterations,
		LjungBox:     stats.LjungBox(residSeries, 10, m.Order.P+m.Order.Q),
		DurbinWatson: Stat(dw),
		ResidualLags: significantResidualLags(residSeries),
	}
}

// significantResidualLags lists the residual autocorrelation lags (up to 10)
// outside the 95% band. An adequate model leaves none.
func significantResidualLags(residuals *timeseries.Series) []int {
	acf := stats.ACF(residuals, 10)
	if acf == nil {
		return nil
	}
	return stats.SignificantLags(acf, stats.ConfidenceBound(residuals.Len()))
}
