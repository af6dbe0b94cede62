package arima

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"github.com/sartorproj/regiocast/stats"
)

// Stat is a fitted statistic that may be undefined for short samples
// (NaN or ±Inf). It encodes to JSON null in that case.
type Stat float64

// Defined reports whether the statistic is a finite number.
func (s Stat) Defined() bool {
	f := float64(s)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// MarshalJSON implements json.Marshaler.
func (s Stat) MarshalJSON() ([]byte, error) {
	if !s.Defined() {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, float64(s), 'g', -1, 64), nil
}

// UnmarshalJSON implements json.Unmarshaler; null decodes to NaN.
func (s *Stat) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*s = Stat(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*s = Stat(f)
	return nil
}

// Summary describes a fitted model.
type Summary struct {
	Order        Order                 `json:"order"`
	ARCoeffs     []float64             `json:"ar_coeffs"`
	MACoeffs     []float64             `json:"ma_coeffs"`
	Intercept    float64               `json:"intercept"`
	Variance     Stat                  `json:"variance"`
	AIC          Stat                  `json:"aic"`
	AICc         Stat                  `json:"aicc"`
	BIC          Stat                  `json:"bic"`
	LogLik       Stat                  `json:"log_lik"`
	NObs         int                   `json:"n_obs"`
	Converged    bool                  `json:"converged"`
	Degenerate   bool                  `json:"degenerate"`
	Iterations   int                   `json:"iterations"`
	LjungBox     *stats.LjungBoxResult `json:"ljung_box,omitempty"`
	DurbinWatson Stat                  `json:"durbin_watson"`
	ResidualLags []int                 `json:"residual_lags,omitempty"` // residual ACF lags outside the 95% band
}
