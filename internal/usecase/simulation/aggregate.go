package simulation

import (
	"math"
	"slices"
)

// chunkResult accumulates the trials of one chunk in trial order.
type chunkResult struct {
	losses    []float64
	defaults  []int
	breaches  []int
	lossSum   []float64
	ltv       [][]float64
	ratings   []map[string]int
	defaulted int
}

func newChunkResult(loans, trials int) *chunkResult {
	r := &chunkResult{
		losses:   make([]float64, 0, trials),
		defaults: make([]int, loans),
		breaches: make([]int, loans),
		lossSum:  make([]float64, loans),
		ltv:      make([][]float64, loans),
		ratings:  make([]map[string]int, loans),
	}
	for i := range r.ltv {
		r.ltv[i] = make([]float64, 0, trials)
		r.ratings[i] = make(map[string]int)
	}
	return r
}

func (r *chunkResult) add(state []loanState) {
	loss := 0.0
	for i, st := range state {
		if st.defaults {
			r.defaults[i]++
			r.defaulted++
			r.lossSum[i] += st.loss
			loss += st.loss
		}
		if st.breached {
			r.breaches[i]++
		}
		r.ltv[i] = append(r.ltv[i], st.peakLtv)
		if st.rating != "" {
			r.ratings[i][st.rating]++
		}
	}
	r.losses = append(r.losses, loss)
}

// lossLevels are the reported points of the portfolio loss distribution.
var lossLevels = []struct {
	name string
	p    float64
}{
	{"p50", 0.50},
	{"p75", 0.75},
	{"p90", 0.90},
	{"p95", 0.95},
	{"p99", 0.99},
	{"p99.9", 0.999},
}

// merge folds the chunks in chunk order.
func (m *model) merge(chunks []*chunkResult, opts Options) *Summary {
	nl := len(m.loans)
	var (
		losses    = make([]float64, 0, opts.Trials)
		defaults  = make([]int, nl)
		breaches  = make([]int, nl)
		lossSum   = make([]float64, nl)
		ltv       = make([][]float64, nl)
		ratings   = make([]map[string]int, nl)
		defaulted int
	)
	for i := range ratings {
		ratings[i] = make(map[string]int)
	}
	for _, c := range chunks {
		losses = append(losses, c.losses...)
		defaulted += c.defaulted
		for i := 0; i < nl; i++ {
			defaults[i] += c.defaults[i]
			breaches[i] += c.breaches[i]
			lossSum[i] += c.lossSum[i]
			ltv[i] = append(ltv[i], c.ltv[i]...)
			for k, v := range c.ratings[i] {
				ratings[i][k] += v
			}
		}
	}

	trials := float64(opts.Trials)
	s := &Summary{
		Trials:          opts.Trials,
		Seed:            opts.Seed,
		LossPercentiles: make(map[string]float64, len(lossLevels)),
		Loans:           make([]LoanResult, nl),
	}
	for i, lm := range m.loans {
		s.TotalExposure += lm.src.Exposure
		slices.Sort(ltv[i])
		lr := LoanResult{
			LoanID:                  lm.src.LoanID,
			Exposure:                lm.src.Exposure,
			DefaultFrequency:        float64(defaults[i]) / trials,
			CovenantBreachFrequency: float64(breaches[i]) / trials,
			ExpectedLoss:            lossSum[i] / trials,
			LtvP50:                  percentile(ltv[i], 0.50),
			LtvP95:                  percentile(ltv[i], 0.95),
			LtvP99:                  percentile(ltv[i], 0.99),
			RatingDistribution:      make(map[string]float64, len(ratings[i])),
		}
		for k, v := range ratings[i] {
			lr.RatingDistribution[k] = float64(v) / trials
		}
		s.Loans[i] = lr
	}

	s.DefaultFrequency = float64(defaulted) / (trials * float64(nl))
	total := 0.0
	for _, l := range losses {
		total += l
	}
	s.ExpectedLoss = total / trials

	slices.Sort(losses)
	for _, lv := range lossLevels {
		s.LossPercentiles[lv.name] = percentile(losses, lv.p)
	}
	s.LossVaR95 = percentile(losses, 0.95)
	s.LossVaR99 = percentile(losses, 0.99)
	s.LossES95 = tailMean(losses, 0.95)
	return s
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])
}

// tailMean is the mean of the samples at or above the p-percentile.
func tailMean(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	start := int(math.Ceil(float64(n-1) * p))
	sum := 0.0
	for _, v := range sorted[start:] {
		sum += v
	}
	return sum / float64(n-start)
}
