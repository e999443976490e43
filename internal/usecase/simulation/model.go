package simulation

import (
	"fmt"
	"math"
	"slices"

	"github.com/shopspring/decimal"

	"loanportfolio/internal/domain/apperr"
	"loanportfolio/internal/domain/modelsettings"
	"loanportfolio/internal/usecase/rating"
	"loanportfolio/internal/usecase/valuation"
)

// ltvCap bounds LTV samples of loans whose collateral is worth nothing.
const ltvCap = 99.0

// model is the immutable, precomputed form of a run shared by all workers.
type model struct {
	factors   Factors
	chol      Matrix
	drift     []float64
	vol       []float64
	idioDrift float64
	idioVol   float64
	tax       float64
	minDSCR   float64
	defDSCR   float64
	maxLtv    float64
	years     int
	loans     []loanModel
	assets    []assetModel
	rating    *rating.Engine
}

type loanModel struct {
	src       *Loan
	sectorIdx []int
	sectorW   []float64
	idioW     float64
	claims    []claimRef
}

type claimRef struct {
	asset int
	pos   int // position within the asset's claims
	share float64
}

type assetModel struct {
	factor        int
	value         float64
	firstMortgage float64
	claims        []assetClaim
}

type assetClaim struct {
	loan     int // -1 for a claim held outside the portfolio
	share    float64
	priority int
	exposure float64
}

func newModel(p *Portfolio, s *modelsettings.Settings, re *rating.Engine) (*model, error) {
	factors := collectFactors(p)
	corr, err := BuildCorrelation(s, factors)
	if err != nil {
		return nil, err
	}
	chol, err := Cholesky(corr)
	if err != nil {
		return nil, err
	}

	m := &model{
		factors:   factors,
		chol:      chol,
		drift:     make([]float64, factors.Len()),
		vol:       make([]float64, factors.Len()),
		idioDrift: s.DefaultGrowth - 0.5*s.DefaultVolatility*s.DefaultVolatility,
		idioVol:   s.DefaultVolatility,
		tax:       s.TaxRate,
		minDSCR:   s.MinDSCR,
		defDSCR:   s.DefaultDSCR,
		maxLtv:    s.MaxLtv,
		rating:    re,
	}
	for i, code := range factors.Sectors {
		d := s.Sector(code)
		m.drift[i] = d.Growth - 0.5*d.Volatility*d.Volatility
		m.vol[i] = d.Volatility
	}
	for i, pt := range factors.PropertyTypes {
		pp := s.PropertyType(pt)
		k := len(factors.Sectors) + i
		m.drift[k] = pp.ExpectedReturn - 0.5*pp.Volatility*pp.Volatility
		m.vol[k] = pp.Volatility
	}

	assetIdx := make(map[string]int, len(p.Collaterals))
	for i, c := range p.Collaterals {
		assetIdx[c.CollateralID] = i
		m.assets = append(m.assets, assetModel{
			factor:        factors.PropertyIndex(c.PropertyType),
			value:         c.Value,
			firstMortgage: c.FirstMortgage,
		})
	}

	for li := range p.Loans {
		l := &p.Loans[li]
		lm := loanModel{src: l, idioW: 1}
		for _, w := range l.Debtor.Sectors {
			if w.Share < 0 {
				return nil, fmt.Errorf("%w: debtor %s has a negative %s share", apperr.ErrInvalidInput, l.Debtor.DebtorID, w.Code)
			}
			lm.sectorIdx = append(lm.sectorIdx, factors.SectorIndex(w.Code))
			lm.sectorW = append(lm.sectorW, w.Share)
			lm.idioW -= w.Share
		}
		if lm.idioW < -1e-9 {
			return nil, fmt.Errorf("%w: debtor %s sector shares exceed 1", apperr.ErrInvalidInput, l.Debtor.DebtorID)
		}
		lm.idioW = max(lm.idioW, 0)
		for _, c := range l.Claims {
			a := assetIdx[c.CollateralID]
			lm.claims = append(lm.claims, claimRef{asset: a, pos: len(m.assets[a].claims), share: c.Share})
			m.assets[a].claims = append(m.assets[a].claims, assetClaim{loan: li, share: c.Share, priority: c.Priority})
		}
		m.loans = append(m.loans, lm)
		m.years = max(m.years, len(l.Years))
	}
	for _, fc := range p.ForeignClaims {
		a := assetIdx[fc.CollateralID]
		m.assets[a].claims = append(m.assets[a].claims, assetClaim{loan: -1, share: fc.Share, priority: fc.Priority, exposure: fc.Exposure})
	}
	return m, nil
}

func collectFactors(p *Portfolio) Factors {
	var f Factors
	for _, l := range p.Loans {
		for _, w := range l.Debtor.Sectors {
			f.Sectors = append(f.Sectors, w.Code)
		}
	}
	for _, c := range p.Collaterals {
		f.PropertyTypes = append(f.PropertyTypes, c.PropertyType)
	}
	slices.Sort(f.Sectors)
	slices.Sort(f.PropertyTypes)
	f.Sectors = slices.Compact(f.Sectors)
	f.PropertyTypes = slices.Compact(f.PropertyTypes)
	return f
}

// rate maps a simulated state onto the Debt/EBITDA rating. Loss-making
// states get the worst configured rating.
func (m *model) rate(ebitda, debt float64) string {
	if m.rating == nil {
		return ""
	}
	if ebitda <= 0 {
		return m.rating.WorstOnScale(rating.DebtToEBITDA)
	}
	r, err := m.rating.RateValue(rating.DebtToEBITDA, decimal.NewFromFloat(debt/ebitda))
	if err != nil {
		return m.rating.WorstOnScale(rating.DebtToEBITDA)
	}
	return r
}

// scratch is the per-worker mutable state of a trial.
type scratch struct {
	z, x      []float64
	cum       []float64
	idio      []float64
	assetVal  []float64
	state     []loanState
	defaulted []int
	claims    []valuation.Claim
	rec       []float64
}

type loanState struct {
	done     bool
	defaults bool
	breached bool
	loss     float64
	peakLtv  float64
	rating   string
}

func (m *model) newScratch() *scratch {
	n := m.factors.Len()
	return &scratch{
		z:        make([]float64, n),
		x:        make([]float64, n),
		cum:      make([]float64, n),
		idio:     make([]float64, len(m.loans)),
		assetVal: make([]float64, len(m.assets)),
		state:    make([]loanState, len(m.loans)),
	}
}

// trial simulates one path of the whole portfolio and leaves per-loan
// outcomes in sc.state.
func (m *model) trial(src NormalSource, sc *scratch) {
	clear(sc.cum)
	clear(sc.idio)
	clear(sc.state)

	for y := 0; y < m.years; y++ {
		for i := range sc.z {
			sc.z[i] = src.NormFloat64()
		}
		m.chol.MulVec(sc.x, sc.z)
		for f := range sc.cum {
			sc.cum[f] += m.drift[f] + m.vol[f]*sc.x[f]
		}
		for i := range sc.idio {
			sc.idio[i] += m.idioDrift + m.idioVol*src.NormFloat64()
		}
		for a, am := range m.assets {
			v := am.value
			if am.factor >= 0 {
				v *= math.Exp(sc.cum[am.factor])
			}
			sc.assetVal[a] = max(v-am.firstMortgage, 0)
		}

		sc.defaulted = sc.defaulted[:0]
		for i := range m.loans {
			st := &sc.state[i]
			if st.done {
				continue
			}
			lm := &m.loans[i]
			l := lm.src
			if y >= len(l.Years) {
				st.done = true
				continue
			}
			yr := l.Years[y]

			logGrowth := lm.idioW * sc.idio[i]
			for k, f := range lm.sectorIdx {
				logGrowth += lm.sectorW[k] * sc.cum[f]
			}
			ebitda := l.Debtor.EBITDA * math.Exp(logGrowth)

			dscr := math.Inf(1)
			if yr.DebtService > 0 {
				dscr = ebitda * (1 - m.tax) / yr.DebtService
			}
			if dscr < m.minDSCR {
				st.breached = true
			}
			if len(lm.claims) > 0 {
				ltv := m.ltv(lm, yr.Opening, sc.assetVal)
				st.peakLtv = max(st.peakLtv, ltv)
				if ltv > m.maxLtv {
					st.breached = true
				}
			}

			def := dscr < m.defDSCR
			if def || y == len(l.Years)-1 {
				debt := max(l.Debtor.TotalLiabilities-(l.Exposure-yr.Opening), 0)
				st.rating = m.rate(ebitda, debt)
			}
			if def {
				sc.defaulted = append(sc.defaulted, i)
			}
		}

		// Recoveries of loans defaulting together are computed against the
		// same claim book before any of them is closed.
		for _, i := range sc.defaulted {
			opening := m.loans[i].src.Years[y].Opening
			sc.state[i].loss = max(opening-m.recovery(i, y, sc), 0)
		}
		for _, i := range sc.defaulted {
			sc.state[i].defaults = true
			sc.state[i].done = true
		}
	}
}

func (m *model) ltv(lm *loanModel, opening float64, assetVal []float64) float64 {
	if opening <= 0 {
		return 0
	}
	secured := 0.0
	for _, c := range lm.claims {
		secured += assetVal[c.asset] * c.share
	}
	if secured <= 0 {
		return ltvCap
	}
	return min(opening/secured, ltvCap)
}

// recovery runs the waterfall of every asset loan i claims, with the other
// claims at their current exposure.
func (m *model) recovery(i, y int, sc *scratch) float64 {
	total := 0.0
	for _, ref := range m.loans[i].claims {
		am := &m.assets[ref.asset]
		sc.claims = sc.claims[:0]
		for _, c := range am.claims {
			x := c.exposure
			if c.loan >= 0 {
				x = 0
				other := m.loans[c.loan].src
				if !sc.state[c.loan].done && y < len(other.Years) {
					x = other.Years[y].Opening
				}
			}
			sc.claims = append(sc.claims, valuation.Claim{Share: c.share, Priority: c.priority, Exposure: x})
		}
		sc.rec = valuation.Waterfall(sc.rec, sc.assetVal[ref.asset], sc.claims)
		total += sc.rec[ref.pos]
	}
	return total
}
