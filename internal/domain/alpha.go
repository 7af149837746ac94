package domain

import "time"

// MunScoreFailed marks a social score fetch that failed permanently.
// A metric carrying it is never retried.
const MunScoreFailed = -1.0

// AlphaMetric is the per-token smart-money score set.
// Corresponds to alpha_metric table in PostgreSQL.
type AlphaMetric struct {
	TokenAddress          string   // PK
	MunScore              *float64 // nil = never attempted, MunScoreFailed = permanent failure
	RiskScore             *float64 // 0..100 from safety provider (nullable)
	TopFreshWalletHolders int64
	TopSmartWalletHolders int64
	SmartFollowers        int64
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// MunScoreSettled reports whether the social facet must not be attempted again.
func (m *AlphaMetric) MunScoreSettled() bool {
	return m != nil && m.MunScore != nil
}

// Floored returns a copy safe for API consumers: negative scores become zero.
func (m *AlphaMetric) Floored() AlphaMetric {
	out := *m
	out.MunScore = floorPtr(m.MunScore)
	out.RiskScore = floorPtr(m.RiskScore)
	if out.TopFreshWalletHolders < 0 {
		out.TopFreshWalletHolders = 0
	}
	if out.TopSmartWalletHolders < 0 {
		out.TopSmartWalletHolders = 0
	}
	if out.SmartFollowers < 0 {
		out.SmartFollowers = 0
	}
	return out
}

func floorPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v
	if f < 0 {
		f = 0
	}
	return &f
}

// AlphaMetricPatch is a column-level update of an AlphaMetric.
// Nil fields are left untouched by the store.
type AlphaMetricPatch struct {
	MunScore              *float64
	RiskScore             *float64
	TopFreshWalletHolders *int64
	TopSmartWalletHolders *int64
	SmartFollowers        *int64
}

// IsEmpty reports whether the patch writes no column.
func (p AlphaMetricPatch) IsEmpty() bool {
	return p.MunScore == nil && p.RiskScore == nil && p.TopFreshWalletHolders == nil &&
		p.TopSmartWalletHolders == nil && p.SmartFollowers == nil
}

// Apply merges the patch into m in place.
func (p AlphaMetricPatch) Apply(m *AlphaMetric) {
	if p.MunScore != nil {
		v := *p.MunScore
		m.MunScore = &v
	}
	if p.RiskScore != nil {
		v := *p.RiskScore
		m.RiskScore = &v
	}
	if p.TopFreshWalletHolders != nil {
		m.TopFreshWalletHolders = *p.TopFreshWalletHolders
	}
	if p.TopSmartWalletHolders != nil {
		m.TopSmartWalletHolders = *p.TopSmartWalletHolders
	}
	if p.SmartFollowers != nil {
		m.SmartFollowers = *p.SmartFollowers
	}
}
