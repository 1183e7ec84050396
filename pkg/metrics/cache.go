package metrics

import "github.com/prometheus/client_golang/prometheus"

// CacheMetrics counts query cache lookups per view.
type CacheMetrics struct {
	lookups       *prometheus.CounterVec
	invalidations prometheus.Counter
	errors        *prometheus.CounterVec
}

func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	if reg == nil {
		return &CacheMetrics{}
	}
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "query_cache",
		Name:      "lookups_total",
		Help:      "Query cache lookups by view and result.",
	}, []string{"view", "result"})
	invalidations := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "query_cache",
		Name:      "invalidated_keys_total",
		Help:      "Keys dropped by mutation invalidations.",
	})
	errs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "query_cache",
		Name:      "errors_total",
		Help:      "Cache backend failures by operation.",
	}, []string{"op"})
	reg.MustRegister(lookups, invalidations, errs)
	return &CacheMetrics{lookups: lookups, invalidations: invalidations, errors: errs}
}

func (m *CacheMetrics) Hit(view string) {
	if m == nil || m.lookups == nil {
		return
	}
	m.lookups.WithLabelValues(normalizeLabel(view), "hit").Inc()
}

func (m *CacheMetrics) Miss(view string) {
	if m == nil || m.lookups == nil {
		return
	}
	m.lookups.WithLabelValues(normalizeLabel(view), "miss").Inc()
}

func (m *CacheMetrics) Invalidated(n int) {
	if m == nil || m.invalidations == nil || n <= 0 {
		return
	}
	m.invalidations.Add(float64(n))
}

func (m *CacheMetrics) Error(op string) {
	if m == nil || m.errors == nil {
		return
	}
	m.errors.WithLabelValues(normalizeLabel(op)).Inc()
}
