package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
)

var (
	metricsOnce sync.Once
	httpMetrics *fiberprometheus.FiberPrometheus
)

// InitMetrics returns the process-wide HTTP metrics middleware. fiberprometheus
// registers its collectors on the default registry, so repeated calls (tests
// build many servers) must share one instance.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	metricsOnce.Do(func() {
		httpMetrics = fiberprometheus.New(serviceName)
	})
	return httpMetrics
}
