package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

// RegisterBuildInfo 注册值恒为 1 的 build_info 指标，版本信息放在标签里。
// 只有第一次调用生效。
func (m *Metrics) RegisterBuildInfo(serviceName, version string) {
	if m == nil {
		return
	}
	m.buildOnce.Do(func() {
		m.BuildInfo = m.NewGaugeVec(prometheus.GaugeOpts{
			Name: "build_info",
			Help: "Build information for the service",
		}, []string{"service", "version", "go_version"})

		m.BuildInfo.With(prometheus.Labels{
			"service":    orUnknown(serviceName),
			"version":    orUnknown(version),
			"go_version": runtime.Version(),
		}).Set(1)
	})
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
