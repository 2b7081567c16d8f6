package router

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
)

// testRegistry returns a fresh prometheus registry so parallel tests
// constructing Metrics don't collide on global default-registry
// collector names.
func testRegistry(t *testing.T) *prometheus.Registry {
	t.Helper()
	return prometheus.NewRegistry()
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

// testCounterValue reads the current value of a prometheus.Counter in
// tests, via the client_golang testutil helper the teacher's own
// go.mod already pulls in transitively through client_golang.
func testCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	return testutil.ToFloat64(c)
}
