package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorsAreRegistered(t *testing.T) {
	OrdersCreated.WithLabelValues("soles_to_bolivares").Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(OrdersCreated.WithLabelValues("soles_to_bolivares")))

	families, err := Registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["solbol_orders_created_total"])
	assert.True(t, names["go_goroutines"])
}
