package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommuteTotalsAdd(t *testing.T) {
	totals := NewCommuteTotals()

	// Same county prefix: within.
	totals.Add("080770001001001", "080770002002002", 5)
	// Cross county: outflow for home, inflow for work.
	totals.Add("080770001001001", "080410003003003", 3)

	assert.Equal(t, 5, totals.Within["08077"])
	assert.Equal(t, 3, totals.Outflow["08077"])
	assert.Equal(t, 3, totals.Inflow["08041"])
	assert.Zero(t, totals.Inflow["08077"])
}

func TestCommuteTotalsSkipsInvalidRecords(t *testing.T) {
	totals := NewCommuteTotals()

	totals.Add("0807", "080410003003003", 5) // home geocode too short
	totals.Add("080770001001001", "0804", 5) // work geocode too short
	totals.Add("080770001001001", "080410003003003", 0)
	totals.Add("080770001001001", "080410003003003", -2)

	assert.Empty(t, totals.Within)
	assert.Empty(t, totals.Inflow)
	assert.Empty(t, totals.Outflow)
}
