package domain

// CommuteTotals accumulates origin-destination job counts into per-county
// within/inflow/outflow totals. Keys are 5-digit county FIPS codes taken
// from the leading digits of block geocodes. The three maps are the only
// state retained while streaming a multi-million-row OD file.
type CommuteTotals struct {
	Within  map[string]int
	Inflow  map[string]int
	Outflow map[string]int
}

// NewCommuteTotals returns an empty accumulator.
func NewCommuteTotals() *CommuteTotals {
	return &CommuteTotals{
		Within:  make(map[string]int),
		Inflow:  make(map[string]int),
		Outflow: make(map[string]int),
	}
}

// Add folds one OD record into the totals. Records with short geocodes or a
// non-positive count are ignored: same-county flows count as within,
// cross-county flows as outflow for the home county and inflow for the
// work county.
func (t *CommuteTotals) Add(homeGeocode, workGeocode string, count int) {
	if len(homeGeocode) < 5 || len(workGeocode) < 5 || count <= 0 {
		return
	}
	home := homeGeocode[:5]
	work := workGeocode[:5]
	if home == work {
		t.Within[home] += count
		return
	}
	t.Outflow[home] += count
	t.Inflow[work] += count
}
