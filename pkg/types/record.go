package types

// Series names one time-series file/table and the order of its values.
type Series struct {
	Name    string
	Sources []string
}

var (
	SeriesCounters = Series{
		Name:    "counters",
		Sources: []string{"kwh_1_in", "kwh_2_in", "kwh_1_out", "kwh_2_out", "gas_in"},
	}
	SeriesVoltage = Series{
		Name:    "voltage",
		Sources: []string{"v_max", "v_avg", "v_min"},
	}
	SeriesPower = Series{
		Name: "kwinout",
		Sources: []string{
			"kw_max_in", "kw_avg_in", "kw_min_in",
			"kw_max_out", "kw_avg_out", "kw_min_out",
		},
	}
)

// Record is one time-stamped update of a series.
// Values are ordered like Series.Sources.
type Record struct {
	Series    Series
	Timestamp int64
	Values    []float64
}

// Value returns the value of the named source, or false if unknown.
func (r Record) Value(source string) (float64, bool) {
	for i, name := range r.Series.Sources {
		if name == source && i < len(r.Values) {
			return r.Values[i], true
		}
	}
	return 0, false
}
