package meterdb

import "github.com/NotCoffee418/slimmemeter/pkg/types"

// AggregateTable names one consolidation table.
type AggregateTable string

const (
	AggregateHourly AggregateTable = "aggregate_hourly"
	AggregateDaily  AggregateTable = "aggregate_daily"
)

// Tables the sink writes 5 minute samples to, keyed by series name.
// Column names always come from here, never from the record.
var seriesTables = map[string]types.Series{
	types.SeriesCounters.Name: types.SeriesCounters,
	types.SeriesVoltage.Name:  types.SeriesVoltage,
	types.SeriesPower.Name:    types.SeriesPower,
}

// Aggregate models - consumption deltas and power statistics of one period
type AggregateRow struct {
	PeriodStart     int64   `db:"period_start"`
	ConsumptionT1Wh uint32  `db:"consumption_t1_wh"`
	ConsumptionT2Wh uint32  `db:"consumption_t2_wh"`
	ProductionT1Wh  uint32  `db:"production_t1_wh"`
	ProductionT2Wh  uint32  `db:"production_t2_wh"`
	GasDM3          uint32  `db:"gas_dm3"`
	PowerInAvgW     uint32  `db:"power_in_avg_w"`
	PowerInMaxW     uint32  `db:"power_in_max_w"`
	PowerInMinW     uint32  `db:"power_in_min_w"`
	PowerOutAvgW    uint32  `db:"power_out_avg_w"`
	PowerOutMaxW    uint32  `db:"power_out_max_w"`
	PowerOutMinW    uint32  `db:"power_out_min_w"`
	VoltageAvg      float64 `db:"voltage_avg"`
	VoltageMax      float64 `db:"voltage_max"`
	VoltageMin      float64 `db:"voltage_min"`
	SampleCount     uint32  `db:"sample_count"`
}
