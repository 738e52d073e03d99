package aggregator

import (
	"time"

	"github.com/NotCoffee418/slimmemeter/pkg/meterdb"
)

type Timeframe uint8

const (
	Hourly Timeframe = iota
	Daily
)

func (t Timeframe) String() string {
	if t == Daily {
		return "daily"
	}
	return "hourly"
}

func (t Timeframe) table() meterdb.AggregateTable {
	if t == Daily {
		return meterdb.AggregateDaily
	}
	return meterdb.AggregateHourly
}

// start returns the Unix timestamp of the period containing t
func (t Timeframe) start(ts time.Time) int64 {
	if t == Daily {
		return roundToDayStart(ts)
	}
	return roundToHourStart(ts)
}

// end returns the Unix timestamp where the period starting at start ends
func (t Timeframe) end(start int64) int64 {
	if t == Daily {
		return time.Unix(start, 0).UTC().AddDate(0, 0, 1).Unix()
	}
	return time.Unix(start, 0).Add(time.Hour).Unix()
}
