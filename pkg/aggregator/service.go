// Package aggregator consolidates the 5 minute samples into hourly and daily
// aggregates while they are being stored.
package aggregator

import (
	"context"
	"fmt"
	"time"

	"github.com/NotCoffee418/slimmemeter/pkg/esmutils"
	"github.com/NotCoffee418/slimmemeter/pkg/logging"
	"github.com/NotCoffee418/slimmemeter/pkg/meterdb"
	"github.com/NotCoffee418/slimmemeter/pkg/types"
	"github.com/sirupsen/logrus"
)

// For counters, we look 24 hours before the period for the last known standing
const counterLookback = 24 * 3600

// RollupSink stores records and rolls up every completed hour and day.
type RollupSink struct {
	store     *meterdb.Store
	retention time.Duration
	now       func() time.Time
	log       *logrus.Entry

	// Hour of the last counters record, or the oldest hour still to be
	// consolidated after a failed rollup. 0 before the first record.
	lastHour int64
}

func NewRollupSink(store *meterdb.Store, retentionDays int) *RollupSink {
	return &RollupSink{
		store:     store,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		now:       time.Now,
		log:       logging.WithComponent("aggregator"),
	}
}

// Update stores the record. The first counters record of a new hour triggers
// the rollup of the hours before it, and of a day when its last hour is done.
// Rollup failures are logged, only a failed store is returned.
func (r *RollupSink) Update(ctx context.Context, record types.Record) error {
	if err := r.store.Update(ctx, record); err != nil {
		return err
	}
	if record.Series.Name != types.SeriesCounters.Name {
		return nil
	}

	// A record stamped on the hour closes the window ending there.
	hour := rowPeriod(Hourly, record.Timestamp)
	if hour == r.lastHour {
		return nil
	}

	next := r.lastHour
	if next == 0 {
		// After a restart the previous hour may never have been consolidated.
		next = hour - 3600
	}

	// lastHour only advances past an hour once it is consolidated, so a
	// failure is retried with the next counters record.
	for ; next < hour; next += 3600 {
		if err := r.rollup(ctx, Hourly, next); err != nil {
			r.log.WithError(err).WithField("hour_start", next).Error("Hourly rollup failed")
			r.lastHour = next
			return nil
		}
		if day := rowPeriod(Daily, next+1); day != rowPeriod(Daily, next+3600+1) {
			if err := r.rollup(ctx, Daily, day); err != nil {
				r.log.WithError(err).WithField("day_start", day).Error("Daily rollup failed")
			}
		}
	}
	r.lastHour = hour

	if err := r.cleanupOldData(ctx); err != nil {
		r.log.WithError(err).Error("Cleanup of old samples failed")
	}
	return nil
}

// Rollup consolidates the period starting at start. Periods without samples are skipped.
func (r *RollupSink) Rollup(ctx context.Context, tf Timeframe, start int64) error {
	return r.rollup(ctx, tf, start)
}

func (r *RollupSink) rollup(ctx context.Context, tf Timeframe, start int64) error {
	row, ok, err := r.aggregatePeriod(ctx, start, tf.end(start))
	if err != nil {
		return fmt.Errorf("aggregate %s period %d: %w", tf, start, err)
	}
	if !ok {
		return nil
	}
	if err := r.store.UpsertAggregate(ctx, tf.table(), row); err != nil {
		return fmt.Errorf("store %s period %d: %w", tf, start, err)
	}

	r.log.WithFields(logrus.Fields{
		"timeframe":    tf.String(),
		"period_start": time.Unix(start, 0).UTC().Format(time.RFC3339),
		"samples":      row.SampleCount,
	}).Info("Aggregated period")
	return nil
}

// aggregatePeriod consolidates the rows stamped in (start, end].
func (r *RollupSink) aggregatePeriod(ctx context.Context, start, end int64) (meterdb.AggregateRow, bool, error) {
	counters, err := r.store.Records(ctx, types.SeriesCounters, start+1, end+1)
	if err != nil {
		return meterdb.AggregateRow{}, false, err
	}
	// Only insert if we have data
	if len(counters) == 0 {
		return meterdb.AggregateRow{}, false, nil
	}

	// Energy is the growth of the standing since the last known reading
	// before the period, or since the first reading inside it.
	baseline := counters[0]
	before, err := r.store.Records(ctx, types.SeriesCounters, start-counterLookback+1, start+1)
	if err != nil {
		return meterdb.AggregateRow{}, false, err
	}
	if len(before) > 0 {
		baseline = before[len(before)-1]
	}
	last := counters[len(counters)-1]
	delta := func(source string) float64 {
		now, _ := last.Value(source)
		then, _ := baseline.Value(source)
		return now - then
	}

	row := meterdb.AggregateRow{
		PeriodStart:     start,
		ConsumptionT1Wh: esmutils.KwhToWh(delta("kwh_1_in")),
		ConsumptionT2Wh: esmutils.KwhToWh(delta("kwh_2_in")),
		ProductionT1Wh:  esmutils.KwhToWh(delta("kwh_1_out")),
		ProductionT2Wh:  esmutils.KwhToWh(delta("kwh_2_out")),
		GasDM3:          esmutils.M3ToDM3(delta("gas_in")),
		SampleCount:     uint32(len(counters)),
	}

	power, err := r.store.Records(ctx, types.SeriesPower, start+1, end+1)
	if err != nil {
		return meterdb.AggregateRow{}, false, err
	}
	if len(power) > 0 {
		in := summarize(power, "kw_min_in", "kw_avg_in", "kw_max_in")
		out := summarize(power, "kw_min_out", "kw_avg_out", "kw_max_out")
		row.PowerInMinW, row.PowerInAvgW, row.PowerInMaxW = esmutils.KwToW(in.Min), esmutils.KwToW(in.Avg), esmutils.KwToW(in.Max)
		row.PowerOutMinW, row.PowerOutAvgW, row.PowerOutMaxW = esmutils.KwToW(out.Min), esmutils.KwToW(out.Avg), esmutils.KwToW(out.Max)
	}

	voltage, err := r.store.Records(ctx, types.SeriesVoltage, start+1, end+1)
	if err != nil {
		return meterdb.AggregateRow{}, false, err
	}
	if len(voltage) > 0 {
		v := summarize(voltage, "v_min", "v_avg", "v_max")
		row.VoltageMin, row.VoltageAvg, row.VoltageMax = v.Min, v.Avg, v.Max
	}

	return row, true, nil
}

// summarize merges per-window summaries. Every window weighs the same.
func summarize(records []types.Record, minSource, avgSource, maxSource string) types.Summary {
	var s types.Summary
	var sum float64
	for i, rec := range records {
		lo, _ := rec.Value(minSource)
		avg, _ := rec.Value(avgSource)
		hi, _ := rec.Value(maxSource)
		if i == 0 || lo < s.Min {
			s.Min = lo
		}
		if i == 0 || hi > s.Max {
			s.Max = hi
		}
		sum += avg
	}
	s.Avg = sum / float64(len(records))
	return s
}

// cleanupOldData removes samples older than the retention if we have aggregated them
func (r *RollupSink) cleanupOldData(ctx context.Context) error {
	cutoff := r.now().Add(-r.retention).Unix()

	lastHour, ok, err := r.store.LatestAggregate(ctx, meterdb.AggregateHourly)
	if err != nil {
		return err
	}
	// We haven't aggregated enough data yet, don't clean up
	if !ok || lastHour < cutoff {
		return nil
	}

	n, err := r.store.DeleteRecordsBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if n > 0 {
		r.log.WithFields(logrus.Fields{
			"rows":   n,
			"cutoff": time.Unix(cutoff, 0).UTC().Format(time.RFC3339),
		}).Info("Cleaned up old samples")
	}
	return nil
}

// rowPeriod returns the start of the period a row stamped at ts belongs to.
// Rows are stamped at the end of their window.
func rowPeriod(tf Timeframe, ts int64) int64 {
	return tf.start(time.Unix(ts-1, 0))
}

// roundToHourStart returns the Unix timestamp of the start of the hour for the given time
func roundToHourStart(t time.Time) int64 {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC).Unix()
}

// roundToDayStart returns the Unix timestamp of the start of the day for the given time
func roundToDayStart(t time.Time) int64 {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Unix()
}
