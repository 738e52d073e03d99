package meterdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/NotCoffee418/slimmemeter/pkg/types"
)

var (
	ErrUnknownSeries = errors.New("unknown series")
	ErrValueCount    = errors.New("value count does not match series")
)

// Update stores one record. The row is replaced when the timestamp already
// exists, so a redelivered sample leaves a single row.
func (s *Store) Update(ctx context.Context, record types.Record) error {
	series, ok := seriesTables[record.Series.Name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSeries, record.Series.Name)
	}
	if len(record.Values) != len(series.Sources) {
		return fmt.Errorf("%w: %s expects %d, got %d",
			ErrValueCount, series.Name, len(series.Sources), len(record.Values))
	}

	args := make([]any, 0, len(record.Values)+1)
	args = append(args, record.Timestamp)
	for _, v := range record.Values {
		args = append(args, v)
	}

	query := "INSERT OR REPLACE INTO " + series.Name +
		" (timestamp, " + strings.Join(series.Sources, ", ") + ") " +
		"VALUES (?" + strings.Repeat(", ?", len(series.Sources)) + ")"
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

// Records returns the rows of a series with from <= timestamp < to, oldest first.
func (s *Store) Records(ctx context.Context, series types.Series, from, to int64) ([]types.Record, error) {
	known, ok := seriesTables[series.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSeries, series.Name)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT timestamp, "+strings.Join(known.Sources, ", ")+" FROM "+known.Name+
			" WHERE timestamp >= ? AND timestamp < ? ORDER BY timestamp",
		from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []types.Record
	for rows.Next() {
		record := types.Record{Series: known, Values: make([]float64, len(known.Sources))}
		dest := make([]any, 0, len(known.Sources)+1)
		dest = append(dest, &record.Timestamp)
		for i := range record.Values {
			dest = append(dest, &record.Values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// DeleteRecordsBefore removes 5 minute rows of every series older than cutoff.
func (s *Store) DeleteRecordsBefore(ctx context.Context, cutoff int64) (int64, error) {
	var total int64
	for name := range seriesTables {
		res, err := s.db.ExecContext(ctx, "DELETE FROM "+name+" WHERE timestamp < ?", cutoff)
		if err != nil {
			return total, fmt.Errorf("delete from %s: %w", name, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

const aggregateColumns = "period_start, consumption_t1_wh, consumption_t2_wh, production_t1_wh, production_t2_wh, " +
	"gas_dm3, power_in_avg_w, power_in_max_w, power_in_min_w, power_out_avg_w, power_out_max_w, power_out_min_w, " +
	"voltage_avg, voltage_max, voltage_min, sample_count"

func (s *Store) UpsertAggregate(ctx context.Context, table AggregateTable, row AggregateRow) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO "+string(table)+" ("+aggregateColumns+") "+
			"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		row.PeriodStart,
		row.ConsumptionT1Wh,
		row.ConsumptionT2Wh,
		row.ProductionT1Wh,
		row.ProductionT2Wh,
		row.GasDM3,
		row.PowerInAvgW,
		row.PowerInMaxW,
		row.PowerInMinW,
		row.PowerOutAvgW,
		row.PowerOutMaxW,
		row.PowerOutMinW,
		row.VoltageAvg,
		row.VoltageMax,
		row.VoltageMin,
		row.SampleCount,
	)
	return err
}

// GetAggregate returns the row of the period, or false when none was written.
func (s *Store) GetAggregate(ctx context.Context, table AggregateTable, periodStart int64) (AggregateRow, bool, error) {
	var row AggregateRow
	err := s.db.QueryRowContext(ctx,
		"SELECT "+aggregateColumns+" FROM "+string(table)+" WHERE period_start = ?",
		periodStart,
	).Scan(
		&row.PeriodStart,
		&row.ConsumptionT1Wh,
		&row.ConsumptionT2Wh,
		&row.ProductionT1Wh,
		&row.ProductionT2Wh,
		&row.GasDM3,
		&row.PowerInAvgW,
		&row.PowerInMaxW,
		&row.PowerInMinW,
		&row.PowerOutAvgW,
		&row.PowerOutMaxW,
		&row.PowerOutMinW,
		&row.VoltageAvg,
		&row.VoltageMax,
		&row.VoltageMin,
		&row.SampleCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return AggregateRow{}, false, nil
	}
	if err != nil {
		return AggregateRow{}, false, err
	}
	return row, true, nil
}

// LatestAggregate returns the newest period_start of table, or false when empty.
func (s *Store) LatestAggregate(ctx context.Context, table AggregateTable) (int64, bool, error) {
	var latest sql.NullInt64
	err := s.db.QueryRowContext(ctx, "SELECT MAX(period_start) FROM "+string(table)).Scan(&latest)
	if err != nil {
		return 0, false, err
	}
	return latest.Int64, latest.Valid, nil
}
