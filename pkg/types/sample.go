package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// WindowSeconds is the length of one aggregation window.
const WindowSeconds = 300

// Summary is the finalized min/avg/max of one instantaneous metric.
type Summary struct {
	Min float64 `json:"min"`
	Avg float64 `json:"avg"`
	Max float64 `json:"max"`
}

// Sample is one finalized 300 second window.
type Sample struct {
	// Epoch seconds, aligned to WindowSeconds
	WindowStart int64 `json:"window_start"`
	Count       int   `json:"count"`

	// Meter registers, last value of the window
	ConsumedTariff1KWH  float64 `json:"consumed_tariff1_kwh"`
	ConsumedTariff2KWH  float64 `json:"consumed_tariff2_kwh"`
	DeliveredTariff1KWH float64 `json:"delivered_tariff1_kwh"`
	DeliveredTariff2KWH float64 `json:"delivered_tariff2_kwh"`
	GasM3               float64 `json:"gas_m3"`

	// Instantaneous metrics
	PowerInKW  Summary    `json:"power_in_kw"`
	PowerOutKW Summary    `json:"power_out_kw"`
	VoltageV   [3]Summary `json:"voltage_v"`
	CurrentA   [3]Summary `json:"current_a"`
}

// WindowEnd is the timestamp the sink stores the sample under.
func (s Sample) WindowEnd() int64 {
	return s.WindowStart + WindowSeconds
}

// Records splits the sample into the three series updates handed to a sink.
func (s Sample) Records() []Record {
	ts := s.WindowEnd()
	return []Record{
		{
			Series:    SeriesCounters,
			Timestamp: ts,
			Values: []float64{
				s.ConsumedTariff1KWH,
				s.ConsumedTariff2KWH,
				s.DeliveredTariff1KWH,
				s.DeliveredTariff2KWH,
				s.GasM3,
			},
		},
		{
			Series:    SeriesVoltage,
			Timestamp: ts,
			Values:    []float64{s.VoltageV[0].Max, s.VoltageV[0].Avg, s.VoltageV[0].Min},
		},
		{
			Series:    SeriesPower,
			Timestamp: ts,
			Values: []float64{
				s.PowerInKW.Max, s.PowerInKW.Avg, s.PowerInKW.Min,
				s.PowerOutKW.Max, s.PowerOutKW.Avg, s.PowerOutKW.Min,
			},
		},
	}
}

// Report renders the human readable dump written in verbose mode.
func (s Sample) Report() string {
	var b strings.Builder
	line := strings.Repeat("-", 55)
	fmt.Fprintln(&b, line)
	fmt.Fprintf(&b, "Report time : %s\n", time.Unix(s.WindowStart, 0).Format("2006-01-02 15:04:05"))
	fmt.Fprintln(&b, line)
	fmt.Fprintln(&b, "Tariff group              1               2")
	fmt.Fprintf(&b, "Energy consumed   : %10.3f KWh  %10.3f KWh\n", s.ConsumedTariff1KWH, s.ConsumedTariff2KWH)
	fmt.Fprintf(&b, "Energy delivered  : %10.3f KWh  %10.3f KWh\n", s.DeliveredTariff1KWH, s.DeliveredTariff2KWH)
	fmt.Fprintln(&b, "                      min         avg         max")
	fmt.Fprintf(&b, "Power consumption : %7.3f KW  %7.3f KW  %7.3f KW\n", s.PowerInKW.Min, s.PowerInKW.Avg, s.PowerInKW.Max)
	fmt.Fprintf(&b, "Power delivery    : %7.3f KW  %7.3f KW  %7.3f KW\n", s.PowerOutKW.Min, s.PowerOutKW.Avg, s.PowerOutKW.Max)
	fmt.Fprintf(&b, "L1 voltage drift  : %7.3f V   %7.3f V   %7.3f V\n", s.VoltageV[0].Min, s.VoltageV[0].Avg, s.VoltageV[0].Max)
	fmt.Fprintf(&b, "L1 Currents       : %7.3f A   %7.3f A   %7.3f A\n", s.CurrentA[0].Min, s.CurrentA[0].Avg, s.CurrentA[0].Max)
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Gas consumption   : %10.3f m3\n", s.GasM3)
	return b.String()
}

func (s *Sample) ToJsonBytes() []byte {
	data, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	return data
}

// SampleFromJsonBytes returns nil when data is not a valid sample.
func SampleFromJsonBytes(data []byte) *Sample {
	var sample Sample
	if err := json.Unmarshal(data, &sample); err != nil {
		return nil
	}
	if sample.WindowStart == 0 {
		return nil
	}
	return &sample
}
