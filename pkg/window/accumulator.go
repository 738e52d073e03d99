package window

import (
	"github.com/NotCoffee418/slimmemeter/pkg/telegram"
	"github.com/NotCoffee418/slimmemeter/pkg/types"
)

// Bucket returns the index of the window holding epoch second t.
func Bucket(t int64) int64 {
	if t < 0 {
		return (t - types.WindowSeconds + 1) / types.WindowSeconds
	}
	return t / types.WindowSeconds
}

// Stat accumulates one instantaneous metric.
type Stat struct {
	Min float64
	Sum float64
	Max float64
}

func (s *Stat) add(v float64, first bool) {
	if first || v < s.Min {
		s.Min = v
	}
	if first || v > s.Max {
		s.Max = v
	}
	s.Sum += v
}

func (s Stat) summary(n int) types.Summary {
	return types.Summary{Min: s.Min, Avg: s.Sum / float64(n), Max: s.Max}
}

// Accumulator holds the in-progress aggregates of one window.
type Accumulator struct {
	bucket int64
	n      int

	consumedT1  float64
	consumedT2  float64
	deliveredT1 float64
	deliveredT2 float64
	gas         float64

	powerIn  Stat
	powerOut Stat
	voltage  [3]Stat
	current  [3]Stat
}

func NewAccumulator(bucket int64) *Accumulator {
	return &Accumulator{bucket: bucket}
}

func (a *Accumulator) Bucket() int64 {
	return a.bucket
}

// Count is the number of telegrams merged so far.
func (a *Accumulator) Count() int {
	return a.n
}

// Apply merges one field of the telegram currently being processed.
func (a *Accumulator) Apply(f telegram.Field) {
	switch f.Tag.Rule {
	case telegram.RuleReplace:
		if reg := a.register(f.Tag.Quantity); reg != nil {
			*reg = f.Value
		}
	case telegram.RuleAggregate:
		if stat := a.stat(f.Tag.Quantity); stat != nil {
			stat.add(f.Value, a.n == 0)
		}
	}
}

// Commit marks the current telegram as merged.
func (a *Accumulator) Commit() {
	a.n++
}

// Finalize converts the window into a Sample. An empty window yields false.
func (a *Accumulator) Finalize() (types.Sample, bool) {
	if a.n == 0 {
		return types.Sample{}, false
	}

	s := types.Sample{
		WindowStart:         a.bucket * types.WindowSeconds,
		Count:               a.n,
		ConsumedTariff1KWH:  a.consumedT1,
		ConsumedTariff2KWH:  a.consumedT2,
		DeliveredTariff1KWH: a.deliveredT1,
		DeliveredTariff2KWH: a.deliveredT2,
		GasM3:               a.gas,
		PowerInKW:           a.powerIn.summary(a.n),
		PowerOutKW:          a.powerOut.summary(a.n),
	}
	for i := range a.voltage {
		s.VoltageV[i] = a.voltage[i].summary(a.n)
		s.CurrentA[i] = a.current[i].summary(a.n)
	}
	return s, true
}

func (a *Accumulator) register(q telegram.Quantity) *float64 {
	switch q {
	case telegram.ConsumedTariff1:
		return &a.consumedT1
	case telegram.ConsumedTariff2:
		return &a.consumedT2
	case telegram.DeliveredTariff1:
		return &a.deliveredT1
	case telegram.DeliveredTariff2:
		return &a.deliveredT2
	case telegram.Gas:
		return &a.gas
	}
	return nil
}

func (a *Accumulator) stat(q telegram.Quantity) *Stat {
	switch q {
	case telegram.PowerIn:
		return &a.powerIn
	case telegram.PowerOut:
		return &a.powerOut
	case telegram.VoltageL1:
		return &a.voltage[0]
	case telegram.VoltageL2:
		return &a.voltage[1]
	case telegram.VoltageL3:
		return &a.voltage[2]
	case telegram.CurrentL1:
		return &a.current[0]
	case telegram.CurrentL2:
		return &a.current[1]
	case telegram.CurrentL3:
		return &a.current[2]
	}
	return nil
}
