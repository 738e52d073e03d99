package window

import (
	"math"
	"testing"

	"github.com/NotCoffee418/slimmemeter/pkg/telegram"
	"github.com/NotCoffee418/slimmemeter/pkg/types"
)

func field(code string, v float64) telegram.Field {
	tag, _ := telegram.Lookup(code)
	return telegram.Field{Tag: tag, Value: v}
}

func merge(a *Accumulator, fields ...telegram.Field) {
	for _, f := range fields {
		a.Apply(f)
	}
	a.Commit()
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestBucket(t *testing.T) {
	tests := []struct {
		t    int64
		want int64
	}{
		{0, 0},
		{299, 0},
		{300, 1},
		{1700000099, 5666666},
		{1700000100, 5666667},
		{-1, -1},
	}
	for _, tt := range tests {
		if got := Bucket(tt.t); got != tt.want {
			t.Fatalf("Bucket(%d) = %d, want %d", tt.t, got, tt.want)
		}
	}
}

func TestAccumulatorAggregates(t *testing.T) {
	a := NewAccumulator(5666667)
	powers := []float64{0.5, 0.2, 0.8, 0.3}
	for i, p := range powers {
		merge(a,
			field("1-0:1.8.1", 1000+float64(i)),
			field("1-0:1.7.0", p),
			field("1-0:32.7.0", 230+float64(i)),
			field("0-1:24.2.1", 10+float64(i)),
		)
	}

	s, ok := a.Finalize()
	if !ok {
		t.Fatal("expected a sample")
	}
	if s.Count != 4 {
		t.Fatalf("count = %d", s.Count)
	}
	if s.WindowStart != 5666667*types.WindowSeconds {
		t.Fatalf("window start = %d", s.WindowStart)
	}
	if s.ConsumedTariff1KWH != 1003 || s.GasM3 != 13 {
		t.Fatalf("registers should keep the last value: %v %v", s.ConsumedTariff1KWH, s.GasM3)
	}
	if s.PowerInKW.Min != 0.2 || s.PowerInKW.Max != 0.8 || !approx(s.PowerInKW.Avg, 0.45) {
		t.Fatalf("power in summary %+v", s.PowerInKW)
	}
	if s.VoltageV[0].Min != 230 || s.VoltageV[0].Max != 233 || !approx(s.VoltageV[0].Avg, 231.5) {
		t.Fatalf("voltage summary %+v", s.VoltageV[0])
	}
}

func TestAccumulatorMinFromFirstTelegram(t *testing.T) {
	a := NewAccumulator(1)
	merge(a, field("1-0:2.7.0", 1.5))
	merge(a, field("1-0:2.7.0", 2.5))

	s, _ := a.Finalize()
	if s.PowerOutKW.Min != 1.5 {
		t.Fatalf("min should start from first value, got %v", s.PowerOutKW.Min)
	}
}

func TestAccumulatorIgnoresReservedTags(t *testing.T) {
	a := NewAccumulator(1)
	merge(a, field("1-0:21.7.0", 9), field("0-0:96.14.0", 2))

	s, ok := a.Finalize()
	if !ok {
		t.Fatal("telegram without known fields still counts")
	}
	if s.PowerInKW != (types.Summary{}) || s.ConsumedTariff1KWH != 0 {
		t.Fatalf("reserved tags must not change the window: %+v", s)
	}
}

func TestEmptyWindowSuppressed(t *testing.T) {
	a := NewAccumulator(7)
	if _, ok := a.Finalize(); ok {
		t.Fatal("empty window must not produce a sample")
	}

	a.Apply(field("1-0:1.7.0", 1))
	if _, ok := a.Finalize(); ok {
		t.Fatal("uncommitted telegram must not produce a sample")
	}
}

func sampleAt(i int) types.Sample {
	return types.Sample{WindowStart: int64(1000+i) * types.WindowSeconds, Count: 1}
}

func TestRingFIFO(t *testing.T) {
	var r Ring
	if _, ok := r.PopIfReady(); ok {
		t.Fatal("empty ring returned a sample")
	}

	for i := 0; i < 3; i++ {
		if r.Push(sampleAt(i)) {
			t.Fatal("no eviction expected")
		}
	}
	if r.Len() != 3 {
		t.Fatalf("len = %d", r.Len())
	}

	if s, ok := r.Peek(); !ok || s.WindowStart != sampleAt(0).WindowStart {
		t.Fatalf("peek = %+v %v", s, ok)
	}
	for i := 0; i < 3; i++ {
		s, ok := r.PopIfReady()
		if !ok || s.WindowStart != sampleAt(i).WindowStart {
			t.Fatalf("pop %d = %+v %v", i, s, ok)
		}
	}
	if _, ok := r.PopIfReady(); ok {
		t.Fatal("drained ring returned a sample")
	}
	if r.read != r.write {
		t.Fatalf("drained ring cursors differ: read=%d write=%d", r.read, r.write)
	}
}

func TestRingOverwriteOldest(t *testing.T) {
	var r Ring
	evictions := 0
	total := RingCapacity + 1
	for i := 0; i < total; i++ {
		if r.Push(sampleAt(i)) {
			evictions++
		}
	}

	if evictions != 1 {
		t.Fatalf("evictions = %d, want 1", evictions)
	}
	if r.Len() != RingCapacity {
		t.Fatalf("len = %d, want %d", r.Len(), RingCapacity)
	}
	for i := 1; i < total; i++ {
		s, ok := r.PopIfReady()
		if !ok || s.WindowStart != sampleAt(i).WindowStart {
			t.Fatalf("expected sample %d, got %+v %v", i, s, ok)
		}
	}
	if _, ok := r.PopIfReady(); ok {
		t.Fatal("ring should be empty")
	}
}

func TestRingSustainedOverflow(t *testing.T) {
	var r Ring
	total := 3*RingCapacity + 4
	for i := 0; i < total; i++ {
		r.Push(sampleAt(i))
	}
	for i := total - RingCapacity; i < total; i++ {
		s, ok := r.PopIfReady()
		if !ok || s.WindowStart != sampleAt(i).WindowStart {
			t.Fatalf("expected sample %d, got %+v %v", i, s, ok)
		}
	}
	if r.Len() != 0 {
		t.Fatalf("len = %d", r.Len())
	}
}

func TestRingInterleaved(t *testing.T) {
	var r Ring
	next := 0
	for round := 0; round < 15; round++ {
		r.Push(sampleAt(round))
		if round%2 == 1 {
			s, ok := r.PopIfReady()
			if !ok || s.WindowStart != sampleAt(next).WindowStart {
				t.Fatalf("round %d: expected sample %d, got %+v", round, next, s)
			}
			next++
		}
	}
	if r.Len() != 15-next {
		t.Fatalf("len = %d, want %d", r.Len(), 15-next)
	}
}
