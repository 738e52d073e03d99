package telegram

// Quantity identifies the metered value an OBIS tag carries.
type Quantity uint8

const (
	QuantityNone Quantity = iota
	ConsumedTariff1
	ConsumedTariff2
	DeliveredTariff1
	DeliveredTariff2
	Gas
	PowerIn
	PowerOut
	VoltageL1
	VoltageL2
	VoltageL3
	CurrentL1
	CurrentL2
	CurrentL3
)

// Rule says how a quantity updates a window.
type Rule uint8

const (
	// RuleIgnore drops the value. Also used for recognized but unused tags.
	RuleIgnore Rule = iota
	// RuleReplace keeps the last value of the window (meter registers).
	RuleReplace
	// RuleAggregate tracks min, sum and max (instantaneous metrics).
	RuleAggregate
)

type Tag struct {
	Code     string
	Quantity Quantity
	Rule     Rule
}

var tags = map[string]Tag{}

func init() {
	for _, t := range []Tag{
		{"1-0:1.8.1", ConsumedTariff1, RuleReplace},
		{"1-0:1.8.2", ConsumedTariff2, RuleReplace},
		{"1-0:2.8.1", DeliveredTariff1, RuleReplace},
		{"1-0:2.8.2", DeliveredTariff2, RuleReplace},
		{"0-1:24.2.1", Gas, RuleReplace},
		// Belgian meters report gas on 24.2.3
		{"0-1:24.2.3", Gas, RuleReplace},

		{"1-0:1.7.0", PowerIn, RuleAggregate},
		{"1-0:2.7.0", PowerOut, RuleAggregate},
		{"1-0:32.7.0", VoltageL1, RuleAggregate},
		{"1-0:52.7.0", VoltageL2, RuleAggregate},
		{"1-0:72.7.0", VoltageL3, RuleAggregate},
		{"1-0:31.7.0", CurrentL1, RuleAggregate},
		{"1-0:51.7.0", CurrentL2, RuleAggregate},
		{"1-0:71.7.0", CurrentL3, RuleAggregate},

		// Per phase power, reserved.
		{"1-0:21.7.0", QuantityNone, RuleIgnore},
		{"1-0:22.7.0", QuantityNone, RuleIgnore},
		{"1-0:41.7.0", QuantityNone, RuleIgnore},
		{"1-0:42.7.0", QuantityNone, RuleIgnore},
		{"1-0:61.7.0", QuantityNone, RuleIgnore},
		{"1-0:62.7.0", QuantityNone, RuleIgnore},
	} {
		tags[t.Code] = t
	}
}

// Lookup returns the tag definition for an OBIS code.
// Unknown codes return a RuleIgnore tag and false.
func Lookup(code string) (Tag, bool) {
	t, ok := tags[code]
	if !ok {
		return Tag{Code: code, Rule: RuleIgnore}, false
	}
	return t, true
}
