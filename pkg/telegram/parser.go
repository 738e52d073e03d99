package telegram

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// MaxFieldText is the longest tag or value text a field line may carry.
const MaxFieldText = 14

var ErrFieldTooLong = errors.New("field text exceeds buffer")

// Pre-compiled line grammars
var (
	// TAG(VALUE*UNIT)
	fieldPattern = regexp.MustCompile(`^([^(]+)\(([0-9.]+)\*.*\)`)
	// TAG(TIMESTAMP)(VALUE*UNIT), only used by gas
	gasPattern = regexp.MustCompile(`^([^(]+)\([^(]+\)\(([0-9.]+)\*.*\)`)
)

// Field is one tagged numeric value taken from a telegram line.
type Field struct {
	Tag   Tag
	Value float64
}

// ParseFields extracts the recognized fields of a validated telegram in line order.
// Lines that match neither grammar, or carry an unknown tag, are skipped.
func ParseFields(telegram []byte) ([]Field, error) {
	var fields []Field

	rest := telegram
	for len(rest) > 0 {
		var line []byte
		if i := bytes.IndexByte(rest, '\n'); i >= 0 {
			line, rest = rest[:i], rest[i+1:]
		} else {
			line, rest = rest, nil
		}

		// Header and blank/control lines
		if len(line) == 0 || line[0] == StartMarker || line[0] < ' ' {
			continue
		}
		if line[0] == EndMarker {
			break
		}

		match := fieldPattern.FindSubmatch(line)
		if match == nil {
			match = gasPattern.FindSubmatch(line)
		}
		if match == nil {
			continue
		}

		code, text := match[1], match[2]
		if len(code) > MaxFieldText {
			return nil, fmt.Errorf("%w: tag %q", ErrFieldTooLong, code)
		}
		if len(text) > MaxFieldText {
			return nil, fmt.Errorf("%w: value %q of %s", ErrFieldTooLong, text, code)
		}

		tag, known := Lookup(string(code))
		if !known || tag.Rule == RuleIgnore {
			continue
		}
		fields = append(fields, Field{Tag: tag, Value: parseValue(text)})
	}

	return fields, nil
}

// Malformed numbers count as zero.
func parseValue(text []byte) float64 {
	v, err := strconv.ParseFloat(string(text), 64)
	if err != nil {
		return 0
	}
	return v
}
