package flow

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Condition operators supported by CONDITION nodes.
const (
	OperatorGreaterThan = "gt"
	OperatorLessThan    = "lt"
	OperatorEquals      = "eq"
	OperatorContains    = "contains"
)

// EvaluateCondition evaluates a CONDITION node against the enrollment context.
//
// data carries "field", "operator" and "value". The field is looked up on the
// top level of context only. Missing data, missing context and unknown
// operators evaluate to true.
func EvaluateCondition(data map[string]any, context map[string]any) bool {
	if data == nil || context == nil {
		return true
	}

	field, _ := data["field"].(string)
	operator, _ := data["operator"].(string)

	fieldValue := context[field]
	expected := data["value"]

	switch operator {
	case OperatorGreaterThan:
		cmp, ok := compare(fieldValue, expected)

		return ok && cmp > 0
	case OperatorLessThan:
		cmp, ok := compare(fieldValue, expected)

		return ok && cmp < 0
	case OperatorEquals:
		return looseEqual(fieldValue, expected)
	case OperatorContains:
		return strings.Contains(toString(fieldValue), toString(expected))
	default:
		return true
	}
}

// compare orders two values numerically when both are numeric, and
// lexicographically when both are non-numeric strings.
func compare(a, b any) (int, bool) {
	an, aNum := toNumber(a)
	bn, bNum := toNumber(b)

	if aNum && bNum {
		switch {
		case an > bn:
			return 1, true
		case an < bn:
			return -1, true
		default:
			return 0, true
		}
	}

	as, aStr := a.(string)
	bs, bStr := b.(string)

	if aStr && bStr {
		return strings.Compare(as, bs), true
	}

	return 0, false
}

func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	as, aStr := a.(string)
	bs, bStr := b.(string)

	if aStr && bStr {
		return as == bs
	}

	an, aNum := toNumber(a)
	bn, bNum := toNumber(b)

	if aNum && bNum {
		return an == bn
	}

	return toString(a) == toString(b)
}

func toNumber(value any) (float64, bool) {
	var n float64

	switch v := value.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int32:
		n = float64(v)
	case int64:
		n = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}

		n = f
	case bool:
		if v {
			return 1, true
		}

		return 0, true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}

		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}

		n = f
	default:
		return 0, false
	}

	if math.IsNaN(n) {
		return 0, false
	}

	return n, true
}

func toString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
