package flow

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/valyala/fasttemplate"
)

// RenderTemplate replaces {{a.b.c}} tokens with values found by walking the
// dotted path through context. Every token is a path: there are no sections,
// partials or comments. Missing or null hops render as an empty string.
// Output is not HTML-escaped: templates are authored by account owners and
// trusted.
func RenderTemplate(template string, context map[string]any) string {
	if !strings.Contains(template, "{{") {
		return template
	}

	return fasttemplate.ExecuteFuncString(template, "{{", "}}", func(w io.Writer, tag string) (int, error) {
		value, ok := lookupPath(context, strings.TrimSpace(tag))
		if !ok {
			return 0, nil
		}

		return io.WriteString(w, formatValue(value))
	})
}

func lookupPath(context map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}

	var current any = context

	for segment := range strings.SplitSeq(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			value, ok := node[segment]
			if !ok {
				return nil, false
			}

			current = value
		case []any:
			index, err := strconv.Atoi(segment)
			if err != nil || index < 0 || index >= len(node) {
				return nil, false
			}

			current = node[index]
		default:
			return nil, false
		}

		if current == nil {
			return nil, false
		}
	}

	return current, true
}

// formatValue prints numbers in full, never in exponent form.
func formatValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case json.Number:
		return v.String()
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case map[string]any, []any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return ""
		}

		return string(encoded)
	default:
		return fmt.Sprint(v)
	}
}
