package checker

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// MatchesExpectation checks actual against expected. Maps match when every
// expected key matches, so extra actual keys are allowed. Expected strings
// may be matchers: ~regex~ or a comparison such as ">=0.5".
// Returns (true, "") on match, (false, reason) otherwise.
func MatchesExpectation(actual, expected interface{}) (bool, string) {
	if expected == nil {
		if actual == nil {
			return true, ""
		}
		return false, fmt.Sprintf("expected nil, got %v", actual)
	}
	if actual == nil {
		return false, fmt.Sprintf("expected %v, got nil", expected)
	}

	if s, ok := expected.(string); ok {
		switch {
		case len(s) >= 2 && strings.HasPrefix(s, "~") && strings.HasSuffix(s, "~"):
			return matchRegex(actual, strings.Trim(s, "~"))
		case strings.HasPrefix(s, ">") || strings.HasPrefix(s, "<"):
			return matchComparison(actual, s)
		}
	}

	if e, err := toFloat64(expected); err == nil {
		a, err := toFloat64(actual)
		if err != nil {
			return false, fmt.Sprintf("expected number %v, got %T", expected, actual)
		}
		if a != e {
			return false, fmt.Sprintf("expected %v, got %v", e, a)
		}
		return true, ""
	}

	switch exp := expected.(type) {
	case map[string]interface{}:
		act, ok := actual.(map[string]interface{})
		if !ok {
			return false, fmt.Sprintf("expected object, got %T", actual)
		}
		for key, want := range exp {
			got, exists := act[key]
			if !exists {
				return false, fmt.Sprintf("missing key %q", key)
			}
			if ok, reason := MatchesExpectation(got, want); !ok {
				return false, fmt.Sprintf("key %q: %s", key, reason)
			}
		}
		return true, ""

	case []interface{}:
		act, ok := actual.([]interface{})
		if !ok {
			return false, fmt.Sprintf("expected array, got %T", actual)
		}
		if len(act) != len(exp) {
			return false, fmt.Sprintf("expected array length %d, got %d", len(exp), len(act))
		}
		for i := range exp {
			if ok, reason := MatchesExpectation(act[i], exp[i]); !ok {
				return false, fmt.Sprintf("element %d: %s", i, reason)
			}
		}
		return true, ""
	}

	if reflect.DeepEqual(actual, expected) {
		return true, ""
	}
	return false, fmt.Sprintf("expected %v, got %v", expected, actual)
}

// MatchesStored matches a raw stored value. JSON values are decoded first
// so object expectations work against Redis entries.
func MatchesStored(raw string, expected interface{}) (bool, string, interface{}) {
	var decoded interface{}
	if err := json.Unmarshal([]byte(raw), &decoded); err == nil {
		if _, isString := expected.(string); !isString {
			ok, reason := MatchesExpectation(decoded, expected)
			return ok, reason, decoded
		}
	}
	ok, reason := MatchesExpectation(raw, expected)
	return ok, reason, raw
}

func matchRegex(actual interface{}, pattern string) (bool, string) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Sprintf("invalid regex pattern %q: %v", pattern, err)
	}
	s := fmt.Sprintf("%v", actual)
	if re.MatchString(s) {
		return true, ""
	}
	return false, fmt.Sprintf("value %q does not match pattern ~%s~", s, pattern)
}

func matchComparison(actual interface{}, comparison string) (bool, string) {
	a, err := toFloat64(actual)
	if err != nil {
		return false, fmt.Sprintf("cannot compare non-numeric value: %v", actual)
	}

	var op string
	for _, candidate := range []string{">=", "<=", ">", "<"} {
		if strings.HasPrefix(comparison, candidate) {
			op = candidate
			break
		}
	}
	want, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(comparison, op)), 64)
	if err != nil {
		return false, fmt.Sprintf("invalid comparison value: %s", comparison)
	}

	var ok bool
	switch op {
	case ">":
		ok = a > want
	case "<":
		ok = a < want
	case ">=":
		ok = a >= want
	case "<=":
		ok = a <= want
	}
	if ok {
		return true, ""
	}
	return false, fmt.Sprintf("expected value %s %v, got %v", op, want, a)
}

func toFloat64(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	}
	return 0, fmt.Errorf("not a numeric type: %T", v)
}
