package service

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractJSONObject strips whatever the model wrapped around the object:
// markdown fences, leading prose, trailing notes. Returns the widest
// {...} span found.
func extractJSONObject(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

// decodeModelJSON parses a model response into v, tolerating non-JSON
// wrapping. Missing fields are left at zero values for the caller to default
// individually, so a mostly-right response is not rejected wholesale.
func decodeModelJSON(raw string, v interface{}) error {
	obj, ok := extractJSONObject(raw)
	if !ok {
		return fmt.Errorf("no JSON object in model response")
	}
	return json.Unmarshal([]byte(obj), v)
}

// stringOr returns value if it is one of allowed, otherwise fallback.
func stringOr(value string, allowed []string, fallback string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, a := range allowed {
		if v == a {
			return a
		}
	}
	return fallback
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
