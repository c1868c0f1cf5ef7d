package ingest

import (
	"math"
	"strconv"
)

// Extraction helpers for the loosely-typed MatchZy payload. Each field is
// resolved by trying an ordered list of keys; the first key that yields a
// usable value wins, everything else falls back to a zero value.

// stringAt returns the first key whose value is a non-empty string, or a
// number stringified. MatchZy sends matchid as either a string or a number
// depending on the match configuration source.
func stringAt(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return formatNumber(v)
		case int:
			return strconv.Itoa(v)
		}
	}
	return ""
}

// intAt returns the first key holding a numeric value, truncated to int.
// JSON numbers decode as float64; string-encoded numbers are parsed too
// since some plugin versions quote scores.
func intAt(m map[string]any, keys ...string) int {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			return int(v)
		case int:
			return v
		case string:
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
	}
	return 0
}

func floatAt(m map[string]any, keys ...string) float64 {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
		}
	}
	return 0
}

func objectAt(m map[string]any, key string) map[string]any {
	if o, ok := m[key].(map[string]any); ok {
		return o
	}
	return nil
}

func arrayAt(m map[string]any, key string) []any {
	if a, ok := m[key].([]any); ok {
		return a
	}
	return nil
}

// teamObject resolves a team by key from the top level first, then from the
// params wrapper some MatchZy forwarders nest the payload under. A missing
// team resolves to an empty object so every downstream field defaults.
func teamObject(payload map[string]any, key string) map[string]any {
	if t := objectAt(payload, key); t != nil {
		return t
	}
	if params := objectAt(payload, "params"); params != nil {
		if t := objectAt(params, key); t != nil {
			return t
		}
	}
	return map[string]any{}
}

// statInt resolves a counting stat from the player object itself first, then
// from its nested stats object. map_result payloads nest everything under
// stats; older round_end-style payloads inline the fields.
func statInt(player, stats map[string]any, key string) int {
	if _, ok := player[key]; ok {
		return intAt(player, key)
	}
	if stats != nil {
		return intAt(stats, key)
	}
	return 0
}

func statFloat(player, stats map[string]any, key string) float64 {
	if _, ok := player[key]; ok {
		return floatAt(player, key)
	}
	if stats != nil {
		return floatAt(stats, key)
	}
	return 0
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
