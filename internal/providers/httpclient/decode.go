package httpclient

import (
	"encoding/json"
	"fmt"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
)

// DecodeLenient decodes body into a loose map[string]interface{}, repairing
// near-valid JSON (trailing commas, stray quoting) before falling back to a
// hard failure. Per §9 ("JSON-driven ad-hoc shapes from upstream... decode
// into lenient intermediate maps then project into the canonical envelope"),
// callers must project the returned map into a canonical type themselves —
// this map never escapes a provider package.
func DecodeLenient(body []byte) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := json.Unmarshal(body, &out); err == nil {
		return out, nil
	}

	repaired, err := jsonrepair.RepairJSON(string(body))
	if err != nil {
		return nil, fmt.Errorf("repair upstream json: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &out); err != nil {
		return nil, fmt.Errorf("decode repaired upstream json: %w", err)
	}
	return out, nil
}

// DecodeLenientArray is DecodeLenient for a top-level JSON array body.
func DecodeLenientArray(body []byte) ([]interface{}, error) {
	var out []interface{}
	if err := json.Unmarshal(body, &out); err == nil {
		return out, nil
	}

	repaired, err := jsonrepair.RepairJSON(string(body))
	if err != nil {
		return nil, fmt.Errorf("repair upstream json array: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &out); err != nil {
		return nil, fmt.Errorf("decode repaired upstream json array: %w", err)
	}
	return out, nil
}

// Lookup helpers for projecting the lenient map into canonical fields.

// Float extracts a finite float64 from m[key], returning (0, false) when
// absent, non-numeric, NaN, or Inf.
func Float(m map[string]interface{}, key string) (float64, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		if n != n || n > 1e308 || n < -1e308 {
			return 0, false
		}
		return n, true
	case string:
		var f float64
		if _, err := fmt.Sscanf(n, "%g", &f); err == nil && f == f && f <= 1e308 && f >= -1e308 {
			return f, true
		}
	}
	return 0, false
}

// String extracts a non-empty string from m[key].
func String(m map[string]interface{}, key string) (string, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
