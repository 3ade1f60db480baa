package request

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

var (
	topLevelKeys = map[string]bool{"board_id": true, "trigger": true, "persona_set_id": true, "lookback_decisions": true}
	triggerKeys  = map[string]bool{"persona_id": true, "min_reputation": true, "reason": true}
)

// #region validate
// Validate checks a decoded JSON request against the fixed schema. It returns
// an empty string when the request is valid and a human-readable message
// otherwise. Pure; never touches storage.
func Validate(raw any) string {
	input, ok := raw.(map[string]any)
	if !ok || input == nil {
		return "input must be object"
	}
	if msg := rejectUnknown(input, topLevelKeys, "input"); msg != "" {
		return msg
	}
	boardID, ok := input["board_id"].(string)
	if !ok || strings.TrimSpace(boardID) == "" {
		return "board_id is required"
	}
	if v, present := input["trigger"]; present {
		trigger, ok := v.(map[string]any)
		if !ok || trigger == nil {
			return "trigger must be object"
		}
		if msg := rejectUnknown(trigger, triggerKeys, "trigger"); msg != "" {
			return msg
		}
		if v, present := trigger["persona_id"]; present {
			if _, ok := v.(string); !ok {
				return "trigger.persona_id must be string"
			}
		}
		if v, present := trigger["min_reputation"]; present {
			if _, ok := asNumber(v); !ok {
				return "trigger.min_reputation must be number"
			}
		}
		if v, present := trigger["reason"]; present {
			if _, ok := v.(string); !ok {
				return "trigger.reason must be string"
			}
		}
	}
	if v, present := input["persona_set_id"]; present {
		if _, ok := v.(string); !ok {
			return "persona_set_id must be string"
		}
	}
	if v, present := input["lookback_decisions"]; present {
		if _, ok := asNumber(v); !ok {
			return "lookback_decisions must be number"
		}
	}
	return ""
}
// #endregion validate

// #region parse
// Parse validates raw and converts it into a Request. The second return is
// the validation message; it is empty on success.
func Parse(raw any) (Request, string) {
	if msg := Validate(raw); msg != "" {
		return Request{}, msg
	}
	input := raw.(map[string]any)

	req := Request{BoardID: input["board_id"].(string)}
	if id, ok := input["persona_set_id"].(string); ok {
		req.PersonaSetID = id
	}
	if v, ok := asNumber(input["lookback_decisions"]); ok {
		req.LookbackDecisions = int(math.Ceil(min(max(v, 0), MaxLookbackDecisions)))
	}
	if trigger, ok := input["trigger"].(map[string]any); ok {
		if id, ok := trigger["persona_id"].(string); ok {
			req.Trigger.PersonaID = id
		}
		if v, ok := asNumber(trigger["min_reputation"]); ok {
			req.Trigger.MinReputation = &v
		}
		if reason, ok := trigger["reason"].(string); ok {
			req.Trigger.Reason = reason
		}
	}
	return req, ""
}

// BoardIDOf extracts board_id from a raw request without validating it, so
// error envelopes can echo it back.
func BoardIDOf(raw any) string {
	input, ok := raw.(map[string]any)
	if !ok {
		return ""
	}
	id, _ := input["board_id"].(string)
	return id
}
// #endregion parse

// #region helpers
func rejectUnknown(obj map[string]any, allowed map[string]bool, container string) string {
	var unknown []string
	for k := range obj {
		if !allowed[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return ""
	}
	sort.Strings(unknown)
	return fmt.Sprintf("unknown field in %s: %s", container, unknown[0])
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
// #endregion helpers
