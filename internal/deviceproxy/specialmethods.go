package deviceproxy

import (
	"context"
	"sort"
)

// applySpecialOverride replaces the generically synthesized args for
// the three methods spec §4.3 calls out with special handling. It is a
// no-op for every other method.
func applySpecialOverride(ctx context.Context, t *Transport, ep *Endpoint, spec *MethodSpec) {
	switch spec.Name {
	case "setExposureCompensation":
		overrideExposureCompensation(ctx, t, ep, spec)
	case "setWhiteBalance":
		overrideWhiteBalance(ctx, t, ep, spec)
	case "setStillSize":
		overrideStillSize(ctx, t, ep, spec)
	}
}

func overrideExposureCompensation(ctx context.Context, t *Transport, ep *Endpoint, spec *MethodSpec) {
	candidates := companionOptions(ctx, t, ep, spec.Name)

	evSet := make(map[int]struct{})

	for _, c := range candidates {
		obj, ok := c.(map[string]interface{})
		if !ok {
			continue
		}

		min, minOK := asInt(obj["min"])
		max, maxOK := asInt(obj["max"])
		step, stepOK := asInt(obj["step"])

		if !minOK || !maxOK || !stepOK || step == 0 {
			continue
		}

		for v := min; v <= max; v += step {
			evSet[v] = struct{}{}
		}
	}

	spec.Args = map[string]ArgSpec{
		"EV": {Type: ArgInt, Options: sortedIntOptions(evSet)},
	}
}

func overrideWhiteBalance(ctx context.Context, t *Transport, ep *Endpoint, spec *MethodSpec) {
	candidates := companionOptions(ctx, t, ep, spec.Name)

	modes := make(map[string]struct{})
	colorTemps := make(map[int]struct{})

	for _, c := range candidates {
		obj, ok := c.(map[string]interface{})
		if !ok {
			continue
		}

		if mode, ok := obj["whiteBalanceMode"].(string); ok && mode != "" {
			modes[mode] = struct{}{}
		}

		rng, ok := obj["colorTemperatureRange"].([]interface{})
		if !ok || len(rng) < 3 {
			continue
		}

		min, minOK := asInt(rng[0])
		max, maxOK := asInt(rng[1])
		step, stepOK := asInt(rng[2])

		if !minOK || !maxOK || !stepOK || step == 0 {
			continue
		}

		for v := min; v <= max; v += step {
			colorTemps[v] = struct{}{}
		}
	}

	spec.Args = map[string]ArgSpec{
		"WhiteBalanceMode": {Type: ArgString, Options: sortedStringOptions(modes)},
		"ColorTempEnable":  {Type: ArgBool},
		"ColorTemp":        {Type: ArgInt, Options: sortedIntOptions(colorTemps)},
	}
}

func overrideStillSize(ctx context.Context, t *Transport, ep *Endpoint, spec *MethodSpec) {
	candidates := companionOptions(ctx, t, ep, spec.Name)

	aspects := make(map[string]struct{})
	sizes := make(map[string]struct{})

	for _, c := range candidates {
		obj, ok := c.(map[string]interface{})
		if !ok {
			continue
		}

		if aspect, ok := obj["aspect"].(string); ok && aspect != "" {
			aspects[aspect] = struct{}{}
		}

		if size, ok := obj["size"].(string); ok && size != "" {
			sizes[size] = struct{}{}
		}
	}

	spec.Args = map[string]ArgSpec{
		"aspect": {Type: ArgString, Options: sortedStringOptions(aspects)},
		"size":   {Type: ArgString, Options: sortedStringOptions(sizes)},
	}
}

func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}

func sortedIntOptions(set map[int]struct{}) []interface{} {
	vals := make([]int, 0, len(set))
	for v := range set {
		vals = append(vals, v)
	}

	sort.Ints(vals)

	out := make([]interface{}, len(vals))
	for i, v := range vals {
		out[i] = v
	}

	return out
}

func sortedStringOptions(set map[string]struct{}) []interface{} {
	vals := make([]string, 0, len(set))
	for v := range set {
		vals = append(vals, v)
	}

	sort.Strings(vals)

	out := make([]interface{}, len(vals))
	for i, v := range vals {
		out[i] = v
	}

	return out
}
