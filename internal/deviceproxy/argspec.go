package deviceproxy

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// scalarArgType reports whether s names a recognized scalar type,
// optionally array-suffixed with "*".
func scalarArgType(s string) (ArgType, bool) {
	switch s {
	case "bool":
		return ArgBool, true
	case "int":
		return ArgInt, true
	case "double":
		return ArgDouble, true
	case "string":
		return ArgString, true
	case "bool*":
		return ArgBoolArray, true
	case "int*":
		return ArgIntArray, true
	case "double*":
		return ArgDoubleArray, true
	case "string*":
		return ArgStringArray, true
	default:
		return "", false
	}
}

// companionOptions fetches the getSupported* companion call for a set*
// method, if one applies, and decodes its result/results into a
// generic JSON array. Any failure yields nil (empty options).
func companionOptions(ctx context.Context, t *Transport, ep *Endpoint, methodName string) []interface{} {
	if !strings.HasPrefix(methodName, "set") {
		return nil
	}

	companion := "getSupported" + strings.TrimPrefix(methodName, "set")

	resp, rerr := t.Post(ctx, ep.BaseURL+"/"+ep.Name, companion, []interface{}{}, ep.nextRequestID(), "1.0")
	if rerr != nil || resp == nil {
		return nil
	}

	payload := resp.Result
	if len(payload) == 0 {
		payload = resp.Results
	}

	var options []interface{}
	if err := json.Unmarshal(payload, &options); err != nil {
		return nil
	}

	return options
}

func toSlice(v interface{}) []interface{} {
	if v == nil {
		return nil
	}

	if s, ok := v.([]interface{}); ok {
		return s
	}

	return []interface{}{v}
}

// candidateFrom reads options[0].candidate, the shared candidate list
// object-shaped set* methods apply to every field.
func candidateFrom(options []interface{}) []interface{} {
	if len(options) == 0 {
		return nil
	}

	obj, ok := options[0].(map[string]interface{})
	if !ok {
		return nil
	}

	cand, ok := obj["candidate"]
	if !ok {
		return nil
	}

	return toSlice(cand)
}

// synthesizeArgs implements §4.3's argument-spec synthesis rules over
// one method's raw param_specs.
func synthesizeArgs(ctx context.Context, t *Transport, ep *Endpoint, row methodRow) map[string]ArgSpec {
	args := make(map[string]ArgSpec)
	options := companionOptions(ctx, t, ep, row.Name)

	for i, s := range row.ParamSpecs {
		argName := fmt.Sprintf("arg%d", i)

		if typ, ok := scalarArgType(s); ok {
			spec := ArgSpec{Type: typ}
			if len(options) > 0 {
				spec.Options = toSlice(options[0])
			}

			args[argName] = spec

			continue
		}

		if strings.HasSuffix(s, "*") {
			args[argName] = ArgSpec{Type: ArgJSONArray}
			continue
		}

		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(s), &obj); err != nil {
			args[argName] = ArgSpec{Type: ArgJSON}
			continue
		}

		if len(options) > 0 {
			candidate := candidateFrom(options)
			for field := range obj {
				args[field] = ArgSpec{Type: ArgJSON, Options: candidate}
			}

			continue
		}

		if objectHasNesting(obj) {
			args[argName] = ArgSpec{Type: ArgJSON}
			continue
		}

		for field, v := range obj {
			tag, ok := v.(string)
			if !ok {
				args[field] = ArgSpec{Type: ArgJSON}
				continue
			}

			if typ, ok := scalarArgType(tag); ok {
				args[field] = ArgSpec{Type: typ}
				continue
			}

			args[field] = ArgSpec{Type: ArgJSON}
		}
	}

	return args
}

func objectHasNesting(obj map[string]interface{}) bool {
	for _, v := range obj {
		switch v.(type) {
		case map[string]interface{}, []interface{}:
			return true
		}
	}

	return false
}
