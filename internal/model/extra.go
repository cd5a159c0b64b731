package model

import "encoding/json"

// Extra carries document fields the model does not name (sub-document _ids,
// IAT marks) so that rewriting a record never drops them.
type Extra map[string]any

func extraFields(data []byte, known ...string) (Extra, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}

	extra := make(Extra, len(all))
	for k, raw := range all {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		extra[k] = v
	}
	return extra, nil
}

func marshalWithExtra(v any, extra Extra) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for k, val := range extra {
		if _, taken := fields[k]; taken {
			continue
		}
		raw, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		fields[k] = raw
	}
	return json.Marshal(fields)
}
