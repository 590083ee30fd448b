package model

import (
	"encoding/json"
	"fmt"
)

// Arg is one entry of an arguments.jvm or arguments.game array: either
// a plain string or a rule-gated value (spec §9 design note). This is
// a closed, fixed-shape variant — deliberately not handled by
// reflection or a generic interface{} walk at call sites.
type Arg interface {
	isArg()
}

// PlainArg is an unconditional argument token.
type PlainArg string

func (PlainArg) isArg() {}

// GatedArg is included only when its Rules evaluate to allowed; its
// Values may be a single token or a short ordered run of tokens (e.g.
// a "--width" "${resolution_width}" pair).
type GatedArg struct {
	Rules  []Rule
	Values []string
}

func (GatedArg) isArg() {}

// ArgList is the JSON-decodable wrapper for []Arg: each raw element is
// either a JSON string (-> PlainArg) or an object shaped
// {"rules": [...], "value": string|[]string} (-> GatedArg).
type ArgList []Arg

func (l *ArgList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(ArgList, 0, len(raw))
	for _, item := range raw {
		arg, err := decodeArg(item)
		if err != nil {
			return err
		}
		out = append(out, arg)
	}
	*l = out
	return nil
}

func (l ArgList) MarshalJSON() ([]byte, error) {
	raw := make([]json.RawMessage, 0, len(l))
	for _, arg := range l {
		switch v := arg.(type) {
		case PlainArg:
			b, err := json.Marshal(string(v))
			if err != nil {
				return nil, err
			}
			raw = append(raw, b)
		case GatedArg:
			b, err := json.Marshal(struct {
				Rules []Rule      `json:"rules,omitempty"`
				Value interface{} `json:"value"`
			}{Rules: v.Rules, Value: gatedValueJSON(v.Values)})
			if err != nil {
				return nil, err
			}
			raw = append(raw, b)
		default:
			return nil, fmt.Errorf("model: unknown Arg implementation %T", arg)
		}
	}
	return json.Marshal(raw)
}

func gatedValueJSON(values []string) interface{} {
	if len(values) == 1 {
		return values[0]
	}
	return values
}

func decodeArg(raw json.RawMessage) (Arg, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return PlainArg(s), nil
	}

	var gated struct {
		Rules []Rule          `json:"rules"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(raw, &gated); err != nil {
		return nil, fmt.Errorf("model: argument entry is neither a string nor a gated object: %w", err)
	}

	values, err := decodeGatedValue(gated.Value)
	if err != nil {
		return nil, err
	}
	return GatedArg{Rules: gated.Rules, Values: values}, nil
}

// decodeGatedValue accepts either a bare string or an array of strings
// for the "value" field, per the wire format in spec §6.
func decodeGatedValue(raw json.RawMessage) ([]string, error) {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("model: gated argument value is neither a string nor a string array: %w", err)
	}
	return list, nil
}
