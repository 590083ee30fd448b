package model

import (
	"encoding/json"
	"testing"
)

func TestArgListDecodesMixedEntries(t *testing.T) {
	raw := `[
		"--username", "${auth_player_name}",
		{"rules": [{"action": "allow", "features": {"has_custom_resolution": true}}], "value": ["--width", "${resolution_width}"]},
		{"rules": [{"action": "allow"}], "value": "--demo"}
	]`

	var list ArgList
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(list) != 4 {
		t.Fatalf("expected 4 decoded entries, got %d", len(list))
	}

	if _, ok := list[0].(PlainArg); !ok {
		t.Fatalf("entry 0 should be PlainArg, got %T", list[0])
	}

	gated, ok := list[2].(GatedArg)
	if !ok {
		t.Fatalf("entry 2 should be GatedArg, got %T", list[2])
	}
	if len(gated.Values) != 2 || gated.Values[1] != "${resolution_width}" {
		t.Fatalf("unexpected gated values: %v", gated.Values)
	}

	single, ok := list[3].(GatedArg)
	if !ok || len(single.Values) != 1 || single.Values[0] != "--demo" {
		t.Fatalf("single-string gated value decoded wrong: %#v", list[3])
	}
}

func TestArgListRoundTrip(t *testing.T) {
	in := ArgList{PlainArg("--foo"), GatedArg{Values: []string{"--bar", "baz"}}}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out ArgList
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(out))
	}
}
