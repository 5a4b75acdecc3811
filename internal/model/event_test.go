package model

import (
	"encoding/json"
	"testing"
)

func TestEvent_JSON(t *testing.T) {
	ev := Event{Pos: 7, Fields: map[string]string{
		"Time":   "09:30:00.000000",
		"Symbol": "PLUG",
		"Price":  "42.50",
		"Size":   "100",
	}}

	var got map[string]string
	if err := json.Unmarshal(ev.JSON(), &got); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if len(got) != len(ev.Fields) {
		t.Fatalf("payload has %d fields, want %d", len(got), len(ev.Fields))
	}
	for k, v := range ev.Fields {
		if got[k] != v {
			t.Errorf("field %q = %q, want %q", k, got[k], v)
		}
	}
}

func TestEvent_Field(t *testing.T) {
	ev := Event{Fields: map[string]string{"Symbol": "GME"}}

	if v, ok := ev.Field("Symbol"); !ok || v != "GME" {
		t.Errorf("Field(Symbol) = %q, %v", v, ok)
	}
	if _, ok := ev.Field("Time"); ok {
		t.Error("Field(Time) present on event without one")
	}
	if got := ev.Symbol("Symbol"); got != "GME" {
		t.Errorf("Symbol = %q", got)
	}
	if got := ev.Symbol("Ticker"); got != "" {
		t.Errorf("Symbol with absent column = %q, want empty", got)
	}
}
