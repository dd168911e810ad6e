package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestParameterSpecJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want ParameterSpec
	}{
		{"single", `{"type":"single","value":20}`, Single(20)},
		{"range", `{"type":"range","value":{"from":10,"to":30,"step":10}}`, RangeOf(10, 30, 10)},
		{"upper-case kind", `{"type":"RANGE","value":{"from":0.1,"to":0.3,"step":0.1}}`, RangeOf(0.1, 0.3, 0.1)},
		{"bare number", `0.3`, Single(0.3)},
		{"quoted bare number", `"20"`, Single(20)},
		{"quoted single value", `{"type":"single","value":"0.25"}`, Single(0.25)},
		{"quoted range bounds", `{"type":"range","value":{"from":"10","to":"30","step":"10"}}`, RangeOf(10, 30, 10)},
		{"unknown kind kept", `{"type":"list","value":[1,2]}`, ParameterSpec{Kind: "list"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got ParameterSpec
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("Unmarshal error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestParameterSpecMarshalShape(t *testing.T) {
	data, err := json.Marshal(RangeOf(1, 5, 2))
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if string(data) != `{"type":"range","value":{"from":1,"to":5,"step":2}}` {
		t.Fatalf("unexpected encoding: %s", data)
	}

	data, err = json.Marshal(Single(7))
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if string(data) != `{"type":"single","value":7}` {
		t.Fatalf("unexpected encoding: %s", data)
	}
}

func TestParameterSpecBadValue(t *testing.T) {
	var p ParameterSpec
	if err := json.Unmarshal([]byte(`{"type":"range","value":5}`), &p); err == nil {
		t.Fatal("expected error for range with scalar value")
	}
}

func TestParameterSpecRejectsNonNumericString(t *testing.T) {
	var p ParameterSpec
	if err := json.Unmarshal([]byte(`"twenty"`), &p); err == nil {
		t.Fatalf("expected error, got %+v", p)
	}
}

func TestConfigTypesJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want ConfigTypes
		out  string
	}{
		{"scalar", `3`, ConfigTypes{3}, `3`},
		{"quoted scalar", `"3"`, ConfigTypes{3}, `3`},
		{"sentinel", `-1`, ConfigTypes{ConfigTypeAll}, `-1`},
		{"list", `[2, "5"]`, ConfigTypes{2, 5}, `[2,5]`},
		{"null", `null`, nil, `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got ConfigTypes
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("Unmarshal error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			data, err := json.Marshal(got)
			if err != nil {
				t.Fatalf("Marshal error: %v", err)
			}
			if string(data) != tt.out {
				t.Fatalf("expected %s, got %s", tt.out, data)
			}
		})
	}

	var bad ConfigTypes
	if err := json.Unmarshal([]byte(`[1, "x"]`), &bad); err == nil {
		t.Fatalf("expected error for non-numeric entry")
	}
}

func TestDecodeParameterSpec(t *testing.T) {
	p, err := DecodeParameterSpec("range", json.RawMessage(`{"from":10,"to":30,"step":1}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != RangeOf(10, 30, 1) {
		t.Fatalf("unexpected spec %+v", p)
	}
}

func TestRunDescriptorKey(t *testing.T) {
	q0 := 0.9
	a := RunDescriptor{Index: 0, ConfigType: 1, CostConfigType: 1, VMSchedulingMode: "time", L: 10, S: 20, PC: 0.3, PSI1: 0.2, PSI2: 1}
	b := a
	b.Index = 5
	if a.Key() != b.Key() {
		t.Errorf("index must not be part of the key")
	}
	c := a
	c.Q0 = &q0
	if a.Key() == c.Key() {
		t.Errorf("q0 must be part of the key")
	}
}

func TestRunDescriptorParametersOmitsMissingQ0(t *testing.T) {
	d := RunDescriptor{L: 10, S: 20, PC: 0.3, PSI1: 0.2, PSI2: 1}
	data, err := json.Marshal(d.Parameters())
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if string(data) != `{"L":10,"S":20,"p_c":0.3,"PSI1":0.2,"PSI2":1}` {
		t.Fatalf("unexpected parameters payload: %s", data)
	}
}

func TestAlgorithmNamesSorted(t *testing.T) {
	r := RunResult{Algorithms: map[string]AlgorithmResult{
		AlgorithmMOLCA:       {},
		AlgorithmCostLCA:     {},
		AlgorithmMakespanLCA: {},
	}}
	names := r.AlgorithmNames()
	want := []string{"MO_LCA", "cost_LCA", "makespan_LCA"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, names)
		}
	}
}
