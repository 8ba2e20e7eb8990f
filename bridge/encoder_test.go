package bridge

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestEncodeEmptySnapshot(t *testing.T) {
	for name, snap := range map[string]Snapshot{"nil": nil, "empty": {}} {
		payload, err := Encode(snap)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if string(payload) != "[]" {
			t.Fatalf("%s: expected empty array payload, got %s", name, payload)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := map[string]Snapshot{
		"empty":  {},
		"single": {{ID: 1, Name: "Goblin", Kind: KindNPC, Plane: 0}},
		"garbage passes through": {
			{ID: -7, Name: "", Kind: KindNPC, Plane: 3},
			{ID: 2, Name: "Rat", Kind: KindNPC, BBox: BBox{1, 2, 3, 4}, Plane: 1},
		},
	}
	for name, snap := range cases {
		t.Run(name, func(t *testing.T) {
			payload, err := Encode(snap)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			got, err := Decode(payload)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !reflect.DeepEqual(got, snap) {
				t.Fatalf("round trip mismatch:\nwant %+v\ngot  %+v", snap, got)
			}
		})
	}
}

func TestEncodeWireShape(t *testing.T) {
	payload, err := Encode(Snapshot{{ID: 5, Kind: KindNPC, Plane: 2}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var objs []map[string]any
	if err := json.Unmarshal(payload, &objs); err != nil {
		t.Fatalf("payload is not an array of objects: %v", err)
	}
	if len(objs) != 1 {
		t.Fatalf("expected one object, got %d", len(objs))
	}
	obj := objs[0]
	for _, key := range []string{"id", "name", "kind", "bbox", "plane"} {
		if _, ok := obj[key]; !ok {
			t.Fatalf("missing key %q in %s", key, payload)
		}
	}
	bbox, ok := obj["bbox"].([]any)
	if !ok || len(bbox) != 4 {
		t.Fatalf("expected 4-element bbox, got %v", obj["bbox"])
	}
	for i, v := range bbox {
		if v.(float64) != 0 {
			t.Fatalf("bbox[%d] = %v, want 0", i, v)
		}
	}
	if obj["kind"] != "NPC" {
		t.Fatalf("unexpected kind %v", obj["kind"])
	}
}

func TestDecodeRejectsMalformedPayload(t *testing.T) {
	if _, err := Decode([]byte(`{"id":1}`)); err == nil {
		t.Fatalf("expected error for non-array payload")
	}
	if _, err := Decode([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for invalid json")
	}
}

func TestDecodeRejectsWrongBBoxArity(t *testing.T) {
	for _, bbox := range []string{`[]`, `[1,2,3]`, `[1,2,3,4,5]`, `null`, `"1,2,3,4"`} {
		payload := []byte(`[{"id":1,"name":"Goblin","kind":"NPC","bbox":` + bbox + `,"plane":0}]`)
		if snap, err := Decode(payload); err == nil {
			t.Fatalf("bbox %s: expected error, got %+v", bbox, snap)
		}
	}

	snap, err := Decode([]byte(`[{"id":1,"name":"Goblin","kind":"NPC","bbox":[1,2,3,4],"plane":0}]`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap[0].BBox != (BBox{1, 2, 3, 4}) {
		t.Fatalf("unexpected bbox %v", snap[0].BBox)
	}
}
