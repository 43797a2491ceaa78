package jsoncodec

import (
	"bytes"
	"testing"
)

type sample struct {
	ID   string  `json:"id"`
	Tag  *string `json:"tag"`
	Tick uint64  `json:"tick"`
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	tag := "user-label"
	in := sample{ID: "obs-1", Tag: &tag, Tick: 42}

	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var out sample
	if err := Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if out.ID != in.ID || out.Tick != in.Tick {
		t.Fatalf("round trip mismatch: %+v != %+v", out, in)
	}
	if out.Tag == nil || *out.Tag != tag {
		t.Fatalf("tag not preserved: %v", out.Tag)
	}
}

func TestMarshalNilTagIsNull(t *testing.T) {
	data, err := Marshal(sample{ID: "obs-2"})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !bytes.Contains(data, []byte(`"tag":null`)) {
		t.Fatalf("expected null tag in %s", data)
	}
}

func TestEncodeDecode(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, sample{ID: "obs-3", Tick: 7}); err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	var out sample
	if err := Decode(&buf, &out); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if out.ID != "obs-3" || out.Tick != 7 {
		t.Fatalf("unexpected decode result: %+v", out)
	}
}

func TestMarshalIndent(t *testing.T) {
	data, err := MarshalIndent(sample{ID: "obs-4"}, "", "  ")
	if err != nil {
		t.Fatalf("marshal indent failed: %v", err)
	}
	if !bytes.Contains(data, []byte("\n")) {
		t.Fatalf("expected indented output, got %s", data)
	}
}
