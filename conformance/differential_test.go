package conformance_test

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"testing"

	cyberphone "github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/lattice-substrate/json-emit/jwriter"
	"github.com/lattice-substrate/json-emit/jwsink"
)

// member and the tree kinds below give the differential vectors a
// deterministic member order, which plain maps cannot.
type member struct {
	key string
	val any
}

type obj []member

type arr []any

// writeTree drives the writer from a value tree.
func writeTree(t *testing.T, w *jwriter.Writer, v any) {
	t.Helper()
	var err error
	switch tv := v.(type) {
	case nil:
		err = w.NullValue()
	case bool:
		err = w.BoolValue(tv)
	case string:
		err = w.StringValue(tv)
	case int64:
		err = w.IntValue(tv)
	case uint64:
		err = w.UintValue(tv)
	case float64:
		err = w.Float64Value(tv)
	case obj:
		if err = w.StartObject(); err != nil {
			t.Fatalf("StartObject: %v", err)
		}
		for _, m := range tv {
			if err := w.PropertyName(m.key); err != nil {
				t.Fatalf("PropertyName(%q): %v", m.key, err)
			}
			writeTree(t, w, m.val)
		}
		err = w.EndObject()
	case arr:
		if err = w.StartArray(); err != nil {
			t.Fatalf("StartArray: %v", err)
		}
		for _, e := range tv {
			writeTree(t, w, e)
		}
		err = w.EndArray()
	default:
		t.Fatalf("unsupported tree node %T", v)
	}
	if err != nil {
		t.Fatalf("writing %T: %v", v, err)
	}
}

// asStdValue converts a tree to the shape encoding/json produces when
// unmarshaling into any: maps, slices, float64, string, bool, nil.
func asStdValue(v any) any {
	switch tv := v.(type) {
	case int64:
		return float64(tv)
	case uint64:
		return float64(tv)
	case obj:
		m := map[string]any{}
		for _, mem := range tv {
			m[mem.key] = asStdValue(mem.val)
		}
		return m
	case arr:
		s := []any{}
		for _, e := range tv {
			s = append(s, asStdValue(e))
		}
		return s
	default:
		return tv
	}
}

// asMarshalable converts a tree to something encoding/json can marshal,
// for the canonicalization oracle.
func asMarshalable(v any) any {
	switch tv := v.(type) {
	case obj:
		m := map[string]any{}
		for _, mem := range tv {
			m[mem.key] = asMarshalable(mem.val)
		}
		return m
	case arr:
		s := []any{}
		for _, e := range tv {
			s = append(s, asMarshalable(e))
		}
		return s
	default:
		return tv
	}
}

func vectors() map[string]any {
	return map[string]any{
		"empty_object":  obj{},
		"empty_array":   arr{},
		"scalar_null":   nil,
		"scalar_string": "plain",
		"scalar_number": float64(0.5),
		"flat_object": obj{
			{"name", "value"},
			{"count", int64(42)},
			{"ratio", 0.125},
			{"on", true},
			{"off", false},
			{"gone", nil},
		},
		"needs_escaping": obj{
			{"quote\"key", "back\\slash"},
			{"html", "<script>alert('x&y')</script>"},
			{"controls", "tab\there\nnewline"},
			{"unicode", "π ≈ 3.14159, emoji 😀"},
			{"nul", "a\x00b"},
		},
		"numbers": arr{
			int64(0), int64(-1), int64(math.MaxInt64), int64(math.MinInt64),
			uint64(math.MaxUint64),
			0.1, -0.5, 1e21, 1e-7, 5e-324, 1.7976931348623157e+308,
		},
		"deep_nesting": arr{
			arr{arr{arr{obj{{"leaf", arr{int64(1), int64(2)}}}}}},
			obj{{"a", obj{{"b", obj{{"c", nil}}}}}},
		},
		"mixed": obj{
			{"items", arr{
				obj{{"id", int64(1)}, {"tags", arr{"x", "y"}}},
				obj{{"id", int64(2)}, {"tags", arr{}}},
			}},
			{"total", int64(2)},
		},
	}
}

func emitTree(t *testing.T, v any, opts *jwriter.Options) []byte {
	t.Helper()
	buf := jwsink.NewBuffer(nil)
	w := jwriter.NewWriter(buf, opts)
	writeTree(t, w, v)
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out
}

// TestOutputParsesBackWithEncodingJSON: emitted bytes decode to the same
// logical value under the standard library parser.
func TestOutputParsesBackWithEncodingJSON(t *testing.T) {
	for name, tree := range vectors() {
		t.Run(name, func(t *testing.T) {
			for _, opts := range []*jwriter.Options{nil, {Indented: true}} {
				out := emitTree(t, tree, opts)
				var got any
				if err := json.Unmarshal(out, &got); err != nil {
					t.Fatalf("output %q does not parse: %v", out, err)
				}
				want := asStdValue(tree)
				if !reflect.DeepEqual(got, want) {
					t.Fatalf("parsed value mismatch:\n got %#v\nwant %#v", got, want)
				}
			}
		})
	}
}

// TestOutputIsSyntacticallyValidJSONText: the jsontext validator accepts
// every emitted document.
func TestOutputIsSyntacticallyValidJSONText(t *testing.T) {
	for name, tree := range vectors() {
		t.Run(name, func(t *testing.T) {
			for _, opts := range []*jwriter.Options{nil, {Indented: true, IndentWidth: 3}} {
				out := emitTree(t, tree, opts)
				if !jsontext.Value(out).IsValid() {
					t.Fatalf("jsontext rejects %q", out)
				}
			}
		})
	}
}

// TestCanonicalEquivalenceWithEncodingJSON: canonicalizing the writer's
// output and canonicalizing encoding/json's output of the same value must
// give identical bytes, proving the two encodings are semantically equal
// despite the writer's aggressive escaping.
func TestCanonicalEquivalenceWithEncodingJSON(t *testing.T) {
	for name, tree := range vectors() {
		if name == "numbers" {
			// The canonicalizer round-trips numbers through float64;
			// the 64-bit integer extremes are not representable there.
			continue
		}
		t.Run(name, func(t *testing.T) {
			ours := emitTree(t, tree, nil)
			ref, err := json.Marshal(asMarshalable(tree))
			if err != nil {
				t.Fatalf("marshal reference: %v", err)
			}

			canonOurs, err := cyberphone.Transform(ours)
			if err != nil {
				t.Fatalf("canonicalize writer output %q: %v", ours, err)
			}
			canonRef, err := cyberphone.Transform(ref)
			if err != nil {
				t.Fatalf("canonicalize reference output %q: %v", ref, err)
			}
			if !bytes.Equal(canonOurs, canonRef) {
				t.Fatalf("canonical forms differ:\n ours %q\n ref  %q", canonOurs, canonRef)
			}
		})
	}
}

// TestSinkIndependence: identical token sequences produce bit-identical
// bytes across all sink implementations.
func TestSinkIndependence(t *testing.T) {
	for name, tree := range vectors() {
		t.Run(name, func(t *testing.T) {
			reference := emitTree(t, tree, nil)

			var downstream bytes.Buffer
			fw := jwsink.NewFlushWriter(&downstream, jwsink.NewPool())
			w := jwriter.NewWriter(fw, nil)
			writeTree(t, w, tree)
			if err := w.Flush(); err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(downstream.Bytes(), reference) {
				t.Fatal("FlushWriter output differs from Buffer output")
			}

			// Worst-case reservations over-ask by a few bytes, so the
			// fixed span needs slack beyond the exact output size.
			fixed := jwsink.NewFixedSpan(make([]byte, len(reference)+64))
			w2 := jwriter.NewWriter(fixed, nil)
			writeTree(t, w2, tree)
			if err := w2.Flush(); err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(fixed.Bytes(), reference) {
				t.Fatal("FixedSpan output differs from Buffer output")
			}

			ds := jwsink.NewDigestSink(jwsink.NewBuffer(nil))
			w3 := jwriter.NewWriter(ds, nil)
			writeTree(t, w3, tree)
			if err := w3.Flush(); err != nil {
				t.Fatal(err)
			}
			ds2 := jwsink.NewDigestSink(jwsink.NewFlushWriter(&bytes.Buffer{}, nil))
			w4 := jwriter.NewWriter(ds2, nil)
			writeTree(t, w4, tree)
			if err := w4.Flush(); err != nil {
				t.Fatal(err)
			}
			if ds.SumHex() != ds2.SumHex() {
				t.Fatal("digests differ across sinks")
			}
		})
	}
}

// TestCommittedSizePredictable: for a fixed token sequence the writer's
// committed byte count matches the number of bytes the sink holds.
func TestCommittedSizePredictable(t *testing.T) {
	buf := jwsink.NewBuffer(nil)
	w := jwriter.NewWriter(buf, nil)
	writeTree(t, w, vectors()["flat_object"])
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	if int64(buf.Len()) != w.BytesCommitted() {
		t.Fatalf("sink holds %d bytes, writer committed %d", buf.Len(), w.BytesCommitted())
	}
}
