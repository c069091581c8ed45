package codec

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/vireolabs/cloudlink/internal/property"
)

// testContainer builds a container with one property of each kind,
// all writable so decode tests can exercise them.
func testContainer(t *testing.T) *property.Container {
	t.Helper()
	c := property.NewContainer()
	for _, p := range []struct {
		name    string
		initial any
	}{
		{"relay", false},
		{"count", int64(0)},
		{"temperature", 0.0},
		{"label", ""},
	} {
		if _, err := c.Add(p.name, p.initial, property.WithPermission(property.ReadWrite)); err != nil {
			t.Fatalf("Add(%s) error = %v", p.name, err)
		}
	}
	return c
}

// dirtyAll sets a fresh value on every property.
func dirtyAll(t *testing.T, c *property.Container) {
	t.Helper()
	set := func(name string, v any) {
		p, _ := c.Get(name)
		if err := p.Set(v); err != nil {
			t.Fatalf("Set(%s) error = %v", name, err)
		}
	}
	// count sits past float64's integer precision; it must round-trip
	// exactly.
	set("relay", true)
	set("count", int64(1<<53+1))
	set("temperature", 21.5)
	set("label", "unit-7")
}

// =============================================================================
// Round-trip Tests
// =============================================================================

func TestRoundTrip(t *testing.T) {
	src := testContainer(t)
	dirtyAll(t, src)
	src.StampChanged(time.Unix(1700000000, 0))

	payload, err := Encode(src, false, 0)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if payload == nil {
		t.Fatal("Encode() returned nil payload for dirty container")
	}

	dst := testContainer(t)
	if err := Decode(payload, dst, false); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	checks := []struct {
		name string
		want any
	}{
		{"relay", true},
		{"count", int64(1<<53 + 1)},
		{"temperature", 21.5},
		{"label", "unit-7"},
	}
	for _, chk := range checks {
		p, _ := dst.Get(chk.name)
		if p.Value() != chk.want {
			t.Errorf("%s = %v (%T), want %v", chk.name, p.Value(), p.Value(), chk.want)
		}
	}
}

func TestEncode_Deterministic(t *testing.T) {
	a := testContainer(t)
	dirtyAll(t, a)
	b := testContainer(t)
	dirtyAll(t, b)

	pa, err := Encode(a, false, 0)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	pb, err := Encode(b, false, 0)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if !bytes.Equal(pa, pb) {
		t.Errorf("identical containers encoded differently:\n%x\n%x", pa, pb)
	}
}

// =============================================================================
// Encode Tests
// =============================================================================

func TestEncode_NothingDirty(t *testing.T) {
	c := testContainer(t)

	payload, err := Encode(c, false, 0)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if payload != nil {
		t.Errorf("Encode() = %x for clean container, want nil", payload)
	}
}

func TestEncode_ClearsDirty(t *testing.T) {
	c := testContainer(t)
	dirtyAll(t, c)

	if _, err := Encode(c, false, 0); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if n := len(c.Dirty()); n != 0 {
		t.Errorf("Dirty() has %d properties after successful encode, want 0", n)
	}
}

func TestEncode_Force(t *testing.T) {
	c := testContainer(t)
	// Nothing dirty, but force must still encode everything.
	payload, err := Encode(c, true, 0)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	var raw []cbor.RawMessage
	if err := cbor.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(raw) != c.Len() {
		t.Errorf("forced encode produced %d records, want %d", len(raw), c.Len())
	}
}

func TestEncode_Overflow(t *testing.T) {
	c := testContainer(t)
	dirtyAll(t, c)

	_, err := Encode(c, false, 8)
	if !errors.Is(err, ErrEncodeOverflow) {
		t.Fatalf("Encode() error = %v, want ErrEncodeOverflow", err)
	}

	// Nothing transmitted, so nothing may have been cleared.
	if n := len(c.Dirty()); n != 4 {
		t.Errorf("Dirty() has %d properties after overflow, want 4", n)
	}
}

func TestEncode_Timestamp(t *testing.T) {
	c := testContainer(t)
	p, _ := c.Get("relay")
	p.Set(true)
	stamp := time.Unix(1700000123, 0)
	c.StampChanged(stamp)

	payload, err := Encode(c, false, 0)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	var recs []wireRecord
	if err := cbor.Unmarshal(payload, &recs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if recs[0].Time == nil || *recs[0].Time != stamp.Unix() {
		t.Errorf("record time = %v, want %d", recs[0].Time, stamp.Unix())
	}
}

// =============================================================================
// Decode Tests
// =============================================================================

func TestDecode_Malformed(t *testing.T) {
	c := testContainer(t)

	err := Decode([]byte{0xFF, 0x00, 0x13}, c, false)
	if !errors.Is(err, ErrDecodeMalformed) {
		t.Errorf("Decode() error = %v, want ErrDecodeMalformed", err)
	}
}

func TestDecode_UnknownPropertyIgnored(t *testing.T) {
	c := testContainer(t)

	payload, err := encMode.Marshal([]map[int]any{
		{labelName: "nonexistent", labelValue: 99},
		{labelName: "count", labelValue: 5},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if err := Decode(payload, c, false); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	p, _ := c.Get("count")
	if p.Int() != 5 {
		t.Errorf("count = %d, want 5 (known record after unknown one must still apply)", p.Int())
	}
}

func TestDecode_PartialApplication(t *testing.T) {
	c := testContainer(t)

	good, err := encMode.Marshal(map[int]any{labelName: "count", labelValue: 5})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	// Array of two elements where the second is structurally invalid
	// (a bare int where a record map is expected, decoded into a struct).
	payload := append([]byte{0x82}, good...)
	payload = append(payload, 0x05)

	err = Decode(payload, c, false)
	if !errors.Is(err, ErrDecodeMalformed) {
		t.Fatalf("Decode() error = %v, want ErrDecodeMalformed", err)
	}

	// The record before the malformed one stays applied.
	p, _ := c.Get("count")
	if p.Int() != 5 {
		t.Errorf("count = %d, want 5 (partial application accepted)", p.Int())
	}
}

func TestDecode_ShadowMode(t *testing.T) {
	c := property.NewContainer()
	c.Add("cloudwins", 0.0, property.WithPermission(property.ReadWrite), property.WithPolicy(property.CloudWins))
	c.Add("devicewins", 0.0, property.WithPermission(property.ReadWrite), property.WithPolicy(property.DeviceWins))

	payload, err := encMode.Marshal([]map[int]any{
		{labelName: "cloudwins", labelValue: 1.5},
		{labelName: "devicewins", labelValue: 2.5},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if err := Decode(payload, c, true); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	p, _ := c.Get("cloudwins")
	if p.Float() != 1.5 {
		t.Errorf("cloudwins = %v, want cloud value 1.5", p.Float())
	}
	p, _ = c.Get("devicewins")
	if p.Float() != 0.0 {
		t.Errorf("devicewins = %v, want local value 0.0", p.Float())
	}
	if !p.Dirty() {
		t.Error("devicewins not dirty after shadow sync, want dirty for re-assertion")
	}
}

// =============================================================================
// Last-values Request Tests
// =============================================================================

func TestLastValuesRequest_Bytes(t *testing.T) {
	req := LastValuesRequest()

	if len(req) != 22 {
		t.Fatalf("LastValuesRequest() length = %d, want 22", len(req))
	}

	// The constant must be exactly the canonical encoding of
	// [{0: "r:m", 3: "getLastValues"}].
	want, err := encMode.Marshal([]map[int]any{
		{labelName: "r:m", labelString: "getLastValues"},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(req, want) {
		t.Errorf("LastValuesRequest() = %x, want %x", req, want)
	}
}

func TestLastValuesRequest_ReturnsCopy(t *testing.T) {
	a := LastValuesRequest()
	a[0] = 0x00

	b := LastValuesRequest()
	if b[0] != 0x81 {
		t.Error("mutating a returned request corrupted the canonical bytes")
	}
}
