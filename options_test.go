package dhcp6

import (
	"bytes"
	"net"
	"reflect"
	"testing"
	"time"
)

// TestOptionsAddRaw verifies that Options.AddRaw appends key/value option
// pairs to the end of the list, in call order, preserving duplicates.
func TestOptionsAddRaw(t *testing.T) {
	var tests = []struct {
		description string
		kv          []option
		want        optslice
	}{
		{
			description: "one key/value pair",
			kv: []option{
				{Code: 1, Data: []byte("foo")},
			},
			want: optslice{
				{Code: 1, Data: []byte("foo")},
			},
		},
		{
			description: "two key/value pairs",
			kv: []option{
				{Code: 1, Data: []byte("foo")},
				{Code: 2, Data: []byte("bar")},
			},
			want: optslice{
				{Code: 1, Data: []byte("foo")},
				{Code: 2, Data: []byte("bar")},
			},
		},
		{
			description: "three key/value pairs, two with same key",
			kv: []option{
				{Code: 1, Data: []byte("foo")},
				{Code: 1, Data: []byte("baz")},
				{Code: 2, Data: []byte("bar")},
			},
			want: optslice{
				{Code: 1, Data: []byte("foo")},
				{Code: 1, Data: []byte("baz")},
				{Code: 2, Data: []byte("bar")},
			},
		},
	}

	for i, tt := range tests {
		o := NewOptions()
		for _, p := range tt.kv {
			o.AddRaw(p.Code, p.Data)
		}

		if want, got := tt.want, o.enumerate(); !reflect.DeepEqual(want, got) {
			t.Fatalf("[%02d] test %q, unexpected options:\n- want: %v\n-  got: %v",
				i, tt.description, want, got)
		}
	}
}

// TestOptionsAdd verifies that Options.Add marshals an
// encoding.BinaryMarshaler value and appends it under code.
func TestOptionsAdd(t *testing.T) {
	o := NewOptions()
	if err := o.Add(OptionStatusCode, NewStatusCode(StatusSuccess, "hello world")); err != nil {
		t.Fatalf("unexpected error from Options.Add: %v", err)
	}

	v, ok := o.Get(OptionStatusCode)
	if !ok {
		t.Fatal("OptionStatusCode not present after Add")
	}

	want := append([]byte{0, 0}, []byte("hello world")...)
	if !bytes.Equal(want, v) {
		t.Fatalf("unexpected value for OptionStatusCode:\n- want: %v\n-  got: %v", want, v)
	}
}

// TestOptionsSetRaw verifies that Options.SetRaw collapses every existing
// occurrence of a code down to a single occurrence at the first position.
func TestOptionsSetRaw(t *testing.T) {
	o := NewOptions()
	o.AddRaw(1, []byte("foo"))
	o.AddRaw(2, []byte("bar"))
	o.AddRaw(1, []byte("baz"))

	o.SetRaw(1, []byte("quux"))

	want := optslice{
		{Code: 1, Data: []byte("quux")},
		{Code: 2, Data: []byte("bar")},
	}
	if got := o.enumerate(); !reflect.DeepEqual(want, got) {
		t.Fatalf("unexpected options after SetRaw:\n- want: %v\n-  got: %v", want, got)
	}
}

// TestOptionsDelete verifies that Options.Delete removes every occurrence
// of a code and leaves the rest of the list untouched.
func TestOptionsDelete(t *testing.T) {
	o := NewOptions()
	o.AddRaw(1, []byte("foo"))
	o.AddRaw(2, []byte("bar"))
	o.AddRaw(1, []byte("baz"))

	o.Delete(1)

	want := optslice{
		{Code: 2, Data: []byte("bar")},
	}
	if got := o.enumerate(); !reflect.DeepEqual(want, got) {
		t.Fatalf("unexpected options after Delete:\n- want: %v\n-  got: %v", want, got)
	}
}

// TestOptionsGet verifies that Options.Get correctly selects the first
// value for a given key, if present.
func TestOptionsGet(t *testing.T) {
	var tests = []struct {
		description string
		build       func() *Options
		key         OptionCode
		value       []byte
		ok          bool
	}{
		{
			description: "empty Options",
			build:       NewOptions,
			key:         1,
		},
		{
			description: "value not present",
			build: func() *Options {
				o := NewOptions()
				o.AddRaw(2, []byte("foo"))
				return o
			},
			key: 1,
		},
		{
			description: "value present, zero length",
			build: func() *Options {
				o := NewOptions()
				o.AddRaw(1, []byte{})
				return o
			},
			key: 1,
			ok:  true,
		},
		{
			description: "value present",
			build: func() *Options {
				o := NewOptions()
				o.AddRaw(1, []byte("foo"))
				return o
			},
			key:   1,
			value: []byte("foo"),
			ok:    true,
		},
		{
			description: "value present, multiple values, returns first",
			build: func() *Options {
				o := NewOptions()
				o.AddRaw(1, []byte("foo"))
				o.AddRaw(1, []byte("bar"))
				return o
			},
			key:   1,
			value: []byte("foo"),
			ok:    true,
		},
	}

	for i, tt := range tests {
		value, ok := tt.build().Get(tt.key)

		if want, got := tt.value, value; !bytes.Equal(want, got) {
			t.Fatalf("[%02d] test %q, unexpected value for Options.Get(%v):\n- want: %v\n-  got: %v",
				i, tt.description, tt.key, want, got)
		}
		if want, got := tt.ok, ok; want != got {
			t.Fatalf("[%02d] test %q, unexpected ok for Options.Get(%v): %v != %v",
				i, tt.description, tt.key, want, got)
		}
	}
}

// TestOptionsClientID verifies that Options.ClientID properly parses and
// returns a DUID value, if one is available with OptionClientID.
func TestOptionsClientID(t *testing.T) {
	var tests = []struct {
		description string
		build       func() *Options
		duid        DUID
		ok          bool
	}{
		{
			description: "OptionClientID not present",
			build:       NewOptions,
		},
		{
			description: "OptionClientID present",
			build: func() *Options {
				o := NewOptions()
				o.AddRaw(OptionClientID, []byte{0, 3, 0, 1, 0, 1, 0, 1, 0, 1})
				return o
			},
			duid: NewDUIDLL(1, net.HardwareAddr{0, 1, 0, 1, 0, 1}),
			ok:   true,
		},
	}

	for i, tt := range tests {
		duid, ok, err := tt.build().ClientID()
		if err != nil {
			t.Fatal(err)
		}

		if want, got := tt.duid, duid; !reflect.DeepEqual(want, got) {
			t.Fatalf("[%02d] test %q, unexpected value for Options.ClientID():\n- want: %v\n-  got: %v",
				i, tt.description, want, got)
		}
		if want, got := tt.ok, ok; want != got {
			t.Fatalf("[%02d] test %q, unexpected ok for Options.ClientID(): %v != %v",
				i, tt.description, want, got)
		}
	}
}

// TestOptionsServerID verifies that Options.ServerID properly parses and
// returns a DUID value, if one is available with OptionServerID.
func TestOptionsServerID(t *testing.T) {
	o := NewOptions()
	o.AddRaw(OptionServerID, []byte{0, 3, 0, 1, 0, 1, 0, 1, 0, 1})

	duid, ok, err := o.ServerID()
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected OptionServerID to be present")
	}

	want := NewDUIDLL(1, net.HardwareAddr{0, 1, 0, 1, 0, 1})
	if !reflect.DeepEqual(want, duid) {
		t.Fatalf("unexpected value for Options.ServerID():\n- want: %v\n-  got: %v", want, duid)
	}
}

// TestOptionsIANA verifies that Options.IANA properly parses and returns
// multiple IANA values, if one or more are available with OptionIANA.
func TestOptionsIANA(t *testing.T) {
	var tests = []struct {
		description string
		build       func() *Options
		count       int
		ok          bool
		err         error
	}{
		{
			description: "OptionIANA not present",
			build:       NewOptions,
		},
		{
			description: "OptionIANA present, but too short",
			build: func() *Options {
				o := NewOptions()
				o.AddRaw(OptionIANA, bytes.Repeat([]byte{0}, 11))
				return o
			},
			err: errInvalidIANA,
		},
		{
			description: "two OptionIANA present",
			build: func() *Options {
				o := NewOptions()
				o.AddRaw(OptionIANA, append(bytes.Repeat([]byte{0}, 12), []byte{0, 1, 0, 1, 1}...))
				o.AddRaw(OptionIANA, append(bytes.Repeat([]byte{0}, 12), []byte{0, 2, 0, 1, 2}...))
				return o
			},
			count: 2,
			ok:    true,
		},
	}

	for i, tt := range tests {
		iana, ok, err := tt.build().IANA()
		if err != nil {
			if want, got := tt.err, err; want != got {
				t.Fatalf("[%02d] test %q, unexpected error for Options.IANA: %v != %v",
					i, tt.description, want, got)
			}
			continue
		}

		if want, got := tt.count, len(iana); want != got {
			t.Fatalf("[%02d] test %q, unexpected IANA count: %v != %v",
				i, tt.description, want, got)
		}
		if want, got := tt.ok, ok; want != got {
			t.Fatalf("[%02d] test %q, unexpected ok for Options.IANA(): %v != %v",
				i, tt.description, want, got)
		}
	}
}

// TestOptionsIATA verifies that Options.IATA properly parses and returns
// multiple IATA values, if one or more are available with OptionIATA.
func TestOptionsIATA(t *testing.T) {
	var tests = []struct {
		description string
		build       func() *Options
		count       int
		err         error
	}{
		{
			description: "OptionIATA not present",
			build:       NewOptions,
		},
		{
			description: "OptionIATA present, but too short",
			build: func() *Options {
				o := NewOptions()
				o.AddRaw(OptionIATA, []byte{0, 0, 0})
				return o
			},
			err: errInvalidIATA,
		},
		{
			description: "one OptionIATA present",
			build: func() *Options {
				o := NewOptions()
				o.AddRaw(OptionIATA, []byte{1, 2, 3, 4})
				return o
			},
			count: 1,
		},
	}

	for i, tt := range tests {
		iata, _, err := tt.build().IATA()
		if err != nil {
			if want, got := tt.err, err; want != got {
				t.Fatalf("[%02d] test %q, unexpected error for Options.IATA: %v != %v",
					i, tt.description, want, got)
			}
			continue
		}

		if want, got := tt.count, len(iata); want != got {
			t.Fatalf("[%02d] test %q, unexpected IATA count: %v != %v",
				i, tt.description, want, got)
		}
	}
}

// TestOptionsIAAddr verifies that Options.IAAddr properly parses and
// returns multiple IAAddr values, if one or more are available with
// OptionIAAddr.
func TestOptionsIAAddr(t *testing.T) {
	var tests = []struct {
		description string
		build       func() *Options
		count       int
		err         error
	}{
		{
			description: "OptionIAAddr not present",
			build:       NewOptions,
		},
		{
			description: "OptionIAAddr present, but too short",
			build: func() *Options {
				o := NewOptions()
				o.AddRaw(OptionIAAddr, bytes.Repeat([]byte{0}, 23))
				return o
			},
			err: errInvalidIAAddr,
		},
		{
			description: "one OptionIAAddr present",
			build: func() *Options {
				o := NewOptions()
				o.AddRaw(OptionIAAddr, append(net.IPv6loopback, []byte{0, 0, 0, 30, 0, 0, 0, 60}...))
				return o
			},
			count: 1,
		},
	}

	for i, tt := range tests {
		iaaddr, _, err := tt.build().IAAddr()
		if err != nil {
			if want, got := tt.err, err; want != got {
				t.Fatalf("[%02d] test %q, unexpected error for Options.IAAddr: %v != %v",
					i, tt.description, want, got)
			}
			continue
		}

		if want, got := tt.count, len(iaaddr); want != got {
			t.Fatalf("[%02d] test %q, unexpected IAAddr count: %v != %v",
				i, tt.description, want, got)
		}
	}
}

// TestOptionsOptionRequest verifies that Options.OptionRequest properly
// parses and returns a slice of OptionCode values, if available with
// OptionORO.
func TestOptionsOptionRequest(t *testing.T) {
	var tests = []struct {
		description string
		build       func() *Options
		codes       []OptionCode
		ok          bool
		err         error
	}{
		{
			description: "OptionORO not present",
			build:       NewOptions,
		},
		{
			description: "OptionORO present, but not even length",
			build: func() *Options {
				o := NewOptions()
				o.AddRaw(OptionORO, []byte{0})
				return o
			},
			err: errInvalidOptionRequest,
		},
		{
			description: "OptionORO present, with multiple values",
			build: func() *Options {
				o := NewOptions()
				o.AddRaw(OptionORO, []byte{0, 1, 0, 2, 0, 3})
				return o
			},
			codes: []OptionCode{1, 2, 3},
			ok:    true,
		},
	}

	for i, tt := range tests {
		codes, ok, err := tt.build().OptionRequest()
		if err != nil {
			if want, got := tt.err, err; want != got {
				t.Fatalf("[%02d] test %q, unexpected error for Options.OptionRequest(): %v != %v",
					i, tt.description, want, got)
			}
			continue
		}

		if want, got := tt.codes, codes; !reflect.DeepEqual(want, got) {
			t.Fatalf("[%02d] test %q, unexpected value for Options.OptionRequest():\n- want: %v\n-  got: %v",
				i, tt.description, want, got)
		}
		if want, got := tt.ok, ok; want != got {
			t.Fatalf("[%02d] test %q, unexpected ok for Options.OptionRequest(): %v != %v",
				i, tt.description, want, got)
		}
	}
}

// TestOptionsPreference verifies that Options.Preference properly parses
// and returns an integer value, if available with OptionPreference.
func TestOptionsPreference(t *testing.T) {
	var tests = []struct {
		description string
		build       func() *Options
		preference  uint8
		ok          bool
		err         error
	}{
		{
			description: "OptionPreference not present",
			build:       NewOptions,
		},
		{
			description: "OptionPreference present, too short",
			build: func() *Options {
				o := NewOptions()
				o.AddRaw(OptionPreference, []byte{})
				return o
			},
			err: errInvalidPreference,
		},
		{
			description: "OptionPreference present, too long",
			build: func() *Options {
				o := NewOptions()
				o.AddRaw(OptionPreference, []byte{0, 1})
				return o
			},
			err: errInvalidPreference,
		},
		{
			description: "OptionPreference present",
			build: func() *Options {
				o := NewOptions()
				o.AddRaw(OptionPreference, []byte{255})
				return o
			},
			preference: 255,
			ok:         true,
		},
	}

	for i, tt := range tests {
		preference, ok, err := tt.build().Preference()
		if err != nil {
			if want, got := tt.err, err; want != got {
				t.Fatalf("[%02d] test %q, unexpected error for Options.Preference(): %v != %v",
					i, tt.description, want, got)
			}
			continue
		}

		if want, got := tt.preference, preference; want != got {
			t.Fatalf("[%02d] test %q, unexpected value for Options.Preference(): %v != %v",
				i, tt.description, want, got)
		}
		if want, got := tt.ok, ok; want != got {
			t.Fatalf("[%02d] test %q, unexpected ok for Options.Preference(): %v != %v",
				i, tt.description, want, got)
		}
	}
}

// TestOptionsUnicast verifies that Options.Unicast properly parses and
// returns an IPv6 address or an error, if available with OptionUnicast.
func TestOptionsUnicast(t *testing.T) {
	var tests = []struct {
		description string
		build       func() *Options
		ip          net.IP
		ok          bool
		err         error
	}{
		{
			description: "OptionUnicast not present",
			build:       NewOptions,
		},
		{
			description: "OptionUnicast present, too short",
			build: func() *Options {
				o := NewOptions()
				o.AddRaw(OptionUnicast, bytes.Repeat([]byte{0}, 15))
				return o
			},
			err: errInvalidUnicast,
		},
		{
			description: "OptionUnicast present with IPv4 address",
			build: func() *Options {
				o := NewOptions()
				o.AddRaw(OptionUnicast, net.IPv4(192, 168, 1, 1))
				return o
			},
			err: errInvalidUnicast,
		},
		{
			description: "OptionUnicast present with IPv6 address",
			build: func() *Options {
				o := NewOptions()
				o.AddRaw(OptionUnicast, net.IPv6loopback)
				return o
			},
			ip: net.IPv6loopback,
			ok: true,
		},
	}

	for i, tt := range tests {
		ip, ok, err := tt.build().Unicast()
		if err != nil {
			if want, got := tt.err, err; want != got {
				t.Fatalf("[%02d] test %q, unexpected error for Options.Unicast(): %v != %v",
					i, tt.description, want, got)
			}
			continue
		}

		if want, got := tt.ip, ip; !bytes.Equal(want, got) {
			t.Fatalf("[%02d] test %q, unexpected value for Options.Unicast():\n- want: %v\n-  got: %v",
				i, tt.description, want, got)
		}
		if want, got := tt.ok, ok; want != got {
			t.Fatalf("[%02d] test %q, unexpected ok for Options.Unicast(): %v != %v",
				i, tt.description, want, got)
		}
	}
}

// TestOptionsStatusCode verifies that Options.StatusCode properly parses
// and returns a StatusCode value, if available with OptionStatusCode.
func TestOptionsStatusCode(t *testing.T) {
	o := NewOptions()
	o.AddRaw(OptionStatusCode, append([]byte{0, 0}, []byte("deadbeef")...))

	sc, ok, err := o.StatusCode()
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected OptionStatusCode to be present")
	}
	if want, got := StatusSuccess, sc.Code(); want != got {
		t.Fatalf("unexpected Code: %v != %v", want, got)
	}
	if want, got := "deadbeef", sc.Message(); want != got {
		t.Fatalf("unexpected Message: %v != %v", want, got)
	}
}

// TestOptionsElapsedTime verifies that Options.ElapsedTime properly parses
// and returns a time.Duration value, if available with OptionElapsedTime.
func TestOptionsElapsedTime(t *testing.T) {
	var tests = []struct {
		description string
		build       func() *Options
		duration    time.Duration
		ok          bool
		err         error
	}{
		{
			description: "OptionElapsedTime not present",
			build:       NewOptions,
		},
		{
			description: "OptionElapsedTime present, too short",
			build: func() *Options {
				o := NewOptions()
				o.AddRaw(OptionElapsedTime, []byte{1})
				return o
			},
			err: errInvalidElapsedTime,
		},
		{
			description: "OptionElapsedTime present",
			build: func() *Options {
				o := NewOptions()
				o.AddRaw(OptionElapsedTime, []byte{1, 1})
				return o
			},
			duration: 2570 * time.Millisecond,
			ok:       true,
		},
	}

	for i, tt := range tests {
		duration, ok, err := tt.build().ElapsedTime()
		if err != nil {
			if want, got := tt.err, err; want != got {
				t.Fatalf("[%02d] test %q, unexpected error for Options.ElapsedTime: %v != %v",
					i, tt.description, want, got)
			}
			continue
		}

		if want, got := tt.duration, duration; want != got {
			t.Fatalf("[%02d] test %q, unexpected value for Options.ElapsedTime(): %v != %v",
				i, tt.description, want, got)
		}
		if want, got := tt.ok, ok; want != got {
			t.Fatalf("[%02d] test %q, unexpected ok for Options.ElapsedTime(): %v != %v",
				i, tt.description, want, got)
		}
	}
}

// TestOptionsRapidCommit verifies that Options.RapidCommit properly
// indicates if OptionRapidCommit was present in Options.
func TestOptionsRapidCommit(t *testing.T) {
	var tests = []struct {
		description string
		build       func() *Options
		ok          bool
		err         error
	}{
		{
			description: "OptionRapidCommit not present",
			build:       NewOptions,
		},
		{
			description: "OptionRapidCommit present, but non-empty",
			build: func() *Options {
				o := NewOptions()
				o.AddRaw(OptionRapidCommit, []byte{1})
				return o
			},
			err: errInvalidRapidCommit,
		},
		{
			description: "OptionRapidCommit present, empty",
			build: func() *Options {
				o := NewOptions()
				o.AddRaw(OptionRapidCommit, []byte{})
				return o
			},
			ok: true,
		},
	}

	for i, tt := range tests {
		ok, err := tt.build().RapidCommit()
		if err != nil {
			if want, got := tt.err, err; want != got {
				t.Fatalf("[%02d] test %q, unexpected error for Options.RapidCommit: %v != %v",
					i, tt.description, want, got)
			}
			continue
		}

		if want, got := tt.ok, ok; want != got {
			t.Fatalf("[%02d] test %q, unexpected ok for Options.RapidCommit(): %v != %v",
				i, tt.description, want, got)
		}
	}
}

// TestOptionsUserClass verifies that Options.UserClass properly parses and
// returns raw user class data, if available with OptionUserClass.
func TestOptionsUserClass(t *testing.T) {
	var tests = []struct {
		description string
		build       func() *Options
		classes     [][]byte
		err         error
	}{
		{
			description: "OptionUserClass not present",
			build:       NewOptions,
		},
		{
			description: "OptionUserClass present, but empty",
			build: func() *Options {
				o := NewOptions()
				o.AddRaw(OptionUserClass, []byte{})
				return o
			},
			err: errInvalidClass,
		},
		{
			description: "OptionUserClass present, three items",
			build: func() *Options {
				o := NewOptions()
				o.AddRaw(OptionUserClass, []byte{
					0, 1, 1,
					0, 2, 2, 2,
					0, 3, 3, 3, 3,
				})
				return o
			},
			classes: [][]byte{{1}, {2, 2}, {3, 3, 3}},
		},
	}

	for i, tt := range tests {
		classes, _, err := tt.build().UserClass()
		if err != nil {
			if want, got := tt.err, err; want != got {
				t.Fatalf("[%02d] test %q, unexpected error for Options.UserClass: %v != %v",
					i, tt.description, want, got)
			}
			continue
		}

		if want, got := len(tt.classes), len(classes); want != got {
			t.Fatalf("[%02d] test %q, unexpected classes slice length: %v != %v",
				i, tt.description, want, got)
		}
		for j := range classes {
			if want, got := tt.classes[j], classes[j]; !bytes.Equal(want, got) {
				t.Fatalf("[%02d:%02d] test %q, unexpected value for Options.UserClass()\n- want: %v\n-  got: %v",
					i, j, tt.description, want, got)
			}
		}
	}
}

// TestOptionsVendorClass verifies that Options.VendorClass properly parses
// and returns raw vendor class data, if available with OptionVendorClass.
func TestOptionsVendorClass(t *testing.T) {
	o := NewOptions()
	o.AddRaw(OptionVendorClass, []byte{0, 1, 1, 0, 2, 2, 2})

	classes, ok, err := o.VendorClass()
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected OptionVendorClass to be present")
	}

	want := [][]byte{{1}, {2, 2}}
	if len(want) != len(classes) {
		t.Fatalf("unexpected classes slice length: %v != %v", len(want), len(classes))
	}
	for i := range want {
		if !bytes.Equal(want[i], classes[i]) {
			t.Fatalf("[%02d] unexpected value for Options.VendorClass(): %v != %v", i, want[i], classes[i])
		}
	}
}

// TestOptions_enumerate verifies that Options.enumerate preserves insertion
// order rather than sorting by option code.
func TestOptions_enumerate(t *testing.T) {
	var tests = []struct {
		description string
		build       func() *Options
		kv          optslice
	}{
		{
			description: "one key/value pair",
			build: func() *Options {
				o := NewOptions()
				o.AddRaw(1, []byte("foo"))
				return o
			},
			kv: optslice{{Code: 1, Data: []byte("foo")}},
		},
		{
			description: "insertion order preserved even when codes are descending",
			build: func() *Options {
				o := NewOptions()
				o.AddRaw(3, []byte("qux"))
				o.AddRaw(1, []byte("foo"))
				o.AddRaw(2, []byte("bar"))
				return o
			},
			kv: optslice{
				{Code: 3, Data: []byte("qux")},
				{Code: 1, Data: []byte("foo")},
				{Code: 2, Data: []byte("bar")},
			},
		},
	}

	for i, tt := range tests {
		if want, got := tt.kv, tt.build().enumerate(); !reflect.DeepEqual(want, got) {
			t.Fatalf("[%02d] test %q, unexpected key/value options:\n- want: %v\n-  got: %v",
				i, tt.description, want, got)
		}
	}
}

// Test_parseOptions verifies that parseOptions parses correct option
// values from a slice of bytes, and that it returns an empty Options value
// if the byte slice cannot contain options.
func Test_parseOptions(t *testing.T) {
	var tests = []struct {
		description string
		buf         []byte
		want        optslice
		err         error
	}{
		{
			description: "nil options bytes",
			buf:         nil,
			want:        optslice{},
		},
		{
			description: "empty options bytes",
			buf:         []byte{},
			want:        optslice{},
		},
		{
			description: "too short options bytes",
			buf:         []byte{0},
			err:         ErrInvalidOptions,
		},
		{
			description: "zero code, length 3, incorrect length for data",
			buf:         []byte{0, 0, 0, 3, 1, 2},
			err:         ErrInvalidOptions,
		},
		{
			description: "zero code, zero length option bytes",
			buf:         []byte{0, 0, 0, 0},
			want:        optslice{{Code: 0, Data: []byte{}}},
		},
		{
			description: "client ID, length 1, value [1]",
			buf:         []byte{0, 1, 0, 1, 1},
			want:        optslice{{Code: OptionClientID, Data: []byte{1}}},
		},
		{
			description: "client ID, length 2, value [1 1] + server ID, length 3, value [1 2 3]",
			buf: []byte{
				0, 1, 0, 2, 1, 1,
				0, 2, 0, 3, 1, 2, 3,
			},
			want: optslice{
				{Code: OptionClientID, Data: []byte{1, 1}},
				{Code: OptionServerID, Data: []byte{1, 2, 3}},
			},
		},
	}

	for i, tt := range tests {
		opts, err := parseOptions(tt.buf)
		if err != nil {
			if want, got := tt.err, err; want != got {
				t.Fatalf("[%02d] test %q, unexpected error for parseOptions(%v): %v != %v",
					i, tt.description, tt.buf, want, got)
			}
			continue
		}

		if want, got := tt.want, opts.enumerate(); !reflect.DeepEqual(want, got) {
			t.Fatalf("[%02d] test %q, unexpected options for parseOptions(%v):\n- want: %v\n-  got: %v",
				i, tt.description, tt.buf, want, got)
		}
	}
}
