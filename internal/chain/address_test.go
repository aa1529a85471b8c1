package chain

import (
	"strings"
	"testing"
)

func TestParseAddressRoundTrip(t *testing.T) {
	inputs := []string{
		"0x7ed5cc0cf0b0532b52024a0dda8fae24c6f66dc3",
		"0x4193d2f9bf93495d4665c485a3b8aadaf78cdf29",
		"0XF8CA094FD88F259DF35E0B8A9F38DF8F4F28F336",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			a, err := ParseAddress(in)
			if err != nil {
				t.Fatalf("ParseAddress(%q): %v", in, err)
			}
			// The checksummed rendering must parse back to the same
			// bytes.
			b, err := ParseAddress(a.String())
			if err != nil {
				t.Fatalf("ParseAddress(checksummed %q): %v", a.String(), err)
			}
			if a != b {
				t.Fatalf("round trip changed address: %s != %s", a.Hex(), b.Hex())
			}
			if a.Hex() != strings.ToLower(strings.Replace(in, "0X", "0x", 1)) {
				t.Fatalf("Hex()=%s, want lowercase of input", a.Hex())
			}
		})
	}
}

func TestParseAddressRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{name: "no_prefix", in: "7ed5cc0cf0b0532b52024a0dda8fae24c6f66dc3"},
		{name: "short", in: "0x7ed5cc0c"},
		{name: "long", in: "0x7ed5cc0cf0b0532b52024a0dda8fae24c6f66dc3ff"},
		{name: "not_hex", in: "0x7ed5cc0cf0b0532b52024a0dda8fae24c6f66dzz"},
		{name: "empty", in: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseAddress(tc.in); err == nil {
				t.Fatalf("ParseAddress(%q) succeeded, want error", tc.in)
			}
		})
	}
}

func TestParseAddressRejectsBadChecksum(t *testing.T) {
	a, err := ParseAddress("0x7ed5cc0cf0b0532b52024a0dda8fae24c6f66dc3")
	if err != nil {
		t.Fatalf("ParseAddress: %v", err)
	}
	good := a.String()
	// Flip the case of one alphabetic character of the checksummed
	// form; the result must be rejected.
	body := []byte(good[2:])
	for i, c := range body {
		if c >= 'a' && c <= 'f' {
			body[i] = c - ('a' - 'A')
			break
		}
		if c >= 'A' && c <= 'F' {
			body[i] = c + ('a' - 'A')
			break
		}
	}
	bad := "0x" + string(body)
	if bad == good {
		t.Skip("no alphabetic character to flip")
	}
	if _, err := ParseAddress(bad); err == nil {
		t.Fatalf("ParseAddress(%q) accepted a bad checksum", bad)
	}
}

func TestAddressIsZero(t *testing.T) {
	var zero Address
	if !zero.IsZero() {
		t.Fatal("zero value should report IsZero")
	}
	a, err := ParseAddress("0x7ed5cc0cf0b0532b52024a0dda8fae24c6f66dc3")
	if err != nil {
		t.Fatalf("ParseAddress: %v", err)
	}
	if a.IsZero() {
		t.Fatal("non-zero address reported IsZero")
	}
}
