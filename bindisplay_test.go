package main

import (
	"testing"

	"github.com/nalgeon/be"
)

func TestFormatBinary(t *testing.T) {
	be.Equal(t, FormatBinary(nil), "")
	be.Equal(t, FormatBinary([]byte{0x93, 0x00, 0x50, 0x00}), "00000000010100000000000010010011\n")

	// A trailing partial word is padded with zero bytes.
	be.Equal(t, FormatBinary([]byte{0x13, 0, 0, 0, 0x01}),
		"00000000000000000000000000010011\n"+
			"00000000000000000000000000000001\n")
}

func TestFormatListing(t *testing.T) {
	listing := []ListingEntry{
		{Addr: 0, Line: 1, Source: "main:"},
		{Addr: 0, Bytes: []byte{0x13, 0, 0, 0}, Line: 2, Source: "nop"},
		{Addr: 0x104, Bytes: []byte("0123456789"), Line: 3, Source: `.ascii "0123456789"`},
	}
	be.Equal(t, FormatListing(listing), ""+
		"00000000                           main:\n"+
		"00000000  13 00 00 00              nop\n"+
		"00000104  30 31 32 33 34 35 36...  .ascii \"0123456789\"\n")
}

func TestFormatListingFromAssembler(t *testing.T) {
	a := NewAssembler(DefaultInstructionSpec())
	_, err := a.Assemble("  addi x1, x0, 5\n")
	be.Err(t, err, nil)
	be.Equal(t, FormatListing(a.Listing()), "00000000  93 00 50 00              addi x1, x0, 5\n")
}
