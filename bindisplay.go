package main

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// FormatBinary renders buf one little-endian 32-bit word per line, most
// significant bit first. A trailing partial word is zero-padded.
func FormatBinary(buf []byte) string {
	var b strings.Builder
	for i := 0; i < len(buf); i += 4 {
		var word [4]byte
		copy(word[:], buf[i:])
		fmt.Fprintf(&b, "%032b\n", binary.LittleEndian.Uint32(word[:]))
	}
	return b.String()
}

// FormatListing renders listing entries as address, bytes and source.
func FormatListing(entries []ListingEntry) string {
	var b strings.Builder
	for _, e := range entries {
		hex := make([]string, len(e.Bytes))
		for i, c := range e.Bytes {
			hex[i] = fmt.Sprintf("%02x", c)
		}
		bytesCol := strings.Join(hex, " ")
		if len(bytesCol) > 23 {
			bytesCol = bytesCol[:20] + "..."
		}
		fmt.Fprintf(&b, "%08x  %-23s  %s\n", e.Addr, bytesCol, e.Source)
	}
	return b.String()
}
