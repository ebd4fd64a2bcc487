package main

import "encoding/binary"

// MaxImageSize bounds the in-memory output image.
const MaxImageSize = 256 << 20

// Image is the flat output buffer. It spans address 0 up to the highest byte
// written; bytes never written read as zero.
type Image struct {
	buf []byte
	end uint64
}

// Write copies data to addr, growing the image as needed. Earlier contents
// at the same addresses are overwritten.
func (img *Image) Write(addr uint64, data []byte) {
	if len(data) == 0 {
		return
	}
	end := addr + uint64(len(data))
	if end > uint64(len(img.buf)) {
		img.buf = append(img.buf, make([]byte, end-uint64(len(img.buf)))...)
	}
	copy(img.buf[addr:end], data)
	if end > img.end {
		img.end = end
	}
}

// PutUint stores the low size bytes of val at addr, little-endian.
func (img *Image) PutUint(addr uint64, val uint64, size int) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], val)
	img.Write(addr, b[:size])
	return b[:size]
}

func (img *Image) Len() uint64 {
	return img.end
}

// Bytes returns the image contents.
func (img *Image) Bytes() []byte {
	if img.buf == nil {
		return []byte{}
	}
	return img.buf[:img.end]
}
