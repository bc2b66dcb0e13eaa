package gds

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Record types.
const (
	recHeader       = 0x0002
	recBgnLib       = 0x0102
	recLibName      = 0x0206
	recUnits        = 0x0305
	recEndLib       = 0x0400
	recBgnStr       = 0x0502
	recStrName      = 0x0606
	recEndStr       = 0x0700
	recBoundary     = 0x0800
	recPath         = 0x0900
	recSRef         = 0x0A00
	recText         = 0x0C00
	recLayer        = 0x0D02
	recDatatype     = 0x0E02
	recWidth        = 0x0F03
	recXY           = 0x1003
	recEndEl        = 0x1100
	recSName        = 0x1206
	recTextType     = 0x1602
	recPresentation = 0x1701
	recString       = 0x1906
	recSTrans       = 0x1A01
	recMag          = 0x1B05
	recAngle        = 0x1C05
	recPathType     = 0x2102
	recPropAttr     = 0x2B02
	recPropValue    = 0x2C06
)

const (
	streamVersion  = 600
	maxRecordSize  = 0xffff
	stransReflect  = 0x8000
	maxBoundaryPts = 8191
)

// record is one raw stream record.
type record struct {
	typ  uint16
	data []byte
}

func (r record) int2s() []int16 {
	out := make([]int16, len(r.data)/2)
	for i := range out {
		out[i] = int16(binary.BigEndian.Uint16(r.data[2*i:]))
	}
	return out
}

func (r record) int4s() []int32 {
	out := make([]int32, len(r.data)/4)
	for i := range out {
		out[i] = int32(binary.BigEndian.Uint32(r.data[4*i:]))
	}
	return out
}

func (r record) real8s() []float64 {
	out := make([]float64, len(r.data)/8)
	for i := range out {
		out[i] = decodeReal(binary.BigEndian.Uint64(r.data[8*i:]))
	}
	return out
}

func (r record) str() string {
	end := len(r.data)
	for end > 0 && r.data[end-1] == 0 {
		end--
	}
	return string(r.data[:end])
}

func readRecord(rd io.Reader) (record, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(rd, hdr[:]); err != nil {
		return record{}, err
	}
	n := int(binary.BigEndian.Uint16(hdr[:2]))
	if n < 4 || n%2 != 0 {
		return record{}, fmt.Errorf("invalid record length %d", n)
	}
	rec := record{typ: binary.BigEndian.Uint16(hdr[2:]), data: make([]byte, n-4)}
	if _, err := io.ReadFull(rd, rec.data); err != nil {
		return record{}, fmt.Errorf("truncated record %#04x: %w", rec.typ, err)
	}
	return rec, nil
}

// encodeReal converts v to the 8-byte excess-64 base-16 format.
func encodeReal(v float64) uint64 {
	if v == 0 {
		return 0
	}
	var sign uint64
	if v < 0 {
		sign = 1 << 63
		v = -v
	}
	exp := 64
	for v >= 1 {
		v /= 16
		exp++
	}
	for v < 1.0/16 {
		v *= 16
		exp--
	}
	mant := uint64(math.Round(v * (1 << 56)))
	if mant >= 1<<56 {
		mant >>= 4
		exp++
	}
	return sign | uint64(exp)<<56 | mant
}

func decodeReal(bits uint64) float64 {
	mant := float64(bits & (1<<56 - 1))
	if mant == 0 {
		return 0
	}
	exp := int((bits >> 56) & 0x7f)
	v := mant / (1 << 56) * math.Pow(16, float64(exp-64))
	if bits>>63 == 1 {
		v = -v
	}
	return v
}
