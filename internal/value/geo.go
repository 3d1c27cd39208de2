package value

import (
	"encoding/binary"
	"math"

	"github.com/noproto-go/noproto/internal/schema"
)

// Geo is a decoded latitude/longitude pair.
type Geo struct {
	Lat, Lng float64
}

// EncodeGeo renders g at the given precision tier (SPEC_FULL.md §2.2 item
// 2: geo4 = two fixed-point int16, geo8 = two float32, geo16 = two
// float64), mirroring original_source's geo precision variants.
func EncodeGeo(prec schema.GeoPrecision, g Geo) []byte {
	switch prec {
	case schema.Geo4:
		buf := make([]byte, 4)
		binary.BigEndian.PutUint16(buf[0:2], uint16(int16(g.Lat*100)))
		binary.BigEndian.PutUint16(buf[2:4], uint16(int16(g.Lng*100)))
		return buf
	case schema.Geo16:
		buf := make([]byte, 16)
		binary.BigEndian.PutUint64(buf[0:8], math.Float64bits(g.Lat))
		binary.BigEndian.PutUint64(buf[8:16], math.Float64bits(g.Lng))
		return buf
	default: // Geo8
		buf := make([]byte, 8)
		binary.BigEndian.PutUint32(buf[0:4], math.Float32bits(float32(g.Lat)))
		binary.BigEndian.PutUint32(buf[4:8], math.Float32bits(float32(g.Lng)))
		return buf
	}
}

// DecodeGeo inverts EncodeGeo.
func DecodeGeo(prec schema.GeoPrecision, buf []byte) Geo {
	switch prec {
	case schema.Geo4:
		lat := int16(binary.BigEndian.Uint16(buf[0:2]))
		lng := int16(binary.BigEndian.Uint16(buf[2:4]))
		return Geo{Lat: float64(lat) / 100, Lng: float64(lng) / 100}
	case schema.Geo16:
		lat := math.Float64frombits(binary.BigEndian.Uint64(buf[0:8]))
		lng := math.Float64frombits(binary.BigEndian.Uint64(buf[8:16]))
		return Geo{Lat: lat, Lng: lng}
	default: // Geo8
		lat := math.Float32frombits(binary.BigEndian.Uint32(buf[0:4]))
		lng := math.Float32frombits(binary.BigEndian.Uint32(buf[4:8]))
		return Geo{Lat: float64(lat), Lng: float64(lng)}
	}
}
