package catalog

import (
	"encoding/binary"
	"errors"
	"math"
	"time"
)

// Row encoding format: [null bitmap (ceil(numCols/8) bytes)] [fixed-width
// values inline, in column order]. Every column type is fixed-width so an
// encoded row always has the same length for a given schema, which lets
// the storage layer update a row in place without reorganizing its page.

// EncodeRow encodes values according to schema into bytes.
func EncodeRow(schema *Schema, values []Value) ([]byte, error) {
	if err := schema.Validate(values); err != nil {
		return nil, err
	}

	numCols := len(schema.Columns)
	nullBitmapSize := (numCols + 7) / 8
	nullBitmap := make([]byte, nullBitmapSize)

	for i, v := range values {
		if v.IsNull {
			nullBitmap[i/8] |= 1 << (i % 8)
		}
	}

	size := nullBitmapSize
	for _, col := range schema.Columns {
		size += col.FixedWidth()
	}

	buf := make([]byte, 0, size)
	buf = append(buf, nullBitmap...)

	for i, col := range schema.Columns {
		v := values[i]
		width := col.FixedWidth()
		if v.IsNull {
			buf = append(buf, make([]byte, width)...)
			continue
		}
		switch col.Type {
		case TypeInt32:
			b := make([]byte, 4)
			binary.LittleEndian.PutUint32(b, uint32(v.Int32))
			buf = append(buf, b...)
		case TypeFloat32:
			b := make([]byte, 4)
			binary.LittleEndian.PutUint32(b, math.Float32bits(v.Float))
			buf = append(buf, b...)
		case TypeBool:
			if v.Bool {
				buf = append(buf, 1)
			} else {
				buf = append(buf, 0)
			}
		case TypeDate:
			b := make([]byte, 8)
			binary.LittleEndian.PutUint64(b, uint64(v.Date.UTC().Unix()))
			buf = append(buf, b...)
		case TypeChar:
			field := make([]byte, width)
			copy(field, v.Text) // truncates if Text is longer than width
			buf = append(buf, field...)
		default:
			return nil, errors.New("encode: unknown column type")
		}
	}

	return buf, nil
}

// DecodeRow decodes bytes into values according to schema.
func DecodeRow(schema *Schema, data []byte) ([]Value, error) {
	numCols := len(schema.Columns)
	bitmapSize := (numCols + 7) / 8
	if len(data) < bitmapSize {
		return nil, errors.New("data too short for null bitmap")
	}

	nullBitmap := data[:bitmapSize]
	pos := bitmapSize
	values := make([]Value, numCols)

	for i, col := range schema.Columns {
		width := col.FixedWidth()
		isNull := (nullBitmap[i/8] & (1 << (i % 8))) != 0
		if pos+width > len(data) {
			return nil, errors.New("unexpected end of row data")
		}
		field := data[pos : pos+width]
		pos += width

		if isNull {
			values[i] = Null(col.Type)
			continue
		}

		switch col.Type {
		case TypeInt32:
			values[i] = NewInt32(int32(binary.LittleEndian.Uint32(field)))
		case TypeFloat32:
			values[i] = NewFloat32(math.Float32frombits(binary.LittleEndian.Uint32(field)))
		case TypeBool:
			values[i] = NewBool(field[0] != 0)
		case TypeDate:
			sec := int64(binary.LittleEndian.Uint64(field))
			values[i] = NewDate(time.Unix(sec, 0).UTC())
		case TypeChar:
			values[i] = NewChar(trimTrailingZero(field))
		default:
			return nil, errors.New("decode: unknown column type")
		}
	}

	return values, nil
}

func trimTrailingZero(b []byte) string {
	n := len(b)
	for n > 0 && b[n-1] == 0 {
		n--
	}
	return string(b[:n])
}
