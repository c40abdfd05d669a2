package merge

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"

	"xmlrecords/internal/mapping"
	"xmlrecords/internal/record"
)

// Encode renders recs as an indented XML document under rootTag, one
// recordTag element per record. Null values are left out, nested records
// become nested elements and lists become repeated elements. Keys that are
// not valid element names are sanitized.
func Encode(recs []*record.Record, rootTag, recordTag string) ([]byte, error) {
	for _, tag := range []string{rootTag, recordTag} {
		if !mapping.IsValidName(tag) {
			return nil, &Error{Key: tag, Err: ErrInvalidTag}
		}
	}

	var buf bytes.Buffer

	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	root := xml.StartElement{Name: xml.Name{Local: rootTag}}
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}

	for i, rec := range recs {
		if err := encodeRecord(enc, recordTag, rec); err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
	}

	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}

	if err := enc.Flush(); err != nil {
		return nil, err
	}

	buf.WriteByte('\n')

	return buf.Bytes(), nil
}

func encodeRecord(enc *xml.Encoder, tag string, rec *record.Record) error {
	start := xml.StartElement{Name: xml.Name{Local: tag}}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}

	for _, f := range rec.Fields() {
		if err := encodeValue(enc, mapping.SanitizeName(f.Key), f.Value); err != nil {
			return err
		}
	}

	return enc.EncodeToken(start.End())
}

func encodeValue(enc *xml.Encoder, tag string, v any) error {
	switch val := v.(type) {
	case nil:
		return nil
	case *record.Record:
		if val == nil {
			return nil
		}

		return encodeRecord(enc, tag, val)
	case []any:
		for _, item := range val {
			if err := encodeValue(enc, tag, item); err != nil {
				return err
			}
		}

		return nil
	}

	text, err := scalarText(v)
	if err != nil {
		return fmt.Errorf("field %q: %w", tag, err)
	}

	start := xml.StartElement{Name: xml.Name{Local: tag}}

	if err := enc.EncodeToken(start); err != nil {
		return err
	}

	if err := enc.EncodeToken(xml.CharData(text)); err != nil {
		return err
	}

	return enc.EncodeToken(start.End())
}

func scalarText(v any) (string, error) {
	switch val := record.Normalize(v).(type) {
	case string:
		return val, nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}
