package main

import (
	"encoding/hex"
	"fmt"
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/huben1337/static-protocol/codec"
	"github.com/huben1337/static-protocol/schema"
)

// parseValue reads a record from YAML. Flow style works for one-line input.
func parseValue(src string) (schema.Record, error) {
	var m map[string]any
	if err := yaml.Unmarshal([]byte(src), &m); err != nil {
		return nil, fmt.Errorf("parse value: %w", err)
	}
	if m == nil {
		m = map[string]any{}
	}
	return schema.Record(m), nil
}

// printable rewrites decoded values so YAML output stays readable.
func printable(v any) any {
	switch v := v.(type) {
	case nil:
		return nil
	case []byte:
		return "0x" + hex.EncodeToString(v)
	case schema.Record:
		return printable(map[string]any(v))
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, x := range v {
			out[k] = printable(x)
		}
		return out
	case schema.Enum:
		if v.Value == nil {
			return map[string]any{"id": v.ID}
		}
		return map[string]any{"id": v.ID, "value": printable(v.Value)}
	case string, bool:
		return v
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = printable(rv.Index(i).Interface())
		}
		return out
	}
	return v
}

func formatValue(v any) (string, error) {
	out, err := yaml.Marshal(printable(v))
	if err != nil {
		return "", fmt.Errorf("format value: %w", err)
	}
	return string(out), nil
}

type result struct {
	err     error
	decoded string
	encoded []byte
}

// roundTrip encodes src and decodes the bytes again.
func roundTrip(c *codec.Codec, src string) result {
	rec, err := parseValue(src)
	if err != nil {
		return result{err: err}
	}
	buf, err := c.Encode(rec)
	if err != nil {
		return result{err: err}
	}
	res := result{encoded: buf}
	back, err := c.Decode(buf)
	if err != nil {
		res.err = err
		return res
	}
	res.decoded, res.err = formatValue(back)
	return res
}
