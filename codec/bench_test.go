package codec

import (
	"testing"

	"github.com/huben1337/static-protocol/schema"
)

var benchDef = schema.Def(
	schema.Field{Name: "id", Kind: schema.T("uint32")},
	schema.Field{Name: "active", Kind: schema.T("bool")},
	schema.Field{Name: "name", Kind: schema.T("varchar:64")},
	schema.Field{Name: "scores", Kind: schema.List(schema.T("uint16"))},
	schema.Field{Name: "tags", Kind: schema.List(schema.T("varchar"))},
	schema.Field{Name: "status", Kind: schema.OneOf(
		schema.Named("idle", nil),
		schema.Named("busy", schema.T("uint8")),
	)},
)

var benchValue = schema.Record{
	"id":     uint32(42),
	"active": true,
	"name":   "benchmark",
	"scores": []uint16{1, 2, 3, 4, 5, 6, 7, 8},
	"tags":   []string{"a", "bb", "ccc"},
	"status": schema.Enum{ID: "busy", Value: uint8(3)},
}

func BenchmarkEncode(b *testing.B) {
	for _, s := range []Strategy{StrategyExact, StrategyGrow} {
		b.Run(s.String(), func(b *testing.B) {
			c := Must(benchDef, WithStrategy(s))
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := c.Encode(benchValue); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkDecode(b *testing.B) {
	for name, opt := range map[string]Option{
		"copy":     WithOwnedValues(),
		"zerocopy": WithZeroCopy(),
	} {
		b.Run(name, func(b *testing.B) {
			c := Must(benchDef, opt)
			data, err := c.Encode(benchValue)
			if err != nil {
				b.Fatal(err)
			}
			b.SetBytes(int64(len(data)))
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := c.Decode(data); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkSize(b *testing.B) {
	c := Must(benchDef)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := c.Size(benchValue); err != nil {
			b.Fatal(err)
		}
	}
}
