package timeframe

import "testing"

func BenchmarkEncode(b *testing.B) {
	e := largeEvent(5000)
	b.SetBytes(int64(EncodedSize(e)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Encode(e)
	}
}

func BenchmarkDecode(b *testing.B) {
	buf := Encode(largeEvent(5000))
	b.SetBytes(int64(len(buf)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Decode(buf); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecodeTagged(b *testing.B) {
	buf, err := taggedCodec{}.Encode(largeEvent(5000))
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(buf)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Decode(buf); err != nil {
			b.Fatal(err)
		}
	}
}
