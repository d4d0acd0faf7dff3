package util

import "testing"

func TestShortenAddress(t *testing.T) {
	long := "cnVko1jnvrPDcYjqLZWk7888y2CqyutjyBZ2S6abcde"
	want := long[:6] + "..." + long[len(long)-6:]
	if got := ShortenAddress(long); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}

	if ShortenAddress("cnShort") != "cnShort" {
		t.Fatalf("short address should be untouched")
	}
}
