package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnixSecondsAndMillis(t *testing.T) {
	want := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got, ok := ParseTime(strconv.FormatInt(want.Unix(), 10))
	if !ok || !got.Equal(want) {
		t.Fatalf("seconds: got %v ok=%v", got, ok)
	}
	got, ok = ParseTime(strconv.FormatInt(want.UnixMilli(), 10))
	if !ok || !got.Equal(want) {
		t.Fatalf("millis: got %v ok=%v", got, ok)
	}
}

func TestParseTimeDate(t *testing.T) {
	got, ok := ParseTime("2024-03-01")
	if !ok || !got.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("got %v ok=%v", got, ok)
	}
}

func TestAlignFromTo(t *testing.T) {
	from := time.Date(2024, 3, 1, 15, 37, 12, 0, time.UTC)
	to := from.Add(3 * time.Hour)
	f, tt := AlignFromTo(from, to, "1h")
	if f.Minute() != 0 || tt.Hour() != 18 || tt.Minute() != 0 {
		t.Fatalf("1h: %v %v", f, tt)
	}
	f, _ = AlignFromTo(from, to, "5m")
	if f.Minute() != 35 || f.Second() != 0 {
		t.Fatalf("5m: %v", f)
	}
}

func TestNormalizeSymbols(t *testing.T) {
	got := NormalizeSymbols(SplitList(" aapl, MSFT,,aapl ,btc-usd"))
	want := []string{"AAPL", "MSFT", "BTC-USD"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v", got)
		}
	}
	if ParseIntDefault("x", 7) != 7 || ParseIntDefault("12", 7) != 12 {
		t.Fatalf("ParseIntDefault")
	}
}
