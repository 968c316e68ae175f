package clickhouse

import (
	"net/url"
	"testing"
	"time"
)

func TestBuildDSN(t *testing.T) {
	cfg := defaultConfig()
	for _, opt := range []ClientOption{
		WithHost("ch.local"),
		WithPort(9440),
		WithDatabase("finsignal"),
		WithCredentials("svc", "p@ss"),
		WithAsyncInsert(true, true),
		WithMaxExecutionTime(90 * time.Second),
	} {
		opt(cfg)
	}

	u, err := url.Parse(buildDSN(*cfg))
	if err != nil {
		t.Fatalf("parse dsn: %v", err)
	}
	if u.Scheme != "clickhouse" || u.Host != "ch.local:9440" || u.Path != "/finsignal" {
		t.Fatalf("unexpected dsn %s", u)
	}
	if pw, _ := u.User.Password(); u.User.Username() != "svc" || pw != "p@ss" {
		t.Fatalf("unexpected credentials in %s", u)
	}
	q := u.Query()
	if q.Get("max_execution_time") != "90" || q.Get("async_insert") != "1" || q.Get("wait_for_async_insert") != "1" {
		t.Fatalf("unexpected settings %v", q)
	}
	if q.Get("dial_timeout") != "5s" || q.Has("write_timeout") {
		t.Fatalf("unexpected timeouts %v", q)
	}
}

func TestBuildDSNHTTP(t *testing.T) {
	cfg := defaultConfig()
	WithHost("localhost")(cfg)
	WithHTTP(true)(cfg)
	WithPort(8123)(cfg)
	u, _ := url.Parse(buildDSN(*cfg))
	if u.Scheme != "http" || u.Host != "localhost:8123" {
		t.Fatalf("unexpected http dsn %s", u)
	}
}

func TestTable(t *testing.T) {
	if got := NewFromDB(nil, "finsignal").Table("signals"); got != "finsignal.signals" {
		t.Fatalf("unexpected table %q", got)
	}
	if got := NewFromDB(nil, "").Table("signals"); got != "signals" {
		t.Fatalf("unexpected table %q", got)
	}
}
