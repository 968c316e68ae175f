package usecase

import (
	"context"
	"errors"
	"testing"
)

func TestNewSignalDispatcherChecksBackends(t *testing.T) {
	pub, store := &recordingPublisher{}, &recordingStorage{}
	cases := []struct {
		backend string
		ok      bool
	}{
		{BackendKafka, true},
		{BackendClickHouse, true},
		{BackendBoth, true},
		{BackendNone, true},
		{"", true},
		{"s3", false},
	}
	for _, tc := range cases {
		_, err := NewSignalDispatcher(pub, store, nil, nil, tc.backend)
		if (err == nil) != tc.ok {
			t.Fatalf("backend %q: err=%v", tc.backend, err)
		}
	}
	if _, err := NewSignalDispatcher(nil, store, nil, nil, BackendBoth); err == nil {
		t.Fatalf("both without publisher should fail")
	}
	if _, err := NewSignalDispatcher(pub, nil, nil, nil, BackendClickHouse); err == nil {
		t.Fatalf("clickhouse without storage should fail")
	}
}

func TestDispatchRoutesToBackends(t *testing.T) {
	pub, store, hub := &recordingPublisher{}, &recordingStorage{}, &recordingHub{}
	d, err := NewSignalDispatcher(pub, store, hub, nil, BackendBoth)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := d.Dispatch(context.Background(), sampleSignal("AAPL")); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(pub.got) != 1 || len(store.got) != 1 || len(hub.got) != 1 {
		t.Fatalf("got pub=%d store=%d hub=%d", len(pub.got), len(store.got), len(hub.got))
	}

	kafkaOnly, _ := NewSignalDispatcher(pub, store, nil, nil, BackendKafka)
	_ = kafkaOnly.Dispatch(context.Background(), sampleSignal("MSFT"))
	if len(pub.got) != 2 || len(store.got) != 1 {
		t.Fatalf("kafka backend touched storage")
	}
}

func TestDispatchFailureSkipsBroadcast(t *testing.T) {
	pub, hub := &recordingPublisher{err: errDown}, &recordingHub{}
	d, _ := NewSignalDispatcher(pub, nil, hub, nil, BackendKafka)
	err := d.Dispatch(context.Background(), sampleSignal("AAPL"))
	if !errors.Is(err, errDown) {
		t.Fatalf("err = %v", err)
	}
	if len(hub.got) != 0 {
		t.Fatalf("failed signal was broadcast")
	}
}

func TestDispatchNoneOnlyBroadcasts(t *testing.T) {
	hub := &recordingHub{}
	d, _ := NewSignalDispatcher(nil, nil, hub, nil, "")
	if d.Backend() != BackendNone {
		t.Fatalf("backend = %s", d.Backend())
	}
	if err := d.DispatchBatch(context.Background(), nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	if err := d.Dispatch(context.Background(), sampleSignal("AAPL")); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(hub.got) != 1 {
		t.Fatalf("hub got %d", len(hub.got))
	}
	if err := d.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
