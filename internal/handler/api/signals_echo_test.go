package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	"FinSignal/internal/services/analytics"
	"FinSignal/internal/usecase"
	"FinSignal/pkg/logger"
)

var day0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

type noClassifier struct{}

func (noClassifier) Classify(context.Context, string) (models.ClassificationResult, error) {
	return models.ClassificationResult{}, errors.New("offline")
}

type memStore struct{ candles []models.Candle }

func (m *memStore) GetCandles(_ context.Context, _ string, from, to time.Time, _ domrepo.Timeframe) ([]models.Candle, error) {
	var out []models.Candle
	for _, c := range m.candles {
		if !c.Bucket.Before(from) && !c.Bucket.After(to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) GetLatestNCandles(_ context.Context, symbol string, n int, _ domrepo.Timeframe) ([]models.Candle, error) {
	if symbol != "AAPL" {
		return nil, nil
	}
	cs := m.candles
	if len(cs) > n {
		cs = cs[len(cs)-n:]
	}
	return cs, nil
}

type recordingDispatcher struct{ got []models.TradingSignal }

func (d *recordingDispatcher) Dispatch(_ context.Context, s models.TradingSignal) error {
	d.got = append(d.got, s)
	return nil
}

func newTestServer(t *testing.T) (*echo.Echo, *recordingDispatcher) {
	t.Helper()
	var candles []models.Candle
	for i := 0; i < 60; i++ {
		c := 100 + float64(i)
		candles = append(candles, models.Candle{Bucket: day0.AddDate(0, 0, i), Symbol: "AAPL", Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1e6})
	}
	store := &memStore{candles: candles}
	engine := usecase.NewEngine(analytics.NewRuntime(noClassifier{}, logger.Nop()), nil, nil, nil)
	d := &recordingDispatcher{}
	h := NewSignalsEchoHandler(logger.Nop(), SignalsDeps{
		Engine:     engine,
		Batch:      usecase.NewBatch(engine, 4, 5*time.Second),
		Loader:     usecase.NewInputLoader(store, nil, nil),
		Candles:    usecase.NewCandlesUseCase(store),
		Dispatcher: d,
		Health: map[string]HealthCheck{
			"store": func(context.Context) error { return nil },
		},
	})
	e := echo.New()
	h.RegisterRoutes(e)
	return e, d
}

func body(t *testing.T, symbol string, n int) []byte {
	t.Helper()
	req := models.SignalRequest{Symbol: symbol}
	for i := 0; i < n; i++ {
		c, v := 100+float64(i), 1e6
		req.Candles = append(req.Candles, models.OHLCVRecord{Timestamp: day0.AddDate(0, 0, i), Close: &c, Volume: &v})
	}
	b, _ := json.Marshal(req)
	return b
}

func serve(e *echo.Echo, method, target string, payload []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(payload))
	if payload != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return env
}

func TestGenerateSignal(t *testing.T) {
	e, d := newTestServer(t)
	rec := serve(e, http.MethodPost, "/api/signals?publish=true", body(t, "AAPL", 60))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var res struct {
		Symbol  string `json:"symbol"`
		Signals []struct {
			Action     string  `json:"action"`
			Confidence float64 `json:"confidence"`
			AssetType  string  `json:"asset_type"`
		} `json:"signals"`
	}
	if err := json.Unmarshal(decode(t, rec).Data, &res); err != nil {
		t.Fatalf("data: %v", err)
	}
	if res.Symbol != "AAPL" || len(res.Signals) != 1 || res.Signals[0].Action != "BUY" || res.Signals[0].AssetType != "stock" {
		t.Fatalf("unexpected response %+v", res)
	}
	if len(d.got) != 1 {
		t.Fatalf("publish=true should dispatch, got %d", len(d.got))
	}
}

func TestGenerateSignalValidation(t *testing.T) {
	e, _ := newTestServer(t)
	rec := serve(e, http.MethodPost, "/api/signals", body(t, "", 5))
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "ERR_REQUIRED") {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	rec = serve(e, http.MethodPost, "/api/signals", []byte(`{"symbol":"AAPL","asset_type":"bond"}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad asset type: %d", rec.Code)
	}
}

func TestGenerateSignalNoSignal(t *testing.T) {
	e, d := newTestServer(t)
	rec := serve(e, http.MethodPost, "/api/signals?publish=true", body(t, "AAPL", 0))
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "ERR_NO_SIGNAL") {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if len(d.got) != 0 {
		t.Fatalf("nothing should be dispatched")
	}
}

func TestGenerateBatch(t *testing.T) {
	e, _ := newTestServer(t)
	payload := []byte(`{"items":[` + string(body(t, "AAPL", 40)) + `,` + string(body(t, "EMPTY", 0)) + `]}`)
	rec := serve(e, http.MethodPost, "/api/signals/batch", payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var res struct {
		Signals map[string][]json.RawMessage `json:"signals"`
		Errors  map[string]string            `json:"errors"`
	}
	if err := json.Unmarshal(decode(t, rec).Data, &res); err != nil {
		t.Fatalf("data: %v", err)
	}
	if len(res.Signals["AAPL"]) != 1 || len(res.Signals["EMPTY"]) != 0 || res.Errors["EMPTY"] == "" {
		t.Fatalf("unexpected batch %+v", res)
	}

	rec = serve(e, http.MethodPost, "/api/signals/batch", []byte(`{"items":[]}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty batch: %d", rec.Code)
	}
}

func TestGenerateStored(t *testing.T) {
	e, _ := newTestServer(t)
	rec := serve(e, http.MethodGet, "/api/signals/aapl?tf=1d&n=50", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	rec = serve(e, http.MethodGet, "/api/signals/NOPE", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown symbol: %d", rec.Code)
	}
	rec = serve(e, http.MethodGet, "/api/signals/AAPL?n=0", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("n=0 falls back to default: %d", rec.Code)
	}
	rec = serve(e, http.MethodGet, "/api/signals/AAPL?tf=2h", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad tf: %d", rec.Code)
	}
}

func TestCandlesAndHealth(t *testing.T) {
	e, _ := newTestServer(t)
	rec := serve(e, http.MethodGet, "/api/candles/AAPL?tf=1d&from=2024-03-01&to=2024-03-10&limit=5", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var res struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(decode(t, rec).Data, &res); err != nil || res.Count != 5 {
		t.Fatalf("count = %d err=%v", res.Count, err)
	}
	rec = serve(e, http.MethodGet, "/api/candles/AAPL?from=yesterday", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad from: %d", rec.Code)
	}
	rec = serve(e, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"store":"ok"`) {
		t.Fatalf("health %d: %s", rec.Code, rec.Body.String())
	}
}
