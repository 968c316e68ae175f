package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	mid "FinSignal/internal/middleware"
	apimetrics "FinSignal/internal/service/metrics"
	"FinSignal/internal/usecase"
	xhttp "FinSignal/pkg/http"
	xlogger "FinSignal/pkg/logger"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type SignalsDeps struct {
	Engine     usecase.SignalGenerator
	Batch      *usecase.Batch
	Loader     *usecase.InputLoader
	Candles    *usecase.CandlesUseCase
	Dispatcher mid.Dispatcher
	Health     map[string]HealthCheck
}

// SignalsEchoHandler serves the signal and candle endpoints.
type SignalsEchoHandler struct {
	logger *xlogger.Logger
	deps   SignalsDeps
}

func NewSignalsEchoHandler(logger *xlogger.Logger, deps SignalsDeps) *SignalsEchoHandler {
	apimetrics.Register()
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &SignalsEchoHandler{logger: logger, deps: deps}
}

func (h *SignalsEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)
	g := e.Group("/api")
	g.POST("/signals", h.Generate)
	g.POST("/signals/batch", h.GenerateBatch)
	g.GET("/signals/:symbol", h.GenerateStored)
	g.GET("/candles/:symbol", h.Candles)
}

func observe(endpoint string, start time.Time) {
	apimetrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func (h *SignalsEchoHandler) fail(c echo.Context, endpoint string, err *xhttp.AppError) error {
	apimetrics.APIErrors.WithLabelValues(endpoint, err.Code).Inc()
	return xhttp.AppErrorResponse(c, err)
}

func (h *SignalsEchoHandler) invalid(c echo.Context, endpoint string, verr []xhttp.ValidationError) error {
	apimetrics.APIErrors.WithLabelValues(endpoint, "ERR_VALIDATION").Inc()
	return xhttp.BadRequestResponse(c, verr)
}

// Generate scores the candles and news in the body. With ?publish=true the
// signal is also dispatched.
func (h *SignalsEchoHandler) Generate(c echo.Context) error {
	const endpoint = "signals"
	defer observe(endpoint, time.Now())

	req := &models.SignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.invalid(c, endpoint, verr)
	}
	in, err := req.ToInput()
	if err != nil {
		return h.fail(c, endpoint, xhttp.BadRequestErrorf("%v", err))
	}
	return h.respond(c, endpoint, in, c.QueryParam("publish") == "true")
}

// GenerateStored scores the latest stored candles of a symbol plus its news.
func (h *SignalsEchoHandler) GenerateStored(c echo.Context) error {
	const endpoint = "signals_stored"
	defer observe(endpoint, time.Now())

	req := &models.StoredSignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.invalid(c, endpoint, verr)
	}
	if h.deps.Loader == nil {
		return h.fail(c, endpoint, xhttp.ServiceUnavailableErrorf("candle store not configured"))
	}
	at, err := models.ParseAssetType(req.AssetType)
	if err != nil {
		return h.fail(c, endpoint, xhttp.BadRequestErrorf("%v", err))
	}
	in, err := h.deps.Loader.Load(c.Request().Context(), usecase.LoadInputParams{
		Symbol:    req.Symbol,
		AssetType: at,
		N:         req.N,
		Timeframe: domrepo.NormalizeTimeframe(req.TF),
		SkipNews:  req.SkipNews,
	})
	if err != nil {
		h.logger.Warn("signal input unavailable", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return h.fail(c, endpoint, xhttp.NotFoundErrorf("no market data for %s", req.Symbol).WithError(err))
	}
	return h.respond(c, endpoint, in, c.QueryParam("publish") == "true")
}

func (h *SignalsEchoHandler) respond(c echo.Context, endpoint string, in models.SignalInput, publish bool) error {
	ctx := c.Request().Context()
	signals := h.deps.Engine.GenerateTradingSignals(ctx, in)
	if len(signals) == 0 {
		return h.fail(c, endpoint, xhttp.NoSignalError(in.Symbol))
	}
	if publish && h.deps.Dispatcher != nil {
		if err := h.deps.Dispatcher.Dispatch(ctx, signals[0]); err != nil {
			h.logger.Error("signal dispatch failed", xlogger.String("symbol", in.Symbol), xlogger.Error(err))
			return h.fail(c, endpoint, xhttp.ServiceUnavailableErrorf("signal generated but not dispatched").WithError(err))
		}
	}
	return xhttp.SuccessResponse(c, models.SignalResponse{Symbol: signals[0].Symbol(), Signals: signals})
}

// GenerateBatch scores many symbols in parallel; failures are per symbol.
func (h *SignalsEchoHandler) GenerateBatch(c echo.Context) error {
	const endpoint = "signals_batch"
	defer observe(endpoint, time.Now())

	req := &models.BatchSignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.invalid(c, endpoint, verr)
	}
	inputs := make([]models.SignalInput, 0, len(req.Items))
	for i, item := range req.Items {
		in, err := item.ToInput()
		if err != nil {
			return h.fail(c, endpoint, xhttp.BadRequestErrorf("items[%d]: %v", i, err))
		}
		inputs = append(inputs, in)
	}
	apimetrics.BatchSize.Observe(float64(len(inputs)))
	return xhttp.SuccessResponse(c, h.deps.Batch.Generate(c.Request().Context(), inputs))
}

func (h *SignalsEchoHandler) Candles(c echo.Context) error {
	const endpoint = "candles"
	defer observe(endpoint, time.Now())

	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.invalid(c, endpoint, verr)
	}
	if h.deps.Candles == nil {
		return h.fail(c, endpoint, xhttp.ServiceUnavailableErrorf("candle store not configured"))
	}
	p := usecase.GetCandlesParams{
		Symbol:    req.Symbol,
		Timeframe: domrepo.NormalizeTimeframe(req.TF),
		Limit:     req.Limit,
	}
	var ok bool
	if req.From != "" {
		if p.From, ok = xhttp.ParseTime(req.From); !ok {
			return h.fail(c, endpoint, xhttp.BadRequestErrorf("invalid from %q", req.From))
		}
	}
	if req.To != "" {
		if p.To, ok = xhttp.ParseTime(req.To); !ok {
			return h.fail(c, endpoint, xhttp.BadRequestErrorf("invalid to %q", req.To))
		}
	}
	res, err := h.deps.Candles.GetCandles(c.Request().Context(), p)
	if err != nil {
		h.logger.Error("candles usecase error", xlogger.Error(err))
		return h.fail(c, endpoint, xhttp.InternalErrorf("candles unavailable").WithError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

// Healthz runs every registered check; any failure answers 503.
func (h *SignalsEchoHandler) Healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.deps.Health))
	status := http.StatusOK
	for name, check := range h.deps.Health {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	return xhttp.DataResponse(c, status, checks)
}
