package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"MarketBrief/internal/domain/models"
	domrepo "MarketBrief/internal/domain/repository"
	"MarketBrief/internal/service/breaker"
	"MarketBrief/internal/service/marketdata"
	"MarketBrief/internal/services/normalizer"
	"MarketBrief/internal/services/session"
	"MarketBrief/internal/services/sizing"
	"MarketBrief/internal/usecase"
	xhttp "MarketBrief/pkg/http"
	xlogger "MarketBrief/pkg/logger"

	"github.com/labstack/echo/v4"
)

// BriefGenerator produces a brief for one message.
type BriefGenerator interface {
	Generate(ctx context.Context, req models.BriefRequest) (*models.Brief, error)
}

// SourceReporter exposes circuit breaker snapshots.
type SourceReporter interface {
	BreakerStates() []marketdata.SourceState
}

// BriefEchoHandler serves the brief pipeline and its building blocks over HTTP.
type BriefEchoHandler struct {
	logger  *xlogger.Logger
	briefs  BriefGenerator
	sources SourceReporter
	history domrepo.BriefHistory
	now     func() time.Time
}

// NewBriefEchoHandler creates the handler. history may be nil when no store is configured.
func NewBriefEchoHandler(logger *xlogger.Logger, briefs BriefGenerator, sources SourceReporter, history domrepo.BriefHistory) *BriefEchoHandler {
	return &BriefEchoHandler{logger: logger, briefs: briefs, sources: sources, history: history, now: time.Now}
}

func (h *BriefEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/api")
	g.POST("/brief", h.Brief)
	g.GET("/briefs", h.Recent)
	g.POST("/position-size", h.PositionSize)
	g.GET("/session", h.Session)
	g.GET("/instrument", h.Instrument)
	g.GET("/sources", h.Sources)
}

func (h *BriefEchoHandler) Brief(c echo.Context) error {
	req := &models.BriefRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if req.Timeframe != "" {
		tf, ok := normalizer.ParseTimeframe(string(req.Timeframe))
		if !ok {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("unsupported timeframe %q", req.Timeframe))
		}
		req.Timeframe = tf
	}

	b, err := h.briefs.Generate(c.Request().Context(), *req)
	if err != nil {
		if errors.Is(err, usecase.ErrEmptyMessage) {
			return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_REQUIRED", "message", "message is required", http.StatusBadRequest))
		}
		h.logger.Error("brief usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, b)
}

func (h *BriefEchoHandler) PositionSize(c echo.Context) error {
	req := &models.PositionSizeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if req.Instrument != "" {
		sym, err := normalizer.ResolveSymbol(req.Instrument)
		if err != nil {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundError(err.Error()))
		}
		req.Instrument = sym
	}
	return xhttp.SuccessResponse(c, sizing.CalculatePositionSize(*req))
}

type sessionRequest struct {
	At string `query:"at" validate:"max=40"`
}

type sessionResponse struct {
	At          time.Time            `json:"at"`
	Session     models.MarketSession `json:"session"`
	Description string               `json:"description"`
}

func (h *BriefEchoHandler) Session(c echo.Context) error {
	req := &sessionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	at := h.now().UTC()
	if req.At != "" {
		t, ok := xhttp.ParseTime(req.At)
		if !ok {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError("at must be RFC3339 or unix seconds"))
		}
		at = t.UTC()
	}
	s := session.GetMarketSession(at)
	return xhttp.SuccessResponse(c, sessionResponse{At: at, Session: s, Description: session.Describe(s)})
}

type instrumentRequest struct {
	Q string `query:"q" validate:"required,max=500"`
}

type instrumentResponse struct {
	Symbol    string                `json:"symbol"`
	Spec      models.InstrumentSpec `json:"spec"`
	Timeframe models.Timeframe      `json:"timeframe"`
}

func (h *BriefEchoHandler) Instrument(c echo.Context) error {
	req := &instrumentRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	sym, ok := normalizer.ExtractInstrument(req.Q)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no instrument recognized in %q", req.Q))
	}
	return xhttp.SuccessResponse(c, instrumentResponse{
		Symbol:    sym,
		Spec:      normalizer.GetInstrumentSpecs(sym),
		Timeframe: normalizer.ExtractTimeframe(req.Q),
	})
}

func (h *BriefEchoHandler) Sources(c echo.Context) error {
	states := h.sources.BreakerStates()
	return xhttp.ListResponse(c, states, int64(len(states)))
}

type recentRequest struct {
	Instrument string `query:"instrument" validate:"max=12"`
	Limit      int    `query:"limit" default:"20" validate:"gte=1,lte=200"`
}

func (h *BriefEchoHandler) Recent(c echo.Context) error {
	if h.history == nil {
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("brief history is not configured"))
	}
	req := &recentRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	instrument := ""
	if req.Instrument != "" {
		instrument, _ = normalizer.NormalizeSymbol(req.Instrument)
	}
	rows, err := h.history.Recent(c.Request().Context(), instrument, req.Limit)
	if err != nil {
		h.logger.Error("recent briefs error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("could not load briefs").WithError(err))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *BriefEchoHandler) Health(c echo.Context) error {
	open := 0
	for _, s := range h.sources.BreakerStates() {
		if s.State == breaker.Open {
			open++
		}
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "ok", "open_circuits": open})
}
