package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Additional-Code/procurement/pkg/errorbank"
)

func newContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/purchase-orders/1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Response().Header().Set(echo.HeaderXRequestID, "req-123")
	return c, rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) Problem {
	t.Helper()
	var p Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	return p
}

func TestBuilder_Success(t *testing.T) {
	c, rec := newContext(t)
	require.NoError(t, New(c, nil).WithStatus(http.StatusCreated).WithData(42).Build())

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `42`, rec.Body.String())
}

func TestBuilder_NoContent(t *testing.T) {
	c, rec := newContext(t)
	require.NoError(t, New(c, nil).WithStatus(http.StatusNoContent).Build())

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestBuilder_ValidationProblem(t *testing.T) {
	c, rec := newContext(t)
	err := errorbank.Validation("One or more validation errors occurred.", map[string][]string{
		"poNumber": {"poNumber is required"},
	})
	require.NoError(t, New(c, nil).WithError(err).Build())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	p := decodeProblem(t, rec)
	assert.Equal(t, "One or more validation errors occurred.", p.Title)
	assert.Equal(t, "validation", p.Kind)
	assert.Equal(t, http.StatusBadRequest, p.Status)
	assert.Equal(t, []string{"poNumber is required"}, p.Errors["poNumber"])
	assert.Equal(t, "req-123", p.TraceID)
}

func TestBuilder_InternalErrorHidesDetailAndLogs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	c, rec := newContext(t)

	err := errorbank.Internal("failed to load purchase order", errorbank.WithCause(errors.New("dial tcp 10.0.0.5:5432: refused")))
	require.NoError(t, New(c, zap.New(core)).WithError(err).Build())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	p := decodeProblem(t, rec)
	assert.Equal(t, InternalErrorTitle, p.Title)
	assert.Equal(t, "internal", p.Kind)
	assert.Equal(t, "req-123", p.TraceID)

	entries := logs.FilterMessage("request failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-123", entries[0].ContextMap()["trace_id"])
	assert.Contains(t, entries[0].ContextMap()["error"], "10.0.0.5")
}

func TestBuilder_PlainErrorIsInternal(t *testing.T) {
	c, rec := newContext(t)
	require.NoError(t, New(c, nil).WithError(errors.New("boom")).Build())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, InternalErrorTitle, decodeProblem(t, rec).Title)
}

func TestErrorHandler_EchoHTTPError(t *testing.T) {
	c, rec := newContext(t)
	ErrorHandler(zap.NewNop())(echo.ErrNotFound, c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	p := decodeProblem(t, rec)
	assert.Equal(t, "not_found", p.Kind)
	assert.Equal(t, "Not Found", p.Title)

	c, rec = newContext(t)
	ErrorHandler(zap.NewNop())(echo.ErrMethodNotAllowed, c)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "bad_request", decodeProblem(t, rec).Kind)
}
