package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Additional-Code/procurement/pkg/errorbank"
)

// InternalErrorTitle replaces the message of every internal error sent to clients.
const InternalErrorTitle = "An unexpected error occurred."

// Problem is the JSON body rendered for failed requests.
type Problem struct {
	Title   string              `json:"title"`
	Status  int                 `json:"status"`
	Kind    string              `json:"kind"`
	Errors  map[string][]string `json:"errors,omitempty"`
	TraceID string              `json:"traceId,omitempty"`
}

// Builder helps construct consistent HTTP responses.
type Builder struct {
	ctx    echo.Context
	logger *zap.Logger
	status int
	data   any
	err    error
}

// New instantiates a Builder for the provided request context.
func New(ctx echo.Context, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{ctx: ctx, logger: logger, status: http.StatusOK}
}

// WithStatus overrides the response status code.
func (b *Builder) WithStatus(status int) *Builder {
	if status > 0 {
		b.status = status
	}
	return b
}

// WithData attaches a success payload. A nil payload renders no body.
func (b *Builder) WithData(data any) *Builder {
	b.data = data
	return b
}

// WithError records an error to be rendered.
func (b *Builder) WithError(err error) *Builder {
	b.err = err
	return b
}

// WithHeader sets a response header.
func (b *Builder) WithHeader(key, value string) *Builder {
	b.ctx.Response().Header().Set(key, value)
	return b
}

// Build finalises and emits the HTTP response.
func (b *Builder) Build() error {
	if b.err != nil {
		return b.buildError()
	}
	return b.buildSuccess()
}

func (b *Builder) buildSuccess() error {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	if b.data == nil {
		return b.ctx.NoContent(b.status)
	}
	return b.ctx.JSON(b.status, b.data)
}

func (b *Builder) buildError() error {
	appErr := errorbank.From(b.err)
	status := b.status
	if status < 400 {
		status = appErr.StatusCode()
	}

	problem := Problem{
		Title:   appErr.Message(),
		Status:  status,
		Kind:    string(appErr.Kind()),
		Errors:  appErr.FieldErrors(),
		TraceID: TraceID(b.ctx),
	}

	req := b.ctx.Request()
	fields := []zap.Field{
		zap.String("trace_id", problem.TraceID),
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", status),
		zap.String("kind", problem.Kind),
		zap.Error(b.err),
	}
	if status >= http.StatusInternalServerError {
		problem.Title = InternalErrorTitle
		b.logger.Error("request failed", fields...)
	} else {
		b.logger.Debug("request rejected", fields...)
	}

	return b.ctx.JSON(status, problem)
}

// TraceID returns the correlation id assigned to the request.
func TraceID(c echo.Context) string {
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}

// FromHTTPError converts router and binder errors raised by echo into
// application errors.
func FromHTTPError(he *echo.HTTPError) *errorbank.AppError {
	msg := http.StatusText(he.Code)
	if s, ok := he.Message.(string); ok && s != "" {
		msg = s
	} else if he.Message != nil {
		msg = fmt.Sprint(he.Message)
	}

	opts := []errorbank.Option{}
	if he.Internal != nil {
		opts = append(opts, errorbank.WithCause(he.Internal))
	}

	switch {
	case he.Code == http.StatusNotFound:
		return errorbank.NotFound(msg, opts...)
	case he.Code >= http.StatusInternalServerError:
		return errorbank.Internal(msg, opts...)
	default:
		return errorbank.BadRequest(msg, opts...)
	}
}

// ErrorHandler renders any error escaping a handler as a problem document.
func ErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		b := New(c, logger).WithError(err)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			b = New(c, logger).WithStatus(he.Code).WithError(FromHTTPError(he))
		}
		if buildErr := b.Build(); buildErr != nil {
			logger.Error("write error response", zap.Error(buildErr))
		}
	}
}
