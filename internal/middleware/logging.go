package middleware

import (
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	loggerKey       = "logger"
)

// RequestObserver records request latency, e.g. into Prometheus.
type RequestObserver interface {
	ObserveRequest(route, method, status string, d time.Duration)
}

// RequestID propagates the caller's X-Request-ID or assigns a new ULID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = ulid.Make().String()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func RequestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// RequestLogger logs each completed request and reports its latency to obs,
// which may be nil.
func RequestLogger(logger *zap.Logger, obs RequestObserver) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		reqLogger := logger.With(
			zap.String("request_id", RequestIDFrom(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
		c.Set(loggerKey, reqLogger)

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		if obs != nil {
			obs.ObserveRequest(route, c.Request.Method, strconv.Itoa(status), latency)
		}

		fields := []zap.Field{
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.Int("bytes", c.Writer.Size()),
			zap.String("remote_ip", c.ClientIP()),
		}
		if caller := CallerFrom(c); caller.Authenticated() {
			fields = append(fields, zap.Int("user_id", caller.UserID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= http.StatusInternalServerError:
			reqLogger.Error("request completed", fields...)
		case status >= http.StatusBadRequest:
			reqLogger.Warn("request completed", fields...)
		default:
			reqLogger.Info("request completed", fields...)
		}
	}
}

// LoggerFrom returns the request-scoped logger, or fallback.
func LoggerFrom(c *gin.Context, fallback *zap.Logger) *zap.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	if fallback == nil {
		return zap.NewNop()
	}
	return fallback
}

// Recovery turns panics into 500 responses and logs the stack.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		LoggerFrom(c, logger).Error("panic recovered",
			zap.Any("panic", rec),
			zap.ByteString("stack", debug.Stack()),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	})
}
