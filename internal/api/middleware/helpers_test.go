package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/labstack/echo/v4"

	"github.com/welldanyogia/webrana-unibox-backend/internal/logger"
)

func newSecurityLogger() (*logger.SecurityLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	return logger.NewSecurityLoggerWithHandler(slog.NewJSONHandler(&buf, nil)), &buf
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "success")
}

func serve(e *echo.Echo, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}
