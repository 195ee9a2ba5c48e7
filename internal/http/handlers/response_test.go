package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/orion-relay/internal/services"
)

func Test_fail_500_LogsAndBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	// capture logs from LoggerFrom(c)
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	// simulate RequestID + request-scoped logger
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-500")
		c.Set("logger", &logger)
		c.Next()
	})

	r.GET("/boom", func(c *gin.Context) {
		fail(c, http.StatusInternalServerError, "internal_error", "kaboom")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.Success || resp.RequestID != "rid-500" || resp.Code != "internal_error" || resp.Message != "kaboom" {
		t.Fatalf("unexpected body: %+v", resp)
	}
	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Fatalf("expected error log, got: %s", buf.String())
	}
}

func Test_Fail_404_And_ok(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-404")
		c.Next()
	})
	r.GET("/missing", func(c *gin.Context) {
		Fail(c, http.StatusNotFound, "not_found", "nope")
	})
	r.GET("/ok", func(c *gin.Context) {
		ok(c, http.StatusCreated, OKResponse{Success: true})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("json 404: %v", err)
	}
	if er.RequestID != "rid-404" || er.Code != "not_found" || er.Message != "nope" {
		t.Fatalf("unexpected 404 body: %+v", er)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if w.Code != http.StatusCreated || strings.TrimSpace(w.Body.String()) != `{"success":true}` {
		t.Fatalf("ok: code=%d body=%s", w.Code, w.Body.String())
	}
}

func Test_failErr_MapsKinds(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err    error
		status int
		code   string
		msg    string
	}{
		{services.Invalidf("hub is required"), http.StatusBadRequest, ErrCodeBadRequest, "hub is required"},
		{services.ErrDuplicateProduct, http.StatusConflict, ErrCodeConflict, services.ErrDuplicateProduct.Error()},
		{services.ErrProductNotFound, http.StatusNotFound, ErrCodeNotFound, "product not found"},
		{services.ErrNoLink, http.StatusUnprocessableEntity, ErrCodeNotLinked, services.ErrNoLink.Error()},
		{fmt.Errorf("%w: dm closed", services.ErrDelivery), http.StatusBadGateway, ErrCodeDeliveryFailed, "delivery failed: dm closed"},
		{fmt.Errorf("%w: 503", services.ErrUpstream), http.StatusBadGateway, ErrCodeUpstreamFailed, "upstream failed: 503"},
		{errors.New("sql: connection refused"), http.StatusInternalServerError, ErrCodeInternal, "internal error"},
	}
	for _, tc := range cases {
		r := gin.New()
		r.GET("/x", func(c *gin.Context) { failErr(c, tc.err) })
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

		var er ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
			t.Fatalf("json: %v", err)
		}
		if w.Code != tc.status || er.Code != tc.code || er.Message != tc.msg {
			t.Fatalf("failErr(%v) = %d %s %q; want %d %s %q", tc.err, w.Code, er.Code, er.Message, tc.status, tc.code, tc.msg)
		}
	}
}

func Test_bindJSON_TooLargeAndMalformed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 16)
		c.Next()
	})
	r.POST("/x", func(c *gin.Context) {
		var v map[string]any
		if bindJSON(c, &v, "invalid JSON body") {
			ok(c, http.StatusOK, OKResponse{Success: true})
		}
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"fileData":"`+strings.Repeat("A", 64)+`"}`)))
	if w.Code != http.StatusRequestEntityTooLarge || !strings.Contains(w.Body.String(), ErrCodePayloadTooLarge) {
		t.Fatalf("oversized: code=%d body=%s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{`)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed: code=%d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"a":1}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("valid: code=%d", w.Code)
	}
}
