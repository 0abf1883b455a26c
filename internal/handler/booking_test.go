package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func patchBooking(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPatch, "/v1/bookings/7", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("7")

	// the handler rejects half-open bulk ranges before touching the service
	h := &BookingHandler{}
	if err := h.Update(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func TestUpdateBulkRangeRequiresBothEnds(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"start only", `{"start":"2025-07-20"}`},
		{"end only", `{"end":"2025-07-22"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := patchBooking(t, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}
