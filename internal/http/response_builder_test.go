package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTMXResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusOK).
		Body([]byte("test")).
		Write(w)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != "test" {
		t.Errorf("Body = %q, want %q", w.Body.String(), "test")
	}
	if w.Header().Get("HX-Trigger") != "" {
		t.Errorf("HX-Trigger must be absent without triggers")
	}
}

func TestHTMXResponseBuilder_Triggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerDatasetReplaced(3, 42, []int{2023, 2024}).
		TriggerSuccessNotification("Loaded").
		Write(w)

	trigger := w.Header().Get("HX-Trigger")
	expectedParts := []string{
		`"dataset:replaced"`,
		`"version":3`,
		`"rows":42`,
		`"years":[2023,2024]`,
		`"show-notification"`,
		`"type":"success"`,
		`"duration":3000`,
	}
	for _, part := range expectedParts {
		if !strings.Contains(trigger, part) {
			t.Errorf("HX-Trigger missing %s: %s", part, trigger)
		}
	}
}

func TestTriggerDatasetReplaced_NilYears(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().TriggerDatasetReplaced(1, 0, nil).Write(w)

	if !strings.Contains(w.Header().Get("HX-Trigger"), `"years":[]`) {
		t.Errorf("nil years must encode as an empty list: %s", w.Header().Get("HX-Trigger"))
	}
}

func TestHTMXResponseBuilder_CustomHeader(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Header("X-Custom", "value").
		Status(http.StatusCreated).
		Write(w)

	if w.Header().Get("X-Custom") != "value" {
		t.Errorf("Custom header not set")
	}
	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		builder    *HTMXResponseBuilder
		wantStatus int
		wantBody   string
	}{
		{
			name:       "bad request",
			builder:    BadRequestError("Invalid input"),
			wantStatus: http.StatusBadRequest,
			wantBody:   `<div class="error" role="alert">Invalid input</div>`,
		},
		{
			name:       "unprocessable entity",
			builder:    UnprocessableEntityError("missing required column(s): Amount (EGP)"),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `<div class="error" role="alert">missing required column(s): Amount (EGP)</div>`,
		},
		{
			name:       "internal server error",
			builder:    InternalServerError("Something broke"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `<div class="error" role="alert">Something broke</div>`,
		},
		{
			name:       "not found",
			builder:    NotFoundError("no transactions for 1999"),
			wantStatus: http.StatusNotFound,
			wantBody:   `<div class="error" role="alert">no transactions for 1999</div>`,
		},
		{
			name:       "too many requests",
			builder:    TooManyRequestsError("slow down"),
			wantStatus: http.StatusTooManyRequests,
			wantBody:   `<div class="error" role="alert">slow down</div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantStatus)
			}
			if w.Body.String() != tt.wantBody {
				t.Errorf("Body = %q, want %q", w.Body.String(), tt.wantBody)
			}
			if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
				t.Errorf("Content-Type = %q", ct)
			}
		})
	}
}

func TestErrorResponse_EscapesHTML(t *testing.T) {
	w := httptest.NewRecorder()

	UnprocessableEntityError("<script>alert('xss')</script>.csv").Write(w)

	body := w.Body.String()
	if strings.Contains(body, "<script>") {
		t.Error("Error response did not escape HTML")
	}
	if !strings.Contains(body, "&lt;script&gt;") {
		t.Error("Error response did not properly escape HTML entities")
	}
}

func TestNotificationTypes(t *testing.T) {
	tests := []struct {
		build func(*HTMXResponseBuilder) *HTMXResponseBuilder
		want  string
	}{
		{func(b *HTMXResponseBuilder) *HTMXResponseBuilder { return b.TriggerSuccessNotification("ok") }, `"type":"success"`},
		{func(b *HTMXResponseBuilder) *HTMXResponseBuilder { return b.TriggerErrorNotification("bad") }, `"duration":5000`},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		tt.build(NewHTMXResponse()).Write(w)

		trigger := w.Header().Get("HX-Trigger")
		if !strings.Contains(trigger, tt.want) {
			t.Errorf("%s not found in trigger: %s", tt.want, trigger)
		}
	}
}
