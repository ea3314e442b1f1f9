package handler

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestValidator_ReportsJSONFieldNames(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&createLicenseRequest{BrokerServer: strings.Repeat("x", 129)})
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if he.Code != http.StatusUnprocessableEntity {
		t.Errorf("code = %d, want 422", he.Code)
	}
	msg := he.Message.(string)
	for _, want := range []string{"mt5_account_id is required", "broker_server must be at most 128 characters"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q does not mention %q", msg, want)
		}
	}
}

func TestValidator_AcceptsValidBody(t *testing.T) {
	v := NewValidator()
	if err := v.Validate(&investorResolveRequest{Login: "inv-1", Password: "pw"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
