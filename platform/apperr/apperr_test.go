package apperr

import (
	"net/http"
	"testing"
)

func TestErrorIncludesOp(t *testing.T) {
	err := NotFound("lead not found").WithOp("leads.GetByID")

	if err.Error() != "leads.GetByID: lead not found" {
		t.Fatalf("unexpected error string: %q", err.Error())
	}
	if !Is(err, KindNotFound) {
		t.Fatal("op must not change the error kind")
	}
}

func TestWithDetailsCarriedToResponse(t *testing.T) {
	err := Validation("validation failed").WithDetails("email must be valid")

	if err.Details != "email must be valid" {
		t.Fatalf("unexpected details: %v", err.Details)
	}
	if err.HTTPStatus() != http.StatusBadRequest {
		t.Fatalf("expected 400 for validation errors, got %d", err.HTTPStatus())
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindNotFound, http.StatusNotFound},
		{KindValidation, http.StatusBadRequest},
		{KindBadRequest, http.StatusBadRequest},
		{KindInternal, http.StatusInternalServerError},
		{KindUnimplemented, http.StatusNotImplemented},
	}
	for _, tc := range cases {
		if got := New(tc.kind, "x").HTTPStatus(); got != tc.want {
			t.Fatalf("kind %d: expected %d, got %d", tc.kind, tc.want, got)
		}
	}
}
