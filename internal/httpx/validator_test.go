package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type testCheckout struct {
	Email  string `json:"email" validate:"required,contains=@,max=254"`
	Status string `json:"status" validate:"omitempty,oneof=success cancelled"`
}

func TestValidateStruct_ValidInput(t *testing.T) {
	if errs := ValidateStruct(testCheckout{Email: "a@b.com", Status: "success"}); len(errs) != 0 {
		t.Errorf("Expected no validation errors, got %v", errs)
	}
}

func TestValidateStruct_UsesJSONNames(t *testing.T) {
	errs := ValidateStruct(testCheckout{})
	if len(errs) != 1 {
		t.Fatalf("Expected one error, got %v", errs)
	}
	if errs[0].Field != "email" || !strings.Contains(errs[0].Message, "required") {
		t.Errorf("unexpected error %+v", errs[0])
	}
}

func TestValidateStruct_EmailNeedsAt(t *testing.T) {
	errs := ValidateStruct(testCheckout{Email: "not-an-email"})
	if len(errs) != 1 || errs[0].Message != "Please enter a valid email address" {
		t.Errorf("unexpected errors %v", errs)
	}
}

func TestValidateStruct_OneOf(t *testing.T) {
	errs := ValidateStruct(testCheckout{Email: "a@b.com", Status: "maybe"})
	if len(errs) != 1 || errs[0].Field != "status" {
		t.Errorf("unexpected errors %v", errs)
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		ok     bool
		status int
	}{
		{"valid", `{"email":"a@b.com"}`, true, http.StatusOK},
		{"malformed", `{"email":`, false, http.StatusBadRequest},
		{"unknown field", `{"email":"a@b.com","extra":1}`, false, http.StatusBadRequest},
		{"invalid", `{"email":"nope"}`, false, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			var dst testCheckout
			ok := DecodeJSON(w, r, &dst)
			if ok != tt.ok {
				t.Fatalf("DecodeJSON ok = %v, want %v", ok, tt.ok)
			}
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}
