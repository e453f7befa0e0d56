package response

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteJSON(rec, http.StatusCreated, map[string]int64{"id": 7}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"id":7}` {
		t.Errorf("body = %s", got)
	}
}

func TestGeneralError(t *testing.T) {
	got := GeneralError(errors.New("boom"))
	if got.Status != StatusError || got.Error != "boom" {
		t.Errorf("GeneralError() = %+v", got)
	}
}

func TestValidationError(t *testing.T) {
	type input struct {
		FullName  string `json:"full_name" validate:"required"`
		Workplace string `json:"workplace,omitempty" validate:"max=3"`
	}

	tests := []struct {
		name string
		in   input
		want string
	}{
		{
			name: "required uses json name",
			in:   input{},
			want: "field full_name is required",
		},
		{
			name: "other tags are invalid",
			in:   input{FullName: "Ali", Workplace: "Baghdad"},
			want: "field workplace is invalid",
		},
	}

	v := Validator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.in)

			var errs validator.ValidationErrors
			if !errors.As(err, &errs) {
				t.Fatalf("Struct() error = %v, want ValidationErrors", err)
			}
			got := ValidationError(errs)
			if got.Status != StatusError || got.Error != tt.want {
				t.Errorf("ValidationError() = %+v, want error %q", got, tt.want)
			}
		})
	}
}
