package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/sweetshop-backend/pkg/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type loginBody struct {
	Username string `json:"username" validate:"required"`
	Quantity *int   `json:"quantity" validate:"required,gte=0"`
}

func TestDecodeJSONBody(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		wantErr bool
		field   string
	}{
		{name: "ok", body: `{"username":"admin","quantity":0}`},
		{name: "unknown field", body: `{"username":"admin","quantity":1,"role":"admin"}`, wantErr: true},
		{name: "missing", body: `{"quantity":1}`, wantErr: true, field: "username"},
		{name: "negative", body: `{"username":"a","quantity":-1}`, wantErr: true, field: "quantity"},
		{name: "trailing", body: `{"username":"a","quantity":1}{}`, wantErr: true},
		{name: "malformed", body: `{"username":`, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var dest loginBody
			err := DecodeJSONBody(r, &dest)
			if !tc.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if tc.field != "" {
				details, ok := typed.Details().(map[string]string)
				if !ok || details[tc.field] == "" {
					t.Fatalf("expected detail for %s, got %v", tc.field, typed.Details())
				}
			}
		})
	}
}

type priceBody struct {
	Price *decimal.Decimal `json:"price" validate:"required,money"`
}

func TestDecodeJSONBodyMoney(t *testing.T) {
	for body, ok := range map[string]bool{
		`{"price":"2.50"}`:  true,
		`{"price":0}`:       true,
		`{"price":"-1.00"}`: false,
		`{"price":"1.999"}`: false,
		`{}`:                false,
	} {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		var dest priceBody
		err := DecodeJSONBody(r, &dest)
		if ok && err != nil {
			t.Fatalf("%s: unexpected error %v", body, err)
		}
		if !ok && !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("%s: expected validation error, got %v", body, err)
		}
	}
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("sweetId", id.String())
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

	got, err := ParseUUIDParam(r, "sweetId")
	if err != nil || got != id {
		t.Fatalf("expected %s, got %s (%v)", id, got, err)
	}

	rctx.URLParams = chi.RouteParams{}
	rctx.URLParams.Add("sweetId", "nope")
	if _, err := ParseUUIDParam(r, "sweetId"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseQueryString(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?search=%20choc%20", nil)
	if got, err := ParseQueryString(r, "search"); err != nil || got != "choc" {
		t.Fatalf("unexpected %q %v", got, err)
	}
	r = httptest.NewRequest(http.MethodGet, "/?search="+strings.Repeat("a", 101), nil)
	if _, err := ParseQueryString(r, "search"); err == nil {
		t.Fatal("expected error for long query")
	}
}

func TestBearerToken(t *testing.T) {
	for header, want := range map[string]string{
		"Bearer abc": "abc",
		"bearer abc": "abc",
		"abc":        "abc",
	} {
		got, err := BearerToken(header)
		if err != nil || got != want {
			t.Fatalf("%q: expected %q, got %q (%v)", header, want, got, err)
		}
	}
	for _, header := range []string{"", "Bearer ", "Bearer a b"} {
		if _, err := BearerToken(header); err == nil {
			t.Fatalf("%q: expected error", header)
		}
	}
}

func TestSanitizeSearch(t *testing.T) {
	cases := map[string]string{
		"  gummy   bears ":  "gummy bears",
		"choc\tolate\x00": "choc olate",
		"":                  "",
	}
	for in, want := range cases {
		if got := SanitizeSearch(in, 0); got != want {
			t.Fatalf("%q: expected %q, got %q", in, want, got)
		}
	}
	if got := SanitizeSearch("crème brûlée", 5); got != "crème" {
		t.Fatalf("expected rune-safe truncation, got %q", got)
	}
}
