package web

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/mischback/krachkiste/internal/config"
	"github.com/mischback/krachkiste/internal/events"
	"github.com/mischback/krachkiste/internal/networking"
	"github.com/mischback/krachkiste/internal/nvstore"
	"github.com/mischback/krachkiste/internal/radio"
)

func newTestPortal(t *testing.T) (*Portal, *nvstore.Store, http.Handler) {
	t.Helper()

	store, err := nvstore.Open(filepath.Join(t.TempDir(), "store.yaml"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}

	bus := events.NewBus()
	t.Cleanup(bus.Close)

	manager := networking.New(config.Default(), bus, store, radio.NewSim(bus))
	portal := NewPortal(bus, store, manager)

	r := chi.NewRouter()
	portal.Routes(r)
	return portal, store, r
}

func TestFormIsServed(t *testing.T) {
	_, _, handler := newTestPortal(t)

	req := httptest.NewRequest(http.MethodGet, PathWifiConfig, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET %s = %d, want 200", PathWifiConfig, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	if !strings.Contains(rec.Body.String(), `name="ssid"`) {
		t.Error("form body does not contain an ssid input")
	}
}

func postForm(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, PathWifiConfig, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestSubmitStoresDecodedCredentials(t *testing.T) {
	_, store, handler := newTestPortal(t)

	rec := postForm(t, handler, "ssid=My%20Network&psk=secret123")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("POST = %d, want 204, body: %s", rec.Code, rec.Body.String())
	}

	creds, err := networking.LoadCredentials(store)
	if err != nil {
		t.Fatalf("loading stored credentials: %v", err)
	}
	if creds.SSID != "My Network" {
		t.Errorf("stored ssid = %q, want %q", creds.SSID, "My Network")
	}
	if creds.PSK != "secret123" {
		t.Errorf("stored psk = %q, want %q", creds.PSK, "secret123")
	}
}

func TestSubmitRoundTrip(t *testing.T) {
	_, store, handler := newTestPortal(t)

	// Every reserved byte percent-encoded; the stored values must match the
	// decoded input exactly.
	rec := postForm(t, handler, "ssid=caf%C3%A9+net%26more&psk=p%40ss+w%3Drd%2B1")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("POST = %d, want 204", rec.Code)
	}

	creds, err := networking.LoadCredentials(store)
	if err != nil {
		t.Fatalf("loading stored credentials: %v", err)
	}
	if want := "café net&more"; creds.SSID != want {
		t.Errorf("stored ssid = %q, want %q", creds.SSID, want)
	}
	if want := "p@ss w=rd+1"; creds.PSK != want {
		t.Errorf("stored psk = %q, want %q", creds.PSK, want)
	}
}

func TestSubmitRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"empty body", "", http.StatusBadRequest},
		{"missing ssid", "psk=secret123", http.StatusBadRequest},
		{"empty ssid", "ssid=&psk=secret123", http.StatusBadRequest},
		{"overlong ssid", "ssid=" + strings.Repeat("a", 33) + "&psk=secret123", http.StatusBadRequest},
		{"short psk", "ssid=homenet&psk=short", http.StatusBadRequest},
		{"overlong psk", "ssid=homenet&psk=" + strings.Repeat("a", 65), http.StatusBadRequest},
		{"oversized body", "ssid=homenet&psk=" + strings.Repeat("a", 2048), http.StatusRequestEntityTooLarge},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, handler := newTestPortal(t)
			rec := postForm(t, handler, tc.body)
			if rec.Code != tc.want {
				t.Errorf("POST %q = %d, want %d", tc.body, rec.Code, tc.want)
			}
		})
	}
}

func TestSubmitAcceptsOpenNetwork(t *testing.T) {
	_, store, handler := newTestPortal(t)

	rec := postForm(t, handler, "ssid=opennet&psk=")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("POST = %d, want 204", rec.Code)
	}

	creds, err := networking.LoadCredentials(store)
	if err != nil {
		t.Fatalf("loading stored credentials: %v", err)
	}
	if creds.PSK != "" {
		t.Errorf("stored psk = %q, want empty", creds.PSK)
	}
}

func TestDecodeFormValue(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"plain", "plain"},
		{"My%20Network", "My Network"},
		{"a+b", "a b"},
		{"%41%42%43", "ABC"},
		{"%e2%82%ac", "€"},
		// Malformed escapes stay literal.
		{"100%", "100%"},
		{"50%2", "50%2"},
		{"%zz", "%zz"},
		{"%2q", "%2q"},
		{"%%34", "%4"},
	}

	for _, tc := range tests {
		if got := decodeFormValue(tc.in); got != tc.want {
			t.Errorf("decodeFormValue(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseFormBody(t *testing.T) {
	values := parseFormBody("ssid=My%20Network&psk=secret123&&stray")
	if got := values["ssid"]; got != "My Network" {
		t.Errorf("ssid = %q, want %q", got, "My Network")
	}
	if got := values["psk"]; got != "secret123" {
		t.Errorf("psk = %q, want %q", got, "secret123")
	}
	if _, ok := values["stray"]; !ok {
		t.Error("value-less pair was dropped")
	}
}
