package web

import (
	_ "embed"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mischback/krachkiste/internal/events"
	"github.com/mischback/krachkiste/internal/logging"
	"github.com/mischback/krachkiste/internal/networking"
	"github.com/mischback/krachkiste/internal/nvstore"
)

// PathWifiConfig is where the credential form lives.
const PathWifiConfig = "/config/wifi"

// maxFormBody caps the accepted POST body. The form carries an SSID and a
// PSK, both percent-encoded; even worst-case encoding stays far below this.
const maxFormBody = 1024

//go:embed assets/wifi_config.html
var wifiConfigForm []byte

// Portal serves the WiFi configuration form. Submitted credentials are
// written to the persistent store and the networking controller is
// restarted to pick them up.
type Portal struct {
	bus     *events.Bus
	store   *nvstore.Store
	manager *networking.Manager
}

// NewPortal creates the portal. Call Routes to mount its handlers.
func NewPortal(bus *events.Bus, store *nvstore.Store, manager *networking.Manager) *Portal {
	return &Portal{
		bus:     bus,
		store:   store,
		manager: manager,
	}
}

// Routes mounts the portal's handlers on the given router.
func (p *Portal) Routes(r chi.Router) {
	r.Get(PathWifiConfig, p.handleForm)
	r.Post(PathWifiConfig, p.handleSubmit)
	r.Get(PathWifiConfig+"/ws", p.handleStatusFeed)
}

// handleForm serves the embedded HTML form.
func (p *Portal) handleForm(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(wifiConfigForm); err != nil {
		logging.Warn("Could not write configuration form",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
	}
	logging.LogHTTPResponse(r.RemoteAddr, http.StatusOK)
}

// handleSubmit accepts the posted credentials.
//
// The response is best-effort: on success the networking controller is
// restarted, which tears down the link the client is connected through, so
// the client may never see the 204.
func (p *Portal) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength <= 0 {
		http.Error(w, "missing request body", http.StatusBadRequest)
		logging.LogHTTPResponse(r.RemoteAddr, http.StatusBadRequest)
		return
	}
	if r.ContentLength > maxFormBody {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		logging.LogHTTPResponse(r.RemoteAddr, http.StatusRequestEntityTooLarge)
		return
	}

	body := make([]byte, r.ContentLength)
	if _, err := io.ReadFull(r.Body, body); err != nil {
		logging.Warn("Could not read form submission",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		http.Error(w, "could not read request body", http.StatusRequestTimeout)
		logging.LogHTTPResponse(r.RemoteAddr, http.StatusRequestTimeout)
		return
	}

	values := parseFormBody(string(body))

	ssid, ok := values["ssid"]
	if !ok {
		http.Error(w, "missing ssid field", http.StatusBadRequest)
		logging.LogHTTPResponse(r.RemoteAddr, http.StatusBadRequest)
		return
	}

	creds := networking.Credentials{
		SSID: ssid,
		PSK:  values["psk"],
	}
	if err := creds.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		logging.LogHTTPResponse(r.RemoteAddr, http.StatusBadRequest)
		return
	}

	if err := networking.SaveCredentials(p.store, creds); err != nil {
		logging.Error("Could not persist credentials", zap.Error(err))
		http.Error(w, "could not persist credentials", http.StatusInternalServerError)
		logging.LogHTTPResponse(r.RemoteAddr, http.StatusInternalServerError)
		return
	}

	logging.Info("Stored new WiFi credentials",
		zap.String("ssid", creds.SSID),
	)

	w.WriteHeader(http.StatusNoContent)
	logging.LogHTTPResponse(r.RemoteAddr, http.StatusNoContent)

	if err := p.manager.Restart(); err != nil {
		logging.Warn("Could not restart networking", zap.Error(err))
	}
}

// parseFormBody splits an application/x-www-form-urlencoded body into its
// key/value pairs and decodes them.
func parseFormBody(body string) map[string]string {
	values := make(map[string]string)

	for len(body) > 0 {
		pair := body
		if i := strings.IndexByte(body, '&'); i >= 0 {
			pair = body[:i]
			body = body[i+1:]
		} else {
			body = ""
		}
		if pair == "" {
			continue
		}

		key, value, _ := strings.Cut(pair, "=")
		values[decodeFormValue(key)] = decodeFormValue(value)
	}

	return values
}

// decodeFormValue percent-decodes a single form value. Malformed escapes
// (a trailing '%' or non-hex digits) are left literal instead of failing
// the whole submission.
func decodeFormValue(s string) string {
	buf := make([]byte, 0, len(s))

	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '+':
			buf = append(buf, ' ')
		case '%':
			if i+2 < len(s) {
				hi, okHi := unhex(s[i+1])
				lo, okLo := unhex(s[i+2])
				if okHi && okLo {
					buf = append(buf, hi<<4|lo)
					i += 2
					continue
				}
			}
			buf = append(buf, c)
		default:
			buf = append(buf, c)
		}
	}

	return string(buf)
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
