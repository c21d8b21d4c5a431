package audit

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-checkout/internal/common"
	"github.com/noah-isme/toko-checkout/internal/obs"
)

// Recorder writes one audit line per back-office mutation. Reads pass
// through unrecorded.
type Recorder struct {
	Log zerolog.Logger
}

// Entry is the audit record for a single handled request.
type Entry struct {
	Actor     string
	Role      string
	Action    string
	Resource  string
	Method    string
	Status    int
	RequestID string
	IP        string
}

// Middleware records mutating requests after the handler has run.
func (rec Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !mutating(r.Method) {
			next.ServeHTTP(w, r)
			return
		}
		sr := obs.NewStatusRecorder(w)
		next.ServeHTTP(sr, r)
		rec.write(entryFor(r, sr.Status()))
	})
}

func (rec Recorder) write(e Entry) {
	evt := rec.Log.Info()
	if e.Status >= http.StatusBadRequest {
		evt = rec.Log.Warn()
	}
	evt.Str("actor", e.Actor).
		Str("role", e.Role).
		Str("action", e.Action).
		Str("resource", e.Resource).
		Str("method", e.Method).
		Int("status", e.Status).
		Str("request_id", e.RequestID).
		Str("remote_ip", e.IP).
		Msg("audit")
}

func entryFor(r *http.Request, status int) Entry {
	e := Entry{
		Actor:     "anonymous",
		Method:    r.Method,
		Status:    status,
		RequestID: middleware.GetReqID(r.Context()),
		IP:        common.ClientIP(r),
	}
	if id, ok := common.IdentityFrom(r.Context()); ok {
		e.Actor = id.ID
		e.Role = id.Role
	}
	route := r.URL.Path
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			route = p
		}
		e.Resource = resourceID(rc)
	}
	e.Action = actionFor(r.Method, route)
	return e
}

// actionFor derives a dotted action name such as "admin.coupons.update"
// from the route pattern.
func actionFor(method, route string) string {
	var parts []string
	for _, seg := range strings.Split(strings.Trim(route, "/"), "/") {
		if seg == "" || seg == "api" || seg == "v1" || strings.HasPrefix(seg, "{") {
			continue
		}
		parts = append(parts, seg)
	}
	if len(parts) == 0 {
		parts = append(parts, "root")
	}
	return strings.Join(parts, ".") + "." + verb(method)
}

func verb(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return strings.ToLower(method)
	}
}

func resourceID(rc *chi.Context) string {
	for i, key := range rc.URLParams.Keys {
		if key == "*" || i >= len(rc.URLParams.Values) {
			continue
		}
		if v := rc.URLParams.Values[i]; v != "" {
			return v
		}
	}
	return ""
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
