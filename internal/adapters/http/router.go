package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/kirillkom/invoice-autofill/internal/adapters/actions"
	"github.com/kirillkom/invoice-autofill/internal/core/domain"
	"github.com/kirillkom/invoice-autofill/internal/core/form"
	"github.com/kirillkom/invoice-autofill/internal/observability/metrics"
)

// maxActionBody leaves room for a base64 encoded PDF of the fetch size limit.
const maxActionBody = 40 << 20

var errEmptyCredentials = domain.WrapError(domain.ErrInvalidInput, "login", errors.New("username and password are required"))

type ActionHandler interface {
	Handle(ctx context.Context, env actions.Envelope) (any, error)
}

type Options struct {
	SessionGateEnabled bool
	SessionSecret      string
	Metrics            *metrics.HTTPServerMetrics
}

type Router struct {
	actions ActionHandler
	schema  *form.Schema
	session *sessionGate
	metrics *metrics.HTTPServerMetrics
}

func NewRouter(handler ActionHandler, schema *form.Schema, opts Options) *Router {
	if schema == nil {
		schema = form.DefaultSchema()
	}
	return &Router{
		actions: handler,
		schema:  schema,
		session: newSessionGate(opts.SessionGateEnabled, opts.SessionSecret),
		metrics: opts.Metrics,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.Handle("POST /v1/actions", sessionGateMiddleware(rt.session, http.HandlerFunc(rt.dispatchAction)))
	mux.HandleFunc("GET /v1/schema", rt.listCurrencies)
	mux.HandleFunc("GET /v1/schema/{currency}", rt.currencyFields)
	mux.HandleFunc("POST /v1/session/login", rt.login)
	mux.HandleFunc("GET /v1/session", rt.sessionStatus)
	mux.HandleFunc("POST /v1/session/logout", rt.logout)

	var handler http.Handler = mux
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
		handler = rt.metrics.Middleware("api", handler)
	}
	handler = recoverMiddleware(handler)
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) dispatchAction(w http.ResponseWriter, r *http.Request) {
	var env actions.Envelope
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxActionBody)).Decode(&env); err != nil {
		writeJSON(w, http.StatusBadRequest, actions.ErrorResponse{Error: "invalid json", Kind: "invalid_input"})
		return
	}
	w.Header().Set(actionHeader, actions.ActionLabel(env.Action))

	result, err := rt.actions.Handle(r.Context(), env)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), actions.NewErrorResponse(err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) listCurrencies(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"currencies": rt.schema.Currencies()})
}

func (rt *Router) currencyFields(w http.ResponseWriter, r *http.Request) {
	currency := strings.ToUpper(strings.TrimSpace(r.PathValue("currency")))
	if !rt.schema.Supports(currency) {
		writeJSON(w, http.StatusNotFound, actions.ErrorResponse{Error: "unsupported currency " + currency, Kind: "invalid_input"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"currency": currency,
		"fields":   rt.schema.Render(currency),
	})
}

func (rt *Router) login(w http.ResponseWriter, r *http.Request) {
	if !rt.session.enabled {
		writeJSON(w, http.StatusNotFound, actions.ErrorResponse{Error: "session gate disabled", Kind: "invalid_input"})
		return
	}
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, actions.ErrorResponse{Error: "invalid json", Kind: "invalid_input"})
		return
	}
	if err := rt.session.login(w, r, req.Username, req.Password); err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), actions.NewErrorResponse(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"authenticated": true, "user": strings.TrimSpace(req.Username)})
}

func (rt *Router) sessionStatus(w http.ResponseWriter, r *http.Request) {
	if !rt.session.enabled {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": true, "gate": false})
		return
	}
	user := rt.session.user(r)
	writeJSON(w, http.StatusOK, map[string]any{"authenticated": user != "", "user": user, "gate": true})
}

func (rt *Router) logout(w http.ResponseWriter, r *http.Request) {
	if rt.session.enabled {
		if err := rt.session.logout(w, r); err != nil {
			writeJSON(w, http.StatusInternalServerError, actions.ErrorResponse{Error: err.Error(), Kind: "internal"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
