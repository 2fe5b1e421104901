package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/playperu/brainlab/internal/catalog"
	"github.com/playperu/brainlab/internal/session"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse maps each checked dependency to its status.
type HealthResponse map[string]struct {
	Status string `json:"status"`
}

type sessionPath struct {
	ID string `path:"id"`
}

type entityPath struct {
	EntityName string `path:"name"`
}

type deltaOp struct {
	sessionPath
	DeltaRequest
}

type modeOp struct {
	sessionPath
	ModeRequest
}

type selectOp struct {
	sessionPath
	SelectRequest
}

type putEntityOp struct {
	entityPath
	catalog.Doc
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Brainlab API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the brain anatomy explorer: action potential simulator and anatomy quiz.")

	add := func(method, path, summary, desc string, req any, resps ...func(openapi.OperationContext)) {
		op, _ := r.NewOperationContext(method, path)
		op.SetSummary(summary)
		op.SetDescription(desc)
		if req != nil {
			op.AddReqStructure(req)
		}
		for _, fn := range resps {
			fn(op)
		}
		_ = r.AddOperation(op)
	}
	resp := func(v any, status int, opts ...openapi.ContentOption) func(openapi.OperationContext) {
		return func(op openapi.OperationContext) {
			op.AddRespStructure(v, append([]openapi.ContentOption{openapi.WithHTTPStatus(status)}, opts...)...)
		}
	}
	notFound := resp(ErrorResponse{}, http.StatusNotFound)
	badRequest := resp(ErrorResponse{}, http.StatusBadRequest)
	unauthorized := resp(ErrorResponse{}, http.StatusUnauthorized)

	add(http.MethodGet, "/healthz", "Health check",
		"Returns the health status of backend dependencies.", nil,
		resp(HealthResponse{}, http.StatusOK), resp(HealthResponse{}, http.StatusServiceUnavailable))

	add(http.MethodGet, "/api/entities", "List entities",
		"Returns every selectable entity of the brain model.", nil,
		resp([]catalog.Doc{}, http.StatusOK))
	add(http.MethodGet, "/api/entities/{name}", "Get entity",
		"Returns one selectable entity.", entityPath{},
		resp(catalog.Doc{}, http.StatusOK), notFound)
	add(http.MethodPut, "/api/admin/entities/{name}", "Put entity",
		"Creates or replaces an entity. Requires basic auth. New sessions see the change.", putEntityOp{},
		resp(catalog.Doc{}, http.StatusOK), resp(catalog.Doc{}, http.StatusCreated), badRequest, unauthorized)
	add(http.MethodDelete, "/api/admin/entities/{name}", "Delete entity",
		"Removes an entity. Requires basic auth.", entityPath{},
		resp(nil, http.StatusNoContent), notFound, unauthorized)

	add(http.MethodPost, "/api/sessions", "Create session",
		"Starts a paused simulator and a quiz in free exploration over the current catalog.", nil,
		resp(session.Snapshot{}, http.StatusCreated))
	add(http.MethodGet, "/api/sessions/{id}", "Get session",
		"Returns the simulator clock, channels, pumps, ion counts and quiz state.", sessionPath{},
		resp(session.Snapshot{}, http.StatusOK), notFound)
	add(http.MethodDelete, "/api/sessions/{id}", "Delete session",
		"Ends a session and closes its event streams.", sessionPath{},
		resp(nil, http.StatusNoContent), notFound)

	add(http.MethodPost, "/api/sessions/{id}/tick", "Advance frame",
		"Advances deferred quiz callbacks and the simulator by delta seconds.", deltaOp{},
		resp(CommandResult{}, http.StatusOK), badRequest, notFound)
	add(http.MethodPost, "/api/sessions/{id}/sim/step", "Step simulator",
		"Advances a paused simulator by one frame of delta seconds.", deltaOp{},
		resp(CommandResult{}, http.StatusOK), badRequest, notFound)
	for _, c := range []struct{ path, summary, desc string }{
		{"/api/sessions/{id}/sim/play", "Play simulator", "Resumes simulation time."},
		{"/api/sessions/{id}/sim/pause", "Pause simulator", "Halts simulation time; animations settle."},
		{"/api/sessions/{id}/sim/reset", "Reset simulator", "Returns to the resting state with all channels closed."},
	} {
		add(http.MethodPost, c.path, c.summary, c.desc, sessionPath{},
			resp(CommandResult{}, http.StatusOK), notFound)
	}
	add(http.MethodPost, "/api/sessions/{id}/quiz/mode", "Start quiz mode",
		"Enters free_explore, lobe_id, structure_match or nerve_quiz.", modeOp{},
		resp(CommandResult{}, http.StatusOK), badRequest, notFound)
	add(http.MethodPost, "/api/sessions/{id}/select", "Select entity",
		"Routes a click on the named entity into the quiz.", selectOp{},
		resp(CommandResult{}, http.StatusOK), notFound)

	add(http.MethodGet, "/api/sessions/{id}/events", "SSE event stream",
		"Server-Sent Events stream of simulator and quiz notifications.", sessionPath{},
		resp(nil, http.StatusOK, openapi.WithContentType("text/event-stream")), notFound)
	add(http.MethodGet, "/api/sessions/{id}/ws", "WebSocket stream",
		"Upgrades to a WebSocket that accepts commands and pushes notifications.", sessionPath{},
		resp(nil, http.StatusSwitchingProtocols, openapi.WithContentType("application/json")), notFound)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
