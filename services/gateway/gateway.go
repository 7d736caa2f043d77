package gateway

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vektah/gqlparser/v2/validator"

	"ryotgo/internal/apperror"
	"ryotgo/services/sessions"
)

// Handler serves a single /graphql endpoint, the way a hand-rolled
// (non-gqlgen) gqlparser consumer does: parse, validate against the
// loaded schema, then walk the operation's top-level fields itself
// rather than generating per-field execution code.
type Handler struct {
	schema   *ast.Schema
	resolver *Resolver
	sessions *sessions.Service
}

func NewHandler(resolver *Resolver, sessionsSvc *sessions.Service) *Handler {
	return &Handler{schema: loadSchema(), resolver: resolver, sessions: sessionsSvc}
}

type requestBody struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

type responseBody struct {
	Data   map[string]any `json:"data,omitempty"`
	Errors []gqlErrorOut  `json:"errors,omitempty"`
}

type gqlErrorOut struct {
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body requestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErrors(w, http.StatusBadRequest, "decoding request body: "+err.Error())
		return
	}
	if strings.TrimSpace(body.Query) == "" {
		writeErrors(w, http.StatusBadRequest, "query is required")
		return
	}

	doc, parseErr := parser.ParseQuery(&ast.Source{Name: "request", Input: body.Query})
	if parseErr != nil {
		writeErrors(w, http.StatusBadRequest, parseErr.Error())
		return
	}
	if errs := validator.Validate(h.schema, doc); len(errs) > 0 {
		writeErrors(w, http.StatusBadRequest, errs.Error())
		return
	}

	op := selectOperation(doc, body.OperationName)
	if op == nil {
		writeErrors(w, http.StatusBadRequest, "no matching operation found")
		return
	}

	caller := h.callerFromRequest(r)

	data := make(map[string]any, len(op.SelectionSet))
	var errs []gqlErrorOut
	for _, sel := range op.SelectionSet {
		field, ok := sel.(*ast.Field)
		if !ok {
			continue
		}
		result, err := h.resolveField(r, field, body.Variables, caller)
		key := field.Alias
		if key == "" {
			key = field.Name
		}
		if err != nil {
			errs = append(errs, gqlErrorOut{Message: err.Error(), Path: key})
			data[key] = nil
			continue
		}
		data[key] = result
	}

	status := http.StatusOK
	if len(errs) > 0 && len(data) == 0 {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, responseBody{Data: data, Errors: errs})
}

func (h *Handler) resolveField(r *http.Request, field *ast.Field, variables map[string]any, caller actor) (any, error) {
	fn := h.resolver.dispatch(field.Name)

	var action string
	var input map[string]any
	for _, arg := range field.Arguments {
		val, err := arg.Value.Value(variables)
		if err != nil {
			return nil, apperror.Wrap(apperror.KindInvalidInput, err, "resolving argument "+arg.Name)
		}
		switch arg.Name {
		case "action":
			s, _ := val.(string)
			action = s
		case "input":
			if m, ok := val.(map[string]any); ok {
				input = m
			}
		}
	}

	return fn(r.Context(), caller, action, input)
}

// selectOperation picks the operation to run the way a minimal executor
// must when it isn't generating per-operation code: by explicit name if
// the client sent one, otherwise the document's only operation.
func selectOperation(doc *ast.QueryDocument, name string) *ast.OperationDefinition {
	if name != "" {
		for _, op := range doc.Operations {
			if op.Name == name {
				return op
			}
		}
		return nil
	}
	if len(doc.Operations) == 1 {
		return doc.Operations[0]
	}
	return nil
}

// callerFromRequest optionally resolves the bearer token into an actor.
// Unlike api.AuthMiddleware this never rejects an unauthenticated
// request outright: userAuthentication's register/login fields must
// keep working on the same endpoint as everything else, so each
// resolver module decides for itself whether it requires auth.
func (h *Handler) callerFromRequest(r *http.Request) actor {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return actor{}
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return actor{}
	}
	claims, err := h.sessions.Validate(r.Context(), token)
	if err != nil {
		return actor{}
	}
	return actor{UserID: claims.UserID, IsAdmin: claims.IsAdmin, Authenticated: true}
}

func writeErrors(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, responseBody{Errors: []gqlErrorOut{{Message: message}}})
}

func writeJSON(w http.ResponseWriter, status int, body responseBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
