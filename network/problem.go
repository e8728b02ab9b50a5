package network

import (
	"fmt"
	"net/http"

	"golang.org/x/xerrors"

	"github.com/agora-gov/agora/base"
	"github.com/agora-gov/agora/util"
)

const (
	ProblemMimetype    = "application/problem+json; charset=utf-8"
	ProblemNamespace   = "https://github.com/agora-gov/agora/problems"
	DefaultProblemType = "others"
)

// Problem implements "Problem Details for HTTP
// APIs"<https://tools.ietf.org/html/rfc7807>.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
}

func NewProblem(t, title string) Problem {
	return Problem{Type: makeProblemNamespace(t), Title: title}
}

func NewProblemFromError(err error) Problem {
	return Problem{
		Type:   makeProblemNamespace(problemType(err)),
		Title:  fmt.Sprintf("%s", err),
		Detail: fmt.Sprintf("%+v", err),
	}
}

func makeProblemNamespace(t string) string {
	return fmt.Sprintf("%s/%s", ProblemNamespace, t)
}

func problemType(err error) string {
	switch {
	case xerrors.Is(err, base.ValidationError):
		return "validation"
	case xerrors.Is(err, base.AuthorizationError):
		return "authorization"
	case xerrors.Is(err, base.StateError):
		return "state"
	case xerrors.Is(err, base.ExternalCallError):
		return "external-call"
	default:
		return DefaultProblemType
	}
}

// StatusFromError maps the governance error taxonomy to HTTP status codes.
func StatusFromError(err error) int {
	switch {
	case xerrors.Is(err, base.ValidationError):
		return http.StatusBadRequest
	case xerrors.Is(err, base.AuthorizationError):
		return http.StatusForbidden
	case xerrors.Is(err, base.StateError):
		return http.StatusConflict
	case xerrors.Is(err, base.ExternalCallError):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func HTTPError(w http.ResponseWriter, status int) {
	WriteProblem(w, status, NewProblem(DefaultProblemType, http.StatusText(status)))
}

func WriteProblemFromError(w http.ResponseWriter, err error) {
	WriteProblem(w, StatusFromError(err), NewProblemFromError(err))
}

func WriteProblem(w http.ResponseWriter, status int, pr Problem) {
	b, err := util.JSONMarshal(pr)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError),
			http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", ProblemMimetype)
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
