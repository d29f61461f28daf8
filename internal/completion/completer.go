package completion

import (
	"context"

	"github.com/lurebox/internal/persona"
	"github.com/lurebox/pkg/models"
)

// Request carries everything the text-completion collaborator may see
// for one turn: the directive, the bound persona, the recent history
// window, and the inbound message.
type Request struct {
	Directive  models.Directive
	Persona    *persona.Profile
	History    []models.Turn
	Inbound    string
	Suspicious bool
}

// Completer is the opaque text-completion collaborator. The engine
// never inspects how the reply was generated.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}
