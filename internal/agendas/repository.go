package agendas

import (
	"context"
	"fmt"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository persists agenda configurations.
type Repository interface {
	Create(ctx context.Context, agenda *Agenda) (*Agenda, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Agenda, error)
	GetByKey(ctx context.Context, key string) (*Agenda, error)
	List(ctx context.Context) ([]*Agenda, error)
	Update(ctx context.Context, agenda *Agenda) (*Agenda, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// NotFoundError is returned when a record is missing.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// NewAgendaRepository creates a repository for Agenda entities.
func NewAgendaRepository(db *bun.DB) repository.Repository[*Agenda] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Agenda]{
		NewRecord: func() *Agenda { return &Agenda{} },
		GetID: func(a *Agenda) uuid.UUID {
			return a.ID
		},
		SetID: func(a *Agenda, id uuid.UUID) {
			a.ID = id
		},
		GetIdentifier: func() string {
			return "agenda_key"
		},
		GetIdentifierValue: func(a *Agenda) string {
			return a.Key
		},
	})
}
