package agendas_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-openagenda/internal/agendas"
	"github.com/goliatone/go-openagenda/internal/identity"
	"github.com/goliatone/go-openagenda/internal/remote"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)
}

func newService() agendas.Service {
	return agendas.NewService(agendas.NewMemoryRepository(), agendas.WithClock(fixedClock))
}

func TestServiceCreateAssignsDeterministicID(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	agenda, err := svc.Create(ctx, agendas.CreateAgendaRequest{
		Key:              "node-12",
		UID:              "5213",
		EventsPerPage:    20,
		Language:         "fr-FR",
		Current:          true,
		GeneralPreFilter: "https://openagenda.com/agendas/5213?thematique[]=12&city=Lyon",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if agenda.ID != identity.AgendaUUID("node-12") {
		t.Fatalf("expected deterministic id, got %s", agenda.ID)
	}
	if agenda.Language != "fr" || agenda.PreviewOrder != agendas.PreviewOrderDefault {
		t.Fatalf("expected normalized defaults, got %+v", agenda)
	}
	if !agenda.CreatedAt.Equal(fixedClock()) {
		t.Fatalf("expected clock timestamp, got %v", agenda.CreatedAt)
	}

	pre := agenda.PreFilters()
	if pre["city"].First() != "Lyon" || !pre["thematique"].List {
		t.Fatalf("unexpected pre-filters %v", pre)
	}
	if !agenda.HidesAdditionalFieldFilter() {
		t.Fatalf("expected thematique pre-filter to hide the additional field filter")
	}
	if agenda.LongDescriptionFormat() != remote.FormatHTML {
		t.Fatalf("expected HTML format, got %s", agenda.LongDescriptionFormat())
	}

	byKey, err := svc.GetByKey(ctx, " node-12 ")
	if err != nil || byKey.ID != agenda.ID {
		t.Fatalf("GetByKey: %v %+v", err, byKey)
	}

	if _, err := svc.Create(ctx, agendas.CreateAgendaRequest{Key: "node-12", UID: "1"}); !errors.Is(err, agendas.ErrAgendaKeyExists) {
		t.Fatalf("expected ErrAgendaKeyExists, got %v", err)
	}
}

func TestServiceValidation(t *testing.T) {
	size := -1
	cases := map[string]agendas.CreateAgendaRequest{
		"missing uid":          {Key: "a"},
		"invalid uid":          {Key: "a", UID: "not a uid!"},
		"page too large":       {Key: "a", UID: "1", EventsPerPage: agendas.MaxEventsPerPage + 1},
		"unknown language":     {Key: "a", UID: "1", Language: "pt"},
		"negative preview":     {Key: "a", UID: "1", PreviewSize: &size},
		"unknown order":        {Key: "a", UID: "1", PreviewOrder: "random"},
		"custom without query": {Key: "a", UID: "1", PreviewOrder: agendas.PreviewOrderCustomFilter},
		"broken pre-filter":    {Key: "a", UID: "1", GeneralPreFilter: "a=%zz"},
		"unknown sort":         {Key: "a", UID: "1", Sort: "title.asc"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := newService().Create(context.Background(), req); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestServiceUpdateAndDelete(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	created, err := svc.Create(ctx, agendas.CreateAgendaRequest{Key: "node-1", UID: "42"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	preview := 6
	updated, err := svc.Update(ctx, agendas.UpdateAgendaRequest{
		ID:              created.ID,
		UID:             "43",
		EventsPerPage:   12,
		IncludeEmbedded: true,
		PreviewSize:     &preview,
		PreviewOrder:    agendas.PreviewOrderFeatured,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.UID != "43" || updated.PreviewLimit(3) != 6 || updated.Key != "node-1" {
		t.Fatalf("unexpected update %+v", updated)
	}
	if updated.LongDescriptionFormat() != remote.FormatHTMLWithEmbeds {
		t.Fatalf("expected embeds format")
	}
	if updated.ContentLanguage() != "" {
		t.Fatalf("expected default language to follow the page, got %q", updated.ContentLanguage())
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var notFound *agendas.NotFoundError
	if _, err := svc.Get(ctx, created.ID); !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if _, err := svc.Update(ctx, agendas.UpdateAgendaRequest{}); !errors.Is(err, agendas.ErrAgendaIDRequired) {
		t.Fatalf("expected ErrAgendaIDRequired, got %v", err)
	}
}

func TestPreviewLimitFallback(t *testing.T) {
	var agenda agendas.Agenda
	if agenda.PreviewLimit(3) != 3 {
		t.Fatalf("expected fallback preview size")
	}
	zero := 0
	agenda.PreviewSize = &zero
	if agenda.PreviewLimit(3) != 0 {
		t.Fatalf("expected explicit zero to mean unlimited")
	}
}
