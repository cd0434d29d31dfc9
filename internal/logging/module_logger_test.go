package logging

import (
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-openagenda/pkg/interfaces"
)

type recordingLogger struct {
	fields   []map[string]any
	contexts []context.Context
}

func (r *recordingLogger) Trace(string, ...any) {}
func (r *recordingLogger) Debug(string, ...any) {}
func (r *recordingLogger) Info(string, ...any)  {}
func (r *recordingLogger) Warn(string, ...any)  {}
func (r *recordingLogger) Error(string, ...any) {}
func (r *recordingLogger) Fatal(string, ...any) {}

func (r *recordingLogger) WithFields(fields map[string]any) interfaces.Logger {
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	r.fields = append(r.fields, copied)
	return r
}

func (r *recordingLogger) WithContext(ctx context.Context) interfaces.Logger {
	r.contexts = append(r.contexts, ctx)
	return r
}

type stubProvider struct {
	requested []string
	logger    interfaces.Logger
}

func (s *stubProvider) GetLogger(name string) interfaces.Logger {
	s.requested = append(s.requested, name)
	return s.logger
}

func TestModuleLoggerFallsBackToNoOp(t *testing.T) {
	logger := ModuleLogger(nil, "openagenda.test")
	if _, ok := logger.(noopLogger); !ok {
		t.Fatalf("expected noopLogger fallback, got %T", logger)
	}
	logger = logger.WithContext(context.Background())
	logger.Debug("noop")
}

func TestModuleLoggerUsesProviderAndAnnotatesFields(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	_ = RemoteLogger(provider)

	if len(provider.requested) != 1 || provider.requested[0] != remoteModule {
		t.Fatalf("expected module %s, got %v", remoteModule, provider.requested)
	}
	if len(rec.fields) != 1 || rec.fields[0]["module"] != remoteModule {
		t.Fatalf("expected module field %s, got %v", remoteModule, rec.fields)
	}
}

func TestModuleLoggerDefaultsToRootModule(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	_ = ModuleLogger(provider, "")

	if provider.requested[0] != rootModule {
		t.Fatalf("expected default module %s, got %v", rootModule, provider.requested)
	}
}

func TestWithAgendaSkipsEmptyValues(t *testing.T) {
	rec := &recordingLogger{}
	_ = WithAgenda(rec, "  ", "12345")

	if len(rec.fields) != 1 {
		t.Fatalf("expected one WithFields call, got %d", len(rec.fields))
	}
	if _, ok := rec.fields[0][fieldAgendaKey]; ok {
		t.Fatalf("expected empty key to be skipped, got %v", rec.fields[0])
	}
	if rec.fields[0][fieldAgendaUID] != "12345" {
		t.Fatalf("expected agenda uid field, got %v", rec.fields[0])
	}
}

func TestContextFieldsMergeAndCopy(t *testing.T) {
	ctx := ContextWithFields(context.Background(), map[string]any{"request_id": "a"})
	ctx = ContextWithFields(ctx, map[string]any{"agenda": "events"})

	fields := ContextFields(ctx)
	if fields["request_id"] != "a" || fields["agenda"] != "events" {
		t.Fatalf("expected merged fields, got %v", fields)
	}
	fields["request_id"] = "mutated"
	if ContextFields(ctx)["request_id"] != "a" {
		t.Fatal("expected context fields to be copied")
	}
}

func TestRedactURLHidesKey(t *testing.T) {
	got := RedactURL("https://api.example.com/v2/agendas/1/events.json?key=secret&size=2")
	if strings.Contains(got, "secret") {
		t.Fatalf("expected key to be redacted, got %s", got)
	}
	if !strings.Contains(got, "size=2") {
		t.Fatalf("expected other params to survive, got %s", got)
	}
}
