package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sakif/snippets-guru/internal/apperror"
	"github.com/sakif/snippets-guru/internal/event"
	"github.com/sakif/snippets-guru/internal/model"
)

func newTestSnippetService(t *testing.T, settings *fakeSettings) (*SnippetService, *fakeSnippetRepo, *event.Bus) {
	t.Helper()
	repo := newFakeSnippetRepo()
	if settings == nil {
		settings = newFakeSettings()
	}
	bus := event.NewBus(testLogger())
	return NewSnippetService(repo, settings, bus, testLogger()), repo, bus
}

func TestCreate_Defaults(t *testing.T) {
	svc, _, _ := newTestSnippetService(t, nil)

	got, err := svc.Create(context.Background(), SnippetInput{
		Name: "  hello  ",
		Code: "echo 1;",
		Tags: []string{" a ", "", "b"},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if got.ID == "" {
		t.Error("Create() did not assign an ID")
	}
	if got.Name != "hello" {
		t.Errorf("Name = %q, want trimmed", got.Name)
	}
	if got.Scope != model.DefaultScope {
		t.Errorf("Scope = %q, want %q", got.Scope, model.DefaultScope)
	}
	if strings.Join(got.Tags, ",") != "a,b" {
		t.Errorf("Tags = %v, want [a b]", got.Tags)
	}
	if got.Cloud.PushChange {
		t.Error("PushChange should default to off when push_new_snippet is unset")
	}
}

func TestCreate_PushChangeFollowsSetting(t *testing.T) {
	svc, _, _ := newTestSnippetService(t, newFakeSettings(model.SettingPushNewSnippet, "1"))

	got, err := svc.Create(context.Background(), SnippetInput{Name: "a"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !got.Cloud.PushChange {
		t.Error("PushChange should follow push_new_snippet")
	}

	off := false
	got, err = svc.Create(context.Background(), SnippetInput{Name: "b", PushChange: &off})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got.Cloud.PushChange {
		t.Error("an explicit PushChange overrides the setting")
	}
}

func TestCreate_SettingError(t *testing.T) {
	settings := newFakeSettings()
	settings.getErr = errors.New("disk gone")
	svc, _, _ := newTestSnippetService(t, settings)

	if _, err := svc.Create(context.Background(), SnippetInput{Name: "a"}); err == nil {
		t.Fatal("Create() should fail when the settings cannot be read")
	}
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input SnippetInput
		field string
	}{
		{name: "empty name", input: SnippetInput{Name: "   "}, field: "name"},
		{name: "long name", input: SnippetInput{Name: strings.Repeat("x", MaxSnippetNameLength+1)}, field: "name"},
		{name: "huge code", input: SnippetInput{Name: "a", Code: strings.Repeat("x", MaxCodeLength+1)}, field: "code"},
		{name: "negative priority", input: SnippetInput{Name: "a", Priority: -1}, field: "priority"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestSnippetService(t, nil)

			_, err := svc.Create(context.Background(), tt.input)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("Create() error = %v, want ErrValidation", err)
			}

			var appErr *apperror.AppError
			if errors.As(err, &appErr) && appErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", appErr.Field, tt.field)
			}
			if len(repo.snippets) != 0 {
				t.Error("an invalid snippet must not be stored")
			}
		})
	}
}

func TestCreate_EmitsAndReturnsFreshCopy(t *testing.T) {
	svc, repo, bus := newTestSnippetService(t, nil)

	var seen []event.Kind
	bus.Subscribe(event.SnippetCreated, func(ctx context.Context, e event.Event) error {
		seen = append(seen, e.Kind)
		return repo.SetCloudRef(ctx, e.Snippet.ID, model.CloudRef{SnippetUUID: "abc", BlobUUID: "def"})
	})

	got, err := svc.Create(context.Background(), SnippetInput{Name: "a"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if len(seen) != 1 {
		t.Fatalf("listener ran %d times, want 1", len(seen))
	}
	if got.CloudRef.String() != "abc:def" {
		t.Errorf("CloudRef = %q, want the value set by the listener", got.CloudRef)
	}
}

func TestGetByID(t *testing.T) {
	svc, _, _ := newTestSnippetService(t, nil)
	ctx := context.Background()

	if _, err := svc.GetByID(ctx, " "); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("GetByID(empty) error = %v, want ErrValidation", err)
	}
	if _, err := svc.GetByID(ctx, "missing"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID(missing) error = %v, want ErrNotFound", err)
	}

	created, _ := svc.Create(ctx, SnippetInput{Name: "a"})
	got, err := svc.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "a" {
		t.Errorf("Name = %q, want a", got.Name)
	}
}

func TestList_ClampsLimit(t *testing.T) {
	svc, _, _ := newTestSnippetService(t, nil)
	ctx := context.Background()

	for i := 0; i < DefaultListLimit+5; i++ {
		if _, err := svc.Create(ctx, SnippetInput{Name: "s"}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	tests := []struct {
		limit, offset, want int
	}{
		{limit: 0, offset: 0, want: DefaultListLimit},
		{limit: 1000, offset: 0, want: DefaultListLimit + 5},
		{limit: 10, offset: -3, want: 10},
		{limit: 10, offset: DefaultListLimit, want: 5},
	}

	for _, tt := range tests {
		got, err := svc.List(ctx, tt.limit, tt.offset)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(got) != tt.want {
			t.Errorf("List(%d, %d) returned %d, want %d", tt.limit, tt.offset, len(got), tt.want)
		}
	}
}

func TestUpdate(t *testing.T) {
	svc, _, bus := newTestSnippetService(t, nil)
	ctx := context.Background()

	var updates int
	bus.Subscribe(event.SnippetUpdated, func(context.Context, event.Event) error {
		updates++
		return nil
	})

	created, err := svc.Create(ctx, SnippetInput{Name: "a", Code: "v1", Scope: "admin"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	code, push, blank := "v2", true, " "
	got, err := svc.Update(ctx, created.ID, SnippetPatch{Code: &code, PushChange: &push, Scope: &blank})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if got.Code != "v2" || got.Name != "a" {
		t.Errorf("Update() = %+v, want code changed and name kept", got)
	}
	if got.Scope != "admin" {
		t.Errorf("Scope = %q, a blank scope keeps the old one", got.Scope)
	}
	if !got.Cloud.PushChange {
		t.Error("PushChange not applied")
	}
	if updates != 1 {
		t.Errorf("snippet.updated emitted %d times, want 1", updates)
	}

	empty := ""
	if _, err := svc.Update(ctx, created.ID, SnippetPatch{Name: &empty}); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Update(empty name) error = %v, want ErrValidation", err)
	}
	if _, err := svc.Update(ctx, "missing", SnippetPatch{}); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
	if updates != 1 {
		t.Error("failed updates must not emit")
	}
}

func TestDelete(t *testing.T) {
	svc, _, _ := newTestSnippetService(t, nil)
	ctx := context.Background()

	created, _ := svc.Create(ctx, SnippetInput{Name: "a"})

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := svc.Delete(ctx, created.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Delete(empty) error = %v, want ErrValidation", err)
	}
}
