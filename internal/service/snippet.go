// Package service holds the application logic between the front ends
// (CLI, dev server handlers) and the storage and remote layers.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/sakif/snippets-guru/internal/apperror"
	"github.com/sakif/snippets-guru/internal/event"
	"github.com/sakif/snippets-guru/internal/model"
	"github.com/sakif/snippets-guru/internal/repository"
)

const (
	MaxSnippetNameLength = 100
	MaxCodeLength        = 100000 // ~100KB of code
	DefaultListLimit     = 20
	MaxListLimit         = 100
)

// SnippetInput describes a new local snippet.
//
// PushChange nil means "use the push_new_snippet setting".
type SnippetInput struct {
	Name        string
	Description string
	Code        string
	Tags        []string
	Scope       string
	Priority    int
	Active      bool
	PushChange  *bool
	IsPublic    bool
	Owned       bool
	CloudRef    model.CloudRef
}

// SnippetPatch changes selected fields of a snippet. Nil fields are kept.
type SnippetPatch struct {
	Name        *string
	Description *string
	Code        *string
	Tags        *[]string
	Scope       *string
	Priority    *int
	Active      *bool
	PushChange  *bool
	IsPublic    *bool
}

// SnippetService manages local snippets and announces every successful
// write on the event bus.
type SnippetService struct {
	repo     repository.SnippetRepository
	settings repository.SettingRepository
	events   *event.Bus
	logger   *slog.Logger
}

func NewSnippetService(
	repo repository.SnippetRepository,
	settings repository.SettingRepository,
	events *event.Bus,
	logger *slog.Logger,
) *SnippetService {
	return &SnippetService{
		repo:     repo,
		settings: settings,
		events:   events,
		logger:   logger,
	}
}

func validateSnippet(s *model.Snippet) error {
	err := validation.ValidateStruct(s,
		validation.Field(&s.Name, validation.Required, validation.Length(1, MaxSnippetNameLength)),
		validation.Field(&s.Code, validation.Length(0, MaxCodeLength)),
		validation.Field(&s.Priority, validation.Min(0)),
	)
	return toValidationError(err)
}

// toValidationError converts ozzo-validation errors into an apperror for the
// first failing field, in field name order.
func toValidationError(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		fields := make([]string, 0, len(fieldErrs))
		for f := range fieldErrs {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		first := fields[0]
		return apperror.ValidationFailed(first, fmt.Sprintf("%s: %s", first, fieldErrs[first].Error()))
	}

	return apperror.ValidationFailed("", err.Error())
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Create validates and stores a new snippet, then emits snippet.created.
func (s *SnippetService) Create(ctx context.Context, in SnippetInput) (*model.Snippet, error) {
	snippet := &model.Snippet{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Code:        in.Code,
		Tags:        cleanTags(in.Tags),
		Scope:       strings.TrimSpace(in.Scope),
		Priority:    in.Priority,
		Active:      in.Active,
		CloudRef:    in.CloudRef,
		Cloud: model.CloudConfig{
			IsPublic: in.IsPublic,
			Owned:    in.Owned,
		},
	}
	if snippet.Scope == "" {
		snippet.Scope = model.DefaultScope
	}

	if in.PushChange != nil {
		snippet.Cloud.PushChange = *in.PushChange
	} else {
		push, err := s.flag(ctx, model.SettingPushNewSnippet)
		if err != nil {
			return nil, err
		}
		snippet.Cloud.PushChange = push
	}

	if err := validateSnippet(snippet); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, snippet); err != nil {
		s.logger.Error("failed to create snippet",
			slog.String("name", snippet.Name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.String("id", snippet.ID),
		slog.String("name", snippet.Name),
	)

	return s.emit(ctx, event.SnippetCreated, snippet), nil
}

func (s *SnippetService) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}

	return s.repo.GetByID(ctx, id)
}

func (s *SnippetService) List(ctx context.Context, limit, offset int) ([]model.Snippet, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	snippets, err := s.repo.List(ctx, repository.ListOptions{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.logger.Error("failed to list snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing snippets: %w", err)
	}

	return snippets, nil
}

// Update applies patch, validates the result and emits snippet.updated.
func (s *SnippetService) Update(ctx context.Context, id string, patch SnippetPatch) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}

	snippet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		snippet.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		snippet.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Code != nil {
		snippet.Code = *patch.Code
	}
	if patch.Tags != nil {
		snippet.Tags = cleanTags(*patch.Tags)
	}
	if patch.Scope != nil && strings.TrimSpace(*patch.Scope) != "" {
		snippet.Scope = strings.TrimSpace(*patch.Scope)
	}
	if patch.Priority != nil {
		snippet.Priority = *patch.Priority
	}
	if patch.Active != nil {
		snippet.Active = *patch.Active
	}
	if patch.PushChange != nil {
		snippet.Cloud.PushChange = *patch.PushChange
	}
	if patch.IsPublic != nil {
		snippet.Cloud.IsPublic = *patch.IsPublic
	}

	if err := validateSnippet(snippet); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, snippet); err != nil {
		s.logger.Error("failed to update snippet",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating snippet: %w", err)
	}

	s.logger.Info("snippet updated",
		slog.String("id", snippet.ID),
		slog.String("name", snippet.Name),
	)

	return s.emit(ctx, event.SnippetUpdated, snippet), nil
}

func (s *SnippetService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "snippet ID is required")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("snippet deleted", slog.String("id", id))
	return nil
}

// emit notifies listeners and returns the stored snippet as it is after
// they ran. A synchronous push may have linked it to the cloud.
func (s *SnippetService) emit(ctx context.Context, kind event.Kind, snippet *model.Snippet) *model.Snippet {
	if s.events == nil {
		return snippet
	}

	s.events.Emit(ctx, event.Event{Kind: kind, Snippet: *snippet})

	fresh, err := s.repo.GetByID(ctx, snippet.ID)
	if err != nil {
		return snippet
	}
	return fresh
}

func (s *SnippetService) flag(ctx context.Context, key string) (bool, error) {
	value, _, err := s.settings.GetSetting(ctx, key)
	if err != nil {
		return false, fmt.Errorf("reading setting %s: %w", key, err)
	}
	return model.Truthy(value), nil
}
