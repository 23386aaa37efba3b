package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/JorgeIteq1000/turma-digital/internal/course/domain"
	"github.com/JorgeIteq1000/turma-digital/internal/course/store"
	"github.com/JorgeIteq1000/turma-digital/pkg/idx"
)

var (
	ErrNoteContentRequired = errors.New("note: content is required")
	ErrNoteBadTimestamp    = errors.New("note: timestamp must not be negative")
)

// NoteService manages a student's timestamped lesson notes.
type NoteService struct {
	Store store.Store
}

// Add stores a note anchored at a playback position in whole seconds.
func (s *NoteService) Add(ctx context.Context, userID, lessonID, content string, timestampSeconds int) (domain.LessonNote, error) {
	if strings.TrimSpace(content) == "" {
		return domain.LessonNote{}, ErrNoteContentRequired
	}
	if timestampSeconds < 0 {
		return domain.LessonNote{}, ErrNoteBadTimestamp
	}
	if _, err := s.Store.Lessons().GetLessonByID(ctx, lessonID); err != nil {
		return domain.LessonNote{}, err
	}

	n := domain.LessonNote{
		ID:               idx.New().String(),
		UserID:           userID,
		LessonID:         lessonID,
		Content:          strings.TrimSpace(content),
		TimestampSeconds: timestampSeconds,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.Store.LessonNotes().CreateNote(ctx, n); err != nil {
		return domain.LessonNote{}, err
	}
	return n, nil
}

// List returns the user's notes for a lesson ordered by playback position.
func (s *NoteService) List(ctx context.Context, userID, lessonID string) ([]domain.LessonNote, error) {
	return s.Store.LessonNotes().ListNotes(ctx, lessonID, userID)
}

// Delete removes one of the user's own notes.
func (s *NoteService) Delete(ctx context.Context, userID, noteID string) error {
	return s.Store.LessonNotes().DeleteNote(ctx, noteID, userID)
}
