package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
)

// ErrMissingUserID is returned before any backend call when the target user
// id is empty.
var ErrMissingUserID = errors.New("enrollment: missing user id")

// ReconcilePhase names which half of a reconciliation failed.
type ReconcilePhase string

const (
	PhaseAdd    ReconcilePhase = "add"
	PhaseRemove ReconcilePhase = "remove"
)

// ReconcileError reports a failed reconciliation phase. A failure in the add
// phase means nothing was changed; a failure in the remove phase means the
// additions already landed — Added lists them so the caller knows the
// roster is in a mixed state. Retrying with the same desired set converges.
type ReconcileError struct {
	Phase ReconcilePhase
	Added []string
	Err   error
}

func (e *ReconcileError) Error() string {
	return fmt.Sprintf("enrollment reconcile: %s phase failed: %v", e.Phase, e.Err)
}

func (e *ReconcileError) Unwrap() error { return e.Err }

// Partial reports whether some of the requested changes were applied.
func (e *ReconcileError) Partial() bool { return e.Phase == PhaseRemove }

// EnrollmentStore is the narrow store surface reconciliation needs.
type EnrollmentStore interface {
	ListClassGroupIDs(ctx context.Context, userID string) ([]string, error)
	InsertEnrollments(ctx context.Context, userID string, classGroupIDs []string) error
	DeleteEnrollments(ctx context.Context, userID string, classGroupIDs []string) error
}

// ReconcileResult lists what a reconciliation actually changed.
type ReconcileResult struct {
	Added   []string
	Removed []string
}

// EnrollmentReconciler drives a student's class-group memberships to a
// desired set: inserts what is missing, deletes what is surplus, and never
// touches memberships present in both sets.
type EnrollmentReconciler struct {
	Enrollments EnrollmentStore
	Logger      *slog.Logger
}

// Reconcile makes the user's memberships equal the desired set. Adds run
// before removes; either phase is skipped when it has nothing to do.
func (r *EnrollmentReconciler) Reconcile(ctx context.Context, userID string, desired []string) (ReconcileResult, error) {
	if userID == "" {
		return ReconcileResult{}, ErrMissingUserID
	}

	current, err := r.Enrollments.ListClassGroupIDs(ctx, userID)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("list current enrollments: %w", err)
	}

	toAdd, toRemove := diffIDs(desired, current)
	result := ReconcileResult{Added: toAdd, Removed: toRemove}

	if len(toAdd) > 0 {
		if err := r.Enrollments.InsertEnrollments(ctx, userID, toAdd); err != nil {
			return ReconcileResult{}, &ReconcileError{Phase: PhaseAdd, Err: err}
		}
	}

	if len(toRemove) > 0 {
		if err := r.Enrollments.DeleteEnrollments(ctx, userID, toRemove); err != nil {
			return ReconcileResult{}, &ReconcileError{Phase: PhaseRemove, Added: toAdd, Err: err}
		}
	}

	if len(toAdd) > 0 || len(toRemove) > 0 {
		r.Logger.Info("enrollments reconciled",
			"user_id", userID, "added", len(toAdd), "removed", len(toRemove))
	}
	return result, nil
}

// diffIDs computes desired−current and current−desired as sorted slices.
// Duplicates within either input collapse.
func diffIDs(desired, current []string) (toAdd, toRemove []string) {
	want := make(map[string]struct{}, len(desired))
	for _, id := range desired {
		want[id] = struct{}{}
	}
	have := make(map[string]struct{}, len(current))
	for _, id := range current {
		have[id] = struct{}{}
	}

	for id := range want {
		if _, ok := have[id]; !ok {
			toAdd = append(toAdd, id)
		}
	}
	for id := range have {
		if _, ok := want[id]; !ok {
			toRemove = append(toRemove, id)
		}
	}
	sort.Strings(toAdd)
	sort.Strings(toRemove)
	return toAdd, toRemove
}
