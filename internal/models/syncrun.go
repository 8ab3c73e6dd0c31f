package models

import (
	"fmt"
	"time"
)

// SyncRun records the outcome of a single (source, target, list) reconciliation.
//
// Runs are immutable once written, so UpdatedAt mirrors CreatedAt.
type SyncRun struct {
	id            string
	sequence      int
	sourceAccount string
	targetAccount string
	listName      string
	created       int
	updated       int
	deleted       int
	completed     int
	succeeded     bool
	errMessage    string
	startedAt     time.Time
	duration      time.Duration
	createdAt     time.Time
}

// NewSyncRun creates a SyncRun for the given pair and list.
// Counts, outcome, and timing are filled in via the setters before persisting.
func NewSyncRun(sourceAccount, targetAccount, listName string) *SyncRun {
	return &SyncRun{
		sourceAccount: sourceAccount,
		targetAccount: targetAccount,
		listName:      listName,
		createdAt:     time.Now(),
	}
}

func (r *SyncRun) ID() string            { return r.id }
func (r *SyncRun) Sequence() int         { return r.sequence }
func (r *SyncRun) SourceAccount() string { return r.sourceAccount }
func (r *SyncRun) TargetAccount() string { return r.targetAccount }
func (r *SyncRun) ListName() string      { return r.listName }
func (r *SyncRun) CreatedCount() int     { return r.created }
func (r *SyncRun) UpdatedCount() int     { return r.updated }
func (r *SyncRun) DeletedCount() int     { return r.deleted }
func (r *SyncRun) CompletedCount() int   { return r.completed }
func (r *SyncRun) Succeeded() bool       { return r.succeeded }
func (r *SyncRun) Error() string         { return r.errMessage }
func (r *SyncRun) StartedAt() time.Time  { return r.startedAt }
func (r *SyncRun) Duration() time.Duration {
	return r.duration
}
func (r *SyncRun) CreatedAt() time.Time { return r.createdAt }
func (r *SyncRun) UpdatedAt() time.Time { return r.createdAt }

func (r *SyncRun) SetID(id string)          { r.id = id }
func (r *SyncRun) SetSequence(seq int)      { r.sequence = seq }
func (r *SyncRun) SetCreatedAt(t time.Time) { r.createdAt = t }

// SetCounts records how many tasks were created, updated, deleted, and completed.
func (r *SyncRun) SetCounts(created, updated, deleted, completed int) {
	r.created = created
	r.updated = updated
	r.deleted = deleted
	r.completed = completed
}

// SetOutcome records whether the run succeeded and the failure message if not.
func (r *SyncRun) SetOutcome(succeeded bool, errMessage string) {
	r.succeeded = succeeded
	r.errMessage = errMessage
}

// SetTiming records when the run started and how long it took.
func (r *SyncRun) SetTiming(startedAt time.Time, duration time.Duration) {
	r.startedAt = startedAt
	r.duration = duration
}

// Validate checks that the run identifies a pair and carries sane counts.
func (r *SyncRun) Validate() error {
	if r.sourceAccount == "" {
		return fmt.Errorf("sync run missing source account")
	}
	if r.targetAccount == "" {
		return fmt.Errorf("sync run missing target account")
	}
	if r.listName == "" {
		return fmt.Errorf("sync run missing list name")
	}
	if r.created < 0 || r.updated < 0 || r.deleted < 0 || r.completed < 0 {
		return fmt.Errorf("sync run has negative counts")
	}
	if !r.succeeded && r.errMessage == "" {
		return fmt.Errorf("failed sync run missing error message")
	}
	return nil
}
