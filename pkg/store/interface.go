package store

import (
	"errors"
	"time"

	"github.com/kunnath/RobotBrowser/pkg/models"
)

// ErrRunNotFound is returned when a run record does not exist
var ErrRunNotFound = errors.New("run not found")

// Store defines the interface for run history persistence.
// Both the in-memory and SQLite implementations satisfy it.
type Store interface {
	CreateRun(rec *models.RunRecord) error
	GetRun(id string) (*models.RunRecord, error)
	GetRunByRunID(runID string) (*models.RunRecord, error)
	ListRuns(limit int) ([]*models.RunRecord, error)
	FinishRun(rec *models.RunRecord) error
	DeleteRun(id string) error
	PruneBefore(cutoff time.Time) (int, error)
	Vacuum() error
	Close() error
}
