// Package file provides file-based persistence for checkpoints, alerts, and
// analytics. Suited to tests and single-host deployments; the PostgreSQL
// implementation is the production path.
package file

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/vallabhn1/MallCCTV/pkg/persistence"
)

// Persistence implements persistence.Persistence on the local file system.
type Persistence struct {
	root           string
	checkpointRepo *CheckpointRepository
	alertRepo      *AlertRepository
	analyticsRepo  *AnalyticsRepository
}

// NewPersistence creates file persistence rooted at the given directory.
// Accepts plain paths and file:// URLs.
func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:           cleanRoot,
		checkpointRepo: NewCheckpointRepository(cleanRoot),
		alertRepo:      NewAlertRepository(cleanRoot),
		analyticsRepo:  NewAnalyticsRepository(cleanRoot),
	}
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. Nothing to release for files.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// threadLocks hands out one mutex per thread id so checkpoint writes for
// different threads never contend with each other.
type threadLocks struct {
	locks sync.Map
}

func (tl *threadLocks) forThread(threadID string) *sync.Mutex {
	lock, _ := tl.locks.LoadOrStore(threadID, &sync.Mutex{})

	mu, ok := lock.(*sync.Mutex)
	if !ok {
		panic("threadLocks holds non-mutex value")
	}

	return mu
}
