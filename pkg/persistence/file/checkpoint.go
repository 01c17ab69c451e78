package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vallabhn1/MallCCTV/pkg/models"
	"github.com/vallabhn1/MallCCTV/pkg/persistence"
)

// CheckpointRepository stores one append-only JSON log per thread. Writes go
// through a temp file and rename, so readers see either the old log or the
// new one, never a partial write.
type CheckpointRepository struct {
	root  string
	locks threadLocks
}

func NewCheckpointRepository(root string) *CheckpointRepository {
	return &CheckpointRepository{root: root}
}

func validateThreadID(threadID string) error {
	if threadID == "" {
		return errors.New("thread ID cannot be empty")
	}

	if strings.Contains(threadID, "..") || strings.ContainsAny(threadID, `/\`) {
		return errors.New("thread ID contains invalid characters")
	}

	return nil
}

func (cr *CheckpointRepository) logPath(threadID string) string {
	return filepath.Join(cr.root, "checkpoints", threadID+".json")
}

func (cr *CheckpointRepository) readLog(threadID string) ([]*models.Checkpoint, error) {
	data, err := os.ReadFile(cr.logPath(threadID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read checkpoint log: %w", err)
	}

	var checkpoints []*models.Checkpoint
	if err := json.Unmarshal(data, &checkpoints); err != nil {
		return nil, fmt.Errorf("failed to parse checkpoint log: %w", err)
	}

	return checkpoints, nil
}

func (cr *CheckpointRepository) writeLog(threadID string, checkpoints []*models.Checkpoint) error {
	dir := filepath.Join(cr.root, "checkpoints")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create checkpoints directory: %w", err)
	}

	data, err := json.MarshalIndent(checkpoints, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoints: %w", err)
	}

	tmp, err := os.CreateTemp(dir, threadID+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return fmt.Errorf("failed to write checkpoint log: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return fmt.Errorf("failed to sync checkpoint log: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), cr.logPath(threadID)); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("failed to replace checkpoint log: %w", err)
	}

	return nil
}

// SaveCheckpoint appends a checkpoint, enforcing contiguous sequence numbers
// starting at 0.
func (cr *CheckpointRepository) SaveCheckpoint(ctx context.Context, checkpoint *models.Checkpoint) error {
	if err := validateThreadID(checkpoint.ThreadID); err != nil {
		return persistence.NewCheckpointError("SaveCheckpoint", checkpoint.ThreadID, err)
	}

	mu := cr.locks.forThread(checkpoint.ThreadID)
	mu.Lock()
	defer mu.Unlock()

	existing, err := cr.readLog(checkpoint.ThreadID)
	if err != nil {
		return persistence.NewCheckpointError("SaveCheckpoint", checkpoint.ThreadID, err)
	}

	switch {
	case checkpoint.SequenceNo < len(existing):
		return persistence.NewCheckpointError("SaveCheckpoint", checkpoint.ThreadID, persistence.ErrDuplicateSequence)
	case checkpoint.SequenceNo > len(existing):
		return persistence.NewCheckpointError("SaveCheckpoint", checkpoint.ThreadID, persistence.ErrSequenceGap)
	}

	existing = append(existing, checkpoint)

	if err := cr.writeLog(checkpoint.ThreadID, existing); err != nil {
		return persistence.NewCheckpointError("SaveCheckpoint", checkpoint.ThreadID, err)
	}

	return nil
}

// LatestCheckpoint returns the highest-sequence checkpoint for the thread.
func (cr *CheckpointRepository) LatestCheckpoint(ctx context.Context, threadID string) (*models.Checkpoint, error) {
	if err := validateThreadID(threadID); err != nil {
		return nil, persistence.NewCheckpointError("LatestCheckpoint", threadID, err)
	}

	mu := cr.locks.forThread(threadID)
	mu.Lock()
	defer mu.Unlock()

	checkpoints, err := cr.readLog(threadID)
	if err != nil {
		return nil, persistence.NewCheckpointError("LatestCheckpoint", threadID, err)
	}

	if len(checkpoints) == 0 {
		return nil, persistence.NewCheckpointError("LatestCheckpoint", threadID, persistence.ErrCheckpointNotFound)
	}

	return checkpoints[len(checkpoints)-1], nil
}

// CheckpointHistory returns all checkpoints for the thread in sequence order.
func (cr *CheckpointRepository) CheckpointHistory(ctx context.Context, threadID string) ([]*models.Checkpoint, error) {
	if err := validateThreadID(threadID); err != nil {
		return nil, persistence.NewCheckpointError("CheckpointHistory", threadID, err)
	}

	mu := cr.locks.forThread(threadID)
	mu.Lock()
	defer mu.Unlock()

	checkpoints, err := cr.readLog(threadID)
	if err != nil {
		return nil, persistence.NewCheckpointError("CheckpointHistory", threadID, err)
	}

	return checkpoints, nil
}

// Checkpoint store delegation for the file persistence facade.

func (fp *Persistence) SaveCheckpoint(ctx context.Context, checkpoint *models.Checkpoint) error {
	return fp.checkpointRepo.SaveCheckpoint(ctx, checkpoint)
}

func (fp *Persistence) LatestCheckpoint(ctx context.Context, threadID string) (*models.Checkpoint, error) {
	return fp.checkpointRepo.LatestCheckpoint(ctx, threadID)
}

func (fp *Persistence) CheckpointHistory(ctx context.Context, threadID string) ([]*models.Checkpoint, error) {
	return fp.checkpointRepo.CheckpointHistory(ctx, threadID)
}
