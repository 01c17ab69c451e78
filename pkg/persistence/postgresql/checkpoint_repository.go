package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/vallabhn1/MallCCTV/pkg/models"
	"github.com/vallabhn1/MallCCTV/pkg/persistence"
)

const uniqueViolationCode = "23505"

// CheckpointRepository handles checkpoint-related database operations.
type CheckpointRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewCheckpointRepository creates a new checkpoint repository.
func NewCheckpointRepository(db *sql.DB, logger *slog.Logger) *CheckpointRepository {
	return &CheckpointRepository{db: db, logger: logger}
}

// SaveCheckpoint appends a checkpoint inside a transaction. The sequence
// number is checked against the current head so per-thread logs stay
// contiguous; the primary key on (thread_id, sequence_no) closes the race
// with a concurrent writer.
func (cr *CheckpointRepository) SaveCheckpoint(ctx context.Context, checkpoint *models.Checkpoint) error {
	stateJSON, err := json.Marshal(checkpoint.State)
	if err != nil {
		return persistence.NewCheckpointError("SaveCheckpoint", checkpoint.ThreadID,
			fmt.Errorf("failed to marshal state snapshot: %w", err))
	}

	tx, err := cr.db.BeginTx(ctx, nil)
	if err != nil {
		return persistence.NewCheckpointError("SaveCheckpoint", checkpoint.ThreadID, err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	var head sql.NullInt64

	err = tx.QueryRowContext(ctx,
		"SELECT MAX(sequence_no) FROM checkpoints WHERE thread_id = $1",
		checkpoint.ThreadID,
	).Scan(&head)
	if err != nil {
		return persistence.NewCheckpointError("SaveCheckpoint", checkpoint.ThreadID, err)
	}

	expected := 0
	if head.Valid {
		expected = int(head.Int64) + 1
	}

	switch {
	case checkpoint.SequenceNo < expected:
		return persistence.NewCheckpointError("SaveCheckpoint", checkpoint.ThreadID, persistence.ErrDuplicateSequence)
	case checkpoint.SequenceNo > expected:
		return persistence.NewCheckpointError("SaveCheckpoint", checkpoint.ThreadID, persistence.ErrSequenceGap)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO checkpoints (thread_id, sequence_no, state, written_at)
		VALUES ($1, $2, $3, $4)
	`, checkpoint.ThreadID, checkpoint.SequenceNo, stateJSON, checkpoint.WrittenAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode {
			return persistence.NewCheckpointError("SaveCheckpoint", checkpoint.ThreadID, persistence.ErrDuplicateSequence)
		}

		return persistence.NewCheckpointError("SaveCheckpoint", checkpoint.ThreadID, err)
	}

	if err := tx.Commit(); err != nil {
		return persistence.NewCheckpointError("SaveCheckpoint", checkpoint.ThreadID, err)
	}

	return nil
}

// LatestCheckpoint returns the highest-sequence checkpoint for the thread.
func (cr *CheckpointRepository) LatestCheckpoint(ctx context.Context, threadID string) (*models.Checkpoint, error) {
	row := cr.db.QueryRowContext(ctx, `
		SELECT thread_id, sequence_no, state, written_at
		FROM checkpoints
		WHERE thread_id = $1
		ORDER BY sequence_no DESC
		LIMIT 1
	`, threadID)

	checkpoint, err := scanCheckpoint(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewCheckpointError("LatestCheckpoint", threadID, persistence.ErrCheckpointNotFound)
		}

		return nil, persistence.NewCheckpointError("LatestCheckpoint", threadID, err)
	}

	return checkpoint, nil
}

// CheckpointHistory returns all checkpoints for the thread in sequence order.
func (cr *CheckpointRepository) CheckpointHistory(ctx context.Context, threadID string) ([]*models.Checkpoint, error) {
	rows, err := cr.db.QueryContext(ctx, `
		SELECT thread_id, sequence_no, state, written_at
		FROM checkpoints
		WHERE thread_id = $1
		ORDER BY sequence_no ASC
	`, threadID)
	if err != nil {
		return nil, persistence.NewCheckpointError("CheckpointHistory", threadID, err)
	}

	defer rows.Close()

	var checkpoints []*models.Checkpoint

	for rows.Next() {
		checkpoint, err := scanCheckpoint(rows)
		if err != nil {
			return nil, persistence.NewCheckpointError("CheckpointHistory", threadID, err)
		}

		checkpoints = append(checkpoints, checkpoint)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewCheckpointError("CheckpointHistory", threadID, err)
	}

	return checkpoints, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCheckpoint(row rowScanner) (*models.Checkpoint, error) {
	var (
		checkpoint models.Checkpoint
		stateJSON  []byte
	)

	err := row.Scan(&checkpoint.ThreadID, &checkpoint.SequenceNo, &stateJSON, &checkpoint.WrittenAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(stateJSON, &checkpoint.State); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state snapshot: %w", err)
	}

	return &checkpoint, nil
}
