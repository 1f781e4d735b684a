package ledger

import (
	"context"
	"time"

	"github.com/boardkit/boardflow/internal/application/port"
	"github.com/boardkit/boardflow/internal/domain/entity"
)

// BoardCursor iterates a board's audit history lazily in ledger-sequence
// order, fetching in batches. It is finite and restartable: persist Token
// between runs and resume with Ledger.ResumeHistoryForBoard.
type BoardCursor struct {
	repo      port.AuditRepository
	boardID   string
	since     time.Time
	afterSeq  int64
	batchSize int

	batch []*entity.AuditEntry
	idx   int
	done  bool
}

// Next returns the next entry, or ok=false once the history (as of the
// underlying query) is exhausted. Entries appended after exhaustion are
// picked up by resuming from Token.
func (c *BoardCursor) Next(ctx context.Context) (*entity.AuditEntry, bool, error) {
	if c.idx >= len(c.batch) {
		if c.done {
			return nil, false, nil
		}
		if err := c.fetch(ctx); err != nil {
			return nil, false, err
		}
		if len(c.batch) == 0 {
			return nil, false, nil
		}
	}

	entry := c.batch[c.idx]
	c.idx++
	c.afterSeq = entry.Seq
	return entry, true, nil
}

// Token returns the resume token: the sequence of the last entry yielded.
func (c *BoardCursor) Token() int64 {
	return c.afterSeq
}

func (c *BoardCursor) fetch(ctx context.Context) error {
	entries, err := c.repo.GetByBoardSince(ctx, c.boardID, c.since, c.afterSeq, c.batchSize)
	if err != nil {
		return err
	}
	c.batch = entries
	c.idx = 0
	if len(entries) < c.batchSize {
		c.done = true
	}
	return nil
}
