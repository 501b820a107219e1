package db

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/gyeh/patientcost/internal/model"
)

// ChannelSource implements pgx.CopyFromSource over a channel of prediction
// rows. The producer blocks when COPY falls behind. Cancelling ctx ends the
// stream with ctx.Err(), and a producer that fails calls Abort before closing
// ch. Either way Err is non-nil and pgx aborts the COPY instead of committing
// the rows already sent.
type ChannelSource struct {
	ctx     context.Context
	ch      <-chan *model.PredictionRow
	current *model.PredictionRow
	rows    int64
	aborted error
	err     error
}

// NewChannelSource creates a CopyFromSource backed by ch.
func NewChannelSource(ctx context.Context, ch <-chan *model.PredictionRow) *ChannelSource {
	return &ChannelSource{ctx: ctx, ch: ch}
}

// Next advances to the next row. It returns false once ch is closed or ctx
// is done.
func (s *ChannelSource) Next() bool {
	select {
	case row, ok := <-s.ch:
		if !ok {
			s.err = s.aborted
			return false
		}
		s.current = row
		s.rows++
		return true
	case <-s.ctx.Done():
		s.err = s.ctx.Err()
		return false
	}
}

// Abort records the producer's failure. It must be called before ch is
// closed; the close publishes err to the COPY goroutine.
func (s *ChannelSource) Abort(err error) {
	s.aborted = err
}

// Values returns the current row in PredictionColumns order.
func (s *ChannelSource) Values() ([]any, error) {
	return s.current.CopyValues(), nil
}

// Err returns the abort or cancellation error, if any.
func (s *ChannelSource) Err() error {
	return s.err
}

// Rows is the number of rows handed to COPY so far.
func (s *ChannelSource) Rows() int64 {
	return s.rows
}

var _ pgx.CopyFromSource = (*ChannelSource)(nil)
