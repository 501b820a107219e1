package db

import (
	"context"
	"errors"
	"testing"

	"github.com/gyeh/patientcost/internal/model"
)

func TestChannelSource(t *testing.T) {
	ch := make(chan *model.PredictionRow, 2)
	ch <- &model.PredictionRow{SourceRowNumber: 1, PredictedCost: 10}
	ch <- &model.PredictionRow{SourceRowNumber: 2, PredictedCost: 20}
	close(ch)

	src := NewChannelSource(context.Background(), ch)
	var rows []int64
	for src.Next() {
		vals, err := src.Values()
		if err != nil {
			t.Fatalf("Values: %v", err)
		}
		if len(vals) != len(model.PredictionColumns()) {
			t.Fatalf("%d values, want %d", len(vals), len(model.PredictionColumns()))
		}
		rows = append(rows, vals[2].(int64))
	}
	if src.Err() != nil {
		t.Errorf("Err = %v", src.Err())
	}
	if len(rows) != 2 || rows[0] != 1 || rows[1] != 2 {
		t.Errorf("rows = %v", rows)
	}
	if src.Rows() != 2 {
		t.Errorf("Rows = %d, want 2", src.Rows())
	}
}

func TestChannelSource_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := NewChannelSource(ctx, make(chan *model.PredictionRow))
	if src.Next() {
		t.Fatal("Next returned true on a cancelled context")
	}
	if !errors.Is(src.Err(), context.Canceled) {
		t.Errorf("Err = %v, want context.Canceled", src.Err())
	}
}

func TestChannelSource_Abort(t *testing.T) {
	ch := make(chan *model.PredictionRow, 1)
	ch <- &model.PredictionRow{SourceRowNumber: 1}
	src := NewChannelSource(context.Background(), ch)

	readErr := errors.New("read dataset: bare quote")
	src.Abort(readErr)
	close(ch)

	if !src.Next() {
		t.Fatal("buffered row not delivered")
	}
	if src.Next() {
		t.Fatal("Next returned true after close")
	}
	if !errors.Is(src.Err(), readErr) {
		t.Errorf("Err = %v, want the abort error", src.Err())
	}
	if src.Rows() != 1 {
		t.Errorf("Rows = %d, want 1", src.Rows())
	}
}
