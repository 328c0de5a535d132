package parsework

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmarchetti/cadenza/internal/logger"
)

func TestBroker_ParseLineTimed(t *testing.T) {
	b := NewBroker(logger.Default())
	defer b.Close()

	doc, err := b.Parse(context.Background(), FormatLineTimed, "[00:01.00]hello world\n[00:03.00]second line", "")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(doc.Lines) != 2 {
		t.Errorf("Expected 2 lines, got %d", len(doc.Lines))
	}
}

func TestBroker_ParseWordSynced(t *testing.T) {
	b := NewBroker(logger.Default())
	defer b.Close()

	doc, err := b.Parse(context.Background(), FormatWordSynced, "[00:01.00]<00:01.00>hello <00:01.50>world", "")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(doc.Lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(doc.Lines))
	}
	if len(doc.Lines[0].Tokens) != 2 {
		t.Errorf("Expected 2 tokens, got %d", len(doc.Lines[0].Tokens))
	}
}

func TestBroker_ConcurrentRequestsCorrelate(t *testing.T) {
	b := NewBroker(logger.Default())
	defer b.Close()

	var wg sync.WaitGroup
	inputs := []string{
		"[00:01.00]one",
		"[00:01.00]one\n[00:02.00]two",
		"[00:01.00]one\n[00:02.00]two\n[00:03.00]three",
	}
	for want, primary := range inputs {
		wg.Add(1)
		go func(want int, primary string) {
			defer wg.Done()
			doc, err := b.Parse(context.Background(), FormatLineTimed, primary, "")
			if err != nil {
				t.Errorf("Parse failed: %v", err)
				return
			}
			if len(doc.Lines) != want+1 {
				t.Errorf("Expected %d lines, got %d", want+1, len(doc.Lines))
			}
		}(want, primary)
	}
	wg.Wait()
}

func TestBroker_CancelledContext(t *testing.T) {
	b := NewBroker(logger.Default())
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Parse(ctx, FormatLineTimed, "[00:01.00]line", "")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestBroker_CloseRejectsSubsequentRequests(t *testing.T) {
	b := NewBroker(logger.Default())
	b.Close()

	_, err := b.Parse(context.Background(), FormatLineTimed, "[00:01.00]line", "")
	if !errors.Is(err, ErrBrokerClosed) {
		t.Errorf("Expected ErrBrokerClosed, got %v", err)
	}
}

func TestBroker_CloseIsIdempotent(t *testing.T) {
	b := NewBroker(logger.Default())
	b.Close()

	done := make(chan struct{})
	go func() {
		b.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second Close did not return")
	}
}
