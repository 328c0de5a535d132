// Package parsework runs CPU-bound lyric parsing on a dedicated worker
// goroutine, reached through a request/response broker so the scheduler
// never parses on its own goroutine.
package parsework

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/dmarchetti/cadenza/internal/logger"
	"github.com/dmarchetti/cadenza/internal/lyrics"
)

// ErrBrokerClosed rejects requests submitted to, or pending on, a broker
// that has been torn down.
var ErrBrokerClosed = errors.New("parse broker closed")

// Format selects the lyric encoding for a parse request.
type Format int

const (
	FormatLineTimed Format = iota
	FormatWordSynced
)

// Request is one unit of parse work.
type Request struct {
	ID          string
	Format      Format
	Primary     string
	Translation string
}

// Response carries the parsed document back, correlated by request ID.
type Response struct {
	ID  string
	Doc *lyrics.Document
	Err error
}

// Broker owns the worker goroutine and the requestID -> pending completion
// map. Closing the broker rejects everything still in flight.
type Broker struct {
	log      *logger.Logger
	requests chan Request
	done     chan struct{}
	wg       sync.WaitGroup

	mu      sync.Mutex
	pending map[string]chan Response
	closed  bool
}

// NewBroker starts the parse worker.
func NewBroker(log *logger.Logger) *Broker {
	b := &Broker{
		log:      log.WithComponent("parsework"),
		requests: make(chan Request),
		done:     make(chan struct{}),
		pending:  make(map[string]chan Response),
	}
	b.wg.Add(1)
	go b.run()
	return b
}

// run is the dedicated parse worker loop.
func (b *Broker) run() {
	defer b.wg.Done()
	for {
		select {
		case <-b.done:
			return
		case req := <-b.requests:
			doc := parse(req)
			b.complete(Response{ID: req.ID, Doc: doc})
		}
	}
}

func parse(req Request) *lyrics.Document {
	var doc lyrics.Document
	if req.Format == FormatWordSynced {
		doc = lyrics.ParseWordSynced(req.Primary, req.Translation)
	} else {
		doc = lyrics.ParseTimed(req.Primary, req.Translation)
	}
	return &doc
}

// Parse submits a request and blocks until the worker answers, the context
// is cancelled, or the broker closes. Parsing itself never fails; the only
// errors here are cancellation and teardown.
func (b *Broker) Parse(ctx context.Context, format Format, primary, translation string) (*lyrics.Document, error) {
	req := Request{
		ID:          uuid.New().String(),
		Format:      format,
		Primary:     primary,
		Translation: translation,
	}

	ch := make(chan Response, 1)
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrBrokerClosed
	}
	b.pending[req.ID] = ch
	b.mu.Unlock()

	select {
	case b.requests <- req:
	case <-ctx.Done():
		b.drop(req.ID)
		return nil, ctx.Err()
	case <-b.done:
		b.drop(req.ID)
		return nil, ErrBrokerClosed
	}

	select {
	case resp := <-ch:
		return resp.Doc, resp.Err
	case <-ctx.Done():
		b.drop(req.ID)
		return nil, ctx.Err()
	case <-b.done:
		return nil, ErrBrokerClosed
	}
}

// complete hands a response to whoever is still waiting for it. A dropped
// request (cancelled caller) is discarded silently.
func (b *Broker) complete(resp Response) {
	b.mu.Lock()
	ch, ok := b.pending[resp.ID]
	delete(b.pending, resp.ID)
	b.mu.Unlock()
	if ok {
		ch <- resp
	}
}

func (b *Broker) drop(id string) {
	b.mu.Lock()
	delete(b.pending, id)
	b.mu.Unlock()
}

// Close stops the worker and rejects every pending request.
func (b *Broker) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for id, ch := range b.pending {
		delete(b.pending, id)
		ch <- Response{ID: id, Err: ErrBrokerClosed}
	}
	b.mu.Unlock()

	close(b.done)
	b.wg.Wait()
	b.log.Debug("parse broker closed")
}
