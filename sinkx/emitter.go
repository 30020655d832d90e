package sinkx

import "context"

// Emitter translates input elements into write actions.
type Emitter[IN any] interface {
	// Open is called once when the writer is created.
	Open(ctx context.Context) error
	// Emit hands zero or more actions for element to indexer.
	Emit(ctx context.Context, element IN, indexer RequestIndexer) error
	// Close is called once when the writer is closed.
	Close() error
}

type RequestIndexer interface {
	Add(actions ...WriteAction) error
}

// EmitterFunc adapts a function to an Emitter with no open or close step.
type EmitterFunc[IN any] func(ctx context.Context, element IN, indexer RequestIndexer) error

func (f EmitterFunc[IN]) Open(context.Context) error { return nil }

func (f EmitterFunc[IN]) Emit(ctx context.Context, element IN, indexer RequestIndexer) error {
	return f(ctx, element, indexer)
}

func (f EmitterFunc[IN]) Close() error { return nil }
