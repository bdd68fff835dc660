// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package cancel

import (
	"context"
	"io"
)

// Receiver yields items one at a time. Receive blocks until an item is
// available or ctx is done; io.EOF means no more items will arrive.
type Receiver[T any] interface {
	Receive(ctx context.Context) (T, error)
}

// Stream wraps a Receiver so that cancelling its token ends the
// stream.
type Stream[T any] struct {
	inner Receiver[T]
	token Token
}

// Cancelable wraps inner so that Next reports io.EOF once token is
// cancelled.
func Cancelable[T any](inner Receiver[T], token Token) *Stream[T] {
	return &Stream[T]{inner: inner, token: token}
}

// Receive makes a Stream usable wherever a Receiver is expected.
func (s *Stream[T]) Receive(ctx context.Context) (T, error) {
	return s.Next(ctx)
}

// Next returns the next item from the inner receiver. If the token is
// already cancelled it returns io.EOF immediately. If cancellation
// arrives while the inner receiver is blocked, the receiver's context
// is cancelled and Next returns io.EOF. An item the inner receiver
// fully delivered is returned even if cancellation raced it.
func (s *Stream[T]) Next(ctx context.Context) (T, error) {
	var zero T
	if s.token.Canceled() {
		return zero, io.EOF
	}

	wake := s.token.park()
	receiveContext, stop := context.WithCancel(ctx)
	defer stop()
	go func() {
		select {
		case <-wake:
			stop()
		case <-receiveContext.Done():
		}
	}()

	value, err := s.inner.Receive(receiveContext)
	if err != nil && s.token.Canceled() {
		return zero, io.EOF
	}
	return value, err
}

// channelReceiver adapts a channel to Receiver.
type channelReceiver[T any] struct {
	channel <-chan T
}

// FromChannel returns a Receiver over channel. A closed channel yields
// io.EOF.
func FromChannel[T any](channel <-chan T) Receiver[T] {
	return channelReceiver[T]{channel: channel}
}

func (r channelReceiver[T]) Receive(ctx context.Context) (T, error) {
	var zero T
	select {
	case value, ok := <-r.channel:
		if !ok {
			return zero, io.EOF
		}
		return value, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
