// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package cancel

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bash/toby/lib/testutil"
)

// countingReceiver records how often Receive is called.
type countingReceiver struct {
	calls atomic.Int32
	inner Receiver[int]
}

func (r *countingReceiver) Receive(ctx context.Context) (int, error) {
	r.calls.Add(1)
	return r.inner.Receive(ctx)
}

func TestCancelBeforeNextSkipsInner(t *testing.T) {
	token, source := New()
	inner := &countingReceiver{inner: FromChannel(make(chan int))}
	stream := Cancelable[int](inner, token)

	source.Cancel()
	if _, err := stream.Next(context.Background()); !errors.Is(err, io.EOF) {
		t.Fatalf("Next after cancel = %v, want io.EOF", err)
	}
	if calls := inner.calls.Load(); calls != 0 {
		t.Fatalf("inner receiver called %d times, want 0", calls)
	}
}

func TestCancelInterruptsBlockedNext(t *testing.T) {
	token, source := New()
	stream := Cancelable(FromChannel(make(chan int)), token)

	results := make(chan error, 1)
	go func() {
		_, err := stream.Next(context.Background())
		results <- err
	}()

	source.Cancel()
	err := testutil.RequireReceive(t, results, 5*time.Second, "blocked Next did not return after Cancel")
	if !errors.Is(err, io.EOF) {
		t.Fatalf("Next = %v, want io.EOF", err)
	}
}

func TestItemsPassThrough(t *testing.T) {
	token, source := New()
	channel := make(chan int, 3)
	channel <- 1
	channel <- 2
	channel <- 3
	stream := Cancelable(FromChannel(channel), token)

	for want := 1; want <= 3; want++ {
		got, err := stream.Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if got != want {
			t.Fatalf("Next = %d, want %d", got, want)
		}
	}

	source.Cancel()
	if _, err := stream.Next(context.Background()); !errors.Is(err, io.EOF) {
		t.Fatalf("Next after cancel = %v, want io.EOF", err)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	token, source := New()
	source.Cancel()
	source.Cancel()
	if !token.Canceled() {
		t.Fatal("token not cancelled")
	}
	select {
	case <-token.park():
	default:
		t.Fatal("park after cancel returned an open channel")
	}
}

func TestParkRecordsFirstWaiter(t *testing.T) {
	token, source := New()
	first := token.park()
	second := token.park()
	if first != second {
		t.Fatal("park returned a different channel on the second call")
	}
	source.Cancel()
	testutil.RequireClosed(t, first, 5*time.Second, "parked waiter not woken")
}

func TestParentContextErrorIsNotEOF(t *testing.T) {
	token, _ := New()
	stream := Cancelable(FromChannel(make(chan int)), token)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := stream.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Next with cancelled context = %v, want context.Canceled", err)
	}
}

func TestFromChannelClosed(t *testing.T) {
	channel := make(chan string)
	close(channel)
	if _, err := FromChannel(channel).Receive(context.Background()); !errors.Is(err, io.EOF) {
		t.Fatalf("Receive on closed channel = %v, want io.EOF", err)
	}
}
