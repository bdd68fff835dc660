// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

// Package cancel lets a controller stop a consumer that is blocked
// waiting for its next item.
//
// [New] returns a linked [Token] and [Source]. The consumer wraps its
// input in [Cancelable]; the controller (typically a signal handler)
// calls [Source.Cancel]. Once cancelled, [Stream.Next] returns io.EOF
// without touching the inner receiver, and a Next call already blocked
// in the inner receiver is interrupted through its context.
//
// Cancellation only ends the stream. Work the consumer is already
// doing with a previously returned item is not affected.
package cancel
