// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"github.com/fxamacker/cbor/v2"
)

// Decode limits. A job message is a map of three or four short strings
// and a nested trigger map; anything near these limits is not a job.
// The worker socket is writable by the whole toby group, so the
// decoder treats every message as untrusted input and refuses to
// allocate for containers no real client would send.
const (
	maxNestedLevels  = 8
	maxMapPairs      = 32
	maxArrayElements = 64
)

// encMode is the CBOR encoder configured with Core Deterministic
// Encoding (RFC 8949 §4.2): sorted map keys, smallest integer
// encoding, no indefinite-length items. The same job always produces
// identical bytes, which keeps socket captures and test fixtures
// comparable byte for byte.
var encMode = mustEncMode()

// decMode is the CBOR decoder used for everything read off the worker
// socket. See mustDecMode for what it rejects.
var decMode = mustDecMode()

func mustEncMode() cbor.EncMode {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}
	return mode
}

func mustDecMode() cbor.DecMode {
	mode, err := cbor.DecOptions{
		// Two "project" keys in one message would let the first and
		// last reader of the map disagree about which job was asked
		// for. The decoder rejects the message instead of picking one.
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
		// The encoder never produces indefinite-length items, so any
		// that arrive came from something other than a toby client.
		// Forbidding them also means every container declares its
		// length up front, where the limits below can check it before
		// allocating.
		IndefLength:      cbor.IndefLengthForbidden,
		MaxNestedLevels:  maxNestedLevels,
		MaxMapPairs:      maxMapPairs,
		MaxArrayElements: maxArrayElements,
		// Unknown fields are left at the decoder default (ignored). A
		// worker upgraded after the HTTP daemon, or the other way
		// round, must keep accepting messages that carry a field it
		// does not know yet; Message.Validate decides what is missing.
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
	return mode
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes exactly one data item from data into v. Trailing
// bytes, duplicate map keys and oversized containers are errors.
//
// There is no stream decoder: each socket connection carries one
// message and the server reads it to EOF before decoding, so a
// connection that sends two items is malformed rather than a stream.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}
