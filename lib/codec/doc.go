// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides toby's standard CBOR encoding configuration.
//
// toby uses CBOR for exactly one boundary: the intake↔worker Unix socket
// protocol (see lib/ipc). Human-facing formats stay human-readable:
// YAML for configuration, TOML for archive records, JSON for HTTP.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2), so the
// same message always produces identical bytes. Because each socket
// connection carries exactly one CBOR data item, and CBOR is
// self-delimiting, the protocol needs no length prefix.
//
//	data, err := codec.Marshal(message)
//	err = codec.Unmarshal(data, &message)
//
// Types that cross the socket carry `cbor` struct tags. Never put both
// `cbor` and `json` tags on the same field.
package codec
