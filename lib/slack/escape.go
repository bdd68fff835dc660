// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package slack

import "strings"

// controlEscaper encodes the three characters Slack reserves for its
// own markup (links, mentions, entities).
var controlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Escape makes text safe to embed in mrkdwn message text. Formatting
// characters such as * and _ need no escaping when they do not pair up,
// and Slack offers no way to escape them when they do.
func Escape(text string) string {
	return controlEscaper.Replace(text)
}
