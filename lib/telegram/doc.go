// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

// Package telegram is a small Telegram Bot API client covering what
// toby uses: sending status messages and log documents, reading
// updates during "toby telegram setup", and registering the webhook
// that receives bot commands.
//
// The chat that receives notifications is chosen once by the setup
// command and persisted as an 8-byte native-endian integer at
// <runtime>/telegram_chat_id (see [ReadChatID] and [WriteChatID]).
package telegram
