// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package telegram

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ChatIDFileName is the chat-id file inside the runtime directory.
const ChatIDFileName = "telegram_chat_id"

// ChatIDPath returns the chat-id file path.
func ChatIDPath(runtimeDir string) string {
	return filepath.Join(runtimeDir, ChatIDFileName)
}

// ReadChatID returns the registered chat, or false if setup has not
// run yet.
func ReadChatID(runtimeDir string) (int64, bool, error) {
	data, err := os.ReadFile(ChatIDPath(runtimeDir))
	if errors.Is(err, os.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("reading telegram chat id: %w", err)
	}
	if len(data) != 8 {
		return 0, false, fmt.Errorf("telegram chat id file %s is %d bytes, want 8", ChatIDPath(runtimeDir), len(data))
	}
	return int64(binary.NativeEndian.Uint64(data)), true, nil
}

// WriteChatID atomically replaces the registered chat.
func WriteChatID(runtimeDir string, chatID int64) error {
	if err := os.MkdirAll(runtimeDir, 0755); err != nil {
		return fmt.Errorf("creating runtime directory: %w", err)
	}
	data := binary.NativeEndian.AppendUint64(nil, uint64(chatID))

	path := ChatIDPath(runtimeDir)
	temporaryPath := path + ".tmp"
	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating temporary chat id file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary chat id file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary chat id file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary chat id file: %w", err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming chat id file into place: %w", err)
	}
	return nil
}
