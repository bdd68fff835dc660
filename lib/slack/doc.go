// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

// Package slack is a minimal Slack Web API client: posting messages
// and uploading a job log into a channel with the external upload flow
// (files.getUploadURLExternal, upload, files.completeUploadExternal).
package slack
