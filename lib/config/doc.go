// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads toby's configuration directory.
//
// The directory is given by the --config-dir flag or the
// TOBY_CONFIG_DIR environment variable, defaulting to /etc/toby. It
// contains:
//
//	toby.yaml            main settings (listen, tls, telegram, slack,
//	                     exec hooks, user/group, worker, archive, paths)
//	tokens.yaml          named webhook tokens: secret plus project access
//	projects/<name>.yaml one file per project (.yml and .jsonc also accepted)
//	scripts.d/           helper executables appended to every job's PATH
//
// toby.yaml and tokens.yaml are required. A missing projects directory
// means no projects. Unknown keys are rejected so typos fail loudly.
// ${VAR} and ${VAR:-default} are expanded in paths and secrets.
//
// A loaded Config is immutable; processes reload by restarting.
package config
