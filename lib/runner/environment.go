// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bash/toby/lib/job"
)

// buildEnvironment layers the project environment and job variables
// over base. Later entries win when the process starts.
func buildEnvironment(base []string, projectEnvironment map[string]string, j job.Job, scriptsDir string) []string {
	environment := make([]string, 0, len(base)+len(projectEnvironment)+3)
	environment = append(environment, base...)

	names := make([]string, 0, len(projectEnvironment))
	for name := range projectEnvironment {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		environment = append(environment, name+"="+projectEnvironment[name])
	}

	environment = append(environment,
		"TOBY_JOB_ID="+strconv.FormatUint(j.ID, 10),
		"TOBY_JOB_TRIGGER="+j.Trigger.Name(),
		"PATH="+extendPath(lookupEnvironment(environment, "PATH"), scriptsDir),
	)
	return environment
}

// extendPath appends directory to a PATH value.
func extendPath(path, directory string) string {
	if directory == "" {
		return path
	}
	if path == "" {
		return directory
	}
	return path + string(os.PathListSeparator) + directory
}

// lookupEnvironment returns the last value of name in environment.
func lookupEnvironment(environment []string, name string) string {
	prefix := name + "="
	for index := len(environment) - 1; index >= 0; index-- {
		if value, found := strings.CutPrefix(environment[index], prefix); found {
			return value
		}
	}
	return ""
}

var errNotFound = errors.New("executable file not found in PATH")

// lookPath resolves name against path, the PATH value the script will
// see. exec.LookPath only consults the worker's own PATH, which lacks
// scripts.d. Names containing a slash are returned unchanged and are
// resolved relative to the sandbox.
func lookPath(name, path string) (string, error) {
	if strings.Contains(name, "/") {
		return name, nil
	}
	for _, directory := range filepath.SplitList(path) {
		if directory == "" {
			continue
		}
		candidate := filepath.Join(directory, name)
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		if info.Mode()&0111 == 0 {
			continue
		}
		return candidate, nil
	}
	return "", &fs.PathError{Op: "lookup", Path: name, Err: errNotFound}
}
