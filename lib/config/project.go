// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/bash/toby/lib/jobid"
)

// projectExtensions are the accepted project file extensions. JSONC
// files have comments and trailing commas stripped, after which the
// JSON is decoded as YAML.
var projectExtensions = []string{".yaml", ".yml", ".jsonc"}

// ProjectName derives a project name from its file name, or returns
// false for files that are not project definitions.
func ProjectName(fileName string) (string, bool) {
	extension := filepath.Ext(fileName)
	for _, accepted := range projectExtensions {
		if extension == accepted {
			return strings.TrimSuffix(filepath.Base(fileName), extension), true
		}
	}
	return "", false
}

// ParseProject decodes one project definition. fileName selects the
// format by extension.
func ParseProject(fileName string, data []byte) (Project, error) {
	if filepath.Ext(fileName) == ".jsonc" {
		data = jsonc.ToJSON(data)
	}
	var project Project
	if err := decodeStrict(data, &project); err != nil {
		return Project{}, err
	}
	return project, nil
}

// loadProjects reads every project file in directory. A missing
// directory yields no projects.
func loadProjects(directory string) (map[string]Project, error) {
	projects := make(map[string]Project)

	entries, err := os.ReadDir(directory)
	if errors.Is(err, os.ErrNotExist) {
		return projects, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing project files: %w", err)
	}

	sources := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, ok := ProjectName(entry.Name())
		if !ok {
			continue
		}
		path := filepath.Join(directory, entry.Name())
		if err := jobid.ValidateProjectName(name); err != nil {
			return nil, fmt.Errorf("project file %s: %w", path, err)
		}
		if previous, exists := sources[name]; exists {
			return nil, fmt.Errorf("project %q is defined by both %s and %s", name, previous, path)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading project file: %w", err)
		}
		project, err := ParseProject(entry.Name(), data)
		if err != nil {
			return nil, fmt.Errorf("parsing project file %s: %w", path, err)
		}
		projects[name] = project
		sources[name] = path
	}
	return projects, nil
}
