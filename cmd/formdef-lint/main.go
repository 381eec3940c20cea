package main

import (
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/definition"
)

type violation struct {
	file     string
	location string
	message  string
}

func main() {
	flag.Usage = func() {
		if _, err := fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [paths...]\n", filepath.Base(os.Args[0])); err != nil {
			panic(err)
		}
		if _, err := fmt.Fprintf(flag.CommandLine.Output(), "\nLint form definition files (JSON or YAML). Directories are walked.\n"); err != nil {
			panic(err)
		}
	}
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		paths = []string{"forms"}
	}

	files, err := expand(paths)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lint: %v\n", err)
		os.Exit(1)
	}

	var violations []violation
	owners := make(map[string]string)
	for _, path := range files {
		linted, id, err := lintFile(path)
		if err != nil {
			violations = append(violations, violation{file: path, location: "document", message: err.Error()})
			continue
		}
		if previous, ok := owners[id]; ok {
			violations = append(violations, violation{
				file:     path,
				location: "id",
				message:  fmt.Sprintf("form id %q is already declared in %s", id, previous),
			})
		} else {
			owners[id] = path
		}
		violations = append(violations, linted...)
	}

	if len(violations) > 0 {
		sort.SliceStable(violations, func(i, j int) bool {
			return violations[i].file < violations[j].file
		})
		for _, v := range violations {
			fmt.Fprintf(os.Stderr, "%s: %s -> %s\n", v.file, v.location, v.message)
		}
		os.Exit(1)
	}
	fmt.Printf("%d definition(s) clean\n", len(files))
}

func lintFile(path string) ([]violation, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read file: %w", err)
	}
	def, err := definition.Parse(raw, path)
	if err != nil {
		return nil, "", err
	}

	var result []violation
	for _, issue := range definition.Lint(def) {
		location := issue.Path
		if location == "" {
			location = "form"
		}
		result = append(result, violation{file: path, location: location, message: issue.Message})
	}
	return result, def.ID, nil
}

func expand(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		err = filepath.WalkDir(path, func(p string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if entry.IsDir() {
				return nil
			}
			switch strings.ToLower(filepath.Ext(p)) {
			case ".json", ".yaml", ".yml":
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}
