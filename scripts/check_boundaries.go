package main

import (
	"bufio"
	"errors"
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

// layerRule lists what a layer inside contexts/<context>/<service>/ may
// import besides the standard library. Entries are relative to the service
// package unless they start with the module path.
type layerRule struct {
	name    string
	allowed []string
}

var layerRules = map[string]layerRule{
	"domain":      {name: "domain", allowed: []string{"domain"}},
	"ports":       {name: "ports", allowed: []string{"domain"}},
	"application": {name: "application", allowed: []string{"application", "domain", "ports", "@contracts"}},
}

func main() {
	module, err := readModulePath("go.mod")
	if err != nil {
		fmt.Fprintf(os.Stderr, "read module path: %v\n", err)
		os.Exit(2)
	}

	violations := collectViolations(module, "contexts")
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].File == violations[j].File {
			if violations[i].Line == violations[j].Line {
				return violations[i].Import < violations[j].Import
			}
			return violations[i].Line < violations[j].Line
		}
		return violations[i].File < violations[j].File
	})

	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

func readModulePath(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if rest, ok := strings.CutPrefix(line, "module "); ok {
			return strings.Trim(strings.TrimSpace(rest), "\""), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", errors.New("module directive not found")
}

func collectViolations(module string, root string) []violation {
	var violations []violation

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		normalized := filepath.ToSlash(path)
		parts := strings.Split(normalized, "/")
		if len(parts) < 4 || parts[0] != "contexts" {
			return nil
		}

		servicePrefix := fmt.Sprintf("%s/contexts/%s/%s", module, parts[1], parts[2])
		violations = append(violations, validateFile(path, normalized, module, parts[3], servicePrefix)...)
		return nil
	})

	return violations
}

func validateFile(path string, normalizedPath string, module string, layer string, servicePrefix string) []violation {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return []violation{{
			File: normalizedPath,
			Line: 1,
			Rule: "file must parse",
		}}
	}

	var violations []violation
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, "\"")
		line := fset.Position(imp.Pos()).Line
		violations = append(violations, checkImport(normalizedPath, line, importPath, module, layer, servicePrefix)...)
	}
	return violations
}

func checkImport(file string, line int, importPath string, module string, layer string, servicePrefix string) []violation {
	var violations []violation
	add := func(rule string) {
		violations = append(violations, violation{File: file, Line: line, Import: importPath, Rule: rule})
	}

	if hasPrefix(importPath, module+"/contexts") && !hasPrefix(importPath, servicePrefix) {
		add("cross-module imports are forbidden")
	}

	rule, ok := layerRules[layer]
	if !ok || isStdlib(importPath, module) {
		return violations
	}

	if strings.Contains(importPath, "/adapters/") || strings.HasSuffix(importPath, "/adapters") {
		add(rule.name + " must not import adapters")
	}
	if hasPrefix(importPath, module+"/internal") {
		add(rule.name + " must not import runtime infrastructure")
	}

	allowed := make([]string, 0, len(rule.allowed))
	for _, entry := range rule.allowed {
		if name, ok := strings.CutPrefix(entry, "@"); ok {
			allowed = append(allowed, module+"/"+name)
			continue
		}
		allowed = append(allowed, servicePrefix+"/"+entry)
	}
	if !isAllowed(importPath, allowed) {
		add(rule.name + " import is outside explicit allowlist")
	}
	return violations
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isAllowed(importPath string, allowedPrefixes []string) bool {
	for _, p := range allowedPrefixes {
		if hasPrefix(importPath, p) {
			return true
		}
	}
	return false
}

func isStdlib(importPath string, module string) bool {
	if hasPrefix(importPath, module) {
		return false
	}
	first := importPath
	if idx := strings.Index(first, "/"); idx != -1 {
		first = first[:idx]
	}
	return !strings.Contains(first, ".")
}
