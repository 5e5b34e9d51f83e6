package modulefile

import (
	"regexp"
	"strings"
)

var (
	assignmentRe   = regexp.MustCompile(`set (\S*)\s*"([^"]*)"`)
	continuationRe = regexp.MustCompile(`\\\s+`)
	stderrPrintRe  = regexp.MustCompile(`puts stderr "([^"]+)"`)
	variableRe     = regexp.MustCompile(`\$([A-Za-z0-9_]+)`)
	spaceRunRe     = regexp.MustCompile(` +`)
)

// InferDescription rebuilds a description from the help text a script module
// file prints on stderr. Variables set with `set name "value"` are
// substituted, $_module_name becomes handle and $version becomes version when
// hasVersion is set. Returns "" when the file prints nothing.
func InferDescription(text, handle, version string, hasVersion bool) string {
	prints := stderrPrintRe.FindAllStringSubmatch(text, -1)
	if len(prints) == 0 {
		return ""
	}

	fragments := make([]string, 0, len(prints))
	for _, m := range prints {
		fragments = append(fragments, m[1])
	}
	description := strings.Join(fragments, " ")

	vars := assignments(text)
	description = substitute(description, func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	})
	description = substitute(description, func(name string) (string, bool) {
		return handle, name == "_module_name"
	})
	if hasVersion {
		description = substitute(description, func(name string) (string, bool) {
			return version, name == "version"
		})
	}

	description = strings.ReplaceAll(description, `\t`, " ")
	description = strings.ReplaceAll(description, `\n`, "")
	return strings.TrimSpace(spaceRunRe.ReplaceAllString(description, " "))
}

// assignments collects `set name "value"` statements. Backslash continuations
// inside a value collapse to one space; the last assignment of a name wins.
func assignments(text string) map[string]string {
	vars := make(map[string]string)
	for _, m := range assignmentRe.FindAllStringSubmatch(text, -1) {
		vars[m[1]] = continuationRe.ReplaceAllString(m[2], " ")
	}
	return vars
}

// substitute replaces whole $name tokens for which lookup succeeds.
func substitute(text string, lookup func(name string) (string, bool)) string {
	return variableRe.ReplaceAllStringFunc(text, func(token string) string {
		if v, ok := lookup(token[1:]); ok {
			return v
		}
		return token
	})
}
