// Package modulefile classifies environment-module files and extracts catalog
// metadata from them.
//
// Two dialects are understood without executing either of them. Script
// module files start with a "#%Module" marker; structured module files carry
// a ".lua" suffix. Both are swept with the same key vocabulary in two forms:
//
//	whatis([[Description: GNU Compiler Collection]])   annotation form
//	"Description:GNU Compiler Collection"              comment form
//
// Comment-form values win over annotation-form values for the same key.
package modulefile

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Key is a metadata key from the shared vocabulary.
type Key string

const (
	KeyName           Key = "Name"
	KeyVersion        Key = "Version"
	KeyDescription    Key = "Description"
	KeyURL            Key = "URL"
	KeyCategory       Key = "Category"
	KeyKeywords       Key = "Keywords"
	KeySupportStatus  Key = "SupportStatus"
	KeySupportContact Key = "SupportContact"
	KeyDefault        Key = "Default"
	KeyFlags          Key = "IPF_FLAGS"
)

// FlagNoPublish in the flags key suppresses the record.
const FlagNoPublish = "NOPUBLISH"

// vocabulary lists every key in declaration order.
var vocabulary = []Key{
	KeyName, KeyVersion, KeyDescription, KeyURL, KeyCategory,
	KeyKeywords, KeySupportStatus, KeySupportContact, KeyDefault, KeyFlags,
}

// Match is one key/value pair found by a dialect sweep.
type Match struct {
	Key   Key
	Value string
}

// Dialect finds key/value pairs written in one syntactic form.
type Dialect interface {
	// Name identifies the form in logs.
	Name() string

	// Matches returns every pair in text, in file order.
	Matches(text string) []Match
}

type tableDialect struct {
	name string
	re   *regexp.Regexp
}

func (d *tableDialect) Name() string { return d.name }

func (d *tableDialect) Matches(text string) []Match {
	found := d.re.FindAllStringSubmatch(text, -1)
	if len(found) == 0 {
		return nil
	}

	matches := make([]Match, 0, len(found))
	for _, m := range found {
		matches = append(matches, Match{
			Key:   classifyKey(m[1]),
			Value: strings.TrimSpace(m[2]),
		})
	}
	return matches
}

// classifyKey maps matched key text back onto the vocabulary. Any key text
// ending in "escription" is a description, which tolerates "description",
// "Short description" and similar spellings.
func classifyKey(text string) Key {
	if strings.Contains(text, "escription") {
		return KeyDescription
	}
	return Key(text)
}

// keyAlternation builds a regexp alternation over the vocabulary, longest
// pattern first so that no key is cut short by a shorter one.
// descriptionPattern replaces the literal Description key.
func keyAlternation(descriptionPattern string) string {
	patterns := make([]string, 0, len(vocabulary))
	for _, k := range vocabulary {
		if k == KeyDescription {
			patterns = append(patterns, descriptionPattern)
			continue
		}
		patterns = append(patterns, regexp.QuoteMeta(string(k)))
	}
	sort.SliceStable(patterns, func(i, j int) bool {
		return len(patterns[i]) > len(patterns[j])
	})
	return strings.Join(patterns, "|")
}

func newTableDialect(name, format, descriptionPattern string) *tableDialect {
	return &tableDialect{
		name: name,
		re:   regexp.MustCompile(fmt.Sprintf(format, keyAlternation(descriptionPattern))),
	}
}

var (
	// Annotation matches whatis([[key: value]]) on a single line.
	Annotation Dialect = newTableDialect("annotation",
		`whatis\(\[\[(%s)\s*:\s*(.*)\]\]\)`, `[^:\]\n]*escription`)

	// Comment matches "key:value" inside double quotes.
	Comment Dialect = newTableDialect("comment",
		`"(%s):([^"]+)"`, `[^":\n]*escription`)
)

// Merge concatenates dialect matches in the order given. Later matches
// overwrite earlier ones when applied, so the last group has the final say.
func Merge(groups ...[]Match) []Match {
	var n int
	for _, g := range groups {
		n += len(g)
	}
	merged := make([]Match, 0, n)
	for _, g := range groups {
		merged = append(merged, g...)
	}
	return merged
}

// Extract sweeps text with both dialects, annotation form first.
func Extract(text string) []Match {
	return Merge(Annotation.Matches(text), Comment.Matches(text))
}
