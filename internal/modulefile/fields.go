package modulefile

import "strings"

// Fields is the metadata assembled from a match list.
type Fields struct {
	Name           string
	SpecifiedName  string
	Version        string
	Description    string
	Repository     string
	Categories     []string
	Keywords       []string
	SupportStatus  string
	SupportContact string
	Default        string
	Flags          []string

	nameSet    bool
	versionSet bool
}

// Apply assigns matches in order. A later match for a key overwrites an
// earlier one, except for flags, which accumulate. Blank values are ignored
// so that an empty directive never erases a value set before it.
func (f *Fields) Apply(matches []Match) {
	for _, m := range matches {
		if m.Value == "" {
			continue
		}
		switch m.Key {
		case KeyName:
			f.SpecifiedName = m.Value
			f.Name = m.Value
			f.nameSet = true
		case KeyVersion:
			f.Version = m.Value
			f.versionSet = true
		case KeyDescription:
			f.Description = m.Value
		case KeyURL:
			f.Repository = m.Value
		case KeyCategory:
			f.Categories = splitList(m.Value)
		case KeyKeywords:
			f.Keywords = splitList(m.Value)
		case KeySupportStatus:
			f.SupportStatus = m.Value
		case KeySupportContact:
			f.SupportContact = m.Value
		case KeyDefault:
			f.Default = m.Value
		case KeyFlags:
			f.Flags = append(f.Flags, splitList(m.Value)...)
		}
	}
}

// HasName reports whether an explicit Name directive was applied.
func (f *Fields) HasName() bool { return f.nameSet }

// HasVersion reports whether an explicit Version directive was applied.
func (f *Fields) HasVersion() bool { return f.versionSet }

// Suppressed reports whether the flags ask for the record not to be published.
func (f *Fields) Suppressed() bool {
	for _, flag := range f.Flags {
		if flag == FlagNoPublish {
			return true
		}
	}
	return false
}

// splitList splits on commas and trims each item, keeping order.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		items = append(items, strings.TrimSpace(p))
	}
	return items
}
