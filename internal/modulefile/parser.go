package modulefile

import (
	"bufio"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/dyluth/modcat/internal/walker"
	"github.com/dyluth/modcat/pkg/catalog"
	"github.com/google/uuid"
)

// Marker identifies a script-dialect module file.
const Marker = "#%Module"

// markerWindow is how many leading lines may precede the marker.
const markerWindow = 16

// Outcome says what happened to a candidate.
type Outcome int

const (
	// Accepted means a record was built.
	Accepted Outcome = iota

	// NotModule means the file is neither dialect.
	NotModule

	// Suppressed means the file asked not to be published.
	Suppressed
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case NotModule:
		return "not-module"
	case Suppressed:
		return "suppressed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Options are the per-run settings stamped onto every record.
type Options struct {
	DefaultSupportContact  string
	Validity               time.Duration
	ResourceName           string
	ExecutionEnvironmentID string

	// Now returns the record creation time. Defaults to time.Now.
	Now func() time.Time
}

// Parser turns candidates into catalog entries.
type Parser struct {
	opts   Options
	logger *log.Logger
}

// NewParser creates a parser.
func NewParser(opts Options, logger *log.Logger) *Parser {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "modulefile"})
	}
	return &Parser{opts: opts, logger: logger}
}

// ParseFile reads the candidate and parses it. A read failure is returned so
// the caller can report it and move on.
func (p *Parser) ParseFile(c walker.Candidate) (*catalog.Entry, Outcome, error) {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, NotModule, fmt.Errorf("failed to read module file: %w", err)
	}
	entry, outcome := p.Parse(c, data)
	return entry, outcome, nil
}

// Parse builds an entry from the contents of a candidate file.
// Entry is nil unless the outcome is Accepted.
func (p *Parser) Parse(c walker.Candidate, data []byte) (*catalog.Entry, Outcome) {
	text := Decode(data)

	structured := IsStructured(c.Path)
	if !structured && !HasMarker(text) {
		p.logger.Debug("not a module file", "path", c.Path)
		return nil, NotModule
	}

	name, version, hasVersion := c.Name, c.Version, c.HasVersion
	if structured {
		if hasVersion {
			version = strings.TrimSuffix(version, walker.StructuredSuffix)
		} else {
			name = strings.TrimSuffix(name, walker.StructuredSuffix)
		}
	}

	var fields Fields
	fields.Apply(Extract(text))

	if fields.HasName() {
		name = fields.Name
	}
	if fields.HasVersion() {
		version = fields.Version
		hasVersion = true
	}

	if fields.Suppressed() {
		p.logger.Debug("publication suppressed", "path", c.Path, "flag", FlagNoPublish)
		return nil, Suppressed
	}

	handle := catalog.ModuleHandle(name, version)

	description := fields.Description
	if description == "" {
		description = InferDescription(text, handle.Value, version, hasVersion)
		if description == "" {
			p.logger.Debug("no description", "path", c.Path)
		}
	}

	supportContact := fields.SupportContact
	if supportContact == "" {
		p.logger.Debug("no support contact", "path", c.Path)
		supportContact = p.opts.DefaultSupportContact
	}

	record := &catalog.Record{
		ID:            RecordID(c.Path),
		Name:          name,
		SpecifiedName: fields.SpecifiedName,
		Version:       version,
		Description:   description,
		Repository:    fields.Repository,
		Keywords:      nonNil(fields.Keywords),
		Extension: catalog.Extension{
			Categories:     nonNil(fields.Categories),
			SupportStatus:  fields.SupportStatus,
			SupportContact: supportContact,
			Default:        fields.Default,
		},
		PathHash:               Fingerprint(c.Path),
		Validity:               p.opts.Validity,
		ResourceName:           p.opts.ResourceName,
		ExecutionEnvironmentID: p.opts.ExecutionEnvironmentID,
		CreatedAtMs:            p.opts.Now().UnixMilli(),
	}

	return &catalog.Entry{Record: record, Handles: []catalog.Handle{handle}}, Accepted
}

// Decode converts file bytes to text, replacing invalid UTF-8 with U+FFFD.
func Decode(data []byte) string {
	return strings.ToValidUTF8(string(data), string(utf8.RuneError))
}

// IsStructured reports whether the file name carries the structured-dialect suffix.
func IsStructured(path string) bool {
	return strings.HasSuffix(filepath.Base(path), walker.StructuredSuffix)
}

// HasMarker reports whether the script-dialect marker appears in the first lines of text.
func HasMarker(text string) bool {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for i := 0; i < markerWindow && scanner.Scan(); i++ {
		if strings.Contains(scanner.Text(), Marker) {
			return true
		}
	}
	return false
}

// Fingerprint is the MD5 hex digest of an absolute path. It depends only on
// the path, never on file contents.
func Fingerprint(path string) string {
	sum := md5.Sum([]byte(path))
	return hex.EncodeToString(sum[:])
}

// RecordID is a name-based (version 5) UUID of an absolute path.
func RecordID(path string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+path)).String()
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
