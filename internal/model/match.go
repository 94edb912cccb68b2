package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SyntheticLine is the reserved line value marking a match synthesized
// during reconciliation rather than declared by the report. It means
// nothing beyond "not present verbatim in the source report".
const SyntheticLine = -1

// OSMatch is one operating-system identification guess: a name with a
// confidence score and the fingerprint-database line it came from,
// owning the OS classes attributed to it.
//
// Matches come in two flavors behind this one interface: authoritative
// matches declared by the report, and synthetic matches fabricated
// during reconciliation to hold an orphan class (line == SyntheticLine,
// name derived from the class). Downstream consumers never see which
// report schema version produced the data.
type OSMatch struct {
	name     string
	line     int
	accuracy int
	classes  []*OSClass
}

// NewOSMatch builds an OSMatch from one decoded match record. Name, line
// and accuracy are required: a nil pointer means the field was absent
// and yields a ValidationError, as does line or accuracy text that does
// not parse as an integer. Nested class records, if any, are built in
// order; the first class that fails validation fails the whole match.
func NewOSMatch(data OSMatchData) (*OSMatch, error) {
	if data.Name == nil {
		return nil, missingField(recordOSMatch, "name")
	}
	if data.Line == nil {
		return nil, missingField(recordOSMatch, "line")
	}
	if data.Accuracy == nil {
		return nil, missingField(recordOSMatch, "accuracy")
	}

	line, err := strconv.Atoi(strings.TrimSpace(*data.Line))
	if err != nil {
		return nil, notNumeric(recordOSMatch, "line", *data.Line)
	}
	accuracy, err := strconv.Atoi(strings.TrimSpace(*data.Accuracy))
	if err != nil {
		return nil, notNumeric(recordOSMatch, "accuracy", *data.Accuracy)
	}

	m := &OSMatch{
		name:     *data.Name,
		line:     line,
		accuracy: accuracy,
		classes:  make([]*OSClass, 0, len(data.Classes)),
	}

	for _, classData := range data.Classes {
		class, err := NewOSClass(classData)
		if err != nil {
			return nil, fmt.Errorf("osmatch %q: %w", m.name, err)
		}
		m.classes = append(m.classes, class)
	}

	return m, nil
}

// AddClass appends one pre-built class to this match. The reconciler
// uses it to attribute classes that arrived outside any match (the
// legacy sibling shape) after the match itself has been built. Passing
// nil yields a ValidationError.
func (m *OSMatch) AddClass(class *OSClass) error {
	if class == nil {
		return missingField(recordOSMatch, recordOSClass)
	}
	m.classes = append(m.classes, class)
	return nil
}

// Name returns the OS guess (e.g. "Linux 2.4.26 (Slackware 10.0.0)").
// For a synthetic match the name concatenates its class's type, vendor
// and family, and is a display label rather than report data.
func (m *OSMatch) Name() string {
	return m.name
}

// Line returns the fingerprint-database line this guess came from, or
// SyntheticLine for a match fabricated during reconciliation.
func (m *OSMatch) Line() int {
	return m.line
}

// Accuracy returns the detection confidence as a percentage (0-100).
func (m *OSMatch) Accuracy() int {
	return m.accuracy
}

// Classes returns the OS classes attributed to this match, in
// attribution order.
func (m *OSMatch) Classes() []*OSClass {
	classes := make([]*OSClass, len(m.classes))
	copy(classes, m.classes)
	return classes
}

// IsSynthetic reports whether this match was fabricated during
// reconciliation to hold an orphan class rather than declared by the
// report.
func (m *OSMatch) IsSynthetic() bool {
	return m.line == SyntheticLine
}

// String renders the match as an indented multi-line block: the
// name/accuracy line followed by one block per attributed class. The
// output is for humans and logs, not for parsing.
func (m *OSMatch) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %d", m.name, m.accuracy)
	for _, class := range m.classes {
		fmt.Fprintf(&sb, "\n  |__ os class: %s", class)
	}
	return sb.String()
}

// osMatchJSON is the serialized form of OSMatch.
type osMatchJSON struct {
	Name      string     `json:"name"`
	Line      int        `json:"line"`
	Accuracy  int        `json:"accuracy"`
	OSClasses []*OSClass `json:"osclasses,omitempty"`
}

// MarshalJSON implements json.Marshaler so reports and the history store
// can serialize matches despite the unexported fields.
func (m *OSMatch) MarshalJSON() ([]byte, error) {
	return json.Marshal(osMatchJSON{
		Name:      m.name,
		Line:      m.line,
		Accuracy:  m.accuracy,
		OSClasses: m.classes,
	})
}

// UnmarshalJSON implements json.Unmarshaler. It restores a match
// serialized by MarshalJSON; stored data was validated when first built,
// so no revalidation happens here.
func (m *OSMatch) UnmarshalJSON(data []byte) error {
	var aux osMatchJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	m.name = aux.Name
	m.line = aux.Line
	m.accuracy = aux.Accuracy
	m.classes = aux.OSClasses
	return nil
}
