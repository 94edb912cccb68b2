package model

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/sha3"
)

// probeSeparator joins probe text the way the scan report delimits
// fingerprint lines.
const probeSeparator = "\r\n"

// OSFingerprint is the reconciled OS fingerprint of one host: every OS
// match the report declared plus a synthetic match for every class that
// could not be attributed to a declared one, in a single uniformly
// shaped list. It is built once from one decoded snapshot and is
// read-only afterwards, so a built value is safe to share across
// goroutines without synchronization.
//
// Reconciliation exists because older report schemas emit OS classes as
// siblings of the matches instead of nesting them. The only linkage
// available in the sibling shape is the confidence score, so attribution
// is a documented heuristic: an orphan class joins the first match with
// equal accuracy, scanning in list order. When several matches share an
// accuracy value the winner is whichever comes first, which may be
// semantically wrong. Downstream consumers rely on that long-standing
// tie-break, so it stays as-is and the analyze package flags it instead.
type OSFingerprint struct {
	matches   []*OSMatch
	probes    []string
	portsUsed []PortUsed
	logger    *slog.Logger
}

// OSFingerprintOption configures an OSFingerprint.
type OSFingerprintOption func(*OSFingerprint)

// WithLogger sets the logger used for deprecation warnings.
// Defaults to slog.Default().
func WithLogger(logger *slog.Logger) OSFingerprintOption {
	return func(f *OSFingerprint) {
		f.logger = logger
	}
}

// NewOSFingerprint reconciles one decoded OS fingerprint snapshot.
//
// Build order:
//  1. Report-declared matches are built in report order.
//  2. Each orphan class is built, then attributed: the first match in
//     the list with equal accuracy receives it; when none exists, a
//     synthetic placeholder match (line SyntheticLine, name derived from
//     the class) is appended holding that class. No class data is ever
//     dropped.
//  3. Probe entries carrying fingerprint text are collected in order;
//     entries without text are skipped.
//  4. Port descriptors are stored verbatim.
//
// Construction is atomic: the first ValidationError from any contained
// record aborts the whole build and no partial result exists. Absent
// groups are valid and simply yield empty query results.
func NewOSFingerprint(data OSData, opts ...OSFingerprintOption) (*OSFingerprint, error) {
	f := &OSFingerprint{logger: slog.Default()}
	for _, opt := range opts {
		opt(f)
	}

	for _, matchData := range data.Matches {
		match, err := NewOSMatch(matchData)
		if err != nil {
			return nil, err
		}
		f.matches = append(f.matches, match)
	}

	for _, classData := range data.Classes {
		class, err := NewOSClass(classData)
		if err != nil {
			return nil, err
		}
		match := f.matchByAccuracy(class.Accuracy())
		if match == nil {
			f.addSyntheticMatch(class)
			continue
		}
		if err := match.AddClass(class); err != nil {
			return nil, err
		}
	}

	for _, probeData := range data.Probes {
		if probeData.Fingerprint == nil {
			continue
		}
		f.probes = append(f.probes, *probeData.Fingerprint)
	}

	if data.PortsUsed != nil {
		f.portsUsed = make([]PortUsed, len(data.PortsUsed))
		copy(f.portsUsed, data.PortsUsed)
	}

	return f, nil
}

// matchByAccuracy returns the first match in list order with the given
// accuracy, or nil. The scan covers synthetic matches added for earlier
// orphans, so two orphan classes with one accuracy value share a single
// placeholder.
func (f *OSFingerprint) matchByAccuracy(accuracy int) *OSMatch {
	for _, match := range f.matches {
		if match.Accuracy() == accuracy {
			return match
		}
	}
	return nil
}

// addSyntheticMatch fabricates a placeholder match around a class no
// existing match could absorb and appends it to the match list. The name
// concatenates the class's type, vendor and family. It is a display
// convention, never a lookup key.
func (f *OSFingerprint) addSyntheticMatch(class *OSClass) {
	f.matches = append(f.matches, &OSMatch{
		name:     fmt.Sprintf("%s:%s:%s", class.Type(), class.Vendor(), class.OSFamily()),
		line:     SyntheticLine,
		accuracy: class.Accuracy(),
		classes:  []*OSClass{class},
	})
}

// Matches returns every reconciled match with accuracy >= minAccuracy,
// declared and synthetic alike, preserving reconciliation order. Pass 0
// for the full list.
func (f *OSFingerprint) Matches(minAccuracy int) []*OSMatch {
	matches := make([]*OSMatch, 0, len(f.matches))
	for _, match := range f.matches {
		if match.Accuracy() >= minAccuracy {
			matches = append(matches, match)
		}
	}
	return matches
}

// BestMatch returns the match with the highest accuracy, or nil when the
// result holds no matches. Ties resolve to the earliest match in
// reconciliation order.
func (f *OSFingerprint) BestMatch() *OSMatch {
	var best *OSMatch
	for _, match := range f.matches {
		if best == nil || match.Accuracy() > best.Accuracy() {
			best = match
		}
	}
	return best
}

// Probes returns the raw fingerprint probe strings in report order.
func (f *OSFingerprint) Probes() []string {
	probes := make([]string, len(f.probes))
	copy(probes, f.probes)
	return probes
}

// ProbeText returns all probe strings joined with the report's CRLF
// line-separator convention.
func (f *OSFingerprint) ProbeText() string {
	return strings.Join(f.probes, probeSeparator)
}

// PortsUsed returns the port descriptors fingerprinting relied on,
// verbatim from the report.
func (f *OSFingerprint) PortsUsed() []PortUsed {
	ports := make([]PortUsed, len(f.portsUsed))
	copy(ports, f.portsUsed)
	return ports
}

// MatchNames returns the names of all matches with accuracy >=
// minAccuracy, in reconciliation order.
//
// Deprecated: use Matches, which returns structured records. MatchNames
// survives for consumers of the historical flattened surface and logs a
// warning on every call.
func (f *OSFingerprint) MatchNames(minAccuracy int) []string {
	f.log().Warn("OSFingerprint.MatchNames is deprecated, use Matches")

	names := make([]string, 0, len(f.matches))
	for _, match := range f.matches {
		if match.Accuracy() >= minAccuracy {
			names = append(names, match.Name())
		}
	}
	return names
}

// ClassDescriptors returns one flattened "type:...|vendor:...|osfamily..."
// descriptor per class owned by a match with accuracy >= minAccuracy.
// The filter applies to the owning match's accuracy, not the class's
// own, and the descriptor format is frozen (missing colon after
// "osfamily" included) because existing consumers parse it.
//
// Deprecated: use Matches and walk each match's Classes. ClassDescriptors
// survives for consumers of the historical flattened surface and logs a
// warning on every call.
func (f *OSFingerprint) ClassDescriptors(minAccuracy int) []string {
	f.log().Warn("OSFingerprint.ClassDescriptors is deprecated, use Matches")

	var descriptors []string
	for _, match := range f.matches {
		if match.Accuracy() < minAccuracy {
			continue
		}
		for _, class := range match.Classes() {
			descriptors = append(descriptors, fmt.Sprintf("type:%s|vendor:%s|osfamily%s",
				class.Type(), class.Vendor(), class.OSFamily()))
		}
	}
	return descriptors
}

// Digest returns a hex SHA3-256 digest of the reconciled content: match
// tuples, class tuples with their CPE tokens, and probe text. Two
// reconciliations of equal snapshots produce equal digests, which the
// history store uses to spot unchanged hosts cheaply.
func (f *OSFingerprint) Digest() string {
	h := sha3.New256()
	for _, match := range f.matches {
		fmt.Fprintf(h, "match|%s|%d|%d\n", match.Name(), match.Line(), match.Accuracy())
		for _, class := range match.Classes() {
			fmt.Fprintf(h, "class|%s|%s|%s|%s|%d\n",
				class.Vendor(), class.OSFamily(), class.OSGen(), class.Type(), class.Accuracy())
			for _, cpe := range class.CPEList() {
				fmt.Fprintf(h, "cpe|%s\n", cpe)
			}
		}
	}
	for _, probe := range f.probes {
		fmt.Fprintf(h, "probe|%s\n", probe)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// String renders the reconciled result as an indented multi-line block:
// one block per match, then the probe text. The output is for humans and
// logs, not for parsing.
func (f *OSFingerprint) String() string {
	var sb strings.Builder
	for i, match := range f.matches {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(match.String())
	}
	if len(f.probes) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("Fingerprints:\n")
		sb.WriteString(f.ProbeText())
	}
	return sb.String()
}

// log returns the configured logger, falling back to slog.Default() for
// values restored from storage.
func (f *OSFingerprint) log() *slog.Logger {
	if f.logger == nil {
		return slog.Default()
	}
	return f.logger
}

// osFingerprintJSON is the serialized form of OSFingerprint.
type osFingerprintJSON struct {
	Matches   []*OSMatch `json:"osmatches,omitempty"`
	Probes    []string   `json:"osfingerprints,omitempty"`
	PortsUsed []PortUsed `json:"portsused,omitempty"`
}

// MarshalJSON implements json.Marshaler so reports and the history store
// can serialize the reconciled result despite the unexported fields.
func (f *OSFingerprint) MarshalJSON() ([]byte, error) {
	return json.Marshal(osFingerprintJSON{
		Matches:   f.matches,
		Probes:    f.probes,
		PortsUsed: f.portsUsed,
	})
}

// UnmarshalJSON implements json.Unmarshaler. It restores a result
// serialized by MarshalJSON; stored data was validated when first built,
// so no revalidation happens here.
func (f *OSFingerprint) UnmarshalJSON(data []byte) error {
	var aux osFingerprintJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	f.matches = aux.Matches
	f.probes = aux.Probes
	f.portsUsed = aux.PortsUsed
	return nil
}
