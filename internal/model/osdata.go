package model

// OSData is the decoded OS fingerprint fragment of one host's scan
// report, as handed over by the upstream report decoder. All four groups
// are optional: a nil slice means the group was absent from the report,
// which is a valid, empty outcome. Only an entry that is present but
// malformed fails reconciliation.
//
// Design decision: Scalar fields on the contained records are pointers
// because presence drives validation: an absent required field is a hard
// error while an empty string is acceptable data, so the input type must
// tell the two apart without resorting to sentinel values.
type OSData struct {
	// Matches holds the report-declared OS matches, in report order.
	Matches []OSMatchData

	// Classes holds OS classes that arrived outside any match, the
	// sibling shape older report schemas emit.
	Classes []OSClassData

	// Probes holds the raw fingerprint probe entries.
	Probes []ProbeData

	// PortsUsed holds the port descriptors fingerprinting relied on,
	// passed through untouched.
	PortsUsed []PortUsed
}

// OSMatchData is one decoded OS match record.
type OSMatchData struct {
	// Name is the OS guess (e.g. "Linux 2.4.26 (Slackware 10.0.0)").
	// Required.
	Name *string

	// Line is the fingerprint database line the guess came from, as
	// decoded text. Required.
	Line *string

	// Accuracy is the confidence percentage as decoded text. Required.
	Accuracy *string

	// Classes holds class records nested under this match, the shape
	// newer report schemas emit.
	Classes []OSClassData
}

// OSClassData is one decoded OS class record.
type OSClassData struct {
	// Vendor is the OS vendor (e.g. "Microsoft"). Required.
	Vendor *string

	// OSFamily is the OS family (e.g. "Windows"). Required.
	OSFamily *string

	// OSGen is the OS generation (e.g. "7", "2.4.X"). Optional.
	OSGen *string

	// Type is the device type (e.g. "general purpose"). Optional.
	Type *string

	// Accuracy is the confidence percentage as decoded text. Required.
	Accuracy *string

	// CPE holds platform identifier tokens, in report order. May be
	// empty or nil; tokens are opaque.
	CPE []string
}

// ProbeData is one decoded fingerprint probe entry. Entries without
// fingerprint text are skipped during reconciliation, never errors.
type ProbeData struct {
	// Fingerprint is the raw probe text.
	Fingerprint *string
}

// PortUsed is one opaque port descriptor from the report (typically
// state/proto/portid attributes). Reconciliation stores it verbatim and
// never interprets it.
type PortUsed map[string]string
