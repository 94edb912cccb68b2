package decode

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/scanforge/osfp/internal/model"
)

// ErrEmptyInput is returned when a report file contains no document.
var ErrEmptyInput = errors.New("scan report is empty")

// Document is one host's decoded entry from a scan report file, ready
// for reconciliation.
type Document struct {
	// Host is the label the report attached to this entry, verbatim.
	// Callers normalize it before using it as a storage key.
	Host string

	// Data holds the decoded OS detection groups.
	Data model.OSData
}

// scalar is a JSON value that may arrive as a string or a number.
// Exporters that stay faithful to the XML attributes emit strings;
// others emit real numbers for line and accuracy. Both decode to the
// value's text form.
type scalar string

// UnmarshalJSON implements json.Unmarshaler.
func (s *scalar) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = scalar(str)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = scalar(num.String())
	return nil
}

// toPtr converts an optional scalar to the pointer form the model's
// presence checks expect. Absent (or explicit null) stays nil.
func (s *scalar) toPtr() *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}

// document mirrors one host entry of the report file.
type document struct {
	Host string     `json:"host"`
	OS   *osSection `json:"os"`
}

// osSection mirrors the OS detection groups of the report file. Every
// group is optional; a missing group decodes to a nil slice, which the
// model treats as valid empty input.
type osSection struct {
	Matches   []matchDoc          `json:"osmatches"`
	Classes   []classDoc          `json:"osclasses"`
	Probes    []probeDoc          `json:"osfingerprints"`
	PortsUsed []map[string]scalar `json:"portsused"`
}

type matchDoc struct {
	Name     *scalar    `json:"name"`
	Line     *scalar    `json:"line"`
	Accuracy *scalar    `json:"accuracy"`
	Classes  []classDoc `json:"osclasses"`
}

type classDoc struct {
	Vendor   *scalar  `json:"vendor"`
	OSFamily *scalar  `json:"osfamily"`
	OSGen    *scalar  `json:"osgen"`
	Type     *scalar  `json:"type"`
	Accuracy *scalar  `json:"accuracy"`
	CPE      []string `json:"cpe"`
}

type probeDoc struct {
	Fingerprint *string `json:"fingerprint"`
}

// Read decodes every document in the report. The top level may be a
// single document object or an array of them; either way the result is
// a slice, in file order.
func Read(r io.Reader) ([]Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read scan report: %w", err)
	}
	return parse(data)
}

// ReadFile decodes every document in the report file at path.
func ReadFile(path string) ([]Document, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided report path is intentional
	if err != nil {
		return nil, fmt.Errorf("read scan report: %w", err)
	}
	return parse(data)
}

func parse(data []byte) ([]Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrEmptyInput
	}

	if trimmed[0] == '[' {
		var docs []document
		if err := json.Unmarshal(trimmed, &docs); err != nil {
			return nil, fmt.Errorf("decode scan report: %w", err)
		}
		if len(docs) == 0 {
			return nil, ErrEmptyInput
		}
		result := make([]Document, 0, len(docs))
		for _, doc := range docs {
			result = append(result, doc.toDocument())
		}
		return result, nil
	}

	var doc document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("decode scan report: %w", err)
	}
	return []Document{doc.toDocument()}, nil
}

func (d document) toDocument() Document {
	result := Document{Host: d.Host}
	if d.OS == nil {
		return result
	}

	for _, match := range d.OS.Matches {
		result.Data.Matches = append(result.Data.Matches, match.toData())
	}
	for _, class := range d.OS.Classes {
		result.Data.Classes = append(result.Data.Classes, class.toData())
	}
	for _, probe := range d.OS.Probes {
		result.Data.Probes = append(result.Data.Probes, model.ProbeData{Fingerprint: probe.Fingerprint})
	}
	for _, port := range d.OS.PortsUsed {
		converted := make(model.PortUsed, len(port))
		for key, value := range port {
			converted[key] = string(value)
		}
		result.Data.PortsUsed = append(result.Data.PortsUsed, converted)
	}
	return result
}

func (m matchDoc) toData() model.OSMatchData {
	data := model.OSMatchData{
		Name:     m.Name.toPtr(),
		Line:     m.Line.toPtr(),
		Accuracy: m.Accuracy.toPtr(),
	}
	for _, class := range m.Classes {
		data.Classes = append(data.Classes, class.toData())
	}
	return data
}

func (c classDoc) toData() model.OSClassData {
	return model.OSClassData{
		Vendor:   c.Vendor.toPtr(),
		OSFamily: c.OSFamily.toPtr(),
		OSGen:    c.OSGen.toPtr(),
		Type:     c.Type.toPtr(),
		Accuracy: c.Accuracy.toPtr(),
		CPE:      c.CPE,
	}
}
