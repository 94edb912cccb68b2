package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// OSClass describes one operating-system class from a scan report: a
// vendor/family tuple with a confidence score, optionally narrowed by a
// generation and a device type, and tagged with zero or more CPE tokens.
//
// OSClass is immutable once constructed. Numeric fields are validated and
// normalized at construction, and the optional generation/type default to
// the empty string, so accessors never distinguish "absent" from "empty".
type OSClass struct {
	vendor    string
	osFamily  string
	osGen     string
	classType string
	accuracy  int
	cpes      []CPE
}

// NewOSClass builds an OSClass from one decoded class record. Vendor,
// osfamily and accuracy are required: a nil pointer means the field was
// absent from the record and yields a ValidationError, as does accuracy
// text that does not parse as an integer.
func NewOSClass(data OSClassData) (*OSClass, error) {
	if data.Vendor == nil {
		return nil, missingField(recordOSClass, "vendor")
	}
	if data.OSFamily == nil {
		return nil, missingField(recordOSClass, "osfamily")
	}
	if data.Accuracy == nil {
		return nil, missingField(recordOSClass, "accuracy")
	}

	accuracy, err := strconv.Atoi(strings.TrimSpace(*data.Accuracy))
	if err != nil {
		return nil, notNumeric(recordOSClass, "accuracy", *data.Accuracy)
	}

	c := &OSClass{
		vendor:   *data.Vendor,
		osFamily: *data.OSFamily,
		accuracy: accuracy,
		cpes:     make([]CPE, 0, len(data.CPE)),
	}
	if data.OSGen != nil {
		c.osGen = *data.OSGen
	}
	if data.Type != nil {
		c.classType = *data.Type
	}
	for _, token := range data.CPE {
		c.cpes = append(c.cpes, CPE(token))
	}

	return c, nil
}

// Vendor returns the OS vendor (e.g. "Microsoft", "Linux").
func (c *OSClass) Vendor() string {
	return c.vendor
}

// OSFamily returns the OS family (e.g. "Windows", "Linux").
func (c *OSClass) OSFamily() string {
	return c.osFamily
}

// OSGen returns the OS generation (e.g. "7", "2.4.X"), or the empty
// string when the report carried none.
func (c *OSClass) OSGen() string {
	return c.osGen
}

// Type returns the device type (e.g. "general purpose", "router"), or
// the empty string when the report carried none.
func (c *OSClass) Type() string {
	return c.classType
}

// Accuracy returns the detection confidence as a percentage (0-100).
func (c *OSClass) Accuracy() int {
	return c.accuracy
}

// CPEList returns the CPE tokens tagged on this class, in report order.
func (c *OSClass) CPEList() []CPE {
	cpes := make([]CPE, len(c.cpes))
	copy(cpes, c.cpes)
	return cpes
}

// String renders the class as an indented multi-line block: the
// type/vendor/family line followed by one line per CPE token. The output
// is for humans and logs, not for parsing.
func (c *OSClass) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s, %s", c.classType, c.vendor, c.osFamily)
	if c.osGen != "" {
		fmt.Fprintf(&sb, "(%s)", c.osGen)
	}
	for _, cpe := range c.cpes {
		fmt.Fprintf(&sb, "\n    |__ %s", cpe)
	}
	return sb.String()
}

// osClassJSON is the serialized form of OSClass.
type osClassJSON struct {
	Vendor   string `json:"vendor"`
	OSFamily string `json:"osfamily"`
	OSGen    string `json:"osgen,omitempty"`
	Type     string `json:"type,omitempty"`
	Accuracy int    `json:"accuracy"`
	CPE      []CPE  `json:"cpe,omitempty"`
}

// MarshalJSON implements json.Marshaler so reports and the history store
// can serialize classes despite the unexported fields.
func (c *OSClass) MarshalJSON() ([]byte, error) {
	return json.Marshal(osClassJSON{
		Vendor:   c.vendor,
		OSFamily: c.osFamily,
		OSGen:    c.osGen,
		Type:     c.classType,
		Accuracy: c.accuracy,
		CPE:      c.cpes,
	})
}

// UnmarshalJSON implements json.Unmarshaler. It restores a class
// serialized by MarshalJSON; stored data was validated when first built,
// so no revalidation happens here.
func (c *OSClass) UnmarshalJSON(data []byte) error {
	var aux osClassJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.vendor = aux.Vendor
	c.osFamily = aux.OSFamily
	c.osGen = aux.OSGen
	c.classType = aux.Type
	c.accuracy = aux.Accuracy
	c.cpes = aux.CPE
	return nil
}
