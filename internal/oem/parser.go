package oem

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// elementMap collects the child elements of a container element into a
// name -> text map. Header and metadata blocks are carried opaquely, so
// any element the source adds in the future survives a round trip.
type elementMap map[string]string

func (m *elementMap) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	*m = elementMap{}
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var val string
			if err := d.DecodeElement(&val, &t); err != nil {
				return err
			}
			(*m)[t.Name.Local] = strings.TrimSpace(val)
		case xml.EndElement:
			if t.Name == start.Name {
				return nil
			}
		}
	}
}

// xmlValue is a numeric leaf element, e.g. <X units="km">-4945.2048</X>.
// Some producers repeat the unit inside the text node; parseComponent
// strips it.
type xmlValue struct {
	Units string `xml:"units,attr"`
	Text  string `xml:",chardata"`
}

type xmlStateVector struct {
	Epoch string   `xml:"EPOCH"`
	X     xmlValue `xml:"X"`
	Y     xmlValue `xml:"Y"`
	Z     xmlValue `xml:"Z"`
	XDot  xmlValue `xml:"X_DOT"`
	YDot  xmlValue `xml:"Y_DOT"`
	ZDot  xmlValue `xml:"Z_DOT"`
}

type xmlSegment struct {
	Metadata elementMap `xml:"metadata"`
	Data     struct {
		Comments []string         `xml:"COMMENT"`
		Vectors  []xmlStateVector `xml:"stateVector"`
	} `xml:"data"`
}

// xmlDocument mirrors the CCSDS OEM/XML layout: ndm/oem/header plus one
// or more body segments.
type xmlDocument struct {
	XMLName xml.Name `xml:"ndm"`
	Oem     struct {
		Header   elementMap   `xml:"header"`
		Segments []xmlSegment `xml:"body>segment"`
	} `xml:"oem"`
}

// Parse decodes an OEM/XML ephemeris document into a Dataset. Parsing is
// strict and all-or-nothing: any missing or non-numeric state vector
// field rejects the whole document with a MalformedDatasetError, so a
// returned Dataset is always fully usable.
//
// Source and LoadedAt are left for the caller to fill in.
func Parse(r io.Reader) (*Dataset, error) {
	var doc xmlDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &MalformedDatasetError{Record: -1, Reason: "invalid XML", Cause: err}
	}

	if doc.Oem.Header == nil {
		return nil, &MalformedDatasetError{Record: -1, Reason: "missing header section"}
	}
	if len(doc.Oem.Segments) == 0 {
		return nil, &MalformedDatasetError{Record: -1, Reason: "missing body segment"}
	}
	if doc.Oem.Segments[0].Metadata == nil {
		return nil, &MalformedDatasetError{Record: -1, Reason: "missing metadata section"}
	}

	ds := &Dataset{
		Header:   map[string]string(doc.Oem.Header),
		Metadata: map[string]string(doc.Oem.Segments[0].Metadata),
	}

	// The ISS feed is single-segment; if a producer ever splits the
	// trajectory, later segments contribute their data blocks too.
	record := 0
	for _, seg := range doc.Oem.Segments {
		ds.Comment = append(ds.Comment, seg.Data.Comments...)
		for _, xv := range seg.Data.Vectors {
			sv, err := buildStateVector(record, xv)
			if err != nil {
				return nil, err
			}
			ds.Epochs = append(ds.Epochs, sv)
			record++
		}
	}

	for i, sv := range ds.Epochs {
		if i == 0 || sv.Time.Before(ds.EpochRange.Min) {
			ds.EpochRange.Min = sv.Time
		}
		if i == 0 || sv.Time.After(ds.EpochRange.Max) {
			ds.EpochRange.Max = sv.Time
		}
	}

	return ds, nil
}

// ParseBytes is a convenience wrapper around Parse.
func ParseBytes(data []byte) (*Dataset, error) {
	return Parse(strings.NewReader(string(data)))
}

func buildStateVector(record int, xv xmlStateVector) (StateVector, error) {
	epochStr := strings.TrimSpace(xv.Epoch)
	if epochStr == "" {
		return StateVector{}, &MalformedDatasetError{Record: record, Field: "EPOCH", Reason: "missing value"}
	}
	t, err := parseEpoch(epochStr)
	if err != nil {
		return StateVector{}, &MalformedDatasetError{Record: record, Field: "EPOCH", Reason: err.Error()}
	}

	sv := StateVector{Epoch: epochStr, Time: t}
	components := []struct {
		name  string
		units string
		val   xmlValue
		dst   *float64
	}{
		{"X", "km", xv.X, &sv.Position.X},
		{"Y", "km", xv.Y, &sv.Position.Y},
		{"Z", "km", xv.Z, &sv.Position.Z},
		{"X_DOT", "km/s", xv.XDot, &sv.Velocity.X},
		{"Y_DOT", "km/s", xv.YDot, &sv.Velocity.Y},
		{"Z_DOT", "km/s", xv.ZDot, &sv.Velocity.Z},
	}
	for _, c := range components {
		if c.val.Units != "" && c.val.Units != c.units {
			return StateVector{}, &MalformedDatasetError{
				Record: record,
				Field:  c.name,
				Reason: fmt.Sprintf("unexpected units %q", c.val.Units),
			}
		}
		f, err := parseComponent(c.val.Text)
		if err != nil {
			return StateVector{}, &MalformedDatasetError{Record: record, Field: c.name, Reason: err.Error()}
		}
		*c.dst = f
	}

	return sv, nil
}

// Epoch timestamps in the NASA feed use the CCSDS day-of-year form
// 2024-052T12:00:00.000Z; calendar-date producers are accepted too.
// time.Parse consumes fractional seconds on its own.
var epochLayouts = []string{
	"2006-002T15:04:05Z",
	"2006-01-02T15:04:05Z",
	"2006-002T15:04:05",
	"2006-01-02T15:04:05",
}

func parseEpoch(s string) (time.Time, error) {
	for _, layout := range epochLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized epoch format %q", s)
}

func parseComponent(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, errors.New("missing value")
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}
	stripped := strings.TrimSpace(stripUnitSuffix(s))
	if stripped != "" && stripped != s {
		if v, err := strconv.ParseFloat(stripped, 64); err == nil {
			return v, nil
		}
	}
	return 0, fmt.Errorf("non-numeric value %q", raw)
}

// stripUnitSuffix removes a trailing run of unit characters from s,
// e.g. "-2.51 km/s" -> "-2.51 ".
func stripUnitSuffix(s string) string {
	i := len(s)
	for i > 0 {
		c := s[i-1]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '/' {
			i--
			continue
		}
		break
	}
	return s[:i]
}
