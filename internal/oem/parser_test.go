package oem

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

func loadSampleDataset(t *testing.T) *Dataset {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", "iss_oem_sample.xml"))
	require.NoError(t, err)
	defer f.Close()

	ds, err := Parse(f)
	require.NoError(t, err)
	return ds
}

func TestParseSampleDocument(t *testing.T) {
	ds := loadSampleDataset(t)

	require.Len(t, ds.Epochs, 8)
	require.Len(t, ds.Comment, 7)
	require.Equal(t, "Units are in kg and m^2", ds.Comment[1])

	require.Equal(t, "JSC", ds.Header["ORIGINATOR"])
	require.Equal(t, "2024-052T04:29:08.587Z", ds.Header["CREATION_DATE"])
	require.Equal(t, "ISS", ds.Metadata["OBJECT_NAME"])
	require.Equal(t, "EME2000", ds.Metadata["REF_FRAME"])

	first := ds.Epochs[0]
	require.Equal(t, "2024-052T12:00:00.000Z", first.Epoch)
	// 2024 is a leap year, so day 052 is Feb 21.
	require.Equal(t, time.Date(2024, 2, 21, 12, 0, 0, 0, time.UTC), first.Time)
	require.Equal(t, Vector3{X: -4945.2048, Y: 3625.0466, Z: 3944.0884}, first.Position)
	require.Equal(t, Vector3{X: -3.3006, Y: -5.9811, Z: 1.3599}, first.Velocity)

	require.Equal(t, first.Time, ds.EpochRange.Min)
	require.Equal(t, time.Date(2024, 2, 21, 12, 28, 0, 0, time.UTC), ds.EpochRange.Max)
}

func TestParseGolden(t *testing.T) {
	ds := loadSampleDataset(t)

	type goldenEpoch struct {
		Epoch    string     `json:"epoch"`
		Time     string     `json:"time"`
		Position [3]float64 `json:"position_km"`
		Velocity [3]float64 `json:"velocity_km_s"`
	}
	type goldenDataset struct {
		Comment  []string          `json:"comment"`
		Header   map[string]string `json:"header"`
		Metadata map[string]string `json:"metadata"`
		Epochs   []goldenEpoch     `json:"epochs"`
	}

	out := goldenDataset{
		Comment:  ds.Comment,
		Header:   ds.Header,
		Metadata: ds.Metadata,
	}
	for _, sv := range ds.Epochs {
		out.Epochs = append(out.Epochs, goldenEpoch{
			Epoch:    sv.Epoch,
			Time:     sv.Time.Format(time.RFC3339),
			Position: [3]float64{sv.Position.X, sv.Position.Y, sv.Position.Z},
			Velocity: [3]float64{sv.Velocity.X, sv.Velocity.Y, sv.Velocity.Z},
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	require.NoError(t, err)
	data = append(data, '\n')

	g := goldie.New(t,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithNameSuffix(".golden"))
	g.Assert(t, "iss_oem_sample", data)
}

const docTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<ndm>
  <oem id="CCSDS_OEM_VERS" version="2.0">
    <header><CREATION_DATE>2024-052T00:00:00.000Z</CREATION_DATE><ORIGINATOR>JSC</ORIGINATOR></header>
    <body>
      <segment>
        <metadata><OBJECT_NAME>ISS</OBJECT_NAME><REF_FRAME>EME2000</REF_FRAME></metadata>
        <data>%s</data>
      </segment>
    </body>
  </oem>
</ndm>`

const goodVector = `<stateVector>
  <EPOCH>2024-052T12:00:00.000Z</EPOCH>
  <X>-4945.2048</X><Y>3625.0466</Y><Z>3944.0884</Z>
  <X_DOT>-3.3006</X_DOT><Y_DOT>-5.9811</Y_DOT><Z_DOT>1.3599</Z_DOT>
</stateVector>`

func TestParseTrailingUnitToken(t *testing.T) {
	doc := fmt.Sprintf(docTemplate, `<stateVector>
  <EPOCH>2024-052T12:00:00.000Z</EPOCH>
  <X>-4945.2048 km</X><Y>3625.0466</Y><Z>3944.0884</Z>
  <X_DOT>-3.3006 km/s</X_DOT><Y_DOT>-5.9811</Y_DOT><Z_DOT>1.3599</Z_DOT>
</stateVector>`)

	ds, err := ParseBytes([]byte(doc))
	require.NoError(t, err)
	require.Equal(t, -4945.2048, ds.Epochs[0].Position.X)
	require.Equal(t, -3.3006, ds.Epochs[0].Velocity.X)
}

func TestParseMissingVelocityRejectsDocument(t *testing.T) {
	bad := `<stateVector>
  <EPOCH>2024-052T12:04:00.000Z</EPOCH>
  <X>-5597.1312</X><Y>2132.0075</Y><Z>4120.5617</Z>
  <X_DOT>-2.1076</X_DOT><Y_DOT>-6.3687</Y_DOT>
</stateVector>`
	doc := fmt.Sprintf(docTemplate, goodVector+bad)

	ds, err := ParseBytes([]byte(doc))
	require.Nil(t, ds)

	var me *MalformedDatasetError
	require.ErrorAs(t, err, &me)
	require.Equal(t, 1, me.Record)
	require.Equal(t, "Z_DOT", me.Field)
}

func TestParseStructuralErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "not xml",
			doc:  "ISS (ZARYA)\n1 25544U 98067A ...",
		},
		{
			name: "missing header",
			doc: `<ndm><oem version="2.0"><body><segment>
<metadata><OBJECT_NAME>ISS</OBJECT_NAME></metadata>
<data></data></segment></body></oem></ndm>`,
		},
		{
			name: "missing segment",
			doc: `<ndm><oem version="2.0">
<header><ORIGINATOR>JSC</ORIGINATOR></header>
<body></body></oem></ndm>`,
		},
		{
			name: "missing metadata",
			doc: `<ndm><oem version="2.0">
<header><ORIGINATOR>JSC</ORIGINATOR></header>
<body><segment><data></data></segment></body></oem></ndm>`,
		},
		{
			name: "non-numeric component",
			doc: fmt.Sprintf(docTemplate, `<stateVector>
<EPOCH>2024-052T12:00:00.000Z</EPOCH>
<X>not-a-number</X><Y>1</Y><Z>1</Z>
<X_DOT>1</X_DOT><Y_DOT>1</Y_DOT><Z_DOT>1</Z_DOT>
</stateVector>`),
		},
		{
			name: "units mismatch",
			doc: fmt.Sprintf(docTemplate, `<stateVector>
<EPOCH>2024-052T12:00:00.000Z</EPOCH>
<X units="m">-4945204.8</X><Y>1</Y><Z>1</Z>
<X_DOT>1</X_DOT><Y_DOT>1</Y_DOT><Z_DOT>1</Z_DOT>
</stateVector>`),
		},
		{
			name: "bad epoch",
			doc: fmt.Sprintf(docTemplate, `<stateVector>
<EPOCH>21 Feb 2024 12:00</EPOCH>
<X>1</X><Y>1</Y><Z>1</Z>
<X_DOT>1</X_DOT><Y_DOT>1</Y_DOT><Z_DOT>1</Z_DOT>
</stateVector>`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := ParseBytes([]byte(tt.doc))
			require.Nil(t, ds)
			require.True(t, IsMalformedDataset(err), "want MalformedDatasetError, got %v", err)
		})
	}
}

func TestParseEmptyDataBlockIsValid(t *testing.T) {
	doc := fmt.Sprintf(docTemplate, `<COMMENT>no vectors yet</COMMENT>`)

	ds, err := ParseBytes([]byte(doc))
	require.NoError(t, err)
	require.Equal(t, 0, ds.Len())
	require.Equal(t, []string{"no vectors yet"}, ds.Comment)
}

func TestParseMergesSegments(t *testing.T) {
	doc := `<ndm><oem version="2.0">
<header><ORIGINATOR>JSC</ORIGINATOR></header>
<body>
<segment><metadata><OBJECT_NAME>ISS</OBJECT_NAME></metadata><data>` + goodVector + `</data></segment>
<segment><metadata><OBJECT_NAME>ISS</OBJECT_NAME></metadata><data><stateVector>
  <EPOCH>2024-052T12:04:00.000Z</EPOCH>
  <X>-5597.1312</X><Y>2132.0075</Y><Z>4120.5617</Z>
  <X_DOT>-2.1076</X_DOT><Y_DOT>-6.3687</Y_DOT><Z_DOT>0.1059</Z_DOT>
</stateVector></data></segment>
</body></oem></ndm>`

	ds, err := ParseBytes([]byte(doc))
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())
	require.Equal(t, "2024-052T12:00:00.000Z", ds.Epochs[0].Epoch)
	require.Equal(t, "2024-052T12:04:00.000Z", ds.Epochs[1].Epoch)
}

func TestParseEpoch(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "2024-052T12:00:00.000Z", want: time.Date(2024, 2, 21, 12, 0, 0, 0, time.UTC)},
		{in: "2024-052T12:00:00Z", want: time.Date(2024, 2, 21, 12, 0, 0, 0, time.UTC)},
		{in: "2024-052T12:00:00.500Z", want: time.Date(2024, 2, 21, 12, 0, 0, 500000000, time.UTC)},
		{in: "2024-02-21T12:00:00.000Z", want: time.Date(2024, 2, 21, 12, 0, 0, 0, time.UTC)},
		{in: "2023-001T00:00:00.000Z", want: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
		{in: "2023-365T23:59:59.999Z", want: time.Date(2023, 12, 31, 23, 59, 59, 999000000, time.UTC)},
		{in: "2024-052T12:00:00.000", want: time.Date(2024, 2, 21, 12, 0, 0, 0, time.UTC)},
		{in: "52T12:00:00", wantErr: true},
		{in: "2024-400T12:00:00.000Z", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseEpoch(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestParseComponent(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "-4945.2048", want: -4945.2048},
		{in: " 7.6603 ", want: 7.6603},
		{in: "-3.3006 km/s", want: -3.3006},
		{in: "1486.91km", want: 1486.91},
		{in: "1.5e3", want: 1500},
		{in: "-1.5E-2", want: -0.015},
		{in: "", wantErr: true},
		{in: "km/s", wantErr: true},
		{in: "12,5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseComponent(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
