package export

import (
	"encoding/xml"
	"io"

	"github.com/banshee-data/scadc/internal/geometry"
	"github.com/banshee-data/scadc/internal/version"
)

const stlSolidName = "scadc_model"

// WriteSTL writes g as an ASCII STL solid of fan-triangulated facets.
func WriteSTL(w io.Writer, g *geometry.Geometry) error {
	ew := &errWriter{w: w}
	ew.printf("solid %s\n", stlSolidName)
	for _, tri := range g.Triangles() {
		n := tri.Normal()
		if n.X == 0 && n.Y == 0 && n.Z == 0 {
			continue
		}
		ew.printf("  facet normal %s %s %s\n", num(n.X), num(n.Y), num(n.Z))
		ew.printf("    outer loop\n")
		for _, v := range tri {
			ew.printf("      vertex %s %s %s\n", num(v.X), num(v.Y), num(v.Z))
		}
		ew.printf("    endloop\n")
		ew.printf("  endfacet\n")
	}
	ew.printf("endsolid %s\n", stlSolidName)
	return ew.err
}

// WriteOFF writes g as an ASCII Object File Format mesh with shared
// vertices.
func WriteOFF(w io.Writer, g *geometry.Geometry) error {
	m := indexMesh(g.Polygons)
	ew := &errWriter{w: w}
	ew.printf("OFF\n%d %d 0\n", len(m.vertices), len(m.faces))
	for _, v := range m.vertices {
		ew.printf("%s %s %s\n", num(v.X), num(v.Y), num(v.Z))
	}
	for _, f := range m.faces {
		ew.printf("%d", len(f))
		for _, i := range f {
			ew.printf(" %d", i)
		}
		ew.printf("\n")
	}
	return ew.err
}

type amfDoc struct {
	XMLName  xml.Name      `xml:"amf"`
	Unit     string        `xml:"unit,attr"`
	Metadata []amfMetadata `xml:"metadata"`
	Object   amfObject     `xml:"object"`
}

type amfMetadata struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type amfObject struct {
	ID       int           `xml:"id,attr"`
	Vertices []amfVertex   `xml:"mesh>vertices>vertex"`
	Volume   []amfTriangle `xml:"mesh>volume>triangle"`
}

type amfVertex struct {
	X string `xml:"coordinates>x"`
	Y string `xml:"coordinates>y"`
	Z string `xml:"coordinates>z"`
}

type amfTriangle struct {
	V1 int `xml:"v1"`
	V2 int `xml:"v2"`
	V3 int `xml:"v3"`
}

// WriteAMF writes g as an Additive Manufacturing File with one triangulated
// volume.
func WriteAMF(w io.Writer, g *geometry.Geometry) error {
	m := indexMesh(g.Triangles())
	doc := amfDoc{
		Unit:     "millimeter",
		Metadata: []amfMetadata{{Type: "producer", Value: version.String()}},
	}
	for _, v := range m.vertices {
		doc.Object.Vertices = append(doc.Object.Vertices, amfVertex{X: num(v.X), Y: num(v.Y), Z: num(v.Z)})
	}
	for _, f := range m.faces {
		doc.Object.Volume = append(doc.Object.Volume, amfTriangle{V1: f[0], V2: f[1], V3: f[2]})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", " ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
