// Command dae2hairball converts a COLLADA (.dae) document into a
// hairball file: one entity per <geometry>, each holding a
// "mesh.positions" column built from its first <source> float array
// and its <triangles> index stream.
package main

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/laenix/hairball"
	"github.com/laenix/hairball/column/mesh"
	"github.com/laenix/hairball/internal/sniff"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: dae2hairball <input.dae> <output.hairball>")
	os.Exit(1)
}

func main() {
	if len(os.Args) != 3 {
		usage()
	}
	daePath, outPath := os.Args[1], os.Args[2]

	if format, err := sniff.Detect(daePath); err == nil && format == sniff.OBJ {
		fmt.Fprintf(os.Stderr, "dae2hairball: %s looks like OBJ, not COLLADA\n", daePath)
		os.Exit(1)
	}

	doc, err := parseCollada(daePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dae2hairball: %v\n", err)
		os.Exit(1)
	}

	b, err := hairball.New(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dae2hairball: %v\n", err)
		os.Exit(1)
	}
	defer b.Close()

	meshes := make(map[uint32]mesh.Mesh, len(doc.Library.Geometries))
	for _, g := range doc.Library.Geometries {
		name := g.Name
		if name == "" {
			name = g.ID
		}
		id := b.AddEntity(hairball.Named(name))

		positions, ok := g.positions()
		if !ok {
			continue
		}
		meshes[id] = mesh.Mesh{Positions: positions, Indices: g.indices()}
	}

	if err := mesh.Write(b, meshes); err != nil {
		fmt.Fprintf(os.Stderr, "dae2hairball: %v\n", err)
		os.Exit(1)
	}

	if err := b.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "dae2hairball: %v\n", err)
		os.Exit(1)
	}
}

type colladaDoc struct {
	XMLName xml.Name `xml:"COLLADA"`
	Library struct {
		Geometries []colladaGeometry `xml:"geometry"`
	} `xml:"library_geometries"`
}

type colladaGeometry struct {
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr"`
	Mesh struct {
		Sources []struct {
			FloatArray struct {
				Text string `xml:",chardata"`
			} `xml:"float_array"`
		} `xml:"source"`
		Triangles struct {
			Inputs []struct {
				Offset int `xml:"offset,attr"`
			} `xml:"input"`
			P string `xml:"p"`
		} `xml:"triangles"`
	} `xml:"mesh"`
}

// positions returns the first <source>'s float array, which is the
// geometry's vertex-position stream in every COLLADA export this
// converter has been tried against.
func (g colladaGeometry) positions() ([]float32, bool) {
	if len(g.Mesh.Sources) == 0 {
		return nil, false
	}
	fields := strings.Fields(g.Mesh.Sources[0].FloatArray.Text)
	out := make([]float32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, false
		}
		out[i] = float32(v)
	}
	return out, true
}

// indices extracts the <triangles> index stream, reading one index
// per stride-distance of interleaved offsets and keeping only the
// first (lowest-offset) one. A real importer would carry the other
// interleaved streams (normal, texcoord) through to separate
// attributes; the mesh column here only models position+index.
func (g colladaGeometry) indices() []uint32 {
	stride := 1
	for _, in := range g.Mesh.Triangles.Inputs {
		if in.Offset+1 > stride {
			stride = in.Offset + 1
		}
	}

	fields := strings.Fields(g.Mesh.Triangles.P)
	out := make([]uint32, 0, len(fields)/stride)
	for i := 0; i < len(fields); i += stride {
		n, err := strconv.Atoi(fields[i])
		if err != nil {
			continue
		}
		out = append(out, uint32(n))
	}
	return out
}

func parseCollada(path string) (*colladaDoc, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	doc := &colladaDoc{}
	if err := xml.NewDecoder(f).Decode(doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return doc, nil
}
