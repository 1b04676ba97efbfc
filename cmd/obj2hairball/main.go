// Command obj2hairball converts a Wavefront OBJ mesh into a hairball
// file: one entity per object/group holding a "mesh.positions" column
// of triangulated geometry, and one entity per material of a referenced
// MTL file carrying its ambient/diffuse/specular colors as material
// bindings. `usemtl` lines are ignored, so groups are not linked to
// materials.
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/laenix/hairball"
	"github.com/laenix/hairball/column/material"
	"github.com/laenix/hairball/column/mesh"
	"github.com/laenix/hairball/internal/sniff"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: obj2hairball <input.obj> <output.hairball>")
	os.Exit(1)
}

func main() {
	if len(os.Args) != 3 {
		usage()
	}
	objPath, outPath := os.Args[1], os.Args[2]

	if format, err := sniff.Detect(objPath); err == nil && format == sniff.COLLADA {
		fmt.Fprintf(os.Stderr, "obj2hairball: %s looks like COLLADA, not OBJ\n", objPath)
		os.Exit(1)
	}

	doc, err := parseOBJ(objPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "obj2hairball: %v\n", err)
		os.Exit(1)
	}

	b, err := hairball.New(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "obj2hairball: %v\n", err)
		os.Exit(1)
	}
	defer b.Close()

	materialsRoot := b.AddEntity(hairball.Named("material"))
	geometryRoot := b.AddEntity(hairball.Named("geometry"))

	materialIDs := make(map[string]uint32, len(doc.materials))
	var bindings []material.Binding
	for _, m := range doc.materials {
		id := b.AddEntity(hairball.Named(m.name).WithParent(materialsRoot))
		materialIDs[m.name] = id
		if m.hasKa {
			bindings = append(bindings, material.Binding{Entity: id, Component: material.Ambient, Value: material.ColorValue(m.ka[0], m.ka[1], m.ka[2], 1)})
		}
		if m.hasKd {
			bindings = append(bindings, material.Binding{Entity: id, Component: material.Diffuse, Value: material.ColorValue(m.kd[0], m.kd[1], m.kd[2], 1)})
		}
		if m.hasKs {
			bindings = append(bindings, material.Binding{Entity: id, Component: material.Specular, Value: material.ColorValue(m.ks[0], m.ks[1], m.ks[2], 1)})
		}
	}

	meshes := make(map[uint32]mesh.Mesh, len(doc.groups))
	for _, g := range doc.groups {
		id := b.AddEntity(hairball.Named(g.name).WithParent(geometryRoot))
		meshes[id] = mesh.Mesh{Positions: g.positions, Indices: g.indices}
	}

	if err := material.Write(b, bindings); err != nil {
		fmt.Fprintf(os.Stderr, "obj2hairball: %v\n", err)
		os.Exit(1)
	}
	if err := mesh.Write(b, meshes); err != nil {
		fmt.Fprintf(os.Stderr, "obj2hairball: %v\n", err)
		os.Exit(1)
	}

	if err := b.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "obj2hairball: %v\n", err)
		os.Exit(1)
	}
}

type objMaterial struct {
	name           string
	ka, kd, ks     [3]float32
	hasKa, hasKd, hasKs bool
}

type objGroup struct {
	name      string
	positions []float32
	indices   []uint32
}

type objDoc struct {
	materials []objMaterial
	groups    []objGroup
}

// parseOBJ reads a minimal subset of the Wavefront OBJ format: "v"
// vertex positions, "o"/"g" naming, "f" polygon faces (triangulated
// as a fan), and any "mtllib" referenced alongside it. Texture and
// normal indices are accepted but ignored, matching the mesh column's
// position-and-index-only schema; "usemtl" and other keywords are
// skipped.
func parseOBJ(path string) (*objDoc, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var positions []float32
	doc := &objDoc{}
	var cur *objGroup
	flush := func() {
		// Snapshot positions as of the end of the group, not its
		// start: OBJ groups may declare their own vertices after the
		// group/object line that introduces them, and face indices
		// are absolute into the file's full vertex list.
		if cur != nil && len(cur.indices) > 0 {
			cur.positions = append([]float32(nil), positions...)
			doc.groups = append(doc.groups, *cur)
		}
		cur = nil
	}
	newGroup := func(name string) {
		flush()
		cur = &objGroup{name: name}
	}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			x, _ := strconv.ParseFloat(fields[1], 32)
			y, _ := strconv.ParseFloat(fields[2], 32)
			z, _ := strconv.ParseFloat(fields[3], 32)
			positions = append(positions, float32(x), float32(y), float32(z))
		case "mtllib":
			p := filepath.Join(filepath.Dir(path), fields[1])
			mats, err := parseMTL(p)
			if err == nil {
				doc.materials = append(doc.materials, mats...)
			}
		case "o", "g":
			if len(fields) > 1 {
				newGroup(fields[1])
			}
		case "f":
			if cur == nil {
				newGroup("default")
			}
			verts := make([]uint32, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				idxStr := strings.SplitN(tok, "/", 2)[0]
				n, err := strconv.Atoi(idxStr)
				if err != nil {
					continue
				}
				if n < 0 {
					n = len(positions)/3 + n + 1
				}
				verts = append(verts, uint32(n-1))
			}
			for i := 1; i+1 < len(verts); i++ {
				cur.indices = append(cur.indices, verts[0], verts[i], verts[i+1])
			}
		}
	}
	flush()
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return doc, nil
}

func parseMTL(path string) ([]objMaterial, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var mats []objMaterial
	var cur *objMaterial
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "newmtl":
			if cur != nil {
				mats = append(mats, *cur)
			}
			cur = &objMaterial{name: fields[1]}
		case "Ka", "Kd", "Ks":
			if cur == nil || len(fields) < 4 {
				continue
			}
			r, _ := strconv.ParseFloat(fields[1], 32)
			g, _ := strconv.ParseFloat(fields[2], 32)
			bch, _ := strconv.ParseFloat(fields[3], 32)
			v := [3]float32{float32(r), float32(g), float32(bch)}
			switch fields[0] {
			case "Ka":
				cur.ka, cur.hasKa = v, true
			case "Kd":
				cur.kd, cur.hasKd = v, true
			case "Ks":
				cur.ks, cur.hasKs = v, true
			}
		}
	}
	if cur != nil {
		mats = append(mats, *cur)
	}
	return mats, sc.Err()
}
