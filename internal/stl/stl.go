// Package stl parses the ASCII/binary STL geometry of a CFD module,
// interpreted as a 2D outline in the XY plane, and checks the
// module-containment and opening-boundary invariants. Geometry is
// represented with github.com/ctessum/geom.
package stl

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/ctessum/geom"

	"github.com/cda-tum/mmft-simulator-sub001/internal/fluiderr"
)

// Triangle is one facet of an STL mesh, projected onto the XY plane.
type Triangle [3]geom.Point

// Mesh is a parsed STL file, reduced to its XY-plane outline.
type Mesh struct {
	Triangles []Triangle
}

// Parse reads an ASCII or binary STL file and returns its 2D outline.
func Parse(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fluiderr.Wrap(fluiderr.GeometryOutOfBounds, err, "opening STL file %q", path)
	}
	defer f.Close()
	return ParseReader(f)
}

// ParseReader reads an STL stream, auto-detecting ASCII vs binary.
func ParseReader(r io.Reader) (*Mesh, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(5)
	if err != nil && err != io.EOF {
		return nil, fluiderr.Wrap(fluiderr.GeometryOutOfBounds, err, "reading STL header")
	}
	if strings.HasPrefix(string(head), "solid") {
		if m, err := parseASCII(br); err == nil {
			return m, nil
		}
	}
	return parseBinary(br)
}

func parseASCII(r *bufio.Reader) (*Mesh, error) {
	m := &Mesh{}
	var cur Triangle
	n := 0
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "vertex":
			if len(fields) < 4 {
				return nil, fmt.Errorf("malformed vertex line")
			}
			var x, y float64
			fmt.Sscanf(fields[1], "%g", &x)
			fmt.Sscanf(fields[2], "%g", &y)
			if n < 3 {
				cur[n] = geom.Point{X: x, Y: y}
				n++
			}
		case "endfacet":
			if n == 3 {
				m.Triangles = append(m.Triangles, cur)
			}
			n = 0
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(m.Triangles) == 0 {
		return nil, fmt.Errorf("no facets found")
	}
	return m, nil
}

func parseBinary(r *bufio.Reader) (*Mesh, error) {
	var header [80]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fluiderr.Wrap(fluiderr.GeometryOutOfBounds, err, "reading STL binary header")
	}
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fluiderr.Wrap(fluiderr.GeometryOutOfBounds, err, "reading STL facet count")
	}
	m := &Mesh{Triangles: make([]Triangle, 0, count)}
	for i := uint32(0); i < count; i++ {
		var rec struct {
			Normal   [3]float32
			Vertices [9]float32
			Attr     uint16
		}
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return nil, fluiderr.Wrap(fluiderr.GeometryOutOfBounds, err, "reading STL facet %d", i)
		}
		var t Triangle
		for v := 0; v < 3; v++ {
			t[v] = geom.Point{X: float64(rec.Vertices[v*3]), Y: float64(rec.Vertices[v*3+1])}
		}
		m.Triangles = append(m.Triangles, t)
	}
	return m, nil
}

// Bounds returns the mesh's 2D bounding box.
func (m *Mesh) Bounds() *geom.Bounds {
	b := geom.NewBounds()
	for _, t := range m.Triangles {
		for _, p := range t {
			b.Extend(p.Bounds())
		}
	}
	return b
}

// CheckContainment verifies that the mesh lies entirely within the
// rectangle [posX,posX+sizeX] x [posY,posY+sizeY], failing with GeometryOutOfBounds
// otherwise.
func CheckContainment(m *Mesh, posX, posY, sizeX, sizeY float64) error {
	b := m.Bounds()
	const eps = 1e-9
	if b.Min.X < posX-eps || b.Min.Y < posY-eps ||
		b.Max.X > posX+sizeX+eps || b.Max.Y > posY+sizeY+eps {
		return fluiderr.New(fluiderr.GeometryOutOfBounds,
			"STL mesh bounds [%v,%v] exceed module rectangle [(%g,%g),(%g,%g)]",
			b.Min, b.Max, posX, posY, posX+sizeX, posY+sizeY)
	}
	return nil
}

// CheckOnBoundary verifies that a point lies on the rectangle boundary
// of the module, failing with OrphanOpening otherwise.
func CheckOnBoundary(x, y, posX, posY, sizeX, sizeY float64) error {
	const eps = 1e-6
	onVertical := math.Abs(x-posX) < eps || math.Abs(x-(posX+sizeX)) < eps
	onHorizontal := math.Abs(y-posY) < eps || math.Abs(y-(posY+sizeY)) < eps
	withinX := x >= posX-eps && x <= posX+sizeX+eps
	withinY := y >= posY-eps && y <= posY+sizeY+eps
	if (onVertical && withinY) || (onHorizontal && withinX) {
		return nil
	}
	return fluiderr.New(fluiderr.OrphanOpening, "opening node (%g,%g) is not on the module boundary", x, y)
}
