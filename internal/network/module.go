package network

// ModuleID identifies a CFD module within a Network's module arena.
type ModuleID int32

// Opening binds one boundary node of a CFD module to the geometric
// data the CFD adapter needs to install a boundary condition there.
type Opening struct {
	Node NodeID

	// NormalX, NormalY is the unit normal pointing into the fluid domain.
	NormalX, NormalY float64
	// TangentX, TangentY is Normal rotated 90 degrees counter-clockwise.
	TangentX, TangentY float64

	Width  float64
	Height float64 // 0 means "not specified" (2D module)

	// Ground marks this opening as exporting velocity / importing
	// pressure in the 1D<->CFD coupling; the complement
	// imports velocity / exports pressure.
	Ground bool

	// Reference marks this opening as the module's pressure-driven
	// reference opening. The hybrid scheme does not read this field; it
	// takes the reference from hybrid.Coupling.Reference, and nothing
	// checks that a module has exactly one Reference opening.
	Reference bool

	// Alpha holds a per-opening relaxation factor. The hybrid scheme
	// does not read it; hybrid.Run relaxes every opening with
	// Options.Relax.
	Alpha float64
}

// Module is a rectangular CFD sub-domain embedded in the plane.
type Module struct {
	ID ModuleID

	PosX, PosY   float64
	SizeX, SizeY float64
	STLFile      string

	Openings []Opening
}

// Tangent computes the tangent of a unit normal (rotated 90 deg CCW)
// and stores it on the opening. Called when constructing openings from
// input data where only the normal is supplied.
func (o *Opening) Tangent() {
	o.TangentX, o.TangentY = -o.NormalY, o.NormalX
}
