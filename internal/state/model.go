package state

type Point struct{ X, Y float64 }

// Path is one continuous stroke. Point order is stroke order.
type Path struct {
	ID     string
	Points []Point
}

// Clone returns a copy that shares no memory with p.
func (p Path) Clone() Path {
	points := make([]Point, len(p.Points))
	copy(points, p.Points)
	return Path{ID: p.ID, Points: points}
}

// Micrograph identifies the image currently being labelled.
type Micrograph struct {
	Index int    `json:"index"`
	Ref   string `json:"micrograph"`
	// Addr is the address the server attributes this client's labels to.
	Addr string `json:"ip,omitempty"`
}

// CompleteIndex is the index the server hands out once every micrograph has
// been labelled from this address.
const CompleteIndex = -1

func (m Micrograph) Complete() bool {
	return m.Index == CompleteIndex
}
