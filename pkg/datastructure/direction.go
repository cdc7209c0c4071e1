package datastructure

// Direction flag edge relatif ke node A (base saat edge dibuat).
type Direction uint8

const (
	FORWARD  Direction = 1 // A -> B
	BACKWARD Direction = 2 // B -> A
	BOTH     Direction = FORWARD | BACKWARD
)

func (d Direction) IsForward() bool {
	return d&FORWARD != 0
}

func (d Direction) IsBackward() bool {
	return d&BACKWARD != 0
}

// Reverse flag dilihat dari node B.
func (d Direction) Reverse() Direction {
	var r Direction
	if d.IsForward() {
		r |= BACKWARD
	}
	if d.IsBackward() {
		r |= FORWARD
	}
	return r
}

// FlagEncoder decode akses kendaraan dari flag edge.
type FlagEncoder interface {
	IsForward(flags Direction) bool
	IsBackward(flags Direction) bool
}

// DirectionEncoder encoder default: akses sama dengan arah edge.
type DirectionEncoder struct{}

func (DirectionEncoder) IsForward(flags Direction) bool {
	return flags.IsForward()
}

func (DirectionEncoder) IsBackward(flags Direction) bool {
	return flags.IsBackward()
}
