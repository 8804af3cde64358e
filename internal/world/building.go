// Package world provides the facility data model (building, floors, tiles,
// NPC roster, tasks) and the procedural facility generator.
package world

import "fmt"

// Point is a grid cell coordinate. Y grows downward.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns p offset by d.
func (p Point) Add(d Point) Point {
	return Point{X: p.X + d.X, Y: p.Y + d.Y}
}

// Cardinal unit steps.
var (
	Up    = Point{X: 0, Y: -1}
	Down  = Point{X: 0, Y: 1}
	Left  = Point{X: -1, Y: 0}
	Right = Point{X: 1, Y: 0}
)

// Cardinals lists the four unit steps.
var Cardinals = [4]Point{Up, Down, Left, Right}

// Vec is a continuous render position, eased toward a grid cell.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// VecOf returns the render position sitting exactly on p.
func VecOf(p Point) Vec {
	return Vec{X: float64(p.X), Y: float64(p.Y)}
}

// Ease moves v a fraction of the way toward target.
func (v Vec) Ease(target Point, factor float64) Vec {
	return Vec{
		X: v.X + (float64(target.X)-v.X)*factor,
		Y: v.Y + (float64(target.Y)-v.Y)*factor,
	}
}

// TileKind enumerates what occupies a grid cell.
type TileKind uint8

const (
	TileOpen TileKind = iota
	TileWall
	TileStairsUp
	TileStairsDown
	TileDesk    // Reception desk
	TileCounter // Cafeteria serving counter
	TileTable
	TileCubicle
	TilePlant
	TilePrinter
	TileCooler
	TileCabinet
)

// Walkable reports whether the player or an NPC may stand on the tile.
func (t TileKind) Walkable() bool {
	return t == TileOpen || t == TileStairsUp || t == TileStairsDown
}

// IsStairs reports whether the tile connects to another floor.
func (t TileKind) IsStairs() bool {
	return t == TileStairsUp || t == TileStairsDown
}

func (t TileKind) String() string {
	switch t {
	case TileOpen:
		return "open"
	case TileWall:
		return "wall"
	case TileStairsUp:
		return "stairs_up"
	case TileStairsDown:
		return "stairs_down"
	case TileDesk:
		return "desk"
	case TileCounter:
		return "counter"
	case TileTable:
		return "table"
	case TileCubicle:
		return "cubicle"
	case TilePlant:
		return "plant"
	case TilePrinter:
		return "printer"
	case TileCooler:
		return "cooler"
	case TileCabinet:
		return "cabinet"
	default:
		return "unknown"
	}
}

// MarshalText lets tile grids serialize as readable names.
func (t TileKind) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// FloorKind identifies the template a floor was generated from.
type FloorKind uint8

const (
	FloorLobby FloorKind = iota
	FloorCafeteria
	FloorOffice
)

func (k FloorKind) String() string {
	switch k {
	case FloorLobby:
		return "lobby"
	case FloorCafeteria:
		return "cafeteria"
	default:
		return "office"
	}
}

// Spawns are the arrival cells of a floor. Down is where a player coming up
// from the floor below appears (beside the stairs down); Up is where a player
// coming down from the floor above appears (beside the stairs up).
type Spawns struct {
	Up   Point `json:"up"`
	Down Point `json:"down"`
}

// Floor is one storey of the building.
type Floor struct {
	Index  int       `json:"index"`
	Name   string    `json:"name"`
	Kind   FloorKind `json:"kind"`
	Width  int       `json:"width"`
	Height int       `json:"height"`
	NPCs   []*NPC    `json:"npcs"`
	Spawns Spawns    `json:"spawns"`

	tiles []TileKind
}

func newFloor(index int, name string, kind FloorKind, w, h int) *Floor {
	f := &Floor{
		Index:  index,
		Name:   name,
		Kind:   kind,
		Width:  w,
		Height: h,
		tiles:  make([]TileKind, w*h),
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				f.tiles[y*w+x] = TileWall
			}
		}
	}
	return f
}

// InBounds reports whether p lies inside the grid.
func (f *Floor) InBounds(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < f.Width && p.Y < f.Height
}

// Tile returns the tile at p. Cells outside the grid read as wall.
func (f *Floor) Tile(p Point) TileKind {
	if !f.InBounds(p) {
		return TileWall
	}
	return f.tiles[p.Y*f.Width+p.X]
}

// Walkable reports whether p is in bounds and on a walkable tile.
func (f *Floor) Walkable(p Point) bool {
	return f.Tile(p).Walkable()
}

// Rows returns a copy of the tile grid, one slice per row.
func (f *Floor) Rows() [][]TileKind {
	rows := make([][]TileKind, f.Height)
	for y := range rows {
		rows[y] = append([]TileKind(nil), f.tiles[y*f.Width:(y+1)*f.Width]...)
	}
	return rows
}

// NPCAt returns the NPC standing on p, or nil.
func (f *Floor) NPCAt(p Point) *NPC {
	for _, n := range f.NPCs {
		if n.Pos == p {
			return n
		}
	}
	return nil
}

// Find returns the position of the first tile of the given kind.
func (f *Floor) Find(kind TileKind) (Point, bool) {
	for i, t := range f.tiles {
		if t == kind {
			return Point{X: i % f.Width, Y: i / f.Width}, true
		}
	}
	return Point{}, false
}

func (f *Floor) set(p Point, kind TileKind) {
	if f.InBounds(p) {
		f.tiles[p.Y*f.Width+p.X] = kind
	}
}

// Building is the ordered stack of floors, lobby first.
type Building struct {
	Floors []*Floor `json:"floors"`
}

// Floor returns floor i, or nil when no such floor exists.
func (b *Building) Floor(i int) *Floor {
	if b == nil || i < 0 || i >= len(b.Floors) {
		return nil
	}
	return b.Floors[i]
}

// Offices returns the department floors.
func (b *Building) Offices() []*Floor {
	var out []*Floor
	for _, f := range b.Floors {
		if f.Kind == FloorOffice {
			out = append(out, f)
		}
	}
	return out
}

// FindNPC returns the NPC with the given ID and the floor it stands on.
func (b *Building) FindNPC(id int) (*NPC, *Floor) {
	for _, f := range b.Floors {
		for _, n := range f.NPCs {
			if n.ID == id {
				return n, f
			}
		}
	}
	return nil, nil
}

// String summarizes the building for logs.
func (b *Building) String() string {
	npcs := 0
	for _, f := range b.Floors {
		npcs += len(f.NPCs)
	}
	return fmt.Sprintf("%d floors, %d npcs", len(b.Floors), npcs)
}
