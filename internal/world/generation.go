// Facility generation: lobby, cafeteria, then one office per department.
// Offices get cubicle rows, scattered props and a handful of wandering staff.
package world

import (
	"math/rand"
	"strings"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds facility generation parameters.
type GenConfig struct {
	Width             int     `yaml:"width"`
	Height            int     `yaml:"height"`
	Seed              int64   `yaml:"seed"`               // 0 = random
	MinOfficeNPCs     int     `yaml:"min_office_npcs"`    // Per office floor
	MaxOfficeNPCs     int     `yaml:"max_office_npcs"`    // Per office floor
	Diners            int     `yaml:"diners"`             // Wandering NPCs in the cafeteria
	PlacementAttempts int     `yaml:"placement_attempts"` // Rejection-sampling cap per NPC
	CubicleSkip       float64 `yaml:"cubicle_skip"`       // Chance a cubicle slot stays empty
	PropDensity       float64 `yaml:"prop_density"`       // Share of open tiles that get a prop
}

// DefaultGenConfig returns the standard facility layout parameters.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:             20,
		Height:            14,
		Seed:              0,
		MinOfficeNPCs:     3,
		MaxOfficeNPCs:     5,
		Diners:            4,
		PlacementAttempts: 500,
		CubicleSkip:       0.30,
		PropDensity:       0.05,
	}
}

const (
	minWidth  = 14
	minHeight = 10
)

// Floor names for the two fixed storeys.
const (
	LobbyName     = "Lobby"
	CafeteriaName = "Cafeteria"
)

// generator carries the per-run random state.
type generator struct {
	cfg    GenConfig
	rng    *rand.Rand
	noise  opensimplex.Noise
	nextID int
}

// Generate builds a building for the given department names. Floors come out
// as Lobby, Cafeteria, then one office per non-blank department in input
// order. Generation never fails: a nil or all-blank list yields two floors.
func Generate(depts []string, cfg GenConfig) *Building {
	cfg = normalize(cfg)
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	g := &generator{
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(seed)),
		noise:  opensimplex.NewNormalized(seed + 1),
		nextID: 1,
	}

	b := &Building{}
	b.Floors = append(b.Floors, g.lobby(0))
	b.Floors = append(b.Floors, g.cafeteria(1))
	for _, name := range CleanDepartments(depts) {
		b.Floors = append(b.Floors, g.office(len(b.Floors), name))
	}
	return b
}

// CleanDepartments trims names and drops blanks, preserving order.
func CleanDepartments(depts []string) []string {
	out := make([]string, 0, len(depts))
	for _, d := range depts {
		d = strings.TrimSpace(d)
		if d != "" {
			out = append(out, d)
		}
	}
	return out
}

func normalize(cfg GenConfig) GenConfig {
	def := DefaultGenConfig()
	if cfg.Width < minWidth {
		cfg.Width = minWidth
	}
	if cfg.Height < minHeight {
		cfg.Height = minHeight
	}
	if cfg.MinOfficeNPCs < 0 {
		cfg.MinOfficeNPCs = 0
	}
	if cfg.MaxOfficeNPCs < cfg.MinOfficeNPCs {
		cfg.MaxOfficeNPCs = cfg.MinOfficeNPCs
	}
	if cfg.PlacementAttempts <= 0 {
		cfg.PlacementAttempts = def.PlacementAttempts
	}
	return cfg
}

// stairs lays out the stair tiles and spawn points shared by every template.
// The stairs down sit in the top-left corner, the stairs up in the top-right.
func (g *generator) stairs(f *Floor, up, down bool) {
	w := f.Width
	if down {
		f.set(Point{X: 1, Y: 1}, TileStairsDown)
	}
	if up {
		f.set(Point{X: w - 2, Y: 1}, TileStairsUp)
	}
	f.Spawns = Spawns{
		Up:   Point{X: w - 3, Y: 1},
		Down: Point{X: 2, Y: 1},
	}
}

// corridor reports whether p is on the perimeter ring just inside the
// walls. The ring links both staircases and is kept free of fixtures.
func corridor(f *Floor, p Point) bool {
	return p.X == 1 || p.Y == 1 || p.X == f.Width-2 || p.Y == f.Height-2
}

// Landing reports whether p is a stair tile, a spawn point or a cell beside
// the stairs. Landing cells are kept free of NPCs and fixtures so arrivals
// never collide.
func (f *Floor) Landing(p Point) bool {
	if p == f.Spawns.Up || p == f.Spawns.Down {
		return true
	}
	for _, d := range Cardinals {
		if f.Tile(p.Add(d)).IsStairs() {
			return true
		}
	}
	return f.Tile(p).IsStairs()
}

func (g *generator) lobby(index int) *Floor {
	f := newFloor(index, LobbyName, FloorLobby, g.cfg.Width, g.cfg.Height)
	g.stairs(f, true, false)
	// The lobby has no floor below; its Down spawn is the front entrance.
	f.Spawns.Down = Point{X: f.Width / 2, Y: f.Height - 2}

	mid := f.Width / 2
	for x := mid - 2; x <= mid+2; x++ {
		f.set(Point{X: x, Y: 4}, TileDesk)
	}
	f.NPCs = append(f.NPCs, g.npc(Point{X: mid, Y: 3}, RoleReceptionist))
	return f
}

func (g *generator) cafeteria(index int) *Floor {
	f := newFloor(index, CafeteriaName, FloorCafeteria, g.cfg.Width, g.cfg.Height)
	g.stairs(f, true, true)

	for x := 4; x <= 9; x++ {
		f.set(Point{X: x, Y: 3}, TileCounter)
	}
	f.NPCs = append(f.NPCs, g.npc(Point{X: 6, Y: 2}, RoleVendor))

	for y := 6; y <= f.Height-3; y += 3 {
		for x := 3; x+1 <= f.Width-3; x += 4 {
			f.set(Point{X: x, Y: y}, TileTable)
			f.set(Point{X: x + 1, Y: y}, TileTable)
		}
	}

	for i := 0; i < g.cfg.Diners; i++ {
		g.place(f)
	}
	return f
}

func (g *generator) office(index int, name string) *Floor {
	f := newFloor(index, name, FloorOffice, g.cfg.Width, g.cfg.Height)
	g.stairs(f, true, true)

	for y := 3; y <= f.Height-3; y += 3 {
		for x := 3; x+1 <= f.Width-3; x += 4 {
			if g.rng.Float64() < g.cfg.CubicleSkip {
				continue
			}
			f.set(Point{X: x, Y: y}, TileCubicle)
			f.set(Point{X: x + 1, Y: y}, TileCubicle)
		}
	}

	g.scatterProps(f)

	count := g.cfg.MinOfficeNPCs
	if spread := g.cfg.MaxOfficeNPCs - g.cfg.MinOfficeNPCs; spread > 0 {
		count += g.rng.Intn(spread + 1)
	}
	for i := 0; i < count; i++ {
		g.place(f)
	}
	return f
}

// scatterProps drops decorations on still-open interior tiles. Whether a
// tile gets a prop is a coin flip at PropDensity; which prop it gets follows
// a noise field so similar props cluster together.
func (g *generator) scatterProps(f *Floor) {
	kinds := [...]TileKind{TilePlant, TilePrinter, TileCooler, TileCabinet}
	for y := 1; y < f.Height-1; y++ {
		for x := 1; x < f.Width-1; x++ {
			p := Point{X: x, Y: y}
			if f.Tile(p) != TileOpen || corridor(f, p) || f.Landing(p) {
				continue
			}
			if g.rng.Float64() >= g.cfg.PropDensity {
				continue
			}
			n := g.noise.Eval2(float64(x)*0.35, float64(y)*0.35+float64(f.Index)*7.0)
			k := int(n * float64(len(kinds)))
			if k < 0 {
				k = 0
			}
			if k >= len(kinds) {
				k = len(kinds) - 1
			}
			f.set(p, kinds[k])
		}
	}
}

// place puts one wandering NPC on a random open, unoccupied tile. It gives
// up after PlacementAttempts misses so a crowded layout cannot stall
// generation.
func (g *generator) place(f *Floor) bool {
	for attempt := 0; attempt < g.cfg.PlacementAttempts; attempt++ {
		p := Point{
			X: 1 + g.rng.Intn(f.Width-2),
			Y: 1 + g.rng.Intn(f.Height-2),
		}
		if f.Tile(p) != TileOpen || f.Landing(p) || f.NPCAt(p) != nil {
			continue
		}
		f.NPCs = append(f.NPCs, g.npc(p, RoleWanderer))
		return true
	}
	return false
}

func (g *generator) npc(p Point, role Role) *NPC {
	id := g.nextID
	g.nextID++
	return &NPC{
		ID:     id,
		Name:   generateName(g.rng),
		Role:   role,
		Pos:    p,
		Render: VecOf(p),
		Appearance: Appearance{
			Skin:  uint8(g.rng.Intn(6)),
			Hair:  uint8(g.rng.Intn(8)),
			Shirt: uint8(g.rng.Intn(10)),
		},
		MoveTimer: g.rng.Intn(WanderThreshold),
	}
}

// WanderThreshold is the number of ticks a wanderer idles before it starts
// rolling for a step.
const WanderThreshold = 150
