package server

// World units: one tile is 16 base pixels at 3x scale. All physics runs in
// pixel coordinates.
const (
	baseTileSize = 16
	tileScale    = 3
	SizeTile     = baseTileSize * tileScale
)

// Tile codes the simulation depends on. 30 and 50 are markers (not solid),
// 31-39 are platform entities scanned out of the grid at game start.
const (
	TilePlatformDest = 30
	TileKey          = 50
)

func isSolidTile(code int) bool {
	return code == 3 || code == 4 || code == 5
}

func isWinnerTile(code int) bool {
	return code == 12 || code == 13 || code == 14
}

func isPlatformOrigin(code int) bool {
	return code >= 31 && code <= 39
}

// Grid is a rectangular tile matrix indexed [row][col].
type Grid [][]int

func (g Grid) Rows() int { return len(g) }

func (g Grid) Cols() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// WidthPx is the playable width in pixels.
func (g Grid) WidthPx() float32 {
	return float32(g.Cols() * SizeTile)
}

// Clone deep-copies the grid so the immutable game template can be restored
// exactly on every start.
func (g Grid) Clone() Grid {
	out := make(Grid, len(g))
	for i, row := range g {
		out[i] = make([]int, len(row))
		copy(out[i], row)
	}
	return out
}

func (g Grid) rectangular() bool {
	if len(g) == 0 || len(g[0]) == 0 {
		return false
	}
	cols := len(g[0])
	for _, row := range g {
		if len(row) != cols {
			return false
		}
	}
	return true
}
