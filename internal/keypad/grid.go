// Package keypad implements the camera-driven virtual numeric keypad:
// key grid geometry, dwell/debounce press detection, and the edit buffer
// that press events drive.
package keypad

// Default key dimensions and spacing, in canvas pixels.
const (
	DefaultKeyWidth  = 100
	DefaultKeyHeight = 80
	DefaultGapX      = 30
	DefaultGapY      = 22
	DefaultPadding   = 15
)

// Control key labels.
const (
	LabelDelete = "Delete"
	LabelEnter  = "Enter"
)

// DefaultRows is the fixed numeric pad layout: three digit rows plus a
// bottom row where Delete and Enter replace two digit slots.
var DefaultRows = [][]string{
	{"1", "2", "3"},
	{"4", "5", "6"},
	{"7", "8", "9"},
	{"0", LabelDelete, LabelEnter},
}

// Key is a labeled rectangular region within the canvas.
type Key struct {
	Label  string `json:"label"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// CenterX returns the x coordinate of the key's center.
func (k Key) CenterX() float64 { return float64(k.X) + float64(k.Width)/2 }

// CenterY returns the y coordinate of the key's center.
func (k Key) CenterY() float64 { return float64(k.Y) + float64(k.Height)/2 }

// Grid lays out a fixed set of labeled keys into rows and columns for a
// given canvas size and answers which key, if any, is under a point.
// Key regions never overlap and are a deterministic function of the canvas
// size and the row/column index.
type Grid struct {
	rows      [][]string
	keyWidth  int
	keyHeight int
	gapX      int
	gapY      int
	padding   int

	canvasWidth  int
	canvasHeight int
	originX      int
	originY      int
}

// NewGrid creates a Grid with the default numeric pad layout and key sizes.
func NewGrid() *Grid {
	return &Grid{
		rows:      DefaultRows,
		keyWidth:  DefaultKeyWidth,
		keyHeight: DefaultKeyHeight,
		gapX:      DefaultGapX,
		gapY:      DefaultGapY,
		padding:   DefaultPadding,
	}
}

// Resize recomputes the grid origin for the given canvas size. The grid
// block (keys, inter-key gaps and padding) is centered in the canvas.
// Must be called whenever the canvas dimensions change; layout is never
// cached across resizes.
func (g *Grid) Resize(canvasWidth, canvasHeight int) {
	g.canvasWidth = canvasWidth
	g.canvasHeight = canvasHeight

	cols := g.maxCols()
	rows := len(g.rows)
	totalWidth := cols*g.keyWidth + (cols-1)*g.gapX + 2*g.padding
	totalHeight := rows*g.keyHeight + (rows-1)*g.gapY + 2*g.padding

	g.originX = (canvasWidth - totalWidth) / 2
	g.originY = (canvasHeight - totalHeight) / 2
}

// Layout returns the keys for the given canvas size in row-major order.
func (g *Grid) Layout(canvasWidth, canvasHeight int) []Key {
	g.Resize(canvasWidth, canvasHeight)

	keys := make([]Key, 0, len(g.rows)*g.maxCols())
	for row, labels := range g.rows {
		for col, label := range labels {
			keys = append(keys, g.keyAt(row, col, label))
		}
	}
	return keys
}

// HitTest returns the key under the point (x, y), if any. Points in the
// inter-key gaps or in the padding margin hit nothing; they never resolve
// to a neighboring key.
func (g *Grid) HitTest(x, y int) (Key, bool) {
	relX := x - g.originX - g.padding
	relY := y - g.originY - g.padding
	if relX < 0 || relY < 0 {
		return Key{}, false
	}

	col := relX / (g.keyWidth + g.gapX)
	row := relY / (g.keyHeight + g.gapY)
	if row >= len(g.rows) || col >= len(g.rows[row]) {
		return Key{}, false
	}

	// The division above lumps each key together with the gap to its
	// right/bottom; reject points that fall in the gap slice.
	if relX%(g.keyWidth+g.gapX) >= g.keyWidth {
		return Key{}, false
	}
	if relY%(g.keyHeight+g.gapY) >= g.keyHeight {
		return Key{}, false
	}

	return g.keyAt(row, col, g.rows[row][col]), true
}

// keyAt computes the region of the key at (row, col).
func (g *Grid) keyAt(row, col int, label string) Key {
	return Key{
		Label:  label,
		X:      g.originX + g.padding + col*(g.keyWidth+g.gapX),
		Y:      g.originY + g.padding + row*(g.keyHeight+g.gapY),
		Width:  g.keyWidth,
		Height: g.keyHeight,
	}
}

func (g *Grid) maxCols() int {
	cols := 0
	for _, row := range g.rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	return cols
}
