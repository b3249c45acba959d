package physics

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"x-katamari/backend/internal/core/domain/entity"
)

type cellKey struct {
	x, y, z int
}

// aabb ограничивающий бокс в мировых координатах
type aabb struct {
	min, max mgl64.Vec3
}

func (a aabb) overlaps(b aabb) bool {
	return a.min[0] <= b.max[0] && a.max[0] >= b.min[0] &&
		a.min[1] <= b.max[1] && a.max[1] >= b.min[1] &&
		a.min[2] <= b.max[2] && a.max[2] >= b.min[2]
}

// SpatialGrid равномерная сетка для широкой фазы. Тело занимает все ячейки,
// которые пересекает его AABB.
type SpatialGrid struct {
	cellSize float64
	cells    map[cellKey][]entity.BodyHandle
	bounds   map[entity.BodyHandle]aabb
}

// NewSpatialGrid создает новую пространственную сетку
func NewSpatialGrid(cellSize float64) *SpatialGrid {
	return &SpatialGrid{
		cellSize: cellSize,
		cells:    make(map[cellKey][]entity.BodyHandle),
		bounds:   make(map[entity.BodyHandle]aabb),
	}
}

func (g *SpatialGrid) coords(p mgl64.Vec3) cellKey {
	return cellKey{
		x: int(math.Floor(p[0] / g.cellSize)),
		y: int(math.Floor(p[1] / g.cellSize)),
		z: int(math.Floor(p[2] / g.cellSize)),
	}
}

func (g *SpatialGrid) each(box aabb, fn func(k cellKey)) {
	lo, hi := g.coords(box.min), g.coords(box.max)
	for x := lo.x; x <= hi.x; x++ {
		for y := lo.y; y <= hi.y; y++ {
			for z := lo.z; z <= hi.z; z++ {
				fn(cellKey{x, y, z})
			}
		}
	}
}

// Insert добавляет тело (или перемещает, если оно уже в сетке)
func (g *SpatialGrid) Insert(h entity.BodyHandle, box aabb) {
	g.Remove(h)
	g.each(box, func(k cellKey) {
		g.cells[k] = append(g.cells[k], h)
	})
	g.bounds[h] = box
}

// Remove удаляет тело из всех ячеек
func (g *SpatialGrid) Remove(h entity.BodyHandle) {
	box, ok := g.bounds[h]
	if !ok {
		return
	}
	g.each(box, func(k cellKey) {
		cell := g.cells[k]
		for i, other := range cell {
			if other == h {
				cell = append(cell[:i], cell[i+1:]...)
				break
			}
		}
		if len(cell) == 0 {
			delete(g.cells, k)
		} else {
			g.cells[k] = cell
		}
	})
	delete(g.bounds, h)
}

// Query возвращает тела, чьи AABB пересекают box, по возрастанию хэндла
func (g *SpatialGrid) Query(box aabb) []entity.BodyHandle {
	seen := make(map[entity.BodyHandle]struct{})
	g.each(box, func(k cellKey) {
		for _, h := range g.cells[k] {
			if g.bounds[h].overlaps(box) {
				seen[h] = struct{}{}
			}
		}
	})

	result := make([]entity.BodyHandle, 0, len(seen))
	for h := range seen {
		result = append(result, h)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// Len количество тел в сетке
func (g *SpatialGrid) Len() int {
	return len(g.bounds)
}
