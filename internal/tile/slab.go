package tile

// Slab is a contiguous run of logically ordered cells within one tile.
// A nil Tile marks a requested range no fragment ever wrote; such a slab is
// evaluated once against the attribute fill value.
type Slab struct {
	Tile   *Tile
	Start  uint64
	Length uint64
}

// TotalCells returns the summed length of a slab list.
func TotalCells(slabs []Slab) uint64 {
	var n uint64
	for _, s := range slabs {
		n += s.Length
	}
	return n
}
