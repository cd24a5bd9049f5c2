package retro

import (
	"fmt"
	"math/bits"
)

// Bucket grid geometry: BucketSize pixel squares covering the native
// screen, rounded up.
const (
	BucketSize = 16
	BucketsX   = (NativeWidth + BucketSize - 1) / BucketSize
	BucketsY   = (NativeHeight + BucketSize - 1) / BucketSize
)

// BucketSet is a set of sprite ids, one bit per id.
type BucketSet uint64

// Compile-time check that every sprite id fits in a BucketSet.
var _ [64 - MaxSprites]struct{}

// Has reports whether id is in the set.
func (s BucketSet) Has(id SpriteID) bool {
	return s&(1<<id) != 0
}

// Len returns the number of ids in the set.
func (s BucketSet) Len() int {
	return bits.OnesCount64(uint64(s))
}

// IDs returns the members in ascending order.
func (s BucketSet) IDs() []SpriteID {
	out := make([]SpriteID, 0, s.Len())
	for v := uint64(s); v != 0; v &= v - 1 {
		out = append(out, SpriteID(bits.TrailingZeros64(v)))
	}
	return out
}

// BoundsSource resolves the current rectangle of an active sprite.
// *SpriteArena implements it.
type BoundsSource interface {
	Bounds(id SpriteID) (Rect, error)
}

// bucketSpan is the inclusive bucket range a sprite occupies.
type bucketSpan struct {
	x0, y0, x1, y1 int
	ok             bool
}

// SpriteBucketIndex is a fixed grid of buckets over the native screen. Each
// bucket holds the ids of active sprites whose bounds overlap it.
type SpriteBucketIndex struct {
	src     BoundsSource
	buckets [BucketsX * BucketsY]BucketSet
	spans   [MaxSprites]bucketSpan
}

// NewSpriteBucketIndex creates an empty index that reads sprite bounds from
// src.
func NewSpriteBucketIndex(src BoundsSource) *SpriteBucketIndex {
	return &SpriteBucketIndex{src: src}
}

// spanFor clips r to the bucket grid. ok is false when r lies entirely off
// screen.
func spanFor(r Rect) bucketSpan {
	if r.Empty() {
		return bucketSpan{}
	}
	x0 := max(floorDiv(r.MinX, BucketSize), 0)
	y0 := max(floorDiv(r.MinY, BucketSize), 0)
	x1 := min(floorDiv(r.MaxX-1, BucketSize), BucketsX-1)
	y1 := min(floorDiv(r.MaxY-1, BucketSize), BucketsY-1)
	if x0 > x1 || y0 > y1 {
		return bucketSpan{}
	}
	return bucketSpan{x0: x0, y0: y0, x1: x1, y1: y1, ok: true}
}

// Remove takes id out of every bucket it occupies. SpriteArena.Deactivate
// calls it for an attached index. Removing an id that is not indexed is a
// no-op.
func (ix *SpriteBucketIndex) Remove(id SpriteID) {
	if int(id) >= MaxSprites {
		return
	}
	sp := ix.spans[id]
	if !sp.ok {
		return
	}
	bit := BucketSet(1) << id
	for by := sp.y0; by <= sp.y1; by++ {
		row := by * BucketsX
		for bx := sp.x0; bx <= sp.x1; bx++ {
			ix.buckets[row+bx] &^= bit
		}
	}
	ix.spans[id] = bucketSpan{}
}

// RebuildFor removes id from its buckets, rereads its bounds and inserts it
// into every bucket the bounds overlap. An inactive id is left removed and
// the lookup error is returned.
func (ix *SpriteBucketIndex) RebuildFor(id SpriteID) error {
	if int(id) >= MaxSprites {
		return fmt.Errorf("retro: rebuild bucket for sprite %d: %w", id, ErrIndex)
	}
	ix.Remove(id)
	r, err := ix.src.Bounds(id)
	if err != nil {
		return err
	}
	ix.insert(id, r)
	return nil
}

// insert adds id to every bucket r overlaps. id must not be indexed.
func (ix *SpriteBucketIndex) insert(id SpriteID, r Rect) {
	sp := spanFor(r)
	if !sp.ok {
		return
	}
	bit := BucketSet(1) << id
	for by := sp.y0; by <= sp.y1; by++ {
		row := by * BucketsX
		for bx := sp.x0; bx <= sp.x1; bx++ {
			ix.buckets[row+bx] |= bit
		}
	}
	ix.spans[id] = sp
}

// Rebuild clears the index and reinserts every id in ids.
func (ix *SpriteBucketIndex) Rebuild(ids []SpriteID) {
	ix.buckets = [BucketsX * BucketsY]BucketSet{}
	ix.spans = [MaxSprites]bucketSpan{}
	for _, id := range ids {
		_ = ix.RebuildFor(id) // inactive ids stay out
	}
}

// Query returns the sprites overlapping bucket (bx, by).
func (ix *SpriteBucketIndex) Query(bx, by int) (BucketSet, error) {
	if bx < 0 || bx >= BucketsX || by < 0 || by >= BucketsY {
		return 0, fmt.Errorf("retro: query bucket (%d, %d): %w", bx, by, ErrIndex)
	}
	return ix.buckets[by*BucketsX+bx], nil
}

// QueryRect returns the union of every bucket overlapping r. The result is
// a candidate set: members overlap r's buckets, not necessarily r itself.
func (ix *SpriteBucketIndex) QueryRect(r Rect) BucketSet {
	sp := spanFor(r)
	if !sp.ok {
		return 0
	}
	var out BucketSet
	for by := sp.y0; by <= sp.y1; by++ {
		row := by * BucketsX
		for bx := sp.x0; bx <= sp.x1; bx++ {
			out |= ix.buckets[row+bx]
		}
	}
	return out
}

// At returns the sprites whose bucket contains the native pixel (x, y).
// Pixels off screen return an empty set.
func (ix *SpriteBucketIndex) At(x, y int) BucketSet {
	if x < 0 || x >= NativeWidth || y < 0 || y >= NativeHeight {
		return 0
	}
	return ix.buckets[(y/BucketSize)*BucketsX+x/BucketSize]
}

// BucketsOf returns the inclusive bucket range id occupies, and false when
// it occupies none.
func (ix *SpriteBucketIndex) BucketsOf(id SpriteID) (x0, y0, x1, y1 int, ok bool) {
	if int(id) >= MaxSprites {
		return 0, 0, 0, 0, false
	}
	sp := ix.spans[id]
	return sp.x0, sp.y0, sp.x1, sp.y1, sp.ok
}

// Snapshot returns a copy of every bucket, row-major, BucketsX*BucketsY
// entries.
func (ix *SpriteBucketIndex) Snapshot() []BucketSet {
	out := make([]BucketSet, len(ix.buckets))
	copy(out, ix.buckets[:])
	return out
}
