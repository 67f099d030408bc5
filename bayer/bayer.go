/*
DESCRIPTION
  bayer.go builds ordered-dither threshold maps (Bayer matrices) of
  arbitrary row/column count by recursively composing a small set of
  predefined tiles, matching the classic Bayer construction generalised to
  non-power-of-two and non-square sizes.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package bayer builds ordered-dither threshold maps of arbitrary
// dimension by recursively tiling a small table of predefined base
// matrices.
package bayer

import "fmt"

// Map is a rows x cols threshold table. Values cover 0..size()-1 exactly
// once; IsOn compares a mix level against a threshold derived from Values.
type Map struct {
	Values []int
	Rows   int
}

// newMap constructs a Map from a flat row-major values slice.
func newMap(values []int, rows int) Map {
	return Map{Values: values, Rows: rows}
}

// Size is the number of cells in the map, i.e. Rows*Cols.
func (m Map) Size() int { return len(m.Values) }

// Cols is the number of columns; zero if the map is empty.
func (m Map) Cols() int {
	if len(m.Values) == 0 || m.Rows == 0 {
		return 0
	}
	return len(m.Values) / m.Rows
}

// IsOn reports whether pixel (x,y), tiled across the map's extent, is above
// the threshold implied by mixLevel, where mixLevel in [0,1] is the
// fraction of "on" coverage requested (0 = all off, 1 = all on).
func (m Map) IsOn(x, y int, mixLevel float64) bool {
	threshold := int((1-mixLevel)*float64(m.Size()) + 0.5)
	idx := x%m.Cols() + (y%m.Rows)*m.Cols()
	return m.Values[idx] >= threshold
}

// Valid reports whether m describes a non-empty map.
func (m Map) Valid() bool { return len(m.Values) > 0 }

func predefinedValues(rows, cols int) []int {
	switch {
	case (rows == 2 && cols == 1) || (rows == 1 && cols == 2):
		return []int{0, 1}
	case (rows == 3 && cols == 1) || (rows == 1 && cols == 3):
		return []int{0, 2, 1}
	case (rows == 3 && cols == 2) || (rows == 2 && cols == 3):
		return []int{
			0, 4, 2,
			3, 1, 5,
		}
	case rows == 2 && cols == rows:
		return []int{
			0, 2,
			3, 1,
		}
	case rows == 3 && cols == rows:
		return []int{
			0, 7, 3,
			6, 5, 2,
			4, 1, 8,
		}
	default:
		return nil
	}
}

// GetPredefined returns the hardcoded base tile for the given exact
// row/col count, or a Map with nil Values (Rows still set) if none exists.
func GetPredefined(rows, cols int) Map {
	return newMap(predefinedValues(rows, cols), rows)
}

// GetLargestPredefinedMap finds the largest predefined tile whose
// dimensions evenly divide rows and cols.
func GetLargestPredefinedMap(rows, cols int) Map {
	var current Map
	for y := 1; y <= rows; y++ {
		for x := 1; x <= cols; x++ {
			if rows%y != 0 || cols%x != 0 {
				continue
			}
			candidate := GetPredefined(y, x)
			if candidate.Size() <= current.Size() {
				continue
			}
			current = candidate
		}
	}
	return current
}

// Generate builds a rows x cols threshold map. If a predefined tile
// already matches the requested size exactly, it is returned directly.
// Otherwise the largest predefined tile dividing rows/cols is found as
// the "outer" map, and a recursively generated map of the remaining
// (rows/outerRows, cols/outerCols) factor is the "inner" map:
//
//	value(x,y) = inner[y%innerRows][x%innerCols]*outer.Size() +
//	             outer[(y/innerRows)%outer.Rows][(x/innerCols)%outer.Cols]
//
// The inner map supplies the fine (high-frequency) threshold pattern
// repeated across each outer tile, scaled by the outer map's size; the
// outer map supplies the coarse pattern selecting which scaled band a
// given outer tile falls into. Swapping these roles still yields a
// permutation of 0..N-1 (the covering invariant alone can't catch the
// mistake) but does not reproduce the reference matrices for
// non-self-similar compositions such as 6x6 (3x3 outer over 2x2 inner).
func Generate(rows, cols int) (Map, error) {
	outer := GetLargestPredefinedMap(rows, cols)
	if outer.Cols() == cols && outer.Rows == rows {
		return outer, nil
	}
	if outer.Rows <= 0 || outer.Cols() <= 0 {
		return Map{}, fmt.Errorf("bayer: unsupported row/col count %dx%d", rows, cols)
	}

	inner, err := Generate(rows/outer.Rows, cols/outer.Cols())
	if err != nil {
		return Map{}, err
	}

	values := make([]int, rows*cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v := inner.Values[(y%inner.Rows)*inner.Cols()+(x%inner.Cols())] * outer.Size()
			v += outer.Values[((y/inner.Rows)%outer.Rows)*outer.Cols()+((x/inner.Cols())%outer.Cols())]
			values[y*cols+x] = v
		}
	}
	return newMap(values, rows), nil
}
