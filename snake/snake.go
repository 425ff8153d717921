/*
NAME
  snake.go

DESCRIPTION
  snake.go computes and caches the "snake" scan permutation used to
  linearise a thermal frame before delta compression: even rows scan
  left-to-right, odd rows scan right-to-left, so that pixels adjacent
  across a row boundary remain spatially adjacent in the linear scan.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package snake computes the row-snaked linear scan order for a
// thermal frame of a given width and height, caching the result per
// dimension pair.
package snake

import "sync"

var (
	mu    sync.RWMutex
	cache = map[dims][]int{}
)

type dims struct {
	w, h int
}

// Table returns the snake permutation for a frame of w columns and h
// rows: index i of the returned slice holds the linear scan-order
// index that should be read to fill row-major position i. Tables are
// cached per (w, h) since they are pure functions of the dimensions.
func Table(w, h int) []int {
	key := dims{w, h}

	mu.RLock()
	t, ok := cache[key]
	mu.RUnlock()
	if ok {
		return t
	}

	t = build(w, h)

	mu.Lock()
	cache[key] = t
	mu.Unlock()
	return t
}

// build computes the permutation directly: linear = r*w + c, and the
// snake index folds odd rows back to front.
func build(w, h int) []int {
	t := make([]int, w*h)
	for i := range t {
		row := i / w
		col := i % w
		if row%2 == 1 {
			col = w - 1 - col
		}
		t[i] = row*w + col
	}
	return t
}
