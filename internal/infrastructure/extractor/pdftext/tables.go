package pdftext

import (
	"math"
	"sort"
	"strings"
)

const (
	// streamCellGap is the horizontal whitespace, in points, treated as a
	// cell boundary by the stream strategy.
	streamCellGap = 40.0
	// latticeSnap rounds word positions onto a column grid.
	latticeSnap = 10.0
	// minTableRows is the smallest run of multi-cell lines reported as a
	// candidate table.
	minTableRows = 3
)

// streamRows columnizes each line independently: a run of words separated
// by gaps narrower than streamCellGap forms one cell.
func streamRows(lines [][]word) [][]string {
	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		var cells []string
		var cell []string
		lastX := math.Inf(-1)
		for _, w := range line {
			if len(cell) > 0 && w.x-lastX > streamCellGap {
				cells = append(cells, strings.Join(cell, " "))
				cell = cell[:0]
			}
			cell = append(cell, w.s)
			lastX = w.x
		}
		if len(cell) > 0 {
			cells = append(cells, strings.Join(cell, " "))
		}
		rows = append(rows, cells)
	}
	return rows
}

// latticeRows infers a shared column grid from word start positions that
// recur across lines, then assigns every word to its grid column. Lines
// that disagree with the grid still produce rows; they come out narrow
// and are penalized downstream.
func latticeRows(lines [][]word) [][]string {
	grid := columnGrid(lines)
	if len(grid) < 2 {
		return streamRows(lines)
	}

	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		cells := make([]string, len(grid))
		for _, w := range line {
			idx := gridIndex(grid, w.x)
			if cells[idx] == "" {
				cells[idx] = w.s
			} else {
				cells[idx] += " " + w.s
			}
		}
		rows = append(rows, trimTrailing(cells))
	}
	return rows
}

func columnGrid(lines [][]word) []float64 {
	if len(lines) < 2 {
		return nil
	}
	counts := make(map[float64]int)
	for _, line := range lines {
		for _, w := range line {
			snapped := math.Round(w.x/latticeSnap) * latticeSnap
			counts[snapped]++
		}
	}

	minCount := len(lines) / 2
	grid := make([]float64, 0, len(counts))
	for x, count := range counts {
		if count >= minCount {
			grid = append(grid, x)
		}
	}
	sort.Float64s(grid)
	return grid
}

func gridIndex(grid []float64, x float64) int {
	idx := 0
	for i, boundary := range grid {
		if x+latticeSnap/2 >= boundary {
			idx = i
		}
	}
	return idx
}

func trimTrailing(cells []string) []string {
	end := len(cells)
	for end > 0 && cells[end-1] == "" {
		end--
	}
	return cells[:end]
}

// splitTables groups consecutive multi-cell rows into candidate tables.
func splitTables(rows [][]string) [][][]string {
	var out [][][]string
	var current [][]string
	flush := func() {
		if len(current) >= minTableRows {
			out = append(out, current)
		}
		current = nil
	}

	for _, row := range rows {
		if len(row) >= 2 {
			current = append(current, row)
			continue
		}
		flush()
	}
	flush()
	return out
}
