// Package score derives totals from a round's per-hole score map. Pure
// functions; persistence and navigation never depend on them.
package score

import (
	"golf-tracker/internal/course"
	"golf-tracker/internal/domain"
)

// Total sums approach shots and putts over every recorded hole entry.
func Total(scores map[int]*domain.HoleScore) int {
	total := 0
	for _, s := range scores {
		if s == nil {
			continue
		}
		total += s.ApproachShots + s.Putts
	}
	return total
}

// Relative returns strokes minus par, counting only holes with at least one
// recorded stroke. A round with nothing recorded is even (0): the to-par
// figure reflects holes actually played, not the whole card.
func Relative(catalog *course.Catalog, scores map[int]*domain.HoleScore) int {
	totalStrokes := 0
	totalPar := 0
	for number, s := range scores {
		if s == nil {
			continue
		}
		strokes := s.ApproachShots + s.Putts
		if strokes == 0 {
			continue
		}
		hole, ok := catalog.ByNumber(number)
		if !ok {
			continue
		}
		totalStrokes += strokes
		totalPar += hole.Par
	}
	return totalStrokes - totalPar
}

// HolesPlayed counts entries with at least one stroke.
func HolesPlayed(scores map[int]*domain.HoleScore) int {
	n := 0
	for _, s := range scores {
		if s != nil && s.ApproachShots+s.Putts > 0 {
			n++
		}
	}
	return n
}
