// Package model contains domain models passed between layers.
package model

import (
	"sort"
	"time"
)

// SiegeRecord is one row of a yearly Castle Siege history table.
// Records are immutable once extracted; every string field may be empty.
type SiegeRecord struct {
	Year      int    `json:"year"`
	Date      string `json:"date"`  // raw cell text, lexically sortable within a year
	Guild     string `json:"guild"` // victor
	GM        string `json:"gm"`
	Alliance1 string `json:"alliance1"`
	GM1       string `json:"gm1"`
	Alliance2 string `json:"alliance2"`
	GM2       string `json:"gm2"`
	Alliance3 string `json:"alliance3"`
	GM3       string `json:"gm3"`
	Alliance4 string `json:"alliance4"`
	GM4       string `json:"gm4"`
}

// GMSlots returns the four participant guild-master slots in column order.
func (r SiegeRecord) GMSlots() [4]string {
	return [4]string{r.GM1, r.GM2, r.GM3, r.GM4}
}

// YearlyRecordSet maps a year to its records in document order.
type YearlyRecordSet map[int][]SiegeRecord

// Years returns the years present in the set in ascending order.
func (s YearlyRecordSet) Years() []int {
	years := make([]int, 0, len(s))
	for y := range s {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// SharedSiegeData is the output of one collection run. It is shared
// read-only by every ranking derivation.
type SharedSiegeData struct {
	AllRecords  []SiegeRecord   `json:"all_records"`
	ByYear      YearlyRecordSet `json:"by_year"`
	CollectedAt time.Time       `json:"collected_at"`
	RunID       string          `json:"run_id"`
}

// RankingResult is what a ranking derivation hands to the presentation layer.
type RankingResult struct {
	Totals *Counts          `json:"totals"`
	ByYear map[int]*Counts `json:"by_year"`
}

// NewRankingResult returns an empty result ready to be filled.
func NewRankingResult() *RankingResult {
	return &RankingResult{
		Totals: NewCounts(),
		ByYear: make(map[int]*Counts),
	}
}

// Year returns the counts for year, or an empty Counts when the year has no data.
func (r *RankingResult) Year(year int) *Counts {
	if c, ok := r.ByYear[year]; ok && c != nil {
		return c
	}
	return NewCounts()
}
