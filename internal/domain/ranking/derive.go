package ranking

import (
	"sort"
	"strings"

	"github.com/okian/siegeboard/internal/domain/model"
	"github.com/okian/siegeboard/internal/domain/normalize"
)

// tallyFunc counts one metric over a slice of records.
type tallyFunc func(records []model.SiegeRecord) *model.Counts

// derive runs tally over every year and over all records, normalizing each
// map on its own. Totals are not the sum of the normalized years: a name
// split across casings in different years may resolve to another spelling
// overall than in any single year.
func derive(data *model.SharedSiegeData, tally tallyFunc) *model.RankingResult {
	res := model.NewRankingResult()
	if data == nil {
		return res
	}
	for _, year := range data.ByYear.Years() {
		res.ByYear[year] = normalize.Names(tally(data.ByYear[year]))
	}
	res.Totals = normalize.Names(tally(data.AllRecords))
	return res
}

// Victories counts siege wins per guild.
func Victories(data *model.SharedSiegeData) *model.RankingResult {
	return derive(data, tallyGuilds)
}

// Registro counts siege wins per guild master.
func Registro(data *model.SharedSiegeData) *model.RankingResult {
	return derive(data, tallyGuildMasters)
}

// Desbuff counts appearances of guild masters in the four participant slots.
func Desbuff(data *model.SharedSiegeData) *model.RankingResult {
	return derive(data, tallyDesbuff)
}

// Streaks finds the longest run of consecutive wins per guild.
func Streaks(data *model.SharedSiegeData) *model.RankingResult {
	return derive(data, longestRuns)
}

func tallyGuilds(records []model.SiegeRecord) *model.Counts {
	c := model.NewCounts()
	for _, r := range records {
		if r.Guild != "" {
			c.Inc(r.Guild)
		}
	}
	return c
}

func tallyGuildMasters(records []model.SiegeRecord) *model.Counts {
	c := model.NewCounts()
	for _, r := range records {
		if r.GM != "" {
			c.Inc(r.GM)
		}
	}
	return c
}

func tallyDesbuff(records []model.SiegeRecord) *model.Counts {
	c := model.NewCounts()
	for _, r := range records {
		for _, gm := range r.GMSlots() {
			if strings.TrimSpace(gm) != "" {
				c.Inc(gm)
			}
		}
	}
	return c
}

// longestRuns walks records ordered by (year, date) and keeps, per guild,
// the longest run of consecutive wins. Runs of one are not recorded. Guilds
// are compared case-insensitively; the run is stored under the spelling of
// its first record. The input slice is not reordered.
func longestRuns(records []model.SiegeRecord) *model.Counts {
	sorted := make([]model.SiegeRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Year != sorted[j].Year {
			return sorted[i].Year < sorted[j].Year
		}
		return sorted[i].Date < sorted[j].Date
	})

	runs := model.NewCounts()
	current, length := "", 0

	flush := func() {
		if current == "" || length <= 1 {
			return
		}
		if best, ok := runs.Get(current); !ok || length > best {
			runs.Set(current, length)
		}
	}

	for _, r := range sorted {
		if current != "" && normalize.Equal(r.Guild, current) {
			length++
			continue
		}
		flush()
		current, length = r.Guild, 1
	}
	flush()

	return runs
}
