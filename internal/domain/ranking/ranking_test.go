package ranking_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/siegeboard/internal/domain/model"
	"github.com/okian/siegeboard/internal/domain/ranking"
	"github.com/okian/siegeboard/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

type staticSource struct {
	data  *model.SharedSiegeData
	err   error
	calls int
}

func (s *staticSource) Shared(ctx context.Context) (*model.SharedSiegeData, error) {
	s.calls++
	return s.data, s.err
}

func shared(records ...model.SiegeRecord) *model.SharedSiegeData {
	byYear := model.YearlyRecordSet{}
	for _, r := range records {
		byYear[r.Year] = append(byYear[r.Year], r)
	}
	return &model.SharedSiegeData{AllRecords: records, ByYear: byYear}
}

func TestVictories(t *testing.T) {
	Convey("Given records across two years", t, func() {
		data := shared(
			model.SiegeRecord{Year: 2020, Date: "01/02", Guild: "Alpha"},
			model.SiegeRecord{Year: 2020, Date: "08/02", Guild: "Beta"},
			model.SiegeRecord{Year: 2020, Date: "15/02", Guild: ""},
			model.SiegeRecord{Year: 2021, Date: "01/02", Guild: "ALPHA"},
		)

		Convey("When deriving victories", func() {
			res := ranking.Victories(data)

			Convey("Then totals fold case variants under the last casing", func() {
				So(res.Totals.Pairs(), ShouldResemble, []model.Pair{{Name: "Beta", Count: 1}, {Name: "ALPHA", Count: 2}})
			})

			Convey("And each year is tallied on its own", func() {
				So(res.Year(2020).Map(), ShouldResemble, map[string]int{"Alpha": 1, "Beta": 1})
				So(res.Year(2021).Map(), ShouldResemble, map[string]int{"ALPHA": 1})
			})

			Convey("And blank guilds are not counted", func() {
				_, ok := res.Totals.Get("")
				So(ok, ShouldBeFalse)
			})
		})
	})

	Convey("Given a name whose casing differs between years", t, func() {
		data := shared(
			model.SiegeRecord{Year: 2019, Guild: "beta"},
			model.SiegeRecord{Year: 2020, Guild: "Beta"},
			model.SiegeRecord{Year: 2020, Guild: "beta"},
		)

		Convey("Then the overall spelling can differ from a year's spelling", func() {
			res := ranking.Victories(data)
			So(res.Totals.Map(), ShouldResemble, map[string]int{"beta": 3})
			So(res.Year(2020).Map(), ShouldResemble, map[string]int{"beta": 2})
			So(res.Year(2019).Map(), ShouldResemble, map[string]int{"beta": 1})
		})
	})
}

func TestRegistro(t *testing.T) {
	Convey("Given records with guild masters", t, func() {
		data := shared(
			model.SiegeRecord{Year: 2020, Guild: "A", GM: "Zed"},
			model.SiegeRecord{Year: 2020, Guild: "B", GM: "zed"},
			model.SiegeRecord{Year: 2021, Guild: "C", GM: ""},
		)

		Convey("Then gm is tallied instead of guild", func() {
			res := ranking.Registro(data)
			So(res.Totals.Pairs(), ShouldResemble, []model.Pair{{Name: "zed", Count: 2}})
			So(res.Year(2021).Len(), ShouldEqual, 0)
		})
	})
}

func TestDesbuff(t *testing.T) {
	Convey("Given a record with a blank slot and a repeated master", t, func() {
		data := shared(model.SiegeRecord{Year: 2020, GM1: "X", GM2: "", GM3: "X", GM4: "Y"})

		Convey("Then X counts twice and Y once", func() {
			res := ranking.Desbuff(data)
			So(res.Totals.Pairs(), ShouldResemble, []model.Pair{{Name: "X", Count: 2}, {Name: "Y", Count: 1}})
		})
	})

	Convey("Given whitespace-only slots", t, func() {
		data := shared(model.SiegeRecord{Year: 2020, GM1: "   ", GM2: "\t", GM3: "Q"})

		Convey("Then they are skipped", func() {
			So(ranking.Desbuff(data).Totals.Map(), ShouldResemble, map[string]int{"Q": 1})
		})
	})
}

func TestStreaks(t *testing.T) {
	Convey("Given the documented streak example", t, func() {
		data := shared(
			model.SiegeRecord{Year: 2020, Guild: "guildA"},
			model.SiegeRecord{Year: 2020, Guild: "guildA"},
			model.SiegeRecord{Year: 2020, Guild: "guildB"},
			model.SiegeRecord{Year: 2021, Guild: "guildA"},
		)

		Convey("Then only the two-record run counts", func() {
			res := ranking.Streaks(data)
			So(res.Totals.Pairs(), ShouldResemble, []model.Pair{{Name: "guildA", Count: 2}})
			So(res.Year(2020).Map(), ShouldResemble, map[string]int{"guildA": 2})
			So(res.Year(2021).Len(), ShouldEqual, 0)
		})
	})

	Convey("Given records out of chronological order", t, func() {
		records := []model.SiegeRecord{
			{Year: 2021, Date: "a", Guild: "B"},
			{Year: 2020, Date: "c", Guild: "A"},
			{Year: 2020, Date: "b", Guild: "a"},
			{Year: 2020, Date: "d", Guild: "A"},
			{Year: 2021, Date: "b", Guild: "B"},
			{Year: 2021, Date: "c", Guild: "B"},
		}
		data := shared(records...)
		original := append([]model.SiegeRecord(nil), data.AllRecords...)

		Convey("When deriving streaks", func() {
			res := ranking.Streaks(data)

			Convey("Then runs are found after sorting by year then date", func() {
				// sorted: 2020 b(a) c(A) d(A), 2021 a(B) b(B) c(B)
				So(res.Totals.Pairs(), ShouldResemble, []model.Pair{{Name: "a", Count: 3}, {Name: "B", Count: 3}})
			})

			Convey("And the shared records keep their order", func() {
				So(data.AllRecords, ShouldResemble, original)
			})
		})
	})

	Convey("Given two runs of the same guild", t, func() {
		data := shared(
			model.SiegeRecord{Year: 2020, Date: "1", Guild: "A"},
			model.SiegeRecord{Year: 2020, Date: "2", Guild: "A"},
			model.SiegeRecord{Year: 2020, Date: "3", Guild: "A"},
			model.SiegeRecord{Year: 2020, Date: "4", Guild: "B"},
			model.SiegeRecord{Year: 2020, Date: "5", Guild: "A"},
			model.SiegeRecord{Year: 2020, Date: "6", Guild: "A"},
		)

		Convey("Then the longer run is kept", func() {
			So(ranking.Streaks(data).Totals.Map(), ShouldResemble, map[string]int{"A": 3})
		})
	})

	Convey("Given a run broken by a blank guild", t, func() {
		data := shared(
			model.SiegeRecord{Year: 2020, Date: "1", Guild: "A"},
			model.SiegeRecord{Year: 2020, Date: "2", Guild: ""},
			model.SiegeRecord{Year: 2020, Date: "3", Guild: ""},
			model.SiegeRecord{Year: 2020, Date: "4", Guild: "A"},
		)

		Convey("Then neither the blanks nor the single wins are recorded", func() {
			So(ranking.Streaks(data).Totals.Len(), ShouldEqual, 0)
		})
	})
}

func TestDerivationIdempotence(t *testing.T) {
	Convey("Given unchanged shared data", t, func() {
		data := shared(
			model.SiegeRecord{Year: 2020, Date: "2", Guild: "A", GM: "g", GM1: "x"},
			model.SiegeRecord{Year: 2020, Date: "1", Guild: "A", GM: "G", GM2: "X"},
			model.SiegeRecord{Year: 2021, Date: "1", Guild: "b", GM: "h", GM3: "y"},
		)

		Convey("Then every derivation returns identical results twice", func() {
			for _, fn := range []func(*model.SharedSiegeData) *model.RankingResult{
				ranking.Victories, ranking.Registro, ranking.Desbuff, ranking.Streaks,
			} {
				first, second := fn(data), fn(data)
				So(second.Totals.Pairs(), ShouldResemble, first.Totals.Pairs())
				for year, c := range first.ByYear {
					So(second.ByYear[year].Pairs(), ShouldResemble, c.Pairs())
				}
			}
		})
	})
}

func TestRankingVariants(t *testing.T) {
	Convey("Given the default rankings", t, func() {
		src := &staticSource{data: shared(
			model.SiegeRecord{Year: 2020, Guild: "A", GM: "g"},
			model.SiegeRecord{Year: 2020, Guild: "A", GM: "g"},
			model.SiegeRecord{Year: 2020, Guild: "B", GM: "h"},
		)}
		all := ranking.Defaults(src, ranking.WithStartYear(2016), ranking.WithBaseURL("http://example.test/?go=castlesiege"))

		Convey("Then they are registered in menu order", func() {
			So(len(all), ShouldEqual, 4)
			keys := make([]string, len(all))
			for i, r := range all {
				keys[i] = ranking.MenuKey(r)
			}
			So(keys, ShouldResemble, []string{"castlesiegeranking", "gmregistroranking", "gmdesbuffranking", "maioressequenciasranking"})
		})

		Convey("Then options and defaults apply", func() {
			for _, r := range all {
				So(r.StartYear(), ShouldEqual, 2016)
				So(r.BaseURL(), ShouldEqual, "http://example.test/?go=castlesiege")
				So(r.SupportsYearFilter(), ShouldBeTrue)
				So(r.ValueLabel(), ShouldNotBeEmpty)
			}
		})

		Convey("When collecting the victory ranking", func() {
			res, err := all[0].Collect(context.Background())

			Convey("Then it derives from the shared source", func() {
				So(err, ShouldBeNil)
				So(res.Totals.Map(), ShouldResemble, map[string]int{"A": 2, "B": 1})
				So(src.calls, ShouldEqual, 1)
			})
		})

		Convey("When the source fails", func() {
			src.err = errors.New("boom")
			_, err := all[1].Collect(context.Background())

			Convey("Then the error propagates", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "boom")
			})
		})
	})

	Convey("Given a ranking without a source", t, func() {
		r := ranking.NewVictoryRanking(nil)

		Convey("Then Collect fails with ErrNoSource", func() {
			_, err := r.Collect(context.Background())
			So(errors.Is(err, ranking.ErrNoSource), ShouldBeTrue)
		})
	})
}

func TestTable(t *testing.T) {
	Convey("Given counts with ties", t, func() {
		r := ranking.NewVictoryRanking(nil)
		counts := model.CountsOf(
			model.Pair{Name: "low", Count: 1},
			model.Pair{Name: "tieA", Count: 5},
			model.Pair{Name: "tieB", Count: 5},
			model.Pair{Name: "top", Count: 9},
		)

		Convey("Then rows are ordered by value with stable ties", func() {
			So(r.Table(counts), ShouldResemble, []types.Entry{
				{Position: 1, Name: "top", Value: 9},
				{Position: 2, Name: "tieA", Value: 5},
				{Position: 3, Name: "tieB", Value: 5},
				{Position: 4, Name: "low", Value: 1},
			})
		})

		Convey("Then empty counts yield no rows", func() {
			So(r.Table(model.NewCounts()), ShouldBeEmpty)
		})
	})
}
