package model_test

import (
	"encoding/json"
	"testing"

	model "github.com/okian/siegeboard/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestSiegeRecord(t *testing.T) {
	convey.Convey("Given a siege record", t, func() {
		rec := model.SiegeRecord{Year: 2020, Guild: "Alpha", GM1: "x", GM2: "", GM3: "y", GM4: "z"}

		convey.Convey("Then GMSlots returns the four slots in column order", func() {
			convey.So(rec.GMSlots(), convey.ShouldResemble, [4]string{"x", "", "y", "z"})
		})
	})
}

func TestYearlyRecordSet(t *testing.T) {
	convey.Convey("Given a yearly record set built out of order", t, func() {
		set := model.YearlyRecordSet{
			2021: nil,
			2014: {{Year: 2014}},
			2018: {},
		}

		convey.Convey("Then Years is ascending", func() {
			convey.So(set.Years(), convey.ShouldResemble, []int{2014, 2018, 2021})
		})
	})
}

func TestCounts(t *testing.T) {
	convey.Convey("Given empty counts", t, func() {
		c := model.NewCounts()

		convey.Convey("When incrementing names", func() {
			c.Inc("b")
			c.Inc("a")
			c.Inc("b")

			convey.Convey("Then insertion order is kept and counts accumulate", func() {
				convey.So(c.Pairs(), convey.ShouldResemble, []model.Pair{{Name: "b", Count: 2}, {Name: "a", Count: 1}})
				convey.So(c.Len(), convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When deleting and re-adding a name", func() {
			c.Set("a", 1)
			c.Set("b", 2)
			c.Delete("a")
			c.Set("a", 3)

			convey.Convey("Then the name moves to the end", func() {
				convey.So(c.Pairs(), convey.ShouldResemble, []model.Pair{{Name: "b", Count: 2}, {Name: "a", Count: 3}})
			})
		})

		convey.Convey("When encoding to JSON", func() {
			c.Set("zeta", 1)
			c.Set("alpha", 2)
			raw, err := json.Marshal(c)

			convey.Convey("Then keys keep insertion order", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(raw), convey.ShouldEqual, `{"zeta":1,"alpha":2}`)
			})
		})
	})

	convey.Convey("Given a zero-value Counts", t, func() {
		var c model.Counts

		convey.Convey("Then reads are safe and writes initialize it", func() {
			convey.So(c.Len(), convey.ShouldEqual, 0)
			_, ok := c.Get("x")
			convey.So(ok, convey.ShouldBeFalse)
			c.Inc("x")
			convey.So(c.Map(), convey.ShouldResemble, map[string]int{"x": 1})
		})
	})
}

func TestRankingResult(t *testing.T) {
	convey.Convey("Given a ranking result with one year", t, func() {
		res := model.NewRankingResult()
		res.ByYear[2020] = model.CountsOf(model.Pair{Name: "A", Count: 2})

		convey.Convey("Then a known year returns its counts", func() {
			convey.So(res.Year(2020).Map(), convey.ShouldResemble, map[string]int{"A": 2})
		})

		convey.Convey("Then an unknown year returns empty counts", func() {
			convey.So(res.Year(1999).Len(), convey.ShouldEqual, 0)
		})
	})
}
