package normalize_test

import (
	"testing"

	"github.com/okian/siegeboard/internal/domain/model"
	"github.com/okian/siegeboard/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
)

func pairs(p ...model.Pair) *model.Counts { return model.CountsOf(p...) }

func TestNames(t *testing.T) {
	Convey("Given counts with three casings of one name", t, func() {
		in := pairs(
			model.Pair{Name: "Foo", Count: 1},
			model.Pair{Name: "foo", Count: 2},
			model.Pair{Name: "FOO", Count: 3},
		)

		Convey("When normalizing", func() {
			out := normalize.Names(in)

			Convey("Then the last casing wins and counts sum", func() {
				So(out.Pairs(), ShouldResemble, []model.Pair{{Name: "FOO", Count: 6}})
			})

			Convey("And the input is left untouched", func() {
				So(in.Len(), ShouldEqual, 3)
				v, _ := in.Get("Foo")
				So(v, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a single name", t, func() {
		out := normalize.Names(pairs(model.Pair{Name: "Bar", Count: 5}))

		Convey("Then it passes through unchanged", func() {
			So(out.Pairs(), ShouldResemble, []model.Pair{{Name: "Bar", Count: 5}})
		})
	})

	Convey("Given interleaved names", t, func() {
		in := pairs(
			model.Pair{Name: "Alpha", Count: 1},
			model.Pair{Name: "Beta", Count: 4},
			model.Pair{Name: "ALPHA", Count: 2},
			model.Pair{Name: "gamma", Count: 7},
		)

		Convey("When normalizing", func() {
			out := normalize.Names(in)

			Convey("Then the replaced name moves after its last sighting", func() {
				So(out.Pairs(), ShouldResemble, []model.Pair{
					{Name: "Beta", Count: 4},
					{Name: "ALPHA", Count: 3},
					{Name: "gamma", Count: 7},
				})
			})
		})
	})

	Convey("Given the same variants in a different order", t, func() {
		a := normalize.Names(pairs(model.Pair{Name: "x", Count: 1}, model.Pair{Name: "X", Count: 1}))
		b := normalize.Names(pairs(model.Pair{Name: "X", Count: 1}, model.Pair{Name: "x", Count: 1}))

		Convey("Then the surviving spelling depends on order but the sum does not", func() {
			So(a.Map(), ShouldResemble, map[string]int{"X": 2})
			So(b.Map(), ShouldResemble, map[string]int{"x": 2})
		})
	})

	Convey("Given empty counts", t, func() {
		Convey("Then the result is empty", func() {
			So(normalize.Names(model.NewCounts()).Len(), ShouldEqual, 0)
		})
	})
}

func TestEqual(t *testing.T) {
	Convey("Given two spellings", t, func() {
		So(normalize.Equal("GuildA", "guilda"), ShouldBeTrue)
		So(normalize.Equal("GuildA", "GuildB"), ShouldBeFalse)
	})
}
