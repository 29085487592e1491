package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/siegeboard/internal/adapters/extract"
	"github.com/okian/siegeboard/internal/adapters/fetch"
	. "github.com/smartystreets/goconvey/convey"
)

func yearPage(rows ...string) string {
	body := `<div id="conteudo"><table class="tabela cor auto"><tr><td>Data</td><td>Guild</td></tr>`
	for _, r := range rows {
		body += r
	}
	return body + `</table></div>`
}

func record(date, guild, gm string) string {
	return fmt.Sprintf(`<tr><td>%s</td><td><a>%s</a></td><td>%s</td>`+
		`<td>a1</td><td>g1</td><td>a2</td><td>g2</td><td>a3</td><td>g3</td><td>a4</td><td>g4</td></tr>`, date, guild, gm)
}

func TestYearURL(t *testing.T) {
	Convey("Given base urls with and without a query", t, func() {
		So(YearURL("https://site.test/?go=castlesiege", 2014), ShouldEqual, "https://site.test/?go=castlesiege&y=2014")
		So(YearURL("https://site.test/history", 2020), ShouldEqual, "https://site.test/history?y=2020")
	})
}

func TestCollectAll(t *testing.T) {
	Convey("Given a site where 2019 works, 2020 is down and 2021 is empty", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Query().Get("y") {
			case "2019":
				_, _ = w.Write([]byte(yearPage(record("01/01", "Alpha", "Zed"))))
			case "2020":
				w.WriteHeader(http.StatusInternalServerError)
			default:
				_, _ = w.Write([]byte(yearPage()))
			}
		}))
		defer srv.Close()

		stamp := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		c := New(srv.URL+"/?go=castlesiege",
			fetch.New(fetch.WithMaxRetries(0)),
			extract.New(),
			WithClock(func() time.Time { return stamp }),
		)

		Convey("When collecting 2019..2021", func() {
			data, err := c.CollectAll(context.Background(), 2019, 2021)

			Convey("Then no error is returned", func() {
				So(err, ShouldBeNil)
			})

			Convey("Then the failed year is absent and the empty year present", func() {
				_, has2020 := data.ByYear[2020]
				So(has2020, ShouldBeFalse)
				So(data.ByYear[2019], ShouldHaveLength, 1)
				empty, has2021 := data.ByYear[2021]
				So(has2021, ShouldBeTrue)
				So(empty, ShouldBeEmpty)
			})

			Convey("Then all records are flattened", func() {
				So(data.AllRecords, ShouldHaveLength, 1)
				So(data.AllRecords[0].Guild, ShouldEqual, "Alpha")
				So(data.AllRecords[0].Year, ShouldEqual, 2019)
			})

			Convey("Then the run is stamped", func() {
				So(data.CollectedAt, ShouldEqual, stamp)
				So(data.RunID, ShouldNotBeEmpty)
			})
		})

		Convey("When every year fails", func() {
			srv.Close()
			data, err := c.CollectAll(context.Background(), 2019, 2020)

			Convey("Then the result is empty but not an error", func() {
				So(err, ShouldBeNil)
				So(data.ByYear, ShouldBeEmpty)
				So(data.AllRecords, ShouldBeEmpty)
			})
		})
	})
}

func TestCollectAllHardErrors(t *testing.T) {
	Convey("Given misconfigured collections", t, func() {
		ctx := context.Background()
		good := New("https://site.test/?go=castlesiege", fetch.New(), extract.New())

		Convey("Then an inverted range is rejected", func() {
			_, err := good.CollectAll(ctx, 2021, 2020)
			So(errors.Is(err, ErrInvalidRange), ShouldBeTrue)
		})

		Convey("Then a zero start year is rejected", func() {
			_, err := good.CollectAll(ctx, 0, 2020)
			So(errors.Is(err, ErrInvalidRange), ShouldBeTrue)
		})

		Convey("Then a relative base url is rejected", func() {
			_, err := New("/?go=castlesiege", fetch.New(), extract.New()).CollectAll(ctx, 2020, 2020)
			So(errors.Is(err, ErrInvalidBaseURL), ShouldBeTrue)
		})

		Convey("Then missing dependencies are rejected", func() {
			_, err := New("https://site.test/", nil, nil).CollectAll(ctx, 2020, 2020)
			So(errors.Is(err, ErrNotConfigured), ShouldBeTrue)
		})

		Convey("Then a cancelled context fails before fetching", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := good.CollectAll(cctx, 2020, 2020)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestCollectAllInterrupted(t *testing.T) {
	Convey("Given a site that never answers", t, func() {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		c := New(srv.URL+"/?go=castlesiege", fetch.New(fetch.WithMaxRetries(0)), extract.New())

		Convey("When the context is cancelled while pages are in flight", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			data, err := c.CollectAll(ctx, 2019, 2021)

			Convey("Then the run is reported as interrupted with no dataset", func() {
				So(data, ShouldBeNil)
				So(errors.Is(err, ErrInterrupted), ShouldBeTrue)
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			})
		})
	})
}
