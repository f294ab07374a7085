package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/linarqa/linarqa-web/api/validators"
	"github.com/linarqa/linarqa-web/internal/balance"
)

const (
	balanceViewMonth = "month"
	balanceViewYear  = "year"
)

type balanceView struct {
	View     string
	Year     int
	Month    int
	Monthly  balance.Monthly
	Yearly   balance.Yearly
	Best     *balance.Monthly
	Loaded   bool
	Previous string
	Next     string
}

type balanceData struct {
	monthly balance.Monthly
	yearly  balance.Yearly
}

func balanceLink(view string, year int, month time.Month) string {
	return fmt.Sprintf("/monthly-balance?view=%s&year=%d&month=%d", view, year, int(month))
}

// MonthlyBalance shows income against payroll for a month, and the twelve
// months of its year on the year view.
func (d *Deps) MonthlyBalance() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		now := d.now()
		year, err := validators.QueryInt(r, "year", now.Year(), 2000, 2100)
		if err != nil {
			d.actionFailed(req, err, "sidebar.loadError", "/monthly-balance")
			return
		}
		monthNum, err := validators.QueryInt(r, "month", int(now.Month()), 1, 12)
		if err != nil {
			d.actionFailed(req, err, "sidebar.loadError", "/monthly-balance")
			return
		}
		month := time.Month(monthNum)
		view := balanceView{View: balanceViewMonth, Year: year, Month: monthNum}
		if validators.QueryString(r, "view", 10) == balanceViewYear {
			view.View = balanceViewYear
		}

		if view.View == balanceViewYear {
			view.Previous = balanceLink(view.View, year-1, month)
			view.Next = balanceLink(view.View, year+1, month)
		} else {
			py, pm := balance.Step(year, month, -1)
			ny, nm := balance.Step(year, month, 1)
			view.Previous = balanceLink(view.View, py, pm)
			view.Next = balanceLink(view.View, ny, nm)
		}

		data, err := load(d, req, "monthly-balance", func(ctx context.Context) (balanceData, error) {
			var out balanceData
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				m, err := req.svc.Balance.Month(gctx, year, month)
				out.monthly = m
				return err
			})
			if view.View == balanceViewYear {
				g.Go(func() error {
					y, err := req.svc.Balance.Year(gctx, year)
					out.yearly = y
					return err
				})
			}
			return out, g.Wait()
		})
		if err != nil && d.loadFailed(req, err, "sidebar.loadError") {
			return
		}
		if err == nil {
			view.Loaded = true
			view.Monthly = data.monthly
			view.Yearly = data.yearly
			if best, ok := data.yearly.BestMonth(); ok {
				view.Best = &best
			}
		}
		d.render(req, "monthly_balance", "sidebar.monthlyBalance", view)
	}
}
