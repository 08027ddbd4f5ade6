// Package analytics assembles the admin dashboard from four independent
// backend reports. It only reshapes what the backend computed.
package analytics

import (
	"context"
	"log"
	"sync"
	"time"

	"appointment-booking-web/internal/model"
)

// Fetcher is the part of the API client the dashboard reads from.
type Fetcher interface {
	BookingTrends(ctx context.Context, token string) ([]model.TrendPoint, error)
	PopularTimeSlots(ctx context.Context, token string) ([]model.SlotCount, error)
	UserCounts(ctx context.Context, token string) (model.UserCounts, error)
	AppointmentInsights(ctx context.Context, token string) (model.AppointmentInsights, error)
}

// Chart is a chart-ready series; Labels and Values have equal length.
type Chart struct {
	Labels []string
	Values []int
}

func (c Chart) Empty() bool { return len(c.Labels) == 0 }

// Report names one of the four dashboard sources.
type Report string

const (
	ReportTrends   Report = "booking trends"
	ReportSlots    Report = "popular time slots"
	ReportUsers    Report = "user counts"
	ReportInsights Report = "appointment insights"
)

type Dashboard struct {
	Trends       Chart
	PopularSlots Chart
	Users        model.UserCounts
	Appointments model.AppointmentInsights
	// Tomorrow labels the "upcoming" figure.
	Tomorrow string
	Failed   []Report
}

func (d Dashboard) Partial() bool { return len(d.Failed) > 0 }

const trendLabel = "Jan 2, 2006"

// Load runs the four fetches concurrently and waits for all of them. A
// failed report leaves its zero value and is listed in Failed; the others
// still render.
func Load(ctx context.Context, f Fetcher, token string, now time.Time, loc *time.Location) Dashboard {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		trends   []model.TrendPoint
		slots    []model.SlotCount
		users    model.UserCounts
		insights model.AppointmentInsights
		failed   = map[Report]bool{}
	)
	fail := func(r Report, err error) {
		log.Printf("analytics: %s: %v", r, err)
		mu.Lock()
		failed[r] = true
		mu.Unlock()
	}

	wg.Add(4)
	go func() {
		defer wg.Done()
		v, err := f.BookingTrends(ctx, token)
		if err != nil {
			fail(ReportTrends, err)
			return
		}
		trends = v
	}()
	go func() {
		defer wg.Done()
		v, err := f.PopularTimeSlots(ctx, token)
		if err != nil {
			fail(ReportSlots, err)
			return
		}
		slots = v
	}()
	go func() {
		defer wg.Done()
		v, err := f.UserCounts(ctx, token)
		if err != nil {
			fail(ReportUsers, err)
			return
		}
		users = v
	}()
	go func() {
		defer wg.Done()
		v, err := f.AppointmentInsights(ctx, token)
		if err != nil {
			fail(ReportInsights, err)
			return
		}
		insights = v
	}()
	wg.Wait()

	d := Dashboard{
		Trends:       TrendChart(trends, loc),
		PopularSlots: SlotChart(slots),
		Users:        users,
		Appointments: insights,
		Tomorrow:     now.In(loc).AddDate(0, 0, 1).Format("1/2/2006"),
	}
	for _, r := range []Report{ReportTrends, ReportSlots, ReportUsers, ReportInsights} {
		if failed[r] {
			d.Failed = append(d.Failed, r)
		}
	}
	return d
}

func TrendChart(points []model.TrendPoint, loc *time.Location) Chart {
	c := Chart{Labels: make([]string, 0, len(points)), Values: make([]int, 0, len(points))}
	for _, p := range points {
		y, m, d := p.Date.Day(loc)
		c.Labels = append(c.Labels, time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Format(trendLabel))
		c.Values = append(c.Values, p.Count)
	}
	return c
}

func SlotChart(counts []model.SlotCount) Chart {
	c := Chart{Labels: make([]string, 0, len(counts)), Values: make([]int, 0, len(counts))}
	for _, s := range counts {
		c.Labels = append(c.Labels, s.TimeSlot)
		c.Values = append(c.Values, s.Count)
	}
	return c
}
