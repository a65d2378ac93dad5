// Package simulate generates realistic-looking roster and demand fixtures.
// It is a test-data concern only: the solver treats whatever demand it is
// given as always present.
package simulate

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arnavshah/coverage-scheduler-go/pkg/models"
)

// DefaultRates is the share of elders needing a visit on each weekday
var DefaultRates = map[time.Weekday]float64{
	time.Monday:    0.9,
	time.Tuesday:   0.85,
	time.Wednesday: 0.85,
	time.Thursday:  0.8,
	time.Friday:    0.75,
	time.Saturday:  0.4,
	time.Sunday:    0.3,
}

var firstNames = []string{
	"Ada", "Bea", "Cal", "Dora", "Eli", "Fay", "Gus", "Hana", "Ivo", "June",
	"Kai", "Lena", "Milo", "Nora", "Otis", "Pia", "Quinn", "Rosa", "Saul", "Tess",
}

var lastNames = []string{
	"Abbott", "Barros", "Chen", "Diallo", "Evans", "Fischer", "Garcia", "Haddad",
	"Ito", "Jensen", "Kowalski", "Lopez", "Moreau", "Nakamura", "Okafor", "Park",
}

// Options control fixture size and shape
type Options struct {
	Seed           int64
	WeekStart      time.Time
	Caregivers     int
	Elders         int
	Groups         int
	Capacity       int
	ClosedDays     []time.Weekday
	CoverageTarget float64
	Rates          map[time.Weekday]float64
}

// Generator builds week inputs from a seed. The same options always
// produce the same fixture.
type Generator struct {
	opts Options
	rng  *rand.Rand
}

// NewGenerator creates a generator, filling defaults for zero options
func NewGenerator(opts Options) *Generator {
	if opts.Caregivers <= 0 {
		opts.Caregivers = 10
	}
	if opts.Elders <= 0 {
		opts.Elders = 30
	}
	if opts.Groups <= 0 {
		opts.Groups = 1
	}
	if opts.Capacity <= 0 {
		opts.Capacity = models.DefaultCapacity
	}
	if opts.Rates == nil {
		opts.Rates = DefaultRates
	}
	if opts.WeekStart.IsZero() {
		opts.WeekStart = time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	}
	return &Generator{opts: opts, rng: rand.New(rand.NewSource(opts.Seed))}
}

// Week generates a full seven-day input. Every caregiver works every open
// day on the given grid; each elder appears on a day with that day's rate.
func (g *Generator) Week(agencyID string, grid []models.Window) (models.WeekInput, error) {
	caregivers := make([]models.Caregiver, g.opts.Caregivers)
	for i := range caregivers {
		id, err := g.id("cg")
		if err != nil {
			return models.WeekInput{}, err
		}
		caregivers[i] = models.Caregiver{
			ID:            id,
			Name:          g.name(),
			DailyCapacity: g.opts.Capacity,
			TimeGrid:      append([]models.Window(nil), grid...),
		}
	}

	elders := make([]models.Elder, g.opts.Elders)
	for i := range elders {
		id, err := g.id("el")
		if err != nil {
			return models.WeekInput{}, err
		}
		elders[i] = models.Elder{
			ID:      id,
			Name:    g.name(),
			GroupID: fmt.Sprintf("group-%d", i%g.opts.Groups+1),
		}
	}

	closed := make(map[time.Weekday]bool, len(g.opts.ClosedDays))
	for _, d := range g.opts.ClosedDays {
		closed[d] = true
	}

	in := models.WeekInput{
		AgencyID: agencyID,
		Days:     make([]string, 0, 7),
		Demand:   make(map[string][]models.Elder, 7),
		Supply:   make(map[string]models.DaySupply, 7),
	}
	for i := 0; i < 7; i++ {
		day := g.opts.WeekStart.AddDate(0, 0, i)
		date := day.Format("2006-01-02")
		in.Days = append(in.Days, date)

		if closed[day.Weekday()] {
			in.Supply[date] = models.DaySupply{Closed: true}
			in.Demand[date] = []models.Elder{}
			continue
		}

		rate := g.opts.Rates[day.Weekday()]
		demand := make([]models.Elder, 0, len(elders))
		for _, e := range elders {
			if g.rng.Float64() < rate {
				demand = append(demand, e)
			}
		}
		in.Demand[date] = demand
		in.Supply[date] = models.DaySupply{
			Caregivers:     caregivers,
			CoverageTarget: g.opts.CoverageTarget,
		}
	}
	return in, nil
}

// id derives a uuid from the seeded stream so fixtures stay reproducible
func (g *Generator) id(prefix string) (string, error) {
	u, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		return "", err
	}
	return prefix + "-" + u.String()[:8], nil
}

func (g *Generator) name() string {
	return firstNames[g.rng.Intn(len(firstNames))] + " " + lastNames[g.rng.Intn(len(lastNames))]
}

// ParseWeekdays turns names like "sun" or "Saturday" into weekdays
func ParseWeekdays(names []string) ([]time.Weekday, error) {
	out := make([]time.Weekday, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		found := false
		for d := time.Sunday; d <= time.Saturday; d++ {
			full := strings.ToLower(d.String())
			if n == full || (len(n) >= 3 && strings.HasPrefix(full, n)) {
				out = append(out, d)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown weekday %q", n)
		}
	}
	return out, nil
}
