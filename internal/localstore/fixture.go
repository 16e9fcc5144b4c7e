package localstore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/itinero-app/itinero/internal/model"
)

// fixtureFile is the YAML catalog format read by LoadFixture.
//
//	speeds:
//	  walking: 4.5
//	rates:
//	  - {base: GHS, quote: USD, rate: 0.064}
//	places:
//	  - id: museum
//	    name: National Museum
//	    lat: 5.5602
//	    lng: -0.2058
//	    category: Museum
//	    tags: [history]
//	    hours:
//	      daily: "09:00-17:00"
//	      sun: closed
type fixtureFile struct {
	Speeds map[string]float64 `yaml:"speeds"`
	Rates  []fixtureRate      `yaml:"rates"`
	Places []fixturePlace     `yaml:"places"`
}

type fixtureRate struct {
	Base  string  `yaml:"base"`
	Quote string  `yaml:"quote"`
	Rate  float64 `yaml:"rate"`
}

type fixturePlace struct {
	ID           string            `yaml:"id"`
	Name         string            `yaml:"name"`
	Lat          *float64          `yaml:"lat"`
	Lng          *float64          `yaml:"lng"`
	Category     *string           `yaml:"category"`
	Tags         []string          `yaml:"tags"`
	Popularity   *float64          `yaml:"popularity"`
	CostTypical  *float64          `yaml:"cost_typical"`
	CostCurrency *string           `yaml:"cost_currency"`
	Description  *string           `yaml:"description"`
	Hours        map[string]string `yaml:"hours"`
}

var dayKeys = map[string]int{
	"sun": 0, "mon": 1, "tue": 2, "wed": 3, "thu": 4, "fri": 5, "sat": 6,
}

// LoadFixture reads a YAML catalog fixture from path.
func LoadFixture(path string) (model.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Catalog{}, fmt.Errorf("localstore: open fixture: %w", err)
	}
	defer f.Close()
	return ParseFixture(f)
}

// ParseFixture decodes a YAML catalog fixture. Every malformed entry is
// reported in the returned error.
func ParseFixture(r io.Reader) (model.Catalog, error) {
	var ff fixtureFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&ff); err != nil && !errors.Is(err, io.EOF) {
		return model.Catalog{}, fmt.Errorf("localstore: decode fixture: %w", err)
	}

	var (
		cat  model.Catalog
		errs []error
	)

	if len(ff.Speeds) > 0 {
		cat.Speeds = make(map[model.Mode]float64, len(ff.Speeds))
		for mode, kmph := range ff.Speeds {
			if kmph <= 0 {
				errs = append(errs, fmt.Errorf("speeds.%s: must be positive", mode))
				continue
			}
			cat.Speeds[model.ParseMode(mode)] = kmph
		}
	}

	for i, fr := range ff.Rates {
		base, quote := strings.ToUpper(strings.TrimSpace(fr.Base)), strings.ToUpper(strings.TrimSpace(fr.Quote))
		if base == "" || quote == "" || fr.Rate <= 0 {
			errs = append(errs, fmt.Errorf("rates[%d]: base, quote and a positive rate are required", i))
			continue
		}
		cat.Rates = append(cat.Rates, model.FXRate{Base: base, Quote: quote, Rate: fr.Rate})
	}

	seen := make(map[string]bool, len(ff.Places))
	for i, fp := range ff.Places {
		if fp.ID == "" || fp.Name == "" {
			errs = append(errs, fmt.Errorf("places[%d]: id and name are required", i))
			continue
		}
		if seen[fp.ID] {
			errs = append(errs, fmt.Errorf("places[%d]: duplicate id %q", i, fp.ID))
			continue
		}
		seen[fp.ID] = true

		hours, err := parseHours(fp.Hours)
		if err != nil {
			errs = append(errs, fmt.Errorf("places[%d] %s: %w", i, fp.ID, err))
			continue
		}
		cat.Places = append(cat.Places, model.CatalogPlace{
			Place: model.Place{
				ID:           fp.ID,
				Name:         fp.Name,
				Lat:          fp.Lat,
				Lng:          fp.Lng,
				Category:     fp.Category,
				Tags:         fp.Tags,
				Popularity:   fp.Popularity,
				CostTypical:  fp.CostTypical,
				CostCurrency: upperPtr(fp.CostCurrency),
				Description:  fp.Description,
			},
			Hours: hours,
		})
	}

	if len(errs) > 0 {
		return model.Catalog{}, fmt.Errorf("localstore: invalid fixture: %w", errors.Join(errs...))
	}
	return cat, nil
}

// parseHours expands a day-keyed hours map. "daily" fills every day first,
// then named days override it. A value of "closed" removes the day.
func parseHours(in map[string]string) (model.WeeklyHours, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := model.WeeklyHours{}
	if v, ok := in["daily"]; ok {
		win, closed, err := parseWindow(v)
		if err != nil {
			return nil, fmt.Errorf("hours.daily: %w", err)
		}
		if !closed {
			for d := range 7 {
				out[d] = win
			}
		}
	}
	for key, v := range in {
		if key == "daily" {
			continue
		}
		dow, ok := dayKeys[strings.ToLower(key)]
		if !ok {
			return nil, fmt.Errorf("hours: unknown day %q", key)
		}
		win, closed, err := parseWindow(v)
		if err != nil {
			return nil, fmt.Errorf("hours.%s: %w", key, err)
		}
		if closed {
			delete(out, dow)
			continue
		}
		out[dow] = win
	}
	return out, nil
}

// parseWindow parses "HH:MM-HH:MM" or "closed".
func parseWindow(s string) (model.OpeningWindow, bool, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "closed") {
		return model.OpeningWindow{}, true, nil
	}
	open, closeAt, ok := strings.Cut(s, "-")
	if !ok {
		return model.OpeningWindow{}, false, fmt.Errorf("want HH:MM-HH:MM, got %q", s)
	}
	o, err := parseClock(open)
	if err != nil {
		return model.OpeningWindow{}, false, err
	}
	c, err := parseClock(closeAt)
	if err != nil {
		return model.OpeningWindow{}, false, err
	}
	if c < o {
		return model.OpeningWindow{}, false, fmt.Errorf("closes before it opens: %q", s)
	}
	return model.OpeningWindow{Open: o, Close: c}, false, nil
}

func parseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("want HH:MM, got %q", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("bad hour in %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("bad minute in %q", s)
	}
	if h < 0 || m < 0 || m > 59 || h*60+m > 24*60 {
		return 0, fmt.Errorf("out of range: %q", s)
	}
	return h*60 + m, nil
}

func upperPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.ToUpper(strings.TrimSpace(*s))
	return &v
}
