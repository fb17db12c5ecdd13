package scheduler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Schedule is a parsed 5-field cron expression.
type Schedule struct {
	minute     []int
	hour       []int
	dayOfMonth []int
	month      []int
	dayOfWeek  []int
}

type fieldSpec struct {
	name     string
	min, max int
}

var fieldSpecs = [5]fieldSpec{
	{"minute", 0, 59},
	{"hour", 0, 23},
	{"day-of-month", 1, 31},
	{"month", 1, 12},
	{"day-of-week", 0, 6},
}

// ParseSchedule parses "minute hour day-of-month month day-of-week".
// Each field accepts *, single values, ranges, steps and comma lists.
func ParseSchedule(expr string) (*Schedule, error) {
	fields := strings.Fields(expr)
	if len(fields) != len(fieldSpecs) {
		return nil, fmt.Errorf("cron: expected 5 fields, got %d", len(fields))
	}

	var parsed [5][]int
	for i, fs := range fieldSpecs {
		vals, err := parseField(fields[i], fs.min, fs.max)
		if err != nil {
			return nil, fmt.Errorf("cron: %s: %w", fs.name, err)
		}
		parsed[i] = vals
	}

	return &Schedule{
		minute:     parsed[0],
		hour:       parsed[1],
		dayOfMonth: parsed[2],
		month:      parsed[3],
		dayOfWeek:  parsed[4],
	}, nil
}

// Next returns the next fire time strictly after from, in from's location.
// A zero time means nothing matched within four years.
func (s *Schedule) Next(from time.Time) time.Time {
	t := from.Truncate(time.Minute).Add(time.Minute)
	limit := t.AddDate(4, 0, 0)
	loc := t.Location()

	for t.Before(limit) {
		switch {
		case !contains(s.month, int(t.Month())):
			t = time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, loc)
		case !contains(s.dayOfMonth, t.Day()) || !contains(s.dayOfWeek, int(t.Weekday())):
			t = time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, loc)
		case !contains(s.hour, t.Hour()):
			t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour()+1, 0, 0, 0, loc)
		case !contains(s.minute, t.Minute()):
			t = t.Add(time.Minute)
		default:
			return t
		}
	}
	return time.Time{}
}

func contains(vals []int, v int) bool {
	i := sort.SearchInts(vals, v)
	return i < len(vals) && vals[i] == v
}

func parseField(field string, min, max int) ([]int, error) {
	seen := make(map[int]bool)
	var result []int
	for _, part := range strings.Split(field, ",") {
		vals, err := parsePart(part, min, max)
		if err != nil {
			return nil, err
		}
		for _, v := range vals {
			if !seen[v] {
				seen[v] = true
				result = append(result, v)
			}
		}
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("empty field")
	}
	sort.Ints(result)
	return result, nil
}

func parsePart(part string, min, max int) ([]int, error) {
	step := 0
	if base, rawStep, ok := strings.Cut(part, "/"); ok {
		s, err := strconv.Atoi(rawStep)
		if err != nil || s <= 0 {
			return nil, fmt.Errorf("invalid step %q", rawStep)
		}
		step = s
		part = base
	}

	var low, high int
	switch {
	case part == "*":
		low, high = min, max
	case strings.Contains(part, "-"):
		lo, hi, _ := strings.Cut(part, "-")
		var err error
		if low, err = strconv.Atoi(lo); err != nil {
			return nil, fmt.Errorf("invalid range start %q", lo)
		}
		if high, err = strconv.Atoi(hi); err != nil {
			return nil, fmt.Errorf("invalid range end %q", hi)
		}
	default:
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q", part)
		}
		if step == 0 {
			if v < min || v > max {
				return nil, fmt.Errorf("value %d out of range [%d, %d]", v, min, max)
			}
			return []int{v}, nil
		}
		low, high = v, max
	}

	if low < min || high > max || low > high {
		return nil, fmt.Errorf("range %d-%d out of bounds [%d, %d]", low, high, min, max)
	}
	if step == 0 {
		step = 1
	}

	var vals []int
	for i := low; i <= high; i += step {
		vals = append(vals, i)
	}
	return vals, nil
}
