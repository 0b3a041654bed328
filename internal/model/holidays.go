package model

import "sort"

// Holiday is a single named day off as delivered by a holiday source.
type Holiday struct {
	Date    Date
	Name    string
	Regions []string
}

// HolidaySet groups holiday dates by region. Dates within a region are unique
// and kept in ascending order regardless of the order they were added in.
type HolidaySet struct {
	byRegion map[string][]Date
	names    map[regionDate]string
}

// regionDate keys holiday names; neighbouring regions often observe
// different holidays on the same day.
type regionDate struct {
	region string
	date   Date
}

// NewHolidaySet builds a HolidaySet from an unordered list of holidays.
func NewHolidaySet(holidays []Holiday) *HolidaySet {
	s := &HolidaySet{
		byRegion: make(map[string][]Date),
		names:    make(map[regionDate]string),
	}
	for _, h := range holidays {
		s.Add(h)
	}
	return s
}

// Add inserts h into every region it lists.
func (s *HolidaySet) Add(h Holiday) {
	if s.byRegion == nil {
		s.byRegion = make(map[string][]Date)
	}
	if s.names == nil {
		s.names = make(map[regionDate]string)
	}
	for _, region := range h.Regions {
		s.byRegion[region] = insertSorted(s.byRegion[region], h.Date)
		if h.Name == "" {
			continue
		}
		key := regionDate{region, h.Date}
		if _, ok := s.names[key]; !ok {
			s.names[key] = h.Name
		}
	}
}

// Region returns a copy of the sorted holiday dates of region and whether the
// region is known.
func (s *HolidaySet) Region(region string) ([]Date, bool) {
	if s == nil {
		return nil, false
	}
	dates, ok := s.byRegion[region]
	if !ok {
		return nil, false
	}
	out := make([]Date, len(dates))
	copy(out, dates)
	return out, true
}

// Regions returns the known region identifiers in lexical order.
func (s *HolidaySet) Regions() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.byRegion))
	for r := range s.byRegion {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// Name returns the name of the holiday region observes on d, if any.
func (s *HolidaySet) Name(region string, d Date) string {
	if s == nil {
		return ""
	}
	return s.names[regionDate{region, d}]
}

// Merge returns a new set containing the holidays of s and other.
func (s *HolidaySet) Merge(other *HolidaySet) *HolidaySet {
	out := NewHolidaySet(nil)
	for _, src := range []*HolidaySet{s, other} {
		if src == nil {
			continue
		}
		for region, dates := range src.byRegion {
			for _, d := range dates {
				out.Add(Holiday{Date: d, Name: src.names[regionDate{region, d}], Regions: []string{region}})
			}
		}
	}
	return out
}

// Len returns the total number of (region, date) entries.
func (s *HolidaySet) Len() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, dates := range s.byRegion {
		n += len(dates)
	}
	return n
}

func insertSorted(dates []Date, d Date) []Date {
	i := sort.Search(len(dates), func(i int) bool { return !dates[i].Before(d) })
	if i < len(dates) && dates[i].Equal(d) {
		return dates
	}
	dates = append(dates, Date{})
	copy(dates[i+1:], dates[i:])
	dates[i] = d
	return dates
}
