package routingalgorithm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lintang-b-s/roadrouter/pkg/datastructure"
)

var (
	ErrConditionalSyntax = errors.New("invalid conditional restriction")
)

var weekdayIndex = map[string]int{
	"Mo": 0, "Tu": 1, "We": 2, "Th": 3, "Fr": 4, "Sa": 5, "Su": 6,
}

type minuteSpan struct {
	start, end int
}

// timeRule satu rule opening_hours sederhana: hari (kosong = semua hari) + rentang jam (kosong = seharian).
type timeRule struct {
	days    [7]bool
	anyDay  bool
	spans   []minuteSpan
	anyTime bool
}

// timeCondition OR dari beberapa rule.
type timeCondition struct {
	rules []timeRule
}

type conditionalRestriction struct {
	value string
	// AND
	conditions []timeCondition
}

/*
ConditionalAccess tag OSM *:conditional yang sudah di parse, contoh:

	no @ (Mo-Fr 07:00-09:00); yes @ (Sa,Su)
	no @ (22:00-06:00)
	no @ (Mo-Fr 07:00-09:00 AND Mo-Fr 06:00-08:00)

restriction dicek dari yang terakhir, restriction pertama yang kondisinya cocok menentukan hasil (value "yes"
= boleh lewat). kalau tidak ada yang cocok hasilnya kebalikan dari value restriction pertama.
string yang tidak bisa di parse dianggap tidak berlaku (semua waktu boleh lewat).
*/
type ConditionalAccess struct {
	raw          string
	restrictions []conditionalRestriction
	err          error
}

func ParseConditionalAccess(value string) (*ConditionalAccess, error) {
	ca := &ConditionalAccess{raw: value}
	restrictions, err := parseRestrictions(value)
	if err != nil {
		ca.err = err
		return ca, err
	}
	ca.restrictions = restrictions
	return ca, nil
}

func (ca *ConditionalAccess) String() string {
	return ca.raw
}

// Accept boleh lewat pada waktu t (sudah dalam timezone lokal jalan).
func (ca *ConditionalAccess) Accept(t time.Time) bool {
	if ca == nil || ca.err != nil || len(ca.restrictions) == 0 {
		return true
	}

	matchValue := false
	for i := len(ca.restrictions) - 1; i >= 0; i-- {
		r := ca.restrictions[i]
		matchValue = r.value == "yes"
		if r.matches(t) {
			return matchValue
		}
	}
	return !matchValue
}

func (r conditionalRestriction) matches(t time.Time) bool {
	for _, c := range r.conditions {
		if !c.matches(t) {
			return false
		}
	}
	return true
}

func (c timeCondition) matches(t time.Time) bool {
	for _, rule := range c.rules {
		if rule.matches(t) {
			return true
		}
	}
	return false
}

func weekdayOf(t time.Time) int {
	// time.Weekday minggu = 0
	return (int(t.Weekday()) + 6) % 7
}

func (rule timeRule) dayAllowed(day int) bool {
	return rule.anyDay || rule.days[day]
}

func (rule timeRule) matches(t time.Time) bool {
	day := weekdayOf(t)
	if rule.anyTime {
		return rule.dayAllowed(day)
	}

	minute := t.Hour()*60 + t.Minute()
	prevDay := (day + 6) % 7
	for _, s := range rule.spans {
		if s.start < s.end {
			if rule.dayAllowed(day) && minute >= s.start && minute < s.end {
				return true
			}
			continue
		}
		// lewat tengah malam, bagian setelah 00:00 milik hari sebelumnya
		if rule.dayAllowed(day) && minute >= s.start {
			return true
		}
		if rule.dayAllowed(prevDay) && minute < s.end {
			return true
		}
	}
	return false
}

// splitTopLevel split di sep yang tidak ada di dalam kurung.
func splitTopLevel(s string, sep byte) ([]string, error) {
	parts := []string{}
	depth := 0
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("%w: unbalanced ')' in %q", ErrConditionalSyntax, s)
			}
		case sep:
			if depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("%w: unbalanced '(' in %q", ErrConditionalSyntax, s)
	}
	return append(parts, s[last:]), nil
}

func parseRestrictions(value string) ([]conditionalRestriction, error) {
	parts, err := splitTopLevel(value, ';')
	if err != nil {
		return nil, err
	}

	restrictions := make([]conditionalRestriction, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		at := strings.Index(part, "@")
		if at < 0 {
			return nil, fmt.Errorf("%w: missing '@' in %q", ErrConditionalSyntax, part)
		}
		val := strings.TrimSpace(part[:at])
		if val == "" {
			return nil, fmt.Errorf("%w: empty value in %q", ErrConditionalSyntax, part)
		}

		cond := strings.TrimSpace(part[at+1:])
		if strings.HasPrefix(cond, "(") && strings.HasSuffix(cond, ")") {
			cond = strings.TrimSpace(cond[1 : len(cond)-1])
		}
		if cond == "" {
			return nil, fmt.Errorf("%w: empty condition in %q", ErrConditionalSyntax, part)
		}

		r := conditionalRestriction{value: val}
		for _, c := range strings.Split(cond, " AND ") {
			tc, err := parseTimeCondition(strings.TrimSpace(c))
			if err != nil {
				return nil, err
			}
			r.conditions = append(r.conditions, tc)
		}
		restrictions = append(restrictions, r)
	}
	if len(restrictions) == 0 {
		return nil, fmt.Errorf("%w: no restriction in %q", ErrConditionalSyntax, value)
	}
	return restrictions, nil
}

func parseTimeCondition(cond string) (timeCondition, error) {
	tc := timeCondition{}
	for _, ruleStr := range strings.Split(cond, ";") {
		ruleStr = strings.TrimSpace(ruleStr)
		if ruleStr == "" {
			continue
		}
		rule, err := parseTimeRule(ruleStr)
		if err != nil {
			return tc, err
		}
		tc.rules = append(tc.rules, rule)
	}
	if len(tc.rules) == 0 {
		return tc, fmt.Errorf("%w: empty condition", ErrConditionalSyntax)
	}
	return tc, nil
}

func parseTimeRule(s string) (timeRule, error) {
	rule := timeRule{anyDay: true, anyTime: true}
	for _, tok := range strings.Fields(s) {
		if len(tok) >= 2 {
			if _, isDay := weekdayIndex[tok[:2]]; isDay {
				if err := parseDays(tok, &rule); err != nil {
					return rule, err
				}
				continue
			}
		}
		if err := parseSpans(tok, &rule); err != nil {
			return rule, err
		}
	}
	return rule, nil
}

// parseDays "Mo-Fr", "Sa,Su", "Mo-We,Fr", "Fr-Mo".
func parseDays(tok string, rule *timeRule) error {
	rule.anyDay = false
	for _, item := range strings.Split(tok, ",") {
		from, to, isRange := strings.Cut(item, "-")
		start, ok := weekdayIndex[from]
		if !ok {
			return fmt.Errorf("%w: unknown weekday %q", ErrConditionalSyntax, from)
		}
		if !isRange {
			rule.days[start] = true
			continue
		}
		end, ok := weekdayIndex[to]
		if !ok {
			return fmt.Errorf("%w: unknown weekday %q", ErrConditionalSyntax, to)
		}
		for d := start; ; d = (d + 1) % 7 {
			rule.days[d] = true
			if d == end {
				break
			}
		}
	}
	return nil
}

// parseSpans "07:00-09:00", "07:00-09:00,16:00-18:00", "22:00-06:00".
func parseSpans(tok string, rule *timeRule) error {
	rule.anyTime = false
	for _, item := range strings.Split(tok, ",") {
		from, to, ok := strings.Cut(item, "-")
		if !ok {
			return fmt.Errorf("%w: bad time range %q", ErrConditionalSyntax, item)
		}
		start, err := parseClock(from)
		if err != nil {
			return err
		}
		end, err := parseClock(to)
		if err != nil {
			return err
		}
		rule.spans = append(rule.spans, minuteSpan{start: start, end: end})
	}
	return nil
}

func parseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("%w: bad clock %q", ErrConditionalSyntax, s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 24 {
		return 0, fmt.Errorf("%w: bad hour %q", ErrConditionalSyntax, s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("%w: bad minute %q", ErrConditionalSyntax, s)
	}
	return h*60 + m, nil
}

// ConditionalLookup restriction conditional per edge.
type ConditionalLookup interface {
	ConditionalAccess(edge datastructure.EdgeID) (*ConditionalAccess, bool)
}

type ConditionalAccessMap map[datastructure.EdgeID]*ConditionalAccess

func (m ConditionalAccessMap) ConditionalAccess(edge datastructure.EdgeID) (*ConditionalAccess, bool) {
	ca, ok := m[edge]
	return ca, ok
}
