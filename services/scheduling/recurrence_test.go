package scheduling

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func expandOrFail(t *testing.T, r Rule, want []time.Time) {
	t.Helper()
	got := Expand(r)
	if len(got) != len(want) {
		t.Fatalf("expected %d occurrences, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("occurrence %d: expected %s, got %s", i, want[i].Format("2006-01-02"), got[i].Format("2006-01-02"))
		}
	}
}

func TestExpandDaily(t *testing.T) {
	r := Rule{Start: date(2026, time.January, 7), Frequency: FrequencyDaily, End: EndAfter, Count: 5}
	expandOrFail(t, r, []time.Time{
		date(2026, time.January, 7),
		date(2026, time.January, 8),
		date(2026, time.January, 9),
		date(2026, time.January, 10),
		date(2026, time.January, 11),
	})
}

func TestExpandWeekly(t *testing.T) {
	// Jan 6 2026 is a Tuesday; the first matching day is the Wednesday after.
	r := Rule{
		Start:     date(2026, time.January, 6),
		Frequency: FrequencyWeekly,
		Weekdays:  []time.Weekday{time.Monday, time.Wednesday},
		End:       EndAfter,
		Count:     4,
	}
	expandOrFail(t, r, []time.Time{
		date(2026, time.January, 7),
		date(2026, time.January, 12),
		date(2026, time.January, 14),
		date(2026, time.January, 19),
	})
}

func TestExpandWeeklyIncludesMatchingStart(t *testing.T) {
	r := Rule{
		Start:     date(2026, time.January, 5), // Monday
		Frequency: FrequencyWeekly,
		Weekdays:  []time.Weekday{time.Monday},
		End:       EndAfter,
		Count:     2,
	}
	expandOrFail(t, r, []time.Time{
		date(2026, time.January, 5),
		date(2026, time.January, 12),
	})
}

func TestExpandBiweekly(t *testing.T) {
	t.Run("single weekday alternates weeks", func(t *testing.T) {
		r := Rule{
			Start:     date(2026, time.January, 5), // Monday
			Frequency: FrequencyBiweekly,
			Weekdays:  []time.Weekday{time.Monday},
			End:       EndAfter,
			Count:     3,
		}
		expandOrFail(t, r, []time.Time{
			date(2026, time.January, 5),
			date(2026, time.January, 19),
			date(2026, time.February, 2),
		})
	})

	t.Run("anchored to the week containing the start", func(t *testing.T) {
		// Start Wednesday Jan 7; the Friday of the same week still belongs
		// to the anchor week, the following Monday does not.
		r := Rule{
			Start:     date(2026, time.January, 7),
			Frequency: FrequencyBiweekly,
			Weekdays:  []time.Weekday{time.Monday, time.Friday},
			End:       EndAfter,
			Count:     3,
		}
		expandOrFail(t, r, []time.Time{
			date(2026, time.January, 9),
			date(2026, time.January, 19),
			date(2026, time.January, 23),
		})
	})
}

func TestExpandMonthly(t *testing.T) {
	r := Rule{Start: date(2026, time.January, 15), Frequency: FrequencyMonthly, End: EndAfter, Count: 3}
	expandOrFail(t, r, []time.Time{
		date(2026, time.January, 15),
		date(2026, time.February, 15),
		date(2026, time.March, 15),
	})
}

func TestExpandMonthlySkipsShortMonths(t *testing.T) {
	t.Run("day 31", func(t *testing.T) {
		r := Rule{Start: date(2026, time.January, 31), Frequency: FrequencyMonthly, End: EndAfter, Count: 4}
		expandOrFail(t, r, []time.Time{
			date(2026, time.January, 31),
			date(2026, time.March, 31),
			date(2026, time.May, 31),
			date(2026, time.July, 31),
		})
	})

	t.Run("day 30 skips February only", func(t *testing.T) {
		r := Rule{Start: date(2026, time.January, 30), Frequency: FrequencyMonthly, End: EndAfter, Count: 3}
		expandOrFail(t, r, []time.Time{
			date(2026, time.January, 30),
			date(2026, time.March, 30),
			date(2026, time.April, 30),
		})
	})
}

func TestExpandMonthlyLargeCount(t *testing.T) {
	// Only seven months a year carry a 31st, so 800 occurrences span more
	// than a century; the count must still come out exact.
	r := Rule{Start: date(2026, time.January, 31), Frequency: FrequencyMonthly, End: EndAfter, Count: 800}
	got := Expand(r)
	if len(got) != 800 {
		t.Fatalf("expected exactly 800 occurrences, got %d", len(got))
	}
	if !got[0].Equal(date(2026, time.January, 31)) {
		t.Fatalf("first occurrence = %s, want 2026-01-31", got[0].Format("2006-01-02"))
	}
	for i, d := range got {
		if d.Day() != 31 {
			t.Fatalf("occurrence %d = %s, not on day 31", i, d.Format("2006-01-02"))
		}
		if i > 0 && !d.After(got[i-1]) {
			t.Fatalf("occurrences not strictly ascending at %d: %s then %s",
				i, got[i-1].Format("2006-01-02"), d.Format("2006-01-02"))
		}
	}
}

func TestExpandNeverIsCapped(t *testing.T) {
	daily := Rule{Start: date(2026, time.January, 1), Frequency: FrequencyDaily, End: EndNever}
	if got := Expand(daily); len(got) != NeverCap {
		t.Fatalf("expected %d occurrences for an open-ended daily rule, got %d", NeverCap, len(got))
	}

	weekly := Rule{
		Start:     date(2026, time.January, 1),
		Frequency: FrequencyWeekly,
		Weekdays:  []time.Weekday{time.Thursday},
		End:       EndNever,
	}
	if got := Expand(weekly); len(got) != NeverCap {
		t.Fatalf("expected %d occurrences for an open-ended weekly rule, got %d", NeverCap, len(got))
	}
}

func TestExpandOnDateIsInclusive(t *testing.T) {
	r := Rule{
		Start:     date(2026, time.January, 5),
		Frequency: FrequencyDaily,
		End:       EndOn,
		Until:     date(2026, time.January, 7),
	}
	expandOrFail(t, r, []time.Time{
		date(2026, time.January, 5),
		date(2026, time.January, 6),
		date(2026, time.January, 7),
	})
}

func TestExpandEndBeforeStart(t *testing.T) {
	r := Rule{
		Start:     date(2026, time.January, 5),
		Frequency: FrequencyDaily,
		End:       EndOn,
		Until:     date(2026, time.January, 1),
	}
	if got := Expand(r); len(got) != 0 {
		t.Fatalf("expected empty expansion, got %v", got)
	}
}

func TestExpandInvalidRules(t *testing.T) {
	cases := []struct {
		name string
		rule Rule
	}{
		{"zero start", Rule{Frequency: FrequencyDaily, End: EndAfter, Count: 3}},
		{"empty weekdays", Rule{Start: date(2026, time.January, 5), Frequency: FrequencyWeekly, End: EndAfter, Count: 3}},
		{"unknown frequency", Rule{Start: date(2026, time.January, 5), Frequency: "fortnightly", End: EndAfter, Count: 3}},
		{"unknown end mode", Rule{Start: date(2026, time.January, 5), Frequency: FrequencyDaily, End: "eventually"}},
		{"zero count", Rule{Start: date(2026, time.January, 5), Frequency: FrequencyDaily, End: EndAfter}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Expand(c.rule); len(got) != 0 {
				t.Fatalf("expected empty expansion, got %v", got)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		rule Rule
		want error
	}{
		{"zero start", Rule{Frequency: FrequencyDaily, End: EndNever}, ErrInvalidStart},
		{"empty weekdays weekly", Rule{Start: date(2026, time.January, 5), Frequency: FrequencyWeekly, End: EndNever}, ErrEmptyWeekdays},
		{"empty weekdays biweekly", Rule{Start: date(2026, time.January, 5), Frequency: FrequencyBiweekly, End: EndNever}, ErrEmptyWeekdays},
		{"unknown frequency", Rule{Start: date(2026, time.January, 5), Frequency: "yearly", End: EndNever}, ErrUnknownFrequency},
		{"missing until", Rule{Start: date(2026, time.January, 5), Frequency: FrequencyDaily, End: EndOn}, ErrInvalidUntil},
		{"zero count", Rule{Start: date(2026, time.January, 5), Frequency: FrequencyDaily, End: EndAfter}, ErrInvalidCount},
		{"unknown end mode", Rule{Start: date(2026, time.January, 5), Frequency: FrequencyDaily, End: "someday"}, ErrUnknownEndMode},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.rule.Validate()
			if !errors.Is(err, c.want) {
				t.Fatalf("expected %v, got %v", c.want, err)
			}
		})
	}

	valid := Rule{
		Start:     date(2026, time.January, 5),
		Frequency: FrequencyBiweekly,
		Weekdays:  []time.Weekday{time.Monday},
		End:       EndAfter,
		Count:     10,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid rule, got %v", err)
	}
}

func TestExpandIsDeterministicAndOrdered(t *testing.T) {
	r := Rule{
		Start:     date(2026, time.March, 14),
		Frequency: FrequencyWeekly,
		Weekdays:  []time.Weekday{time.Saturday, time.Tuesday, time.Tuesday},
		End:       EndAfter,
		Count:     20,
	}

	first := Expand(r)
	second := Expand(r)
	if len(first) != len(second) {
		t.Fatalf("expansion not deterministic: %d vs %d occurrences", len(first), len(second))
	}
	for i := range first {
		if !first[i].Equal(second[i]) {
			t.Fatalf("expansion not deterministic at %d: %s vs %s", i, first[i], second[i])
		}
	}

	for i := 1; i < len(first); i++ {
		if !first[i].After(first[i-1]) {
			t.Fatalf("occurrences not strictly ascending at %d: %s then %s", i, first[i-1], first[i])
		}
	}
}
