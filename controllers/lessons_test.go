package controllers

import (
	"testing"
	"time"

	"melodica_go/models"
	"melodica_go/services/scheduling"
)

func TestBuildRecurrenceRule(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		rule    RecurrenceRule
		wantErr bool
	}{
		{
			name: "weekly with weekdays",
			rule: RecurrenceRule{
				Frequency: scheduling.FrequencyWeekly,
				Weekdays:  []int{1, 3},
				EndMode:   scheduling.EndAfter,
				Count:     8,
			},
		},
		{
			name: "end mode defaults to never",
			rule: RecurrenceRule{
				Frequency: scheduling.FrequencyMonthly,
			},
		},
		{
			name: "until date parses",
			rule: RecurrenceRule{
				Frequency: scheduling.FrequencyDaily,
				EndMode:   scheduling.EndOn,
				Until:     "2026-04-01",
			},
		},
		{
			name: "unknown frequency rejected",
			rule: RecurrenceRule{
				Frequency: "fortnightly",
			},
			wantErr: true,
		},
		{
			name: "end after needs a count",
			rule: RecurrenceRule{
				Frequency: scheduling.FrequencyWeekly,
				EndMode:   scheduling.EndAfter,
			},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			rule, err := buildRecurrenceRule(start, tc.rule)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got rule %+v", rule)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !rule.Start.Equal(start) {
				t.Fatalf("expected start %v, got %v", start, rule.Start)
			}
			if tc.rule.EndMode == "" && rule.End != scheduling.EndNever {
				t.Fatalf("expected end mode to default to %q, got %q", scheduling.EndNever, rule.End)
			}
		})
	}
}

func TestBuildRecurrenceRuleWeekdayMapping(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	rule, err := buildRecurrenceRule(start, RecurrenceRule{
		Frequency: scheduling.FrequencyWeekly,
		Weekdays:  []int{0, 2, 6},
		EndMode:   scheduling.EndAfter,
		Count:     4,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []time.Weekday{time.Sunday, time.Tuesday, time.Saturday}
	if len(rule.Weekdays) != len(want) {
		t.Fatalf("expected %d weekdays, got %d", len(want), len(rule.Weekdays))
	}
	for i, wd := range want {
		if rule.Weekdays[i] != wd {
			t.Fatalf("weekday %d: expected %v, got %v", i, wd, rule.Weekdays[i])
		}
	}
}

func TestBuildRecurrenceRuleBadUntil(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	if _, err := buildRecurrenceRule(start, RecurrenceRule{
		Frequency: scheduling.FrequencyDaily,
		EndMode:   scheduling.EndOn,
		Until:     "03/2026",
	}); err == nil {
		t.Fatalf("expected error for malformed until date")
	}
}

func TestLayoutDayBadStartTime(t *testing.T) {
	mk := func(id uint, start string, dur int) models.Lesson {
		l := models.Lesson{StartTime: start, DurationMinutes: dur}
		l.ID = id
		return l
	}
	entries := layoutDay([]models.Lesson{
		mk(1, "10:00", 60),
		mk(2, "10:30", 60),
		mk(3, "junk", 30),
	})
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.Columns < 1 || e.Column < 0 || e.Column >= e.Columns {
			t.Fatalf("lesson %d placed at column %d of %d", e.ID, e.Column, e.Columns)
		}
	}
	if entries[0].Columns != 2 || entries[1].Columns != 2 {
		t.Fatalf("overlapping pair widths = %d and %d, want 2", entries[0].Columns, entries[1].Columns)
	}
	if entries[2].Column != 0 || entries[2].Columns != 1 {
		t.Fatalf("fallback placement = %d of %d, want 0 of 1", entries[2].Column, entries[2].Columns)
	}
}
