package domain

import (
	"testing"
	"time"
)

func TestNewPreventive(t *testing.T) {
	for _, days := range []int{0, -1} {
		if _, err := NewPreventive(days); err != ErrInvalidSchedule {
			t.Errorf("NewPreventive(%d) err = %v, want ErrInvalidSchedule", days, err)
		}
	}
	p, err := NewPreventive(180)
	if err != nil {
		t.Fatalf("NewPreventive: %v", err)
	}
	if p.NextDueDays() != 180 || p.Name() != KindPreventive {
		t.Errorf("got %+v", p)
	}
}

func TestNextDue_CalendarDays(t *testing.T) {
	testCases := []struct {
		days      int
		performed time.Time
		want      time.Time
	}{
		{30, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)},
		{365, time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC), time.Date(2025, 2, 28, 10, 0, 0, 0, time.UTC)},
		{366, time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC), time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
	}
	for _, tc := range testCases {
		p, err := NewPreventive(tc.days)
		if err != nil {
			t.Fatalf("NewPreventive(%d): %v", tc.days, err)
		}
		got := p.NextDue(tc.performed)
		if got == nil || !got.Equal(tc.want) {
			t.Errorf("NextDue(%v + %d days) = %v, want %v", tc.performed, tc.days, got, tc.want)
		}
	}
	performed := time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC)
	if NewCorrective().NextDue(performed) != nil {
		t.Error("corrective must not carry a next due date")
	}
}

func TestParseKindName(t *testing.T) {
	testCases := []struct {
		in      string
		want    KindName
		wantErr bool
	}{
		{"preventive", KindPreventive, false},
		{"Preventiva", KindPreventive, false},
		{" CORRETIVA ", KindCorrective, false},
		{"corrective", KindCorrective, false},
		{"both", "", true},
		{"", "", true},
	}
	for _, tc := range testCases {
		got, err := ParseKindName(tc.in)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Errorf("ParseKindName(%q) = %q, %v", tc.in, got, err)
		}
	}
}

func TestNewKind(t *testing.T) {
	days := 30
	zero := 0
	if _, err := NewKind(KindPreventive, nil); err != ErrInvalidSchedule {
		t.Errorf("preventive without days err = %v", err)
	}
	if _, err := NewKind(KindPreventive, &zero); err != ErrInvalidSchedule {
		t.Errorf("preventive with 0 days err = %v", err)
	}
	k, err := NewKind(KindPreventive, &days)
	if err != nil || ScheduleDays(k) == nil || *ScheduleDays(k) != 30 {
		t.Errorf("preventive kind = %v, %v", k, err)
	}
	c, err := NewKind(KindCorrective, &days)
	if err != nil {
		t.Fatalf("corrective: %v", err)
	}
	if ScheduleDays(c) != nil {
		t.Error("corrective ignores the schedule")
	}
	if _, err := NewKind("other", nil); err != ErrUnknownKind {
		t.Errorf("unknown kind err = %v", err)
	}
}

func TestRecord_ValidateAndReschedule(t *testing.T) {
	r := &Record{Kind: NewCorrective(), Description: "  ", PerformedAt: time.Now()}
	if err := r.Validate(); err != ErrDescriptionRequired {
		t.Errorf("blank description err = %v", err)
	}
	r.Description = "troca de fonte"
	r.PerformedAt = time.Time{}
	if err := r.Validate(); err != ErrPerformedAtRequired {
		t.Errorf("zero performed_at err = %v", err)
	}
	r.PerformedAt = time.Now()
	r.Kind = nil
	if err := r.Validate(); err != ErrKindRequired {
		t.Errorf("nil kind err = %v", err)
	}
	p, _ := NewPreventive(10)
	r = &Record{Kind: p, Description: "limpeza", PerformedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	r.Reschedule()
	if r.NextDue == nil || r.NextDue.Day() != 11 {
		t.Errorf("NextDue = %v", r.NextDue)
	}
}
