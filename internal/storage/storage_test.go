package storage

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestSearchFilterNormalize(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, 10},
		{-5, 10},
		{7, 7},
		{100, 100},
		{500, 100},
	}
	for _, tc := range cases {
		f := SearchFilter{Limit: tc.in}
		f.Normalize()
		if f.Limit != tc.want {
			t.Errorf("Normalize(limit=%d) = %d, want %d", tc.in, f.Limit, tc.want)
		}
	}
}

func TestSearchFilterWantsType(t *testing.T) {
	f := SearchFilter{}
	if !f.WantsType("note") {
		t.Error("empty filter should admit every type")
	}

	f.EntityTypes = []string{"note", "decision"}
	if !f.WantsType("decision") {
		t.Error("listed type should be admitted")
	}
	if f.WantsType("task") {
		t.Error("unlisted type should be rejected")
	}
}

func TestSearchFilterInRange(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	f := SearchFilter{}
	if !f.InRange(base) {
		t.Error("unbounded filter should admit any time")
	}

	f.From = base.Add(-time.Hour)
	f.To = base.Add(time.Hour)
	if !f.InRange(base) {
		t.Error("time inside window rejected")
	}
	if f.InRange(base.Add(-2 * time.Hour)) {
		t.Error("time before window admitted")
	}
	if f.InRange(base.Add(2 * time.Hour)) {
		t.Error("time after window admitted")
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{ErrValidation, KindValidation},
		{ErrInvalidTransition, KindInvalidTransition},
		{ErrConcurrencyConflict, KindConcurrencyConflict},
		{ErrSessionActive, KindSessionActive},
		{ErrNoActiveSession, KindNoActiveSession},
		{ErrNotFound, KindNotFound},
		{errors.New("disk on fire"), KindInternal},
		{fmt.Errorf("wrapped: %w", ErrValidation), KindValidation},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Errorf("KindOf(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestCheckRequired(t *testing.T) {
	if err := CheckRequired("field", "", 10); !errors.Is(err, ErrValidation) {
		t.Errorf("empty required field error = %v, want ErrValidation", err)
	}
	if err := CheckRequired("field", "ok", 10); err != nil {
		t.Errorf("valid field error = %v", err)
	}
	if err := CheckRequired("field", strings.Repeat("x", 11), 10); !errors.Is(err, ErrValidation) {
		t.Errorf("oversized field error = %v, want ErrValidation", err)
	}
}

func TestCheckTextCountsRunes(t *testing.T) {
	// Four runes, twelve bytes.
	if err := CheckText("field", "日本語字", 4); err != nil {
		t.Errorf("rune-limit check failed on multibyte text: %v", err)
	}
	if err := CheckText("field", "日本語字", 3); !errors.Is(err, ErrValidation) {
		t.Errorf("over-limit multibyte text error = %v, want ErrValidation", err)
	}
}

func TestCheckList(t *testing.T) {
	if err := CheckList("items", []string{"a", "b"}); err != nil {
		t.Errorf("valid list error = %v", err)
	}
	if err := CheckList("items", []string{"a", ""}); !errors.Is(err, ErrValidation) {
		t.Errorf("empty item error = %v, want ErrValidation", err)
	}

	big := make([]string, MaxListItems+1)
	for i := range big {
		big[i] = "item"
	}
	if err := CheckList("items", big); !errors.Is(err, ErrValidation) {
		t.Errorf("oversized list error = %v, want ErrValidation", err)
	}
	if err := CheckList("items", []string{strings.Repeat("x", MaxTitleChars+1)}); !errors.Is(err, ErrValidation) {
		t.Errorf("oversized item error = %v, want ErrValidation", err)
	}
}
