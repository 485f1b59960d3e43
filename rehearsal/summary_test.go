package rehearsal

import (
	"strings"
	"testing"
	"time"
)

func TestNewSummary(t *testing.T) {
	s := mustParse(t, "SCENE 1\nA: one\nB: two\nA: three\nB: four")
	start := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)

	st := State{
		Status:               StatusFinished,
		UserCharacters:       []string{"A"},
		SessionStartedAt:     start,
		FinishedAt:           start.Add(5 * time.Minute),
		CompletedLineIndices: []int{1, 2, 3},
		Transcripts:          map[int]string{3: "something else", 1: ""},
	}

	sum := NewSummary(s, st)

	if sum.DialogueLines != 4 || sum.UserLines != 2 || sum.PartnerLines != 2 {
		t.Errorf("Unexpected totals: %+v", sum)
	}
	if sum.Completed != 3 || sum.CompletedUser != 2 || sum.CompletedPartner != 1 {
		t.Errorf("Unexpected completion counts: %+v", sum)
	}
	if sum.Progress() != 0.75 {
		t.Errorf("Expected progress 0.75, got %v", sum.Progress())
	}
	if sum.Duration() != 5*time.Minute {
		t.Errorf("Expected 5m, got %v", sum.Duration())
	}
	if len(sum.Transcripts) != 2 || sum.Transcripts[0].LineIndex != 1 || sum.Transcripts[1].Scripted != "three" {
		t.Errorf("Unexpected transcripts: %+v", sum.Transcripts)
	}

	md := sum.Markdown()
	for _, want := range []string{"# test", "| Your lines | 2 | 2 |", "**75%**", "## Improvised", "_(silence)_"} {
		if !strings.Contains(md, want) {
			t.Errorf("Markdown missing %q:\n%s", want, md)
		}
	}
}

func TestSummaryNotStarted(t *testing.T) {
	sum := NewSummary(mustParse(t, "A: one"), State{})
	if sum.Progress() != 0 || sum.Duration() != 0 {
		t.Errorf("Expected empty summary, got %+v", sum)
	}
	if !strings.Contains(sum.Markdown(), "Not started yet.") {
		t.Error("Expected not-started note")
	}
}
