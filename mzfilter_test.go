package mzfilter

import (
	stderrors "errors"
	"testing"

	"github.com/infodancer/mzfilter/errors"
)

func TestParseField(t *testing.T) {
	tests := []struct {
		in   string
		want Field
	}{
		{"", FieldSubject},
		{"Subject", FieldSubject},
		{"FROM", FieldFrom},
		{" reply-to ", FieldReplyTo},
		{"sender", FieldSender},
	}
	for _, tt := range tests {
		got, err := ParseField(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseField(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}

	if _, err := ParseField("body"); !stderrors.Is(err, errors.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if got := FieldReplyTo.Header(); got != "Reply-To" {
		t.Errorf("Header() = %q, want Reply-To", got)
	}
	if len(Fields()) != 6 {
		t.Errorf("expected 6 fields, got %d", len(Fields()))
	}
}

func TestParseMatchType(t *testing.T) {
	for _, name := range []string{"contains", "exact", "starts_with", "ends_with", "REGEX"} {
		if _, err := ParseMatchType(name); err != nil {
			t.Errorf("ParseMatchType(%q) failed: %v", name, err)
		}
	}
	if _, err := ParseMatchType("fuzzy"); !stderrors.Is(err, errors.ErrUnknownMatchType) {
		t.Fatalf("expected ErrUnknownMatchType, got %v", err)
	}
}

func TestParseSubfolder(t *testing.T) {
	if s, err := ParseSubfolder("New"); err != nil || s != SubfolderNew {
		t.Fatalf("ParseSubfolder(New) = %q, %v", s, err)
	}
	if _, err := ParseSubfolder("tmp"); !stderrors.Is(err, errors.ErrInvalidSubfolder) {
		t.Fatalf("expected ErrInvalidSubfolder, got %v", err)
	}
}

func TestNormalizeFolder(t *testing.T) {
	tests := map[string]string{
		"Work":     ".Work",
		".Work":    ".Work",
		"Lists.Go": ".Lists.Go",
		" Spam ":   ".Spam",
		"..Trash":  "..Trash",
	}
	for in, want := range tests {
		if got := NormalizeFolder(in); got != want {
			t.Errorf("NormalizeFolder(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidateFolder(t *testing.T) {
	for _, ok := range []string{"Work", ".Work", "Lists.Go", "Spam Reports"} {
		if err := ValidateFolder(ok); err != nil {
			t.Errorf("ValidateFolder(%q) failed: %v", ok, err)
		}
	}
	for _, bad := range []string{"", ".", "..", "...", "a/b", "../x", "a\x00b"} {
		if err := ValidateFolder(bad); !stderrors.Is(err, errors.ErrInvalidFolder) {
			t.Errorf("ValidateFolder(%q) = %v, want ErrInvalidFolder", bad, err)
		}
	}
}

func TestRuleValidate(t *testing.T) {
	valid := Rule{Field: FieldSubject, Pattern: "x", MatchType: MatchContains, TargetFolder: "X"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Rule)
		want   error
	}{
		{"no pattern", func(r *Rule) { r.Pattern = "" }, errors.ErrInvalidRule},
		{"no folder", func(r *Rule) { r.TargetFolder = "" }, errors.ErrInvalidRule},
		{"bad field", func(r *Rule) { r.Field = "body" }, errors.ErrUnknownField},
		{"bad match type", func(r *Rule) { r.MatchType = "fuzzy" }, errors.ErrUnknownMatchType},
		{"bad folder", func(r *Rule) { r.TargetFolder = "a/b" }, errors.ErrInvalidFolder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			if err := r.Validate(); !stderrors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRuleLabel(t *testing.T) {
	r := Rule{Field: FieldFrom, Pattern: "boss", MatchType: MatchExact}
	if got := r.Label(); got != `from exact "boss"` {
		t.Errorf("Label() = %q", got)
	}
	r.Name = "Boss"
	if got := r.Label(); got != "Boss" {
		t.Errorf("Label() = %q, want Boss", got)
	}
}

func TestRulesetFolders(t *testing.T) {
	rs := Ruleset{
		{TargetFolder: "A"},
		{TargetFolder: ".B"},
		{TargetFolder: ".A"},
	}
	got := rs.Folders()
	if len(got) != 2 || got[0] != ".A" || got[1] != ".B" {
		t.Fatalf("Folders() = %v, want [.A .B]", got)
	}
}

func TestSummary(t *testing.T) {
	var s Summary
	s.Add(Outcome{Kind: Moved})
	s.Add(Outcome{Kind: Moved, Warnings: []error{stderrors.New("skipped")}})
	s.Add(Outcome{Kind: NoMatch})
	s.Add(Outcome{Kind: Failed, Err: stderrors.New("boom")})

	if s.Total() != 4 || s.Count(Moved) != 2 || s.Count(NoMatch) != 1 || s.Count(Failed) != 1 || s.Count(WouldMove) != 0 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if s.Warnings != 1 {
		t.Fatalf("expected 1 warning, got %d", s.Warnings)
	}
	if got := (Outcome{Kind: Failed, Err: stderrors.New("boom")}).Reason(); got != "boom" {
		t.Errorf("Reason() = %q", got)
	}
	if Failed.String() != "failed" || OutcomeKind(99).String() != "unknown" {
		t.Error("unexpected OutcomeKind strings")
	}
}
