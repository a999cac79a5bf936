package redact

import (
	"strings"
	"testing"
)

func TestPathRedactor_Redact(t *testing.T) {
	tests := []struct {
		name string
		root string
		line string
		want string
	}{
		{
			name: "full root",
			root: "C/Users/me/project",
			line: "error at C/Users/me/project/src/foo.cs",
			want: "error at <Filepath purged>/src/foo.cs",
		},
		{
			name: "no matching segment",
			root: "C/Users/me/project",
			line: "nothing to see here",
			want: "nothing to see here",
		},
		{
			name: "backslash separators",
			root: `D:\Games\Tower`,
			line: `NullReferenceException in D:\Games\Tower\Assets\Scripts\Turret.cs:42`,
			want: `NullReferenceException in <Filepath purged>/Assets\Scripts\Turret.cs:42`,
		},
		{
			name: "mixed separators in root",
			root: `D:/Games\Tower`,
			line: "loaded D:/Games/Tower/level1",
			want: "loaded <Filepath purged>/level1",
		},
		{
			name: "partial prefix",
			root: "/home/me/game/Assets",
			line: "cache in /home/me/.cache/unity",
			want: "cache in /<Filepath purged>/.cache/unity",
		},
		{
			name: "two occurrences on one line",
			root: "/home/me/game",
			line: "copy /home/me/game/a.txt to /home/me/game/b.txt",
			want: "copy /<Filepath purged>/a.txt to /<Filepath purged>/b.txt",
		},
		{
			name: "root at end of line",
			root: "/srv/app",
			line: "cwd=/srv/app",
			want: "cwd=/<Filepath purged>/",
		},
		{
			name: "empty line",
			root: "/srv/app",
			line: "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewPathRedactor(tt.root).Redact(tt.line)
			if got != tt.want {
				t.Errorf("Redact(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestPathRedactor_EmptyRoot(t *testing.T) {
	line := "path /a/b/c stays"
	for _, root := range []string{"", "/", `\\`} {
		if got := NewPathRedactor(root).Redact(line); got != line {
			t.Errorf("root %q: Redact() = %q, want unchanged", root, got)
		}
	}
}

func TestPathRedactor_MarkerTextInRoot(t *testing.T) {
	// Segments that also occur in the marker must not be found again
	// inside markers the redactor inserted itself.
	p := NewPathRedactor("/Filepath/purged")

	got := p.Redact("see /Filepath/purged/x and /Filepath/purged/y")
	want := "see /<Filepath purged>/x and /<Filepath purged>/y"
	if got != want {
		t.Errorf("Redact() = %q, want %q", got, want)
	}
}

func TestPathRedactor_Segments(t *testing.T) {
	p := NewPathRedactor(`C:\Users/me\\project/`)
	got := p.Segments()
	want := []string{"C:", "Users", "me", "project"}

	if len(got) != len(want) {
		t.Fatalf("Segments() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Segments()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPathRedactor_RedactAndCount(t *testing.T) {
	p := NewPathRedactor("/home/me/game")

	got, n := p.RedactAndCount("a /home/me/game/1 b /home/me/game/2")
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
	if strings.Contains(got, "/home/me/game") {
		t.Errorf("root still present: %q", got)
	}

	got, n = p.RedactAndCount("clean line")
	if n != 0 || got != "clean line" {
		t.Errorf("RedactAndCount(clean) = %q, %d", got, n)
	}
}

func TestChain_RedactAndCount(t *testing.T) {
	chain, err := New(Options{
		SensitiveRoot: "/home/me/game",
		Paths:         true,
		Secrets:       true,
		Patterns:      []string{"email"},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got, n := chain.RedactAndCount("user bob@example.com saved /home/me/game/save.dat")
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
	if got != chain.Redact("user bob@example.com saved /home/me/game/save.dat") {
		t.Errorf("RedactAndCount() = %q, differs from Redact()", got)
	}
	if strings.Contains(got, "bob@example.com") || strings.Contains(got, "/home/me/game") {
		t.Errorf("line not fully redacted: %q", got)
	}

	if _, n := (Chain{}).RedactAndCount("/home/me/game"); n != 0 {
		t.Errorf("empty chain count = %d, want 0", n)
	}
}

func TestPathRedactor_RedactLines(t *testing.T) {
	p := NewPathRedactor("/srv/app")
	lines := []string{"start", "open /srv/app/db.sqlite", "stop"}

	got := p.RedactLines(lines)
	if got[1] != "open /<Filepath purged>/db.sqlite" {
		t.Errorf("RedactLines()[1] = %q", got[1])
	}
	if got[0] != "start" || got[2] != "stop" {
		t.Errorf("unmatched lines changed: %v", got)
	}
}

func TestRedact(t *testing.T) {
	got := Redact("error at C/Users/me/project/src/foo.cs", "C/Users/me/project")
	if got != "error at <Filepath purged>/src/foo.cs" {
		t.Errorf("Redact() = %q", got)
	}
}

func TestSecretScrubber(t *testing.T) {
	s, err := NewSecretScrubber([]string{"ipv4", "email"})
	if err != nil {
		t.Fatalf("NewSecretScrubber() error = %v", err)
	}

	line := "login from 10.0.0.7 by ops@example.com, retry from 10.0.0.7"
	got := s.Redact(line)

	if strings.Contains(got, "10.0.0.7") || strings.Contains(got, "ops@example.com") {
		t.Fatalf("secrets not scrubbed: %q", got)
	}
	if strings.Count(got, "[IPV4:") != 2 {
		t.Errorf("expected two IPV4 placeholders: %q", got)
	}

	// Same value, same placeholder.
	ip := placeholder("IPV4", "10.0.0.7")
	if strings.Count(got, ip) != 2 {
		t.Errorf("expected placeholder %s twice in %q", ip, got)
	}
}

func TestNewSecretScrubber_UnknownPattern(t *testing.T) {
	if _, err := NewSecretScrubber([]string{"ipv4", "social_security"}); err == nil {
		t.Fatal("expected error for unknown pattern")
	}
}

func TestNewSecretScrubber_Defaults(t *testing.T) {
	s, err := NewSecretScrubber(nil)
	if err != nil {
		t.Fatalf("NewSecretScrubber() error = %v", err)
	}
	if len(s.patterns) != len(DefaultPatterns()) {
		t.Errorf("got %d patterns, want %d", len(s.patterns), len(DefaultPatterns()))
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantLen int
		wantErr bool
	}{
		{"nothing", Options{}, 0, false},
		{"paths without root", Options{Paths: true}, 0, false},
		{"paths", Options{Paths: true, SensitiveRoot: "/srv/app"}, 1, false},
		{"paths and secrets", Options{Paths: true, SensitiveRoot: "/srv/app", Secrets: true}, 2, false},
		{"bad pattern", Options{Secrets: true, Patterns: []string{"nope"}}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain, err := New(tt.opts)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if len(chain) != tt.wantLen {
				t.Errorf("len(chain) = %d, want %d", len(chain), tt.wantLen)
			}
			if chain.Empty() != (tt.wantLen == 0) {
				t.Errorf("Empty() = %v", chain.Empty())
			}
		})
	}
}

func TestChain_Order(t *testing.T) {
	chain, err := New(Options{
		Paths:         true,
		SensitiveRoot: "/home/ops@example.com/app",
		Secrets:       true,
		Patterns:      []string{"email"},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got := chain.Redact("read /home/ops@example.com/app/save.dat")
	if got != "read /<Filepath purged>/save.dat" {
		t.Errorf("Redact() = %q", got)
	}
}
