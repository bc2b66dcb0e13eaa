package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// run executes the root command with args and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestBuildCommand(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "scripts")

	out, err := run(t, "build", "-d", "Alice", "-o", dir, "--no-cache")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Number of errors: 0") {
		t.Errorf("output = %q", out)
	}
	gdsPath := filepath.Join(root, "EBeam_Alice_MZI.gds")
	if info, err := os.Stat(gdsPath); err != nil || info.Size() == 0 {
		t.Fatalf("GDS not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "EBeam_Alice_MZI.lyrdb")); err != nil {
		t.Errorf("report not written: %v", err)
	}

	t.Run("verify", func(t *testing.T) {
		rdb := filepath.Join(root, "check.lyrdb")
		out, err := run(t, "verify", gdsPath, "-o", rdb)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "Number of errors: 0") {
			t.Errorf("output = %q", out)
		}
		if _, err := os.Stat(rdb); err != nil {
			t.Errorf("report not written: %v", err)
		}
	})

	t.Run("render netlist", func(t *testing.T) {
		dot := filepath.Join(root, "mzi.dot")
		if _, err := run(t, "render", gdsPath, "-t", "netlist", "-f", "dot", "-o", dot); err != nil {
			t.Fatal(err)
		}
		data, err := os.ReadFile(dot)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(string(data), "graph G {") {
			t.Errorf("not a DOT graph: %.40s", data)
		}
	})

	t.Run("render layout svg", func(t *testing.T) {
		if _, err := run(t, "render", gdsPath, "--pins"); err != nil {
			t.Fatal(err)
		}
		if _, err := os.Stat(filepath.Join(root, "EBeam_Alice_MZI.svg")); err != nil {
			t.Errorf("SVG not written: %v", err)
		}
	})
}

func TestBuildCommandConfigDesigner(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"from config", nil, "EBeam_Bob_MZI.gds"},
		{"flag wins", []string{"-d", "Alice"}, "EBeam_Alice_MZI.gds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			cfg := filepath.Join(root, "design.toml")
			if err := os.WriteFile(cfg, []byte("designer = \"Bob\"\n"), 0o644); err != nil {
				t.Fatal(err)
			}
			args := append([]string{"build", "--config", cfg, "-o", filepath.Join(root, "scripts"), "--no-cache"}, tt.args...)
			if _, err := run(t, args...); err != nil {
				t.Fatal(err)
			}
			if _, err := os.Stat(filepath.Join(root, tt.want)); err != nil {
				t.Errorf("%s not written: %v", tt.want, err)
			}
		})
	}
}

func TestBuildCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"old engine", []string{"--engine", "0.5.3"}, "requires layout engine version 0.5.4"},
		{"bad export type", []string{"--export-type", "oasis"}, "invalid export type"},
		{"missing config", []string{"--config", "missing.toml"}, "load config"},
		{"missing tech", []string{"--tech", "missing.toml"}, "load technology"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			args := append([]string{"build", "-o", filepath.Join(dir, "scripts"), "--no-cache"}, tt.args...)
			_, err := run(t, args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
			if entries, _ := os.ReadDir(dir); len(entries) != 0 {
				t.Errorf("files written: %v", entries)
			}
		})
	}
}

func TestCachePathCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "--cache-url", dir, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != dir {
		t.Errorf("cache path = %q, want %q", out, dir)
	}
}

func TestCompletion(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"verify layout", []string{"verify", ""}, []string{"gds", ":8"}},
		{"report database", []string{"report", ""}, []string{"lyrdb", ":8"}},
		{"export type", []string{"build", "--export-type", ""}, []string{"static", "pcell", ":4"}},
		{"render format", []string{"render", "x.gds", "-f", ""}, []string{"svg", "dot"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, append([]string{cobra.ShellCompRequestCmd}, tt.args...)...)
			if err != nil {
				t.Fatal(err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("completions %q missing %q", out, w)
				}
			}
		})
	}

	out, err := run(t, "completion", "bash")
	if err != nil || !strings.Contains(out, "picforge") {
		t.Errorf("bash completion: %v, %.60q", err, out)
	}
}

func TestRenderHelpers(t *testing.T) {
	tests := []struct {
		output, input, want string
	}{
		{"", "out/mzi.gds", "out/mzi"},
		{"img/mzi.svg", "mzi.gds", "img/mzi"},
		{"img/mzi", "mzi.gds", "img/mzi"},
		{"img/mzi.v2", "mzi.gds", "img/mzi.v2"},
	}
	for _, tt := range tests {
		if got := basePath(tt.output, tt.input); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
		}
	}

	if err := validateFormats([]string{"svg", "dot"}); err != nil {
		t.Error(err)
	}
	if err := validateFormats([]string{"gif"}); err == nil {
		t.Error("gif should be rejected")
	}
	if got := splitList("", "layout"); len(got) != 1 || got[0] != "layout" {
		t.Errorf("splitList default = %v", got)
	}
}
