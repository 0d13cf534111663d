package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rlegendi/jyzer/classfile/classfiletest"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
[decode]
max_major = 52
version_policy = "refuse"

[output]
format = "json"

[log]
verbosity = 2
file = "jyzer.log"
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if c.Decode.MaxMajor != 52 || c.Decode.MaxMinor != 0 {
		t.Errorf("ceiling = %d.%d, want 52.0", c.Decode.MaxMajor, c.Decode.MaxMinor)
	}
	if c.Decode.VersionPolicy != PolicyRefuse {
		t.Errorf("VersionPolicy = %q, want %q", c.Decode.VersionPolicy, PolicyRefuse)
	}
	if c.Output.Format != "json" {
		t.Errorf("Output.Format = %q, want json", c.Output.Format)
	}
	if c.Log.Verbosity != 2 || c.Log.File != "jyzer.log" {
		t.Errorf("Log = %+v", c.Log)
	}
	if c.Path != path {
		t.Errorf("Path = %q, want %q", c.Path, path)
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, t.TempDir(), "[log]\nverbosity = 1\n"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	want := Default()
	if c.Decode != want.Decode || c.Output != want.Output {
		t.Errorf("config = %+v, want defaults %+v", c, want)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := map[string]string{
		"syntax":  "[decode\n",
		"policy":  "[decode]\nversion_policy = \"ignore\"\n",
		"ceiling": "[decode]\nmax_major = 0\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, t.TempDir(), content)); err == nil {
				t.Error("Expected an error")
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "[output]\nformat = \"cbor\"\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	c, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad() error: %v", err)
	}
	if c.Output.Format != "cbor" {
		t.Errorf("Output.Format = %q, want cbor", c.Output.Format)
	}
}

func TestFindAndLoadWithoutFile(t *testing.T) {
	c, err := FindAndLoad(t.TempDir())
	if err != nil {
		t.Fatalf("FindAndLoad() error: %v", err)
	}
	// A jyzer.toml above the temp dir would be picked up; only check the
	// shape when none was found.
	if c.Path == "" && c.Decode != Default().Decode {
		t.Errorf("Decode = %+v, want defaults", c.Decode)
	}
}

func TestCheckVersion(t *testing.T) {
	b := classfiletest.New("com/example/Future")
	b.Major = 70
	cf := b.Parse(t)

	warn := Default()
	tooNew, err := warn.CheckVersion(cf)
	if !tooNew || err != nil {
		t.Errorf("warn policy: tooNew=%v err=%v, want true, nil", tooNew, err)
	}

	refuse := Default()
	refuse.Decode.VersionPolicy = PolicyRefuse
	tooNew, err = refuse.CheckVersion(cf)
	var uve *UnsupportedVersionError
	if !tooNew || !errors.As(err, &uve) {
		t.Fatalf("refuse policy: tooNew=%v err=%v", tooNew, err)
	}
	if !strings.Contains(err.Error(), "70.0") || uve.Class != "com/example/Future" {
		t.Errorf("error = %q", err)
	}

	ok := classfiletest.New("com/example/Old").Parse(t)
	if tooNew, err := refuse.CheckVersion(ok); tooNew || err != nil {
		t.Errorf("version 61: tooNew=%v err=%v", tooNew, err)
	}
}
