package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/acolita/hashwire/pkg/binser"
	"github.com/acolita/hashwire/pkg/cborser"
	"github.com/acolita/hashwire/pkg/hash"
)

func sample(t *testing.T) *hash.Hash {
	t.Helper()
	arr, err := hash.NDArrayOf([]int32{1, 2, 3, 4}, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	sc := hash.NewSchema("Motor")
	sc.AddLeaf("speed", hash.TypeDouble, hash.AccessRead)
	h := hash.New(
		"motor.speed", 2.5,
		"motor.name", "m1",
		"limits", []int16{-3, 3},
		"frames", []*hash.Hash{hash.New("i", int32(0))},
		"schema", sc,
		"arr", arr,
		"raw", hash.NewByteArray([]byte("hello")),
		"nothing", nil,
	)
	if err := h.SetAttribute("motor.speed", "unit", "mm/s"); err != nil {
		t.Fatal(err)
	}
	return h
}

func writeRecord(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(append([]string{"--no-color"}, args...), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestDumpText(t *testing.T) {
	h := sample(t)
	data, err := binser.Save(h)
	if err != nil {
		t.Fatal(err)
	}
	path := writeRecord(t, t.TempDir(), "rec.bin", data)

	out, _, err := runCLI(t, "dump", path)
	if err != nil {
		t.Fatal(err)
	}
	if out != h.String() {
		t.Errorf("dump output:\n%s\nwant:\n%s", out, h.String())
	}
}

func TestDumpYAML(t *testing.T) {
	data, err := cborser.New().Save(sample(t))
	if err != nil {
		t.Fatal(err)
	}
	path := writeRecord(t, t.TempDir(), "rec.cbor", data)

	out, _, err := runCLI(t, "--format", "yaml", "dump", path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"!DOUBLE 2.5", "@unit", "!STRING mm/s", "!VECTOR_INT16 [-3, 3]", "!!binary aGVsbG8=", "!SCHEMA"} {
		if !strings.Contains(out, want) {
			t.Errorf("yaml output lacks %q:\n%s", want, out)
		}
	}
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(out), &doc); err != nil {
		t.Errorf("yaml output does not parse: %v", err)
	}
}

func TestConvertAppendVerify(t *testing.T) {
	dir := t.TempDir()
	h := sample(t)
	data, err := binser.Save(h)
	if err != nil {
		t.Fatal(err)
	}
	in := writeRecord(t, dir, "rec.bin", data)
	out := filepath.Join(dir, "rec.cbor")

	if _, _, err := runCLI(t, "--to", "Cbor", "convert", in, out); err != nil {
		t.Fatal(err)
	}
	converted, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	got := hash.New()
	if _, err := cborser.New().Load(got, converted); err != nil {
		t.Fatal(err)
	}
	if !hash.FullyEquals(h, got, true) {
		t.Error("converted record differs")
	}

	cfg := writeRecord(t, dir, "hashwire.yaml", []byte("archive:\n  framed: true\n  compression: zstd\n  digest: true\n"))
	arch := filepath.Join(dir, "state.hwa")
	if _, _, err := runCLI(t, "-c", cfg, "append", arch, in, out); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := runCLI(t, "-c", cfg, "verify", arch)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "2 records ok") {
		t.Errorf("verify output %q", stdout)
	}

	stdout, _, err = runCLI(t, "--all", "dump", arch)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(stdout, "# record") != 2 {
		t.Errorf("dump --all output:\n%s", stdout)
	}
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no command", nil, "missing command"},
		{"unknown command", []string{"frobnicate"}, "unknown command"},
		{"dump arity", []string{"dump"}, "one file"},
		{"convert arity", []string{"convert", "a"}, "input and an output"},
		{"bad log level", []string{"--log-level", "loud", "dump", "x"}, "--log-level"},
		{"missing file", []string{"dump", "missing"}, "no such file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCLI(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v, want error containing %q", err, tt.want)
			}
		})
	}
}
