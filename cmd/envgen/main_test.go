package main

import (
	"bytes"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/sghaida/envreg/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testdata = "../../schema/testdata"

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errBuf bytes.Buffer
	code = run(args, &out, &errBuf)
	return code, out.String(), errBuf.String()
}

// -------------------------
// generate
// -------------------------

func TestGenerate_WritesRegistry(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "gen", "endpoints.gen.go")
	code, _, stderr := runCLI(t, "generate",
		"--schema", filepath.Join(testdata, "endpoints.hcl"),
		"--out", out,
		"--var", "dev_host=api.dev",
		"--runtime-import", "example.com/envreg",
	)
	require.Equal(t, 0, code, stderr)

	src, err := os.ReadFile(out)
	require.NoError(t, err)

	f, err := parser.ParseFile(token.NewFileSet(), out, src, 0)
	require.NoError(t, err)
	assert.Equal(t, "endpoints", f.Name.Name)

	text := string(src)
	assert.Contains(t, text, `envreg "example.com/envreg"`)
	assert.Contains(t, text, `envreg.Env("Debug", "https://api.dev", "Development"),`)
	assert.Contains(t, text, "const Frozen = false")
	assert.Contains(t, text, "// Schema-BLAKE3: ")
	assert.Contains(t, text, "schema/testdata/endpoints.hcl\n")
}

func TestGenerate_FrozenAndPackageOverride(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "release.gen.go")
	code, _, stderr := runCLI(t, "generate",
		"-s", filepath.Join(testdata, "endpoints.yaml"),
		"-o", out,
		"--package", "release",
		"--frozen",
	)
	require.Equal(t, 0, code, stderr)

	src, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(src), "package release\n")
	assert.Contains(t, string(src), "const Frozen = true")
}

func TestGenerate_SkipsUnchangedOutput(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "endpoints.gen.go")
	args := []string{"--log-level", "debug", "generate", "-s", filepath.Join(testdata, "endpoints.yaml"), "-o", out}

	code, _, stderr := runCLI(t, args...)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stderr, "generated registry")

	first, err := os.ReadFile(out)
	require.NoError(t, err)

	code, _, stderr = runCLI(t, args...)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stderr, "output unchanged")

	second, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerate_InvalidSchemaLeavesOutputAlone(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "endpoints.gen.go")
	require.NoError(t, os.WriteFile(out, []byte("keep"), 0o644))

	code, _, stderr := runCLI(t, "generate", "-s", filepath.Join(testdata, "invalid.yaml"), "-o", out)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "missing release environment")
	assert.Contains(t, stderr, "multiple release environments")
	assert.Contains(t, stderr, `module "Auth"`)

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(b))
}

func TestGenerate_UsageErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		args    []string
		wantSub string
	}{
		{name: "no flags", args: []string{"generate"}, wantSub: "required flag"},
		{name: "missing out", args: []string{"generate", "-s", "x.hcl"}, wantSub: `"out"`},
		{name: "blank out", args: []string{"generate", "-s", "x.hcl", "-o", " "}, wantSub: "missing --out"},
		{name: "unknown command", args: []string{"frobnicate"}, wantSub: "unknown command"},
		{name: "positional args", args: []string{"generate", "-s", "x", "-o", "y", "extra"}, wantSub: "unknown command"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			code, _, stderr := runCLI(t, tc.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, stderr, tc.wantSub)
		})
	}
}

func TestGenerate_IdentifierCollision(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(schemaPath, []byte(`package: p
modules:
  - name: Reset
    environments:
      - {name: Prod, value: x, release: true}
`), 0o644))

	code, _, stderr := runCLI(t, "generate", "-s", schemaPath, "-o", filepath.Join(dir, "out.go"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "identifier collision")
	assert.NoFileExists(t, filepath.Join(dir, "out.go"))
}

// -------------------------
// check / version
// -------------------------

func TestCheck(t *testing.T) {
	t.Parallel()

	code, stdout, stderr := runCLI(t, "check", "-s", filepath.Join(testdata, "endpoints.hcl"), "--var", "dev_host=h")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t,
		"Api: Release, Debug (release: Release)\n"+
			"Cdn: Prod, Staging (release: Prod)\n"+
			"ok: 2 modules\n",
		stdout)

	code, _, stderr = runCLI(t, "check", "-s", filepath.Join(testdata, "invalid.yaml"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "duplicate environment name")
}

func TestVersion(t *testing.T) {
	t.Parallel()

	code, stdout, _ := runCLI(t, "version")
	require.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(stdout, "envgen "), stdout)
}

// -------------------------
// helpers
// -------------------------

func TestSourcePathFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "endpoints.hcl", sourcePathFor("pkg/endpoints.hcl", "pkg/endpoints.gen.go"))
	assert.Equal(t, "../schemas/endpoints.hcl", sourcePathFor("schemas/endpoints.hcl", "gen/endpoints.gen.go"))
}

func TestFindModule(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/x\n\ngo 1.25\n"), 0o644))

	modRoot, modPath, err := findModule(nested)
	require.NoError(t, err)
	assert.Equal(t, root, modRoot)
	assert.Equal(t, "example.com/x", modPath)

	broken := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(broken, "go.mod"), []byte("go 1.25\n"), 0o644))
	_, _, err = findModule(broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing module directive")

	empty := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(empty, "go.mod"), []byte("module \n"), 0o644))
	_, _, err = findModule(empty)
	require.Error(t, err)
}

func TestInferRuntimeImport(t *testing.T) {
	t.Parallel()

	_, thisFile, _, ok := runtime.Caller(0)
	require.True(t, ok)
	_, modPath, err := findModule(filepath.Dir(thisFile))
	require.NoError(t, err)

	got := inferRuntimeImport(hclog.NewNullLogger())
	assert.Equal(t, modPath+"/envreg", got)
	assert.Equal(t, synth.DefaultRuntimeImport, got)
}
