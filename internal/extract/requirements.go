package extract

import (
	"context"
	"strings"

	"github.com/sitesmith/sitesmith/internal/framework"
)

// requirementsFile is the conventional Python dependency manifest name.
const requirementsFile = "requirements.txt"

// RequirementsGenerator produces a dependency manifest for a set of
// imports. It is an external collaborator (typically another model call);
// implementations may fail freely, in which case synthesis falls back to a
// minimal fixed manifest for the framework.
type RequirementsGenerator interface {
	GenerateRequirements(ctx context.Context, entrySource string, imports []string) (string, error)
}

// pythonStdlib are standard-library module names excluded from synthesized
// manifests.
var pythonStdlib = map[string]struct{}{
	"abc": {}, "argparse": {}, "asyncio": {}, "base64": {}, "collections": {},
	"contextlib": {}, "copy": {}, "csv": {}, "dataclasses": {}, "datetime": {},
	"decimal": {}, "enum": {}, "functools": {}, "glob": {}, "gzip": {},
	"hashlib": {}, "html": {}, "http": {}, "io": {}, "itertools": {},
	"json": {}, "logging": {}, "math": {}, "os": {}, "pathlib": {},
	"pickle": {}, "queue": {}, "random": {}, "re": {}, "secrets": {},
	"shutil": {}, "socket": {}, "sqlite3": {}, "statistics": {}, "string": {},
	"struct": {}, "subprocess": {}, "sys": {}, "tempfile": {}, "textwrap": {},
	"threading": {}, "time": {}, "traceback": {}, "typing": {}, "unittest": {},
	"urllib": {}, "uuid": {}, "warnings": {}, "zipfile": {}, "zlib": {},
}

// importAliases maps Python import names to their PyPI package names where
// the two differ.
var importAliases = map[string]string{
	"cv2":     "opencv-python",
	"PIL":     "pillow",
	"sklearn": "scikit-learn",
	"bs4":     "beautifulsoup4",
	"yaml":    "pyyaml",
	"dotenv":  "python-dotenv",
}

// PinRequirements injects a minimum version for the framework's critical
// dependency when the manifest names it without a qualifier. Existing
// qualifiers and trailing comments are preserved. Applying the rule twice
// yields the same result as applying it once.
func PinRequirements(manifest string, fw framework.Framework) string {
	spec := fw.Spec()
	if spec.CriticalDep == "" {
		return manifest
	}

	lines := strings.Split(manifest, "\n")
	for i, line := range lines {
		name, rest := splitRequirement(line)
		if name != spec.CriticalDep {
			continue
		}
		if strings.ContainsAny(rest, "=<>~!") {
			continue // already qualified
		}
		comment := ""
		if idx := strings.Index(line, "#"); idx != -1 {
			comment = " " + strings.TrimSpace(line[idx:])
		}
		lines[i] = spec.CriticalDep + spec.CriticalDepMin + comment
	}
	return strings.Join(lines, "\n")
}

// splitRequirement separates a manifest line into the package name and the
// remainder (qualifier, markers), ignoring any trailing comment.
func splitRequirement(line string) (string, string) {
	code := line
	if idx := strings.Index(code, "#"); idx != -1 {
		code = code[:idx]
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return "", ""
	}
	for i, r := range code {
		if strings.ContainsRune("=<>~![; ", r) {
			return code[:i], code[i:]
		}
	}
	return code, ""
}

// ensureRequirements synthesizes a manifest for Python-family output when
// the model did not produce one. The generator collaborator is tried first;
// on failure the minimal fixed manifest for the framework is used. Any
// synthesized or existing manifest has the critical-dependency pin applied.
func ensureRequirements(fs *FileSet, fw framework.Framework, gen RequirementsGenerator) {
	spec := fw.Spec()

	if manifest, ok := fs.Get(requirementsFile); ok {
		fs.Set(requirementsFile, PinRequirements(manifest, fw))
		return
	}

	entry, _ := fs.Get(spec.EntryFile)
	imports := topLevelImports(entry)

	manifest := ""
	if gen != nil {
		if generated, err := gen.GenerateRequirements(context.Background(), entry, imports); err == nil {
			manifest = generated
		}
	}
	if strings.TrimSpace(manifest) == "" {
		manifest = fallbackManifest(imports, spec.CriticalDep)
	}

	fs.Set(requirementsFile, PinRequirements(manifest, fw))
}

// topLevelImports enumerates packages imported at the top level of a Python
// source file, excluding standard-library modules, in first-seen order.
func topLevelImports(source string) []string {
	seen := make(map[string]struct{})
	var out []string

	add := func(module string) {
		root := module
		if idx := strings.Index(root, "."); idx != -1 {
			root = root[:idx]
		}
		root = strings.TrimSpace(root)
		if root == "" {
			return
		}
		if _, std := pythonStdlib[root]; std {
			return
		}
		pkg := root
		if alias, ok := importAliases[root]; ok {
			pkg = alias
		}
		if _, dup := seen[pkg]; dup {
			return
		}
		seen[pkg] = struct{}{}
		out = append(out, pkg)
	}

	for _, line := range strings.Split(source, "\n") {
		// Indented imports are conditional or function-local; skip them.
		if line != strings.TrimLeft(line, " \t") {
			continue
		}
		switch {
		case strings.HasPrefix(line, "import "):
			for _, clause := range strings.Split(strings.TrimPrefix(line, "import "), ",") {
				module := strings.Fields(clause)
				if len(module) > 0 {
					add(module[0])
				}
			}
		case strings.HasPrefix(line, "from "):
			fields := strings.Fields(strings.TrimPrefix(line, "from "))
			if len(fields) > 0 {
				add(fields[0])
			}
		}
	}
	return out
}

// fallbackManifest is the minimal fixed manifest: the framework's critical
// dependency plus whatever imports were found.
func fallbackManifest(imports []string, criticalDep string) string {
	var b strings.Builder
	if criticalDep != "" {
		b.WriteString(criticalDep + "\n")
	}
	for _, pkg := range imports {
		if pkg == criticalDep {
			continue
		}
		b.WriteString(pkg + "\n")
	}
	return b.String()
}
