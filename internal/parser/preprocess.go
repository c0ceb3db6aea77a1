package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// maxIncludeDepth guards against a #include cycle; the original C
// preprocessor has no such limit but every real include graph in the
// sample shaders is shallow.
const maxIncludeDepth = 32

type ifdefFrame struct {
	active bool // whether this branch is currently emitting
}

// Preprocess expands #include, object-like #define, and #ifdef/#else/
// #endif directives, resolving #include against includePaths. An
// inactive, #define or #ifdef/#else/#endif line is replaced by a blank
// line, never removed; an #include line is replaced by the expanded
// text of the included file, so every line after it shifts by that
// file's line count less one.
func Preprocess(source string, includePaths []string) (string, error) {
	return preprocess(source, includePaths, map[string]string{}, 0)
}

func preprocess(source string, includePaths []string, defines map[string]string, depth int) (string, error) {
	if depth > maxIncludeDepth {
		return "", fmt.Errorf("preprocess: #include depth exceeds %d, likely a cycle", maxIncludeDepth)
	}

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	var stack []ifdefFrame

	active := func() bool {
		for _, f := range stack {
			if !f.active {
				return false
			}
		}
		return true
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "#include"):
			if !active() {
				out = append(out, "")
				continue
			}
			name, err := parseIncludeName(trimmed)
			if err != nil {
				return "", err
			}
			body, err := readInclude(name, includePaths)
			if err != nil {
				return "", err
			}
			expanded, err := preprocess(body, includePaths, defines, depth+1)
			if err != nil {
				return "", err
			}
			out = append(out, expanded)

		case strings.HasPrefix(trimmed, "#define"):
			if active() {
				name, value := parseDefine(trimmed)
				defines[name] = value
			}
			out = append(out, "")

		case strings.HasPrefix(trimmed, "#ifdef"):
			name := strings.TrimSpace(strings.TrimPrefix(trimmed, "#ifdef"))
			_, defined := defines[name]
			stack = append(stack, ifdefFrame{active: defined})
			out = append(out, "")

		case strings.HasPrefix(trimmed, "#ifndef"):
			name := strings.TrimSpace(strings.TrimPrefix(trimmed, "#ifndef"))
			_, defined := defines[name]
			stack = append(stack, ifdefFrame{active: !defined})
			out = append(out, "")

		case trimmed == "#else":
			if len(stack) == 0 {
				return "", fmt.Errorf("preprocess: #else without matching #ifdef")
			}
			top := &stack[len(stack)-1]
			top.active = !top.active
			out = append(out, "")

		case trimmed == "#endif":
			if len(stack) == 0 {
				return "", fmt.Errorf("preprocess: #endif without matching #ifdef")
			}
			stack = stack[:len(stack)-1]
			out = append(out, "")

		default:
			if !active() {
				out = append(out, "")
				continue
			}
			out = append(out, substituteDefines(line, defines))
		}
	}

	if len(stack) != 0 {
		return "", fmt.Errorf("preprocess: unterminated #ifdef/#ifndef")
	}
	return strings.Join(out, "\n"), nil
}

func parseIncludeName(line string) (string, error) {
	start := strings.IndexAny(line, "\"<")
	if start < 0 {
		return "", fmt.Errorf("preprocess: malformed #include: %q", line)
	}
	closing := byte('"')
	if line[start] == '<' {
		closing = '>'
	}
	end := strings.IndexByte(line[start+1:], closing)
	if end < 0 {
		return "", fmt.Errorf("preprocess: unterminated #include: %q", line)
	}
	return line[start+1 : start+1+end], nil
}

func parseDefine(line string) (name, value string) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, "#define"))
	fields := strings.SplitN(rest, " ", 2)
	name = fields[0]
	if len(fields) == 2 {
		value = strings.TrimSpace(fields[1])
	}
	return name, value
}

func readInclude(name string, includePaths []string) (string, error) {
	for _, dir := range includePaths {
		path := filepath.Join(dir, name)
		if data, err := os.ReadFile(path); err == nil {
			return string(data), nil
		}
	}
	if data, err := os.ReadFile(name); err == nil {
		return string(data), nil
	}
	return "", fmt.Errorf("preprocess: cannot find include %q in %v", name, includePaths)
}

func substituteDefines(line string, defines map[string]string) string {
	if len(defines) == 0 {
		return line
	}
	for name, value := range defines {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
		line = re.ReplaceAllString(line, value)
	}
	return line
}
