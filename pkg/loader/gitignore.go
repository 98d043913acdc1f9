package loader

import (
	"os"
	"path/filepath"
	"strings"
)

// stateDirName is the directory covview keeps its local state in.
const stateDirName = ".covview"

// EnsureStateDirInGitignore makes sure the state dir is ignored by git:
// persisted tree state and run history have no business in the
// repository. Idempotent; creates .gitignore when missing and appends
// otherwise, preserving existing content. An empty projectDir means the
// working directory.
func EnsureStateDirInGitignore(projectDir string) error {
	if projectDir == "" {
		var err error
		if projectDir, err = os.Getwd(); err != nil {
			return err
		}
	}

	path := filepath.Join(projectDir, ".gitignore")
	present, err := isStateDirInGitignore(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if present {
		return nil
	}
	return appendToGitignore(path, stateDirName+"/")
}

// isStateDirInGitignore reports whether any non-comment line of the file
// already covers the state dir.
func isStateDirInGitignore(path string) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if matchesStateDirPattern(line) {
			return true, nil
		}
	}
	return false, nil
}

// matchesStateDirPattern reports whether one gitignore line covers the
// state dir. A leading-slash anchor and the usual trailing glob forms
// all normalize to the bare directory name.
func matchesStateDirPattern(line string) bool {
	p := strings.TrimPrefix(line, "/")
	for _, glob := range []string{"/**/*", "/**", "/*", "/"} {
		if strings.HasSuffix(p, glob) {
			p = strings.TrimSuffix(p, glob)
			break
		}
	}
	return p == stateDirName
}

// appendToGitignore appends the pattern under a short comment, creating
// the file when needed and keeping whatever is already there intact.
func appendToGitignore(path, pattern string) error {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	var b strings.Builder
	if len(existing) > 0 {
		if existing[len(existing)-1] != '\n' {
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("# covview local state\n")
	b.WriteString(pattern)
	b.WriteString("\n")

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
