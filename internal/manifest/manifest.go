// Package manifest rewrites the host's dependency-declaration file to switch
// the library dependency between the local checkout, the official upstream
// revision and a branch of a user's fork.
//
// The file always keeps its canonical upstream line. Local and fork modes
// comment it out and add an override line right after it; official mode
// uncomments it and drops any override. Every other byte of the file is
// preserved, so switching back to official restores the original content.
package manifest

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sqve/tandem/internal/errors"
	"github.com/sqve/tandem/internal/fs"
	"github.com/sqve/tandem/internal/github"
)

// Rewriter edits declaration files for one library.
type Rewriter struct {
	name      string
	localPath string

	canonical *regexp.Regexp
	override  *regexp.Regexp
	rev       *regexp.Regexp
	path      *regexp.Regexp
	forkGit   *regexp.Regexp
	branch    *regexp.Regexp
}

// Result is the outcome of a rewrite.
type Result struct {
	Content []byte
	Changed bool
	// Appended is set when the file had neither a canonical line nor an
	// override to anchor on, and the override went to the end of the file.
	Appended bool
}

// NewRewriter returns a Rewriter for the library name published under the
// upstream GitHub org. localPath is the forward-slash path from the
// declaration file's directory to the library checkout, used by Local.
func NewRewriter(name, upstreamOrg, localPath string) *Rewriter {
	n := regexp.QuoteMeta(name)
	return &Rewriter{
		name:      name,
		localPath: localPath,
		canonical: regexp.MustCompile(`^(\s*)(#\s*)?(` + n + `\s*=\s*\{\s*git\s*=\s*"https://github\.com/` +
			regexp.QuoteMeta(upstreamOrg) + `/` + n + `(?:\.git)?"\s*,\s*rev\s*=\s*"[^"]*"\s*\})(\s*)$`),
		override: regexp.MustCompile(`^(\s*)` + n + `\s*[=.]`),
		rev:      regexp.MustCompile(`(rev\s*=\s*")([^"]*)(")`),
		path:     regexp.MustCompile(`\bpath\s*=\s*"([^"]*)"`),
		forkGit:  regexp.MustCompile(`\bgit\s*=\s*"https://github\.com/([^/"]+)/[^"]*"`),
		branch:   regexp.MustCompile(`\bbranch\s*=\s*"([^"]*)"`),
	}
}

// LocalPath computes the path NewRewriter expects: the library root relative
// to the directory of the declaration file, with forward slashes.
func LocalPath(declaration, libraryRoot string) (string, error) {
	rel, err := filepath.Rel(filepath.Dir(declaration), libraryRoot)
	if err != nil {
		return "", errors.Wrapf(err, "cannot express %s relative to %s", libraryRoot, declaration)
	}
	return filepath.ToSlash(rel), nil
}

// Rewrite returns content switched to mode. Lines that are neither the
// canonical line nor an override of the library pass through untouched.
func (r *Rewriter) Rewrite(content []byte, mode Mode) (*Result, error) {
	return r.rewrite(content, mode, "declaration file")
}

// RewriteFile rewrites path in place. The file is only written after the
// whole rewrite succeeded, and only when its content changes.
func (r *Rewriter) RewriteFile(path string, mode Mode) (*Result, error) {
	content, err := os.ReadFile(path) //nolint:gosec // Declaration path is resolved from the host root
	if err != nil {
		return nil, errors.NewTandemError(errors.ErrCodeEnvironment, "failed to read declaration file", err).
			WithContext("path", path)
	}

	res, err := r.rewrite(content, mode, path)
	if err != nil {
		return nil, err
	}

	if res.Changed {
		if err := fs.ReplaceFile(path, res.Content); err != nil {
			return nil, errors.Wrapf(err, "failed to write %s", path)
		}
	}
	return res, nil
}

func (r *Rewriter) rewrite(content []byte, mode Mode, source string) (*Result, error) {
	if err := r.validate(mode); err != nil {
		return nil, err
	}

	lines := splitLines(content)
	canon, err := r.findCanonical(lines, source)
	if err != nil {
		return nil, err
	}

	official, isOfficial := mode.(Official)
	if isOfficial && canon < 0 {
		return nil, errors.ErrCanonicalLineMissing(source, r.name)
	}

	nl := lineEnding(content)
	override := r.overrideLine(mode)

	var out strings.Builder
	placed := false
	for i, line := range lines {
		body, eol := cutEOL(line)

		if i == canon {
			m := r.canonical.FindStringSubmatch(body)
			indent, decl, trailing := m[1], m[3], m[4]

			if isOfficial {
				out.WriteString(indent + r.withRev(decl, official.Rev) + trailing + eol)
				continue
			}

			commentEOL := eol
			if commentEOL == "" {
				commentEOL = nl
			}
			out.WriteString(indent + "#" + decl + trailing + commentEOL)
			out.WriteString(indent + override + eol)
			placed = true
			continue
		}

		if m := r.override.FindStringSubmatch(body); m != nil {
			// Stale override from an earlier switch. With no canonical line
			// the first one marks where the new override goes.
			if canon < 0 && !placed && override != "" {
				out.WriteString(m[1] + override + eol)
				placed = true
			}
			continue
		}

		out.WriteString(line)
	}

	appended := false
	if override != "" && !placed {
		if s := out.String(); s != "" && !strings.HasSuffix(s, "\n") {
			out.WriteString(nl)
		}
		out.WriteString(override + nl)
		appended = true
	}

	result := []byte(out.String())
	if len(content) > 0 && !bytes.HasSuffix(content, []byte("\n")) && bytes.HasSuffix(result, []byte("\n")) {
		result = bytes.TrimSuffix(bytes.TrimSuffix(result, []byte("\n")), []byte("\r"))
	}

	return &Result{
		Content:  result,
		Changed:  !bytes.Equal(result, content),
		Appended: appended,
	}, nil
}

// findCanonical returns the index of the canonical line, or -1. More than one
// canonical line leaves the rewrite ambiguous and is an error.
func (r *Rewriter) findCanonical(lines []string, source string) (int, error) {
	idx, count := -1, 0
	for i, line := range lines {
		body, _ := cutEOL(line)
		if r.canonical.MatchString(body) {
			if idx < 0 {
				idx = i
			}
			count++
		}
	}
	if count > 1 {
		return -1, errors.ErrEnvironmentf("%s has %d official %s dependency lines, expected one", source, count, r.name).
			WithContext("path", source)
	}
	return idx, nil
}

func (r *Rewriter) overrideLine(mode Mode) string {
	switch m := mode.(type) {
	case Local:
		return r.name + ` = { path = "` + r.localPath + `" }`
	case Fork:
		return r.name + ` = { git = "` + github.RepoURL(m.User, r.name) + `", branch = "` + m.Branch + `" }`
	default:
		return ""
	}
}

func (r *Rewriter) withRev(decl, rev string) string {
	if rev == "" {
		return decl
	}
	loc := r.rev.FindStringSubmatchIndex(decl)
	if loc == nil {
		return decl
	}
	return decl[:loc[4]] + rev + decl[loc[5]:]
}

var (
	forkUserRegex = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]*[A-Za-z0-9])?$`)
	unsafeChars   = "\"\\\r\n\t "
)

func (r *Rewriter) validate(mode Mode) error {
	switch m := mode.(type) {
	case Local:
		if r.localPath == "" || strings.ContainsAny(r.localPath, "\"\r\n") {
			return errors.ErrEnvironmentf("invalid local path %q for %s", r.localPath, r.name)
		}
	case Official:
		if strings.ContainsAny(m.Rev, unsafeChars) {
			return errors.ErrEnvironmentf("invalid revision %q", m.Rev)
		}
	case Fork:
		if !forkUserRegex.MatchString(m.User) {
			return errors.ErrEnvironmentf("invalid GitHub user %q", m.User)
		}
		if m.Branch == "" || strings.ContainsAny(m.Branch, unsafeChars) {
			return errors.ErrEnvironmentf("invalid branch name %q", m.Branch)
		}
	case nil:
		return errors.ErrEnvironmentf("no dependency mode given")
	}
	return nil
}

// Detect reports which mode content currently selects.
func (r *Rewriter) Detect(content []byte) (Mode, error) {
	lines := splitLines(content)
	canon, err := r.findCanonical(lines, "declaration file")
	if err != nil {
		return nil, err
	}

	if canon >= 0 {
		body, _ := cutEOL(lines[canon])
		if m := r.canonical.FindStringSubmatch(body); m[2] == "" {
			return Official{Rev: r.rev.FindStringSubmatch(m[3])[2]}, nil
		}
	}

	for _, line := range lines {
		body, _ := cutEOL(line)
		if !r.override.MatchString(body) {
			continue
		}
		if r.path.MatchString(body) {
			return Local{}, nil
		}
		user := r.forkGit.FindStringSubmatch(body)
		branch := r.branch.FindStringSubmatch(body)
		if user != nil && branch != nil {
			return Fork{User: user[1], Branch: branch[1]}, nil
		}
		return nil, errors.ErrEnvironmentf("unrecognized %s dependency line: %s", r.name, strings.TrimSpace(body))
	}

	if canon >= 0 {
		return nil, errors.ErrEnvironmentf("official %s dependency line is commented out and nothing replaces it", r.name)
	}
	return nil, errors.ErrCanonicalLineMissing("declaration file", r.name)
}

// splitLines splits content after each "\n", keeping line endings so the
// lines concatenate back to content.
func splitLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	lines := strings.SplitAfter(string(content), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func cutEOL(line string) (body, eol string) {
	switch {
	case strings.HasSuffix(line, "\r\n"):
		return line[:len(line)-2], "\r\n"
	case strings.HasSuffix(line, "\n"):
		return line[:len(line)-1], "\n"
	default:
		return line, ""
	}
}

func lineEnding(content []byte) string {
	if bytes.Contains(content, []byte("\r\n")) {
		return "\r\n"
	}
	return "\n"
}
