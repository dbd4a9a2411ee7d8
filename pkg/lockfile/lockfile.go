// Package lockfile reads pinned requirement files produced by
// "uv pip compile" and "pip-compile" and checks them against the ranges
// declared in the manifest.
package lockfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/matzehuels/groupsync/pkg/errors"
	"github.com/matzehuels/groupsync/pkg/manifest"
	"github.com/matzehuels/groupsync/pkg/version"
)

var (
	pinRE     = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)(\[[^\]]*\])?\s*===?\s*([^\s;\\]+)\s*(?:;\s*(.+))?$`)
	commandRE = regexp.MustCompile(`^#\s+((?:uv\s+)?pip[-\s]compile\b.*)$`)
)

// Pin is one fully pinned package in a lockfile.
type Pin struct {
	Name    string          // PEP 503 normalised name
	Version string          // Pinned version as written
	Parsed  version.Version // Zero when Version is not PEP 440
	Marker  string          // Environment marker, if any
	Via     []string        // Provenance from "# via" comments
	Hashes  []string        // --hash values
	Line    int             // 1-based line of the pin
}

// Lockfile is a parsed set of pins in file order.
type Lockfile struct {
	Path    string
	Command string // Generating command from the header, if recorded
	Pins    []Pin
	index   map[string]int
}

// Load reads and parses the lockfile at path.
func Load(path string) (*Lockfile, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "lockfile %s", path)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lf, err := Parse(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidLockfile, err, "parse %s", path)
	}
	lf.Path = path
	return lf, nil
}

// Parse reads lockfile content. Option lines (-e, -r, --index-url) and
// unpinned requirements are skipped; provenance comments attach to the
// preceding pin; backslash continuations are joined.
func Parse(r io.Reader) (*Lockfile, error) {
	lf := &Lockfile{index: make(map[string]int)}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		lineNo  int
		start   int
		pending strings.Builder
		inVia   bool
	)

	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		line := strings.TrimSpace(raw)

		if pending.Len() == 0 {
			start = lineNo
		}
		if strings.HasSuffix(line, "\\") {
			pending.WriteString(strings.TrimSuffix(line, "\\"))
			pending.WriteByte(' ')
			continue
		}
		if pending.Len() > 0 {
			pending.WriteString(line)
			line = strings.TrimSpace(pending.String())
			pending.Reset()
		}

		switch {
		case line == "":
			inVia = false
		case strings.HasPrefix(line, "#"):
			inVia = lf.comment(line, inVia)
		case strings.HasPrefix(line, "-"):
			lf.hashes(line)
		default:
			inVia = false
			if err := lf.pin(line, start); err != nil {
				return nil, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lf, nil
}

func (lf *Lockfile) comment(line string, inVia bool) bool {
	if lf.Command == "" {
		if m := commandRE.FindStringSubmatch(line); m != nil {
			lf.Command = strings.TrimSpace(m[1])
			return false
		}
	}
	text := strings.TrimSpace(strings.TrimPrefix(line, "#"))
	last := lf.last()
	switch {
	case last == nil:
		return false
	case text == "via":
		return true
	case strings.HasPrefix(text, "via "):
		last.Via = append(last.Via, strings.TrimSpace(strings.TrimPrefix(text, "via ")))
		return false
	case inVia && text != "":
		last.Via = append(last.Via, text)
		return true
	}
	return false
}

func (lf *Lockfile) hashes(line string) {
	last := lf.last()
	if last == nil {
		return
	}
	for _, f := range strings.Fields(line) {
		if h, ok := strings.CutPrefix(f, "--hash="); ok {
			last.Hashes = append(last.Hashes, h)
		}
	}
}

func (lf *Lockfile) pin(line string, lineNo int) error {
	req, opts, _ := strings.Cut(line, " --")
	m := pinRE.FindStringSubmatch(strings.TrimSpace(req))
	if m == nil {
		// Unpinned or URL requirement: not part of the pinned set.
		return nil
	}
	p := Pin{
		Name:    manifest.Normalize(m[1]),
		Version: m[3],
		Marker:  strings.TrimSpace(m[4]),
		Line:    lineNo,
	}
	if v, err := version.Parse(p.Version); err == nil {
		p.Parsed = v
	}
	if _, dup := lf.index[p.Name]; dup && p.Marker == "" {
		return fmt.Errorf("line %d: %s pinned twice", lineNo, p.Name)
	}
	lf.Pins = append(lf.Pins, p)
	if _, dup := lf.index[p.Name]; !dup {
		lf.index[p.Name] = len(lf.Pins) - 1
	}
	if opts != "" {
		lf.hashes("--" + opts)
	}
	return nil
}

func (lf *Lockfile) last() *Pin {
	if len(lf.Pins) == 0 {
		return nil
	}
	return &lf.Pins[len(lf.Pins)-1]
}

// Pin returns the first pin for name (normalised before lookup).
func (lf *Lockfile) Pin(name string) (Pin, bool) {
	i, ok := lf.index[manifest.Normalize(name)]
	if !ok {
		return Pin{}, false
	}
	return lf.Pins[i], true
}

// Len returns the number of pins.
func (lf *Lockfile) Len() int { return len(lf.Pins) }
