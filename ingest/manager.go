package ingest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Registry names accepted by --type, besides TypeAuto
const (
	TypeSysmon  = "sysmon"
	TypeWindows = "windows"
	TypeWeb     = "web"
	TypeSyslog  = "syslog"
	TypeAuto    = "auto"
)

// DefaultExtensions are the file patterns collected from an input directory
var DefaultExtensions = []string{"*.log", "*.txt", "*.json", "*.csv", "*.xml"}

// sniffLimit bounds how much of a file is read to find its first line
const sniffLimit = 64 * 1024

var syslogPriorityPattern = regexp.MustCompile(`^<\d{1,3}>`)

// Registry holds one parser per type name
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates a Registry with every built-in parser
func NewRegistry(opts Options) *Registry {
	opts = opts.withDefaults()
	return &Registry{
		parsers: map[string]Parser{
			TypeSysmon:  NewSysmonParser(opts),
			TypeWindows: NewWindowsEventParser(opts),
			TypeWeb:     NewWebParser(opts),
			TypeSyslog:  NewSyslogParser(opts),
		},
	}
}

// Register adds p under name, replacing any parser already registered there
func (r *Registry) Register(name string, p Parser) {
	r.parsers[name] = p
}

// Names returns the registered type names, sorted
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.parsers))
	for name := range r.parsers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the parser registered under name
func (r *Registry) Get(name string) (Parser, error) {
	p, ok := r.parsers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSourceKind, name)
	}
	return p, nil
}

// ForFile resolves the parser for path. With TypeAuto the first non-blank
// line of the file is sniffed.
func (r *Registry) ForFile(path, typeName string) (Parser, error) {
	if typeName != TypeAuto {
		return r.Get(typeName)
	}

	line, err := FirstLine(path)
	if err != nil {
		return nil, err
	}
	name, ok := Detect(line)
	if !ok {
		return nil, fmt.Errorf("%w: could not detect the format of %s", ErrUnknownSourceKind, path)
	}
	return r.Get(name)
}

// Detect guesses the type name from a sample line. Checks run in a fixed
// order and the first hit wins.
func Detect(line string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(line))
	if s == "" {
		return "", false
	}

	switch {
	case strings.Contains(s, "sysmon") || isSysmonHeader(s):
		return TypeSysmon, true
	case strings.Contains(s, "eventlog") || strings.Contains(s, "<event"):
		return TypeWindows, true
	case syslogPriorityPattern.MatchString(s):
		return TypeSyslog, true
	case strings.Contains(s, "http") || strings.Contains(s, "get ") || strings.Contains(s, "post "):
		return TypeWeb, true
	}
	return "", false
}

// isSysmonHeader recognizes the header row of a Sysmon CSV export
func isSysmonHeader(lower string) bool {
	columns := make(map[string]bool)
	for _, c := range strings.Split(lower, ",") {
		columns[strings.Trim(strings.TrimSpace(c), `"`)] = true
	}
	return columns["utctime"] || (columns["eventid"] && columns["image"])
}

func isXMLDeclaration(line string) bool {
	return strings.HasPrefix(line, "<?xml") && strings.HasSuffix(line, "?>")
}

// FirstLine returns the first non-blank line of a file, skipping a standalone
// XML declaration. A line longer than sniffLimit is returned truncated to its
// prefix. An empty file yields ErrEmptyInput.
func FirstLine(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := bufio.NewReaderSize(f, sniffLimit)
	sawContent := false
	for {
		chunk, truncated, err := reader.ReadLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		sawContent = true

		line := strings.TrimPrefix(string(chunk), "\ufeff")
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && !isXMLDeclaration(trimmed) {
			return line, nil
		}
		if truncated {
			if err := discardLine(reader); err != nil {
				return "", fmt.Errorf("failed to read %s: %w", path, err)
			}
		}
	}
	if !sawContent {
		return "", fmt.Errorf("%s: %w", path, ErrEmptyInput)
	}
	return "", nil
}

// discardLine consumes the rest of a line whose prefix was already read
func discardLine(reader *bufio.Reader) error {
	for {
		_, more, err := reader.ReadLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// ResolveInputs lists the files to process: explicit files first, in the given
// order, then the files in dir matching exts, one pattern at a time in sorted
// order. The directory is not searched recursively and duplicates are dropped.
func ResolveInputs(files []string, dir string, exts []string) ([]string, error) {
	seen := make(map[string]bool)
	var inputs []string
	add := func(path string) {
		key := filepath.Clean(path)
		if seen[key] {
			return
		}
		seen[key] = true
		inputs = append(inputs, path)
	}

	for _, f := range files {
		if f != "" {
			add(f)
		}
	}

	if dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to read input directory: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("input directory %s is not a directory", dir)
		}
		if len(exts) == 0 {
			exts = DefaultExtensions
		}
		for _, ext := range exts {
			matches, err := filepath.Glob(filepath.Join(dir, ext))
			if err != nil {
				return nil, fmt.Errorf("invalid extension pattern %q: %w", ext, err)
			}
			sort.Strings(matches)
			for _, m := range matches {
				if fi, err := os.Stat(m); err == nil && fi.Mode().IsRegular() {
					add(m)
				}
			}
		}
	}
	return inputs, nil
}
