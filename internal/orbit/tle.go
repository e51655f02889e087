package orbit

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// tleLineLength is the length of a NORAD element line including the checksum digit
const tleLineLength = 69

var (
	// ErrTLENotFound is returned when the requested satellite name is not present in the TLE file
	ErrTLENotFound = errors.New("satellite not found")

	// ErrInvalidTLE is returned when the lines following the satellite name are not element lines
	ErrInvalidTLE = errors.New("invalid two-line element set")
)

// TLE is a named two-line element set
type TLE struct {
	Name  string
	Line1 string
	Line2 string
}

// FindTLE looks up the element set of the satellite called name in a three-line TLE file:
// a line equal to the name (surrounding whitespace ignored) followed by the two element lines.
func FindTLE(name, path string) (TLE, error) {
	f, err := os.Open(path)
	if err != nil {
		return TLE{}, fmt.Errorf("could not open file %s: %w", path, err)
	}
	defer f.Close()

	tle, err := ReadTLE(name, f)
	if err != nil {
		return TLE{}, fmt.Errorf("%s: %w", path, err)
	}

	return tle, nil
}

// ReadTLE is FindTLE over an already opened reader
func ReadTLE(name string, r io.Reader) (TLE, error) {
	name = strings.TrimSpace(name)
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != name {
			continue
		}

		tle := TLE{Name: name}
		if scanner.Scan() {
			tle.Line1 = strings.TrimSpace(scanner.Text())
		}
		if scanner.Scan() {
			tle.Line2 = strings.TrimSpace(scanner.Text())
		}

		if err := tle.Validate(); err != nil {
			return TLE{}, err
		}
		return tle, nil
	}

	if err := scanner.Err(); err != nil {
		return TLE{}, fmt.Errorf("reading TLE: %w", err)
	}

	return TLE{}, fmt.Errorf("%w: %s", ErrTLENotFound, name)
}

// Validate checks line numbers, lengths, checksums and that both lines describe the same object
func (t TLE) Validate() error {
	for i, line := range []string{t.Line1, t.Line2} {
		n := i + 1

		if len(line) != tleLineLength {
			return fmt.Errorf("%w: %s: line %d is %d characters long, want %d", ErrInvalidTLE, t.Name, n, len(line), tleLineLength)
		}
		if line[0] != byte('0'+n) || line[1] != ' ' {
			return fmt.Errorf("%w: %s: line %d does not start with %q", ErrInvalidTLE, t.Name, n, fmt.Sprintf("%d ", n))
		}
		if sum := checksum(line); int(line[tleLineLength-1]-'0') != sum {
			return fmt.Errorf("%w: %s: line %d checksum mismatch, computed %d", ErrInvalidTLE, t.Name, n, sum)
		}
	}

	if t.CatalogNumber() != strings.TrimSpace(t.Line2[2:7]) {
		return fmt.Errorf("%w: %s: catalog numbers differ between lines", ErrInvalidTLE, t.Name)
	}

	return nil
}

// CatalogNumber returns the NORAD catalog number from line 1
func (t TLE) CatalogNumber() string {
	if len(t.Line1) < 7 {
		return ""
	}
	return strings.TrimSpace(t.Line1[2:7])
}

func (t TLE) String() string {
	return fmt.Sprintf("%s\n%s\n%s", t.Name, t.Line1, t.Line2)
}

// checksum is the modulo 10 sum of all digits on the line, each minus sign counting as 1
func checksum(line string) int {
	sum := 0
	for _, c := range line[:tleLineLength-1] {
		switch {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	return sum % 10
}
