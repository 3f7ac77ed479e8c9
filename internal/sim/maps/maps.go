// Package maps turns textual layouts into static map geography.
//
// Symbols: '@' wall, 'A' resource site, 'P' spawn site, ' ' empty.
// Every row must have the same width.
package maps

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"commons.ai/internal/sim/world/kernel/model"
)

var ErrBadLayout = errors.New("maps: bad layout")

// Map is a parsed layout plus a digest of its source rows.
type Map struct {
	Layout model.Layout
	Rows   []string
	Digest string
}

// Default is the stock harvest map.
var Default = []string{
	"@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@",
	"@ P   P      A    P AAAAA    P  A P  @",
	"@  P     A P AA    P    AAA    A  A  @",
	"@     A AAA  AAA    A    A AA AAAA   @",
	"@ A  AAA A    A  A AAA  A  A   A A   @",
	"@AAA  A A    A  AAA A  AAA        A P@",
	"@ A A  AAA  AAA  A A    A AA   AA AA @",
	"@  A A  AAA    A A  AAA    AAA  A    @",
	"@   AAA  A      AAA  A    AAAA       @",
	"@ P  A       A  A AAA    A  A      P @",
	"@A  AAA  A  A  AAA A    AAAA     P   @",
	"@    A A   AAA  A  A      A AA   A  P@",
	"@     AAA   A A  AAA      AA   AAA P @",
	"@ A     A     AAA  A  P          A   @",
	"@       P     A         P  P P     P @",
	"@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@",
}

// Parse builds a Map from rows. Site lists come out in row-major order.
func Parse(rows []string) (Map, error) {
	if len(rows) == 0 {
		return Map{}, fmt.Errorf("%w: no rows", ErrBadLayout)
	}
	width := len(rows[0])
	if width == 0 {
		return Map{}, fmt.Errorf("%w: empty first row", ErrBadLayout)
	}
	l := model.Layout{Width: width, Height: len(rows)}
	for r, line := range rows {
		if len(line) != width {
			return Map{}, fmt.Errorf("%w: row %d has width %d, want %d", ErrBadLayout, r, len(line), width)
		}
		for c := 0; c < len(line); c++ {
			p := model.Pos{Row: r, Col: c}
			switch line[c] {
			case '@':
				l.Walls = append(l.Walls, p)
			case 'A':
				l.ResourceSites = append(l.ResourceSites, p)
			case 'P':
				l.SpawnSites = append(l.SpawnSites, p)
			case ' ':
			default:
				return Map{}, fmt.Errorf("%w: unknown symbol %q at %s", ErrBadLayout, line[c], p)
			}
		}
	}

	h := sha256.New()
	for _, line := range rows {
		h.Write([]byte(line))
		h.Write([]byte{'\n'})
	}
	return Map{
		Layout: l,
		Rows:   append([]string(nil), rows...),
		Digest: hex.EncodeToString(h.Sum(nil)),
	}, nil
}

// ParseText splits text into lines and parses them. A trailing newline and
// '\r' line endings are tolerated.
func ParseText(text []byte) (Map, error) {
	var rows []string
	sc := bufio.NewScanner(bytes.NewReader(text))
	for sc.Scan() {
		rows = append(rows, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return Map{}, err
	}
	for len(rows) > 0 && rows[len(rows)-1] == "" {
		rows = rows[:len(rows)-1]
	}
	return Parse(rows)
}

// Load reads a layout file. An empty path yields Default.
func Load(path string) (Map, error) {
	if path == "" {
		return Parse(Default)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Map{}, err
	}
	m, err := ParseText(raw)
	if err != nil {
		return Map{}, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
