package shapefile

import (
	"fmt"
	"os"
	"strings"

	"github.com/fixkaro/map-data-converter/internal/types"
)

// =============================================================================
// PROJECTION FILE (.prj)
// =============================================================================

// ReadPRJ reads and inspects the WKT in a .prj file. A missing file is not an
// error: it returns a nil CRS.
func ReadPRJ(path string) (*types.CRS, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read projection file: %w", err)
	}

	wkt := strings.TrimSpace(strings.TrimPrefix(string(data), "\ufeff"))
	if wkt == "" {
		return nil, nil
	}

	return InspectWKT(wkt)
}

// InspectWKT extracts the root kind, name, datum and authority of a WKT1 or
// WKT2 coordinate system definition. The definition itself is kept verbatim
// for PROJ; only enough of it is parsed to decide whether a transform is
// needed and to log something readable.
func InspectWKT(wkt string) (*types.CRS, error) {
	p := &wktParser{src: wkt}
	root, err := p.parseNode()
	if err != nil {
		return nil, fmt.Errorf("invalid WKT in projection file: %w", err)
	}

	crs := &types.CRS{
		Definition: wkt,
		Kind:       wktKind(root.keyword),
		Name:       root.name(),
	}

	if datum := root.find("DATUM", "GEODETICDATUM", "TRF"); datum != nil {
		crs.Datum = datum.name()
	}

	// Only the authority attached directly to the root identifies the
	// whole system; nested ones belong to the datum, unit, etc.
	for _, child := range root.children {
		switch strings.ToUpper(child.keyword) {
		case "AUTHORITY", "ID":
			if len(child.values) >= 2 {
				crs.Authority = strings.ToUpper(child.values[0]) + ":" + child.values[1]
			}
		}
	}

	return crs, nil
}

func wktKind(keyword string) types.CRSKind {
	switch strings.ToUpper(keyword) {
	case "GEOGCS", "GEOGCRS", "GEODCRS", "GEODETICCRS", "GEOGRAPHICCRS":
		return types.CRSGeographic
	case "PROJCS", "PROJCRS", "PROJECTEDCRS":
		return types.CRSProjected
	default:
		return types.CRSUnknown
	}
}

// =============================================================================
// MINIMAL WKT PARSER
// =============================================================================

type wktNode struct {
	keyword  string
	values   []string
	children []*wktNode
}

func (n *wktNode) name() string {
	if len(n.values) == 0 {
		return ""
	}
	return n.values[0]
}

// find returns the first descendant (depth-first) with one of the keywords.
func (n *wktNode) find(keywords ...string) *wktNode {
	for _, child := range n.children {
		for _, kw := range keywords {
			if strings.EqualFold(child.keyword, kw) {
				return child
			}
		}
		if found := child.find(keywords...); found != nil {
			return found
		}
	}
	return nil
}

type wktParser struct {
	src string
	pos int
}

func (p *wktParser) skipSpace() {
	for p.pos < len(p.src) && strings.ContainsRune(" \t\r\n", rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *wktParser) parseNode() (*wktNode, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && isKeywordByte(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return nil, fmt.Errorf("expected keyword at offset %d", p.pos)
	}
	node := &wktNode{keyword: p.src[start:p.pos]}

	p.skipSpace()
	if p.pos >= len(p.src) || (p.src[p.pos] != '[' && p.src[p.pos] != '(') {
		// Bare keyword such as an axis direction.
		return node, nil
	}
	closer := byte(']')
	if p.src[p.pos] == '(' {
		closer = ')'
	}
	p.pos++

	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, fmt.Errorf("unterminated %s node", node.keyword)
		}

		switch c := p.src[p.pos]; {
		case c == closer:
			p.pos++
			return node, nil
		case c == ',':
			p.pos++
		case c == '"':
			s, err := p.parseString()
			if err != nil {
				return nil, err
			}
			node.values = append(node.values, s)
		case isKeywordByte(c) && !isNumberByte(c):
			child, err := p.parseNode()
			if err != nil {
				return nil, err
			}
			if len(child.children) == 0 && len(child.values) == 0 {
				node.values = append(node.values, child.keyword)
			} else {
				node.children = append(node.children, child)
			}
		default:
			start := p.pos
			for p.pos < len(p.src) && p.src[p.pos] != ',' && p.src[p.pos] != closer {
				p.pos++
			}
			node.values = append(node.values, strings.TrimSpace(p.src[start:p.pos]))
		}
	}
}

func (p *wktParser) parseString() (string, error) {
	p.pos++ // opening quote
	var sb strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		p.pos++
		if c != '"' {
			sb.WriteByte(c)
			continue
		}
		// A doubled quote is an escaped quote.
		if p.pos < len(p.src) && p.src[p.pos] == '"' {
			sb.WriteByte('"')
			p.pos++
			continue
		}
		return sb.String(), nil
	}
	return "", fmt.Errorf("unterminated string")
}

func isKeywordByte(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

func isNumberByte(c byte) bool {
	return c >= '0' && c <= '9'
}
