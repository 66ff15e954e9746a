package feature

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Feature table layout, one block per sequence:
//
//	>Feature ref|NC_045512.2|
//	266	21555	gene
//				gene	ORF1ab
//	266	13483	CDS
//				product	ORF1a polyprotein
//				note	pp1a
//
// Coordinate lines open a feature; a gene or product qualifier names it.
const (
	blockPrefix      = ">Feature"
	qualifierProduct = "product"
	qualifierGene    = "gene"
	qualifierNote    = "note"

	// unnamedFrameShift names a frame-shift segment whose block ended
	// before any gene or product qualifier.
	unnamedFrameShift = "frame_shift"
)

// pendingState tracks whether the open feature still waits for its name.
type pendingState int

const (
	// stateComplete: no open feature, or the open feature has been emitted.
	stateComplete pendingState = iota
	// stateAwaitingQualifier: a coordinate line was read, no name yet.
	stateAwaitingQualifier
)

// pending is the feature opened by the last coordinate line.
type pending struct {
	index     int
	start     int64
	end       int64
	kindToken string
	malformed bool // coordinates did not parse
	line      int
}

// Parser extracts feature records from feature-table text.
type Parser struct {
	logger *zap.Logger

	state   pendingState
	pending pending
	index   int
	records []Record
	// unnamed holds the positions in records of frame-shift segments
	// waiting for the next name qualifier of their block.
	unnamed []int
}

// NewParser creates a feature-table parser.
func NewParser() *Parser {
	return &Parser{logger: zap.NewNop()}
}

// SetLogger sets the logger for debug messages about skipped lines.
func (p *Parser) SetLogger(l *zap.Logger) {
	p.logger = l
}

// ParseString parses feature-table text.
func (p *Parser) ParseString(s string) ([]Record, error) {
	return p.Parse(strings.NewReader(s))
}

// Parse reads a whole feature table and returns its records in file order.
// Records carry the 0-based index of their ">Feature" block.
func (p *Parser) Parse(r io.Reader) ([]Record, error) {
	p.state = stateComplete
	p.pending = pending{}
	p.index = -1
	p.records = nil
	p.unnamed = nil

	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		p.parseLine(scanner.Text(), lineNum)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan feature table: %w", err)
	}

	// A feature left open at the end of input never got its qualifier.
	if p.state == stateAwaitingQualifier {
		p.flushFrameShift()
	}
	p.nameUnnamed(unnamedFrameShift)

	return p.records, nil
}

func (p *Parser) parseLine(line string, lineNum int) {
	if strings.HasPrefix(line, blockPrefix) {
		if p.state == stateAwaitingQualifier {
			p.flushFrameShift()
		}
		p.nameUnnamed(unnamedFrameShift)
		p.index++
		return
	}

	tokens := tokenize(line)
	if len(tokens) == 0 {
		return
	}

	switch tokens[0] {
	case qualifierProduct, qualifierGene:
		p.complete(strings.Join(tokens[1:], "_"), lineNum)
	case qualifierNote:
	default:
		if p.state == stateAwaitingQualifier {
			p.flushFrameShift()
		}
		p.open(tokens, lineNum)
	}
}

// open starts a new pending feature from a coordinate line.
func (p *Parser) open(tokens []string, lineNum int) {
	p.pending = pending{index: p.index, line: lineNum}
	p.state = stateAwaitingQualifier

	if len(tokens) < 2 {
		p.pending.malformed = true
		return
	}
	start, err1 := strconv.ParseInt(tokens[0], 10, 64)
	end, err2 := strconv.ParseInt(tokens[1], 10, 64)
	if err1 != nil || err2 != nil {
		p.pending.malformed = true
		return
	}
	p.pending.start, p.pending.end = start, end
	if len(tokens) > 2 {
		p.pending.kindToken = tokens[2]
	}
}

// complete names the pending feature and emits it.
func (p *Parser) complete(name string, lineNum int) {
	if p.state != stateAwaitingQualifier {
		p.logger.Debug("qualifier without open feature ignored",
			zap.Int("line", lineNum), zap.String("name", name))
		return
	}
	p.state = stateComplete
	p.nameUnnamed(name)

	if p.pending.malformed {
		p.dropMalformed()
		return
	}

	rec := p.baseRecord()
	rec.Name = name
	switch p.pending.kindToken {
	case string(KindGene):
		rec.Kind = KindGene
	case string(KindCDS):
		rec.Kind = KindCDS
	default:
		rec.Kind = KindCDSFrameShift
		rec.ExtraKind = p.pending.kindToken
	}
	p.records = append(p.records, rec)
}

// flushFrameShift emits a pending feature whose qualifier never arrived.
// A coding segment is marked FrameShift and kept as CDS, whatever its kind
// token; it takes the name of the next qualifier in its block.
func (p *Parser) flushFrameShift() {
	p.state = stateComplete

	if p.pending.malformed {
		p.dropMalformed()
		return
	}

	rec := p.baseRecord()
	if p.pending.kindToken == string(KindGene) {
		// Gene rows are not used downstream and never carry the marker.
		rec.Kind = KindGene
		p.records = append(p.records, rec)
		return
	}

	rec.Kind = KindCDS
	rec.FrameShift = true
	if p.pending.kindToken != string(KindCDS) {
		rec.ExtraKind = p.pending.kindToken
	}
	p.unnamed = append(p.unnamed, len(p.records))
	p.records = append(p.records, rec)
}

// nameUnnamed gives every waiting frame-shift segment the given name.
func (p *Parser) nameUnnamed(name string) {
	for _, i := range p.unnamed {
		p.records[i].Name = name
	}
	p.unnamed = p.unnamed[:0]
}

func (p *Parser) dropMalformed() {
	p.logger.Debug("line is neither a coordinate line nor a known qualifier",
		zap.Int("line", p.pending.line))
}

func (p *Parser) baseRecord() Record {
	return Record{
		SourceIndex: p.pending.index,
		Start:       p.pending.start,
		End:         p.pending.end,
	}
}

var partialMarkers = strings.NewReplacer("<", "", ">", "")

// tokenize splits a line on whitespace and strips the '<' and '>' partial
// markers from every token.
func tokenize(line string) []string {
	fields := strings.Fields(line)
	tokens := fields[:0]
	for _, f := range fields {
		f = partialMarkers.Replace(f)
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
