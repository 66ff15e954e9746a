package vcf

import (
	"fmt"
	"strconv"
	"strings"
)

// UnrecognizedRecordError reports a data line that does not have the shape
// a conversion expects. The line is dropped from the output.
type UnrecognizedRecordError struct {
	Line   int // 1-based position among the data lines or input rows
	Record string
	Reason string
}

func (e *UnrecognizedRecordError) Error() string {
	return fmt.Sprintf("unrecognized record at line %d: %s", e.Line, e.Reason)
}

// RepairStats counts what RepairAlleleDepth did with the data lines.
type RepairStats struct {
	Repaired          int
	AlreadyNormalized int
	Dropped           int
}

// RepairAlleleDepth rewrites the single-value sample AD of every data line
// into the "ref,alt" pair, with ref = DP - AD. An AD that already holds two
// values is left unchanged, so repairing repaired output is a no-op that
// shows up in RepairStats.AlreadyNormalized. Lines that are not
// single-sample records with integer DP and AD are dropped and returned as
// *UnrecognizedRecordError.
func RepairAlleleDepth(c *Container) (*Container, RepairStats, []error) {
	var (
		stats RepairStats
		errs  []error
	)
	out := &Container{
		Header:  append([]string(nil), c.Header...),
		Records: make([]string, 0, len(c.Records)),
	}

	for i, line := range c.Records {
		repaired, normalized, err := repairLine(line)
		if err != nil {
			stats.Dropped++
			errs = append(errs, &UnrecognizedRecordError{Line: i + 1, Record: line, Reason: err.Error()})
			continue
		}
		if normalized {
			stats.AlreadyNormalized++
		} else {
			stats.Repaired++
		}
		out.Records = append(out.Records, repaired)
	}
	return out, stats, errs
}

func repairLine(line string) (string, bool, error) {
	v, err := ParseVariant(line)
	if err != nil {
		return "", false, err
	}

	dpValue, ok := v.SampleValue("DP")
	if !ok {
		return "", false, fmt.Errorf("no DP sample value")
	}
	adValue, ok := v.SampleValue("AD")
	if !ok {
		return "", false, fmt.Errorf("no AD sample value")
	}
	if strings.Contains(adValue, ",") {
		return line, true, nil
	}

	dp, err := strconv.Atoi(dpValue)
	if err != nil {
		return "", false, fmt.Errorf("invalid DP: %s", dpValue)
	}
	ad, err := strconv.Atoi(adValue)
	if err != nil {
		return "", false, fmt.Errorf("invalid AD: %s", adValue)
	}
	if ad > dp {
		return "", false, fmt.Errorf("AD %d exceeds DP %d", ad, dp)
	}

	fixed, err := v.WithSampleValue("AD", fmt.Sprintf("%d,%d", dp-ad, ad))
	if err != nil {
		return "", false, err
	}
	return fixed.String(), false, nil
}
