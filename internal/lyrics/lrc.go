package lyrics

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/cadence/internal/domain"
)

var (
	timeTag   = regexp.MustCompile(`^\[(\d{1,3}):(\d{1,2})(?:[.:](\d{1,3}))?\]`)
	offsetTag = regexp.MustCompile(`^\[offset:\s*([+-]?\d+)\s*\]$`)
	metaTag   = regexp.MustCompile(`^\[[a-zA-Z]+:.*\]$`)
)

// Parse reads LRC text. Lines carrying time tags become synchronized
// segments (a line may carry several tags); [offset:ms] shifts every
// stamp earlier by ms. Text without any time tag is returned as plain
// lyrics.
func Parse(text string) domain.Lyrics {
	var (
		segments []domain.LyricSegment
		plain    []string
		offset   time.Duration
	)

	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if m := offsetTag.FindStringSubmatch(line); m != nil {
			ms, _ := strconv.Atoi(m[1])
			offset = time.Duration(ms) * time.Millisecond
			continue
		}

		stamps, rest := splitTimeTags(line)
		if len(stamps) == 0 {
			if metaTag.MatchString(line) {
				continue
			}
			plain = append(plain, line)
			continue
		}
		for _, at := range stamps {
			segments = append(segments, domain.LyricSegment{Offset: at, Text: rest})
		}
	}

	if len(segments) == 0 {
		return domain.Lyrics{Kind: domain.LyricsPlain, Plain: strings.TrimSpace(strings.Join(plain, "\n"))}
	}

	for i := range segments {
		segments[i].Offset -= offset
		if segments[i].Offset < 0 {
			segments[i].Offset = 0
		}
	}
	return domain.Lyrics{Kind: domain.LyricsSynced, Segments: Sorted(segments)}
}

// splitTimeTags strips leading [mm:ss.xx] tags and returns their offsets
// and the remaining text.
func splitTimeTags(line string) ([]time.Duration, string) {
	var stamps []time.Duration
	for {
		m := timeTag.FindStringSubmatchIndex(line)
		if m == nil {
			break
		}
		mins, _ := strconv.Atoi(line[m[2]:m[3]])
		secs, _ := strconv.Atoi(line[m[4]:m[5]])
		at := time.Duration(mins)*time.Minute + time.Duration(secs)*time.Second
		if m[6] >= 0 {
			at += fraction(line[m[6]:m[7]])
		}
		stamps = append(stamps, at)
		line = line[m[1]:]
	}
	return stamps, strings.TrimSpace(line)
}

// fraction converts "5", "50" or "500" after the seconds separator into a
// duration (tenths, hundredths, thousandths).
func fraction(digits string) time.Duration {
	n, _ := strconv.Atoi(digits)
	switch len(digits) {
	case 1:
		return time.Duration(n) * 100 * time.Millisecond
	case 2:
		return time.Duration(n) * 10 * time.Millisecond
	default:
		return time.Duration(n) * time.Millisecond
	}
}

// Plain renders synchronized lyrics as plain text, one segment per line
func Plain(l domain.Lyrics) string {
	if l.Kind == domain.LyricsPlain {
		return l.Plain
	}
	lines := make([]string, len(l.Segments))
	for i, s := range l.Segments {
		lines[i] = s.Text
	}
	return strings.Join(lines, "\n")
}
