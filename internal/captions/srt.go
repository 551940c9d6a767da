package captions

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Export serializes cues as SRT: a 1-based sequence number, a timing line,
// the cue text, and a terminating blank line per block. Export is a pure
// formatting step; parsing the output and exporting again reproduces it
// byte-for-byte.
func Export(cues []Cue) string {
	var sb strings.Builder
	for i, cue := range cues {
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteByte('\n')
		sb.WriteString(FormatTimestamp(cue.Start))
		sb.WriteString(" --> ")
		sb.WriteString(FormatTimestamp(cue.End))
		sb.WriteByte('\n')
		sb.WriteString(cue.Text())
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// Parse reads SRT text back into cues. Word-level detail is not recoverable
// from the format, so parsed cues carry timing and lines only.
func Parse(content string) ([]Cue, error) {
	trimmed := strings.TrimSpace(strings.ReplaceAll(content, "\r\n", "\n"))
	if trimmed == "" {
		return nil, nil
	}

	var cues []Cue
	for _, block := range strings.Split(trimmed, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		if len(lines) < 3 {
			return nil, fmt.Errorf("parse srt: malformed block %q", block)
		}
		if _, err := strconv.Atoi(strings.TrimSpace(lines[0])); err != nil {
			return nil, fmt.Errorf("parse srt: sequence number %q: %w", lines[0], err)
		}
		parts := strings.Split(lines[1], "-->")
		if len(parts) != 2 {
			return nil, fmt.Errorf("parse srt: timing line %q", lines[1])
		}
		start, err := ParseTimestamp(parts[0])
		if err != nil {
			return nil, fmt.Errorf("parse srt: %w", err)
		}
		end, err := ParseTimestamp(parts[1])
		if err != nil {
			return nil, fmt.Errorf("parse srt: %w", err)
		}
		cues = append(cues, Cue{Start: start, End: end, Lines: lines[2:]})
	}
	return cues, nil
}

// FormatTimestamp renders seconds as a zero-padded SRT timestamp
// (HH:MM:SS,mmm). Values are rounded to the nearest millisecond.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMillis := int64(math.Round(seconds * 1000))
	hours := totalMillis / 3_600_000
	minutes := totalMillis % 3_600_000 / 60_000
	secs := totalMillis % 60_000 / 1000
	millis := totalMillis % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// ParseTimestamp reads an SRT timestamp back into seconds. A period is
// accepted in place of the standard comma.
func ParseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}
