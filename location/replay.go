package location

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ParseTrack reads one "lat,lon" pair per line. Blank lines and lines
// starting with # are skipped.
func ParseTrack(r io.Reader) ([]Fix, error) {
	var fixes []Fix
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			return nil, fmt.Errorf("line %d: want lat,lon", n)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		fix := Fix{Lat: lat, Lon: lon}
		if err := fix.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		fixes = append(fixes, fix)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return fixes, nil
}

// Replay pushes fixes one per interval until the track ends or ctx is done.
func Replay(ctx context.Context, fixes []Fix, interval time.Duration, push func(Fix)) error {
	ticker := time.NewTicker(max(interval, time.Millisecond))
	defer ticker.Stop()
	for i, fix := range fixes {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
		fix.At = time.Now()
		push(fix)
	}
	return nil
}
