package db

import "strings"

// MigrationSection returns the statements between "-- +migrate <name>" and
// the next marker.
func MigrationSection(content, name string) string {
	var b strings.Builder
	inside := false
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "-- +migrate") {
			if inside {
				break
			}
			inside = trimmed == "-- +migrate "+name
			continue
		}
		if inside {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
