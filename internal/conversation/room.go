package conversation

import (
	"fmt"
	"strconv"
	"strings"
)

const maxRoomLen = 10

// Main-room ranges per corpus.
var roomRanges = map[string][2]int{
	"1": {101, 543},
	"2": {1101, 1644},
}

// Sub-room (cabinet) numbers embedded after the main number must fall in
// this range.
const (
	subRoomMin = 1
	subRoomMax = 13
)

// ValidateRoom checks a room reply against the rules for the chosen corpus.
// It returns the trimmed room string, or ok=false with a specific
// re-prompt message.
func ValidateRoom(corpus, raw string) (room string, ok bool, msg string) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > maxRoomLen {
		return "", false, fmt.Sprintf("Room number must be 1-%d characters and start with the room digits.", maxRoomLen)
	}

	digits := 0
	for digits < len(raw) && raw[digits] >= '0' && raw[digits] <= '9' {
		digits++
	}
	if digits == 0 {
		return "", false, "Room number must start with digits, e.g. 205 or 1203A."
	}

	main, err := strconv.Atoi(raw[:digits])
	if err != nil {
		return "", false, "Room number must start with digits, e.g. 205 or 1203A."
	}
	bounds, known := roomRanges[corpus]
	if !known {
		return "", false, "Choose the building first: reply 1 or 2."
	}
	if main < bounds[0] || main > bounds[1] {
		return "", false, fmt.Sprintf("Rooms in building %s are numbered %d-%d.", corpus, bounds[0], bounds[1])
	}

	tail := raw[digits:]
	run := 0
	inRun := false
	for i := 0; i <= len(tail); i++ {
		var c byte
		if i < len(tail) {
			c = tail[i]
		}
		if c >= '0' && c <= '9' {
			run = run*10 + int(c-'0')
			inRun = true
			continue
		}
		if inRun {
			if run < subRoomMin || run > subRoomMax {
				return "", false, fmt.Sprintf("Cabinet numbers after the room must be %d-%d.", subRoomMin, subRoomMax)
			}
			run = 0
			inRun = false
		}
		if i == len(tail) {
			break
		}
		if c == ' ' {
			continue
		}
		upper := c &^ 0x20
		if upper < 'A' || upper > 'E' {
			return "", false, "After the room number only letters A-E, digits and spaces are allowed."
		}
	}

	return raw, true, ""
}
