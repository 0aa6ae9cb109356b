package fire

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// OutputFlags documents the columns PrintRecords understands.
const OutputFlags = "c (coordinates), d (date), t (time), b (brightness), n (day/night), y (type), s (satellite)"

// PrintRecords writes one line per record with the columns selected by outputFlags,
// in flag order, joined by delimiter.
func PrintRecords(w io.Writer, records []Record, outputFlags, delimiter string) error {
	for _, f := range outputFlags {
		if !strings.ContainsRune("cdtbnys", f) {
			return fmt.Errorf("invalid output flag %q, supported: %s", f, OutputFlags)
		}
	}
	for _, r := range records {
		if _, err := fmt.Fprintln(w, createLine(r, outputFlags, delimiter)); err != nil {
			return err
		}
	}
	return nil
}

func createLine(r Record, outputFlags, delimiter string) string {
	var line string
	for _, f := range outputFlags {
		switch f {
		case 'c':
			line += strconv.FormatFloat(r.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(r.Longitude, 'f', -1, 64) + delimiter
		case 'd':
			line += r.AcqDate + delimiter
		case 't':
			line += FormatTime(r.AcqTime) + delimiter
		case 'b':
			if r.HasBrightness() {
				line += strconv.FormatFloat(*r.Brightness, 'f', -1, 64) + delimiter
			} else {
				line += "N/A" + delimiter
			}
		case 'n':
			line += r.DayNight + delimiter
		case 'y':
			line += r.Type.Label() + delimiter
		case 's':
			line += r.Satellite + delimiter
		}
	}
	return strings.TrimSuffix(line, delimiter)
}
