package fire

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestFormatTime(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
	}{
		{"659", "06:59"},
		{"1230", "12:30"},
		{5, "00:05"},
		{AcqTime("0001"), "00:01"},
		{nil, "Time not available"},
		{"12345", "Time not available"},
		{"ab", "Time not available"},
	}
	for _, tt := range tests {
		if got := FormatTime(tt.in); got != tt.want {
			t.Fatalf("FormatTime(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestQueryName(t *testing.T) {
	if got := QueryName("United States"); got != "United_States" {
		t.Fatalf("expected United_States, got %q", got)
	}
	if got := QueryName("Bosnia and  Herzegovina"); got != "Bosnia_and__Herzegovina" {
		t.Fatalf("expected one underscore per space, got %q", got)
	}
}

func TestGeoJSONName(t *testing.T) {
	if got := GeoJSONName("United  States"); got != "united_states" {
		t.Fatalf("expected united_states, got %q", got)
	}
}

func TestRecordDecodesNumericAndStringTimes(t *testing.T) {
	var recs []Record
	body := `[{"latitude":1.5,"longitude":2,"brightness":310.2,"acq_date":"2001-03-04","acq_time":659,"daynight":"D","type":0},
	          {"latitude":1,"longitude":2,"acq_date":"2001-11-01","acq_time":"1200","daynight":"N","type":3}]`
	if err := json.Unmarshal([]byte(body), &recs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if recs[0].AcqTime != "659" || recs[1].AcqTime != "1200" {
		t.Fatalf("unexpected times: %q %q", recs[0].AcqTime, recs[1].AcqTime)
	}
	if !recs[0].HasBrightness() || recs[1].HasBrightness() {
		t.Fatalf("brightness presence not decoded correctly")
	}
	if recs[0].Month() != 3 || recs[1].Month() != 11 {
		t.Fatalf("unexpected months %d %d", recs[0].Month(), recs[1].Month())
	}
}

func TestDescribeDetail(t *testing.T) {
	b := 330.5
	got := DescribeDetail("Greece", Record{
		Latitude: 38.1, Longitude: 23.7, Brightness: &b,
		AcqDate: "2007-08-25", AcqTime: "1015", DayNight: Day, Type: Vegetation,
	})
	for _, want := range []string{"Greece", "unknown area", "Time: 10:15 UTC (Daytime Fire)", "Temperature: 330.5 K", "Presumed Vegetation Fire"} {
		if !strings.Contains(got, want) {
			t.Fatalf("detail text missing %q:\n%s", want, got)
		}
	}
}

func TestTypeLabelUnknownValue(t *testing.T) {
	if Type(7).Label() != "unknown" {
		t.Fatalf("expected unknown label for unmapped type")
	}
	if Unknown.Label() != "UNKNOWN" {
		t.Fatalf("expected UNKNOWN for type 99")
	}
}

func TestPrintRecords(t *testing.T) {
	b := 330.5
	recs := []Record{
		{Latitude: 38.1, Longitude: 23.7, Brightness: &b, AcqDate: "2007-08-25", AcqTime: "1015", DayNight: Day},
		{Latitude: -1, Longitude: 2, AcqDate: "2007-08-26", AcqTime: "5", DayNight: Night, Type: Offshore},
	}
	var sb strings.Builder
	if err := PrintRecords(&sb, recs, "cdtby", " | "); err != nil {
		t.Fatalf("PrintRecords: %v", err)
	}
	want := "38.1,23.7 | 2007-08-25 | 10:15 | 330.5 | Presumed Vegetation Fire\n" +
		"-1,2 | 2007-08-26 | 00:05 | N/A | Offshore\n"
	if sb.String() != want {
		t.Fatalf("got:\n%s\nwant:\n%s", sb.String(), want)
	}
	if err := PrintRecords(&sb, recs, "cx", " "); err == nil {
		t.Fatalf("expected an invalid flag to be rejected")
	}
}
