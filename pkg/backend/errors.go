package backend

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
)

// ErrNoData is returned, wrapped, whenever the backend answers with an empty result:
// an {"error": ...} object, an empty array, the 'error' sentinel or a 404.
var ErrNoData = errors.New("no data")

func noData(msg string) error {
	if msg == "" {
		return ErrNoData
	}
	return fmt.Errorf("%w: %s", ErrNoData, msg)
}

// MissingFieldsError is returned before any request is made when required input is absent.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// StatusError is a non-2xx response that does not mean "no data".
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Code)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Code, e.Message)
}

const maxMessage = 200

// errorMessage pulls a human readable message out of an error body: the error or
// message field of a JSON object, or the title and first paragraph of a Flask HTML page.
func errorMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	if gjson.ValidBytes(trimmed) {
		for _, key := range []string{"error", "message"} {
			if r := gjson.GetBytes(trimmed, key); r.Exists() && r.Type == gjson.String {
				return r.String()
			}
		}
		if r := gjson.ParseBytes(trimmed); r.Type == gjson.String {
			return r.String()
		}
	}
	if trimmed[0] == '<' {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(trimmed))
		if err == nil {
			title := strings.TrimSpace(doc.Find("title").First().Text())
			p := strings.TrimSpace(doc.Find("p").First().Text())
			switch {
			case title != "" && p != "":
				return title + ": " + p
			case title != "":
				return title
			case p != "":
				return p
			}
		}
	}
	s := string(trimmed)
	if len(s) > maxMessage {
		s = s[:maxMessage] + "..."
	}
	return s
}

func statusError(code int, body []byte) error {
	msg := errorMessage(body)
	if code == 404 {
		return noData(msg)
	}
	return &StatusError{Code: code, Message: msg}
}

// checkNoData reports the loose "nothing here" shapes the backend uses on 200 responses.
func checkNoData(body []byte) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || string(trimmed) == "error" {
		return noData("")
	}
	r := gjson.ParseBytes(trimmed)
	switch {
	case r.Type == gjson.String && r.Str == "error":
		return noData("")
	case r.IsArray() && len(r.Array()) == 0:
		return noData("")
	case r.IsObject():
		if e := r.Get("error"); e.Exists() {
			return noData(e.String())
		}
	}
	return nil
}
