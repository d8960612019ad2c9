package parser

import (
	"regexp"
	"strconv"
	"time"

	"github.com/libinsight/ezingest/internal/models"
)

// EZProxy logs are apache-style access lines with library session, referrer,
// optional quoted user agent, geo fields, and an optional 22-character
// session token at the end. Geo fields are single whitespace-delimited
// tokens in this dialect.
var ezproxyLine = regexp.MustCompile(
	`^(?P<ip_address>\S+) \S+ (?P<username>\S+) \[(?P<click_time>[^\]]+)\] ` +
		`"(?P<request>[^"]*)" (?P<http_code>\d{3}|-) (?:\d+|-) ` +
		`(?P<library_session>\S+) (?P<referrer>\S+)(?: "(?P<user_agent>[^"]*)")? ` +
		`(?P<county>\S+) (?P<state>\S+) (?P<city>\S+)(?: (?P<ezproxy_session>\S{22}|-))?$`,
)

// Canonical timestamp prefix with the timezone offset discarded.
var ezproxyTime = regexp.MustCompile(`^(\d{2}/[A-Za-z]{3}/\d{4}:\d{2}:\d{2}:\d{2})`)

const ezproxyTimeLayout = "02/Jan/2006:15:04:05"

// EZProxyParser parses the ezproxy access-log dialect.
type EZProxyParser struct {
	logType string
}

// NewEZProxyParser creates a parser registered under logType.
func NewEZProxyParser(logType string) *EZProxyParser {
	return &EZProxyParser{logType: logType}
}

// Type returns the log type identifier this parser handles.
func (p *EZProxyParser) Type() string {
	return p.logType
}

// Parse partitions lines into valid records and preserved invalid lines.
// A line is valid iff it matches the grammar, its timestamp normalizes, and
// the request field is present after extraction.
func (p *EZProxyParser) Parse(lines []string) ([]models.LogRecord, []models.InvalidRecord) {
	valid := make([]models.LogRecord, 0, len(lines))
	invalid := []models.InvalidRecord{}

	names := ezproxyLine.SubexpNames()
	for _, line := range lines {
		m := ezproxyLine.FindStringSubmatch(line)
		if m == nil {
			invalid = append(invalid, models.InvalidRecord{RawLine: line, LogType: p.logType})
			continue
		}

		fields := make(map[string]string, len(names))
		for i, name := range names {
			if name != "" {
				fields[name] = m[i]
			}
		}

		// Request can never be null in a valid log.
		if nullToken(fields["request"]) == nil {
			invalid = append(invalid, models.InvalidRecord{RawLine: line, LogType: p.logType})
			continue
		}

		clickTime, ok := normalizeClickTime(fields["click_time"])
		if !ok {
			invalid = append(invalid, models.InvalidRecord{RawLine: line, LogType: p.logType})
			continue
		}

		rec := models.LogRecord{
			IPAddress:      nullToken(fields["ip_address"]),
			Username:       nullToken(fields["username"]),
			ClickTime:      clickTime,
			Request:        fields["request"],
			HTTPCode:       parseCode(fields["http_code"]),
			LibrarySession: nullToken(fields["library_session"]),
			Referrer:       nullToken(fields["referrer"]),
			UserAgent:      nullToken(fields["user_agent"]),
			County:         nullToken(fields["county"]),
			State:          nullToken(fields["state"]),
			City:           nullToken(fields["city"]),
			EZProxySession: nullToken(fields["ezproxy_session"]),
		}
		valid = append(valid, rec)
	}

	return valid, invalid
}

// normalizeClickTime strips the timezone offset and parses the canonical
// day/month-name/year prefix into a timezone-naive timestamp.
func normalizeClickTime(raw string) (*time.Time, bool) {
	m := ezproxyTime.FindStringSubmatch(raw)
	if m == nil {
		return nil, false
	}
	t, err := time.Parse(ezproxyTimeLayout, m[1])
	if err != nil {
		return nil, false
	}
	return &t, true
}

// nullToken maps placeholder tokens to an explicit absent value.
func nullToken(s string) *string {
	if s == "" || s == "-" || s == " " {
		return nil
	}
	return &s
}

func parseCode(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
