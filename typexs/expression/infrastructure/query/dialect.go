package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	domainquery "github.com/typexs/typexs-base-sub000/typexs/expression/domain/query"
)

// Dialect renders the few constructs that differ between SQL backends.
type Dialect interface {
	Name() string
	// Placeholder returns the bind marker of the n-th (1-based) argument.
	Placeholder(n int) string
	// Regex renders a regular expression match. The returned options are
	// the ones the dialect could not express and that must be embedded into
	// the pattern. Options the engine cannot honor at all are an error.
	Regex(left, right, options string) (sql string, embedded string, err error)
	DatePart(part domainquery.OperatorKind, expr string) string
	DateTrunc(unit, expr string) string
	Concat(exprs []string) string
	QuoteIdentifier(name string) string
}

var (
	Postgres Dialect = postgresDialect{}
	SQLite   Dialect = sqliteDialect{}
	MySQL    Dialect = mysqlDialect{}
)

// DialectByName returns the dialect called name ("postgres", "sqlite",
// "mysql").
func DialectByName(name string) (Dialect, error) {
	for _, d := range []Dialect{Postgres, SQLite, MySQL} {
		if d.Name() == strings.ToLower(name) {
			return d, nil
		}
	}
	return nil, errors.Errorf("unknown dialect %q", name)
}

type postgresDialect struct{}

func (postgresDialect) Name() string {
	return "postgres"
}

func (postgresDialect) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func (postgresDialect) Regex(left, right, options string) (string, string, error) {
	op := "~"
	if strings.ContainsRune(options, 'i') {
		op = "~*"
		options = strings.ReplaceAll(options, "i", "")
	}
	return fmt.Sprintf("%s %s %s", left, op, right), options, nil
}

var postgresFields = map[domainquery.OperatorKind]string{
	domainquery.OpYear:       "YEAR",
	domainquery.OpMonth:      "MONTH",
	domainquery.OpDayOfMonth: "DAY",
	domainquery.OpDayOfWeek:  "DOW",
	domainquery.OpDayOfYear:  "DOY",
	domainquery.OpHour:       "HOUR",
	domainquery.OpMinute:     "MINUTE",
	domainquery.OpSecond:     "SECOND",
}

func (postgresDialect) DatePart(part domainquery.OperatorKind, expr string) string {
	return fmt.Sprintf("EXTRACT(%s FROM %s)", postgresFields[part], expr)
}

func (postgresDialect) DateTrunc(unit, expr string) string {
	return fmt.Sprintf("date_trunc('%s', %s)", unit, expr)
}

func (postgresDialect) Concat(exprs []string) string {
	return "(" + strings.Join(exprs, " || ") + ")"
}

func (postgresDialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string {
	return "sqlite"
}

func (sqliteDialect) Placeholder(int) string {
	return "?"
}

// Regex relies on a REGEXP function registered with the connection. That
// function uses Go regular expressions, which have no extended (x) mode.
func (sqliteDialect) Regex(left, right, options string) (string, string, error) {
	if strings.ContainsRune(options, 'x') {
		return "", "", errors.Wrap(ErrUnsupportedNode, "sqlite has no extended regex option x")
	}
	return fmt.Sprintf("%s REGEXP %s", left, right), options, nil
}

var sqliteFormats = map[domainquery.OperatorKind]string{
	domainquery.OpYear:       "%Y",
	domainquery.OpMonth:      "%m",
	domainquery.OpDayOfMonth: "%d",
	domainquery.OpDayOfWeek:  "%w",
	domainquery.OpDayOfYear:  "%j",
	domainquery.OpHour:       "%H",
	domainquery.OpMinute:     "%M",
	domainquery.OpSecond:     "%S",
}

func (sqliteDialect) DatePart(part domainquery.OperatorKind, expr string) string {
	return fmt.Sprintf("CAST(strftime('%s', %s) AS INTEGER)", sqliteFormats[part], expr)
}

func (sqliteDialect) DateTrunc(unit, expr string) string {
	switch unit {
	case "year":
		return fmt.Sprintf("strftime('%%Y-01-01 00:00:00', %s)", expr)
	case "quarter":
		return fmt.Sprintf(
			"printf('%%s-%%02d-01 00:00:00', strftime('%%Y', %[1]s), ((CAST(strftime('%%m', %[1]s) AS INTEGER) - 1) / 3) * 3 + 1)",
			expr,
		)
	case "month":
		return fmt.Sprintf("strftime('%%Y-%%m-01 00:00:00', %s)", expr)
	case "week":
		return fmt.Sprintf("strftime('%%Y-%%m-%%d 00:00:00', %s, 'weekday 0', '-6 days')", expr)
	case "day":
		return fmt.Sprintf("strftime('%%Y-%%m-%%d 00:00:00', %s)", expr)
	case "hour":
		return fmt.Sprintf("strftime('%%Y-%%m-%%d %%H:00:00', %s)", expr)
	case "minute":
		return fmt.Sprintf("strftime('%%Y-%%m-%%d %%H:%%M:00', %s)", expr)
	default:
		return fmt.Sprintf("strftime('%%Y-%%m-%%d %%H:%%M:%%S', %s)", expr)
	}
}

func (sqliteDialect) Concat(exprs []string) string {
	return "(" + strings.Join(exprs, " || ") + ")"
}

func (sqliteDialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string {
	return "mysql"
}

func (mysqlDialect) Placeholder(int) string {
	return "?"
}

// Regex uses REGEXP_LIKE whose match type covers i, m and s (as n).
func (mysqlDialect) Regex(left, right, options string) (string, string, error) {
	var matchType, embedded strings.Builder
	for _, o := range options {
		switch o {
		case 'i', 'm':
			matchType.WriteRune(o)
		case 's':
			matchType.WriteRune('n')
		default:
			embedded.WriteRune(o)
		}
	}
	if matchType.Len() == 0 {
		return fmt.Sprintf("%s REGEXP %s", left, right), embedded.String(), nil
	}
	return fmt.Sprintf("REGEXP_LIKE(%s, %s, '%s')", left, right, matchType.String()), embedded.String(), nil
}

var mysqlFunctions = map[domainquery.OperatorKind]string{
	domainquery.OpYear:       "YEAR",
	domainquery.OpMonth:      "MONTH",
	domainquery.OpDayOfMonth: "DAYOFMONTH",
	domainquery.OpDayOfWeek:  "DAYOFWEEK",
	domainquery.OpDayOfYear:  "DAYOFYEAR",
	domainquery.OpHour:       "HOUR",
	domainquery.OpMinute:     "MINUTE",
	domainquery.OpSecond:     "SECOND",
}

func (mysqlDialect) DatePart(part domainquery.OperatorKind, expr string) string {
	return fmt.Sprintf("%s(%s)", mysqlFunctions[part], expr)
}

func (mysqlDialect) DateTrunc(unit, expr string) string {
	switch unit {
	case "year":
		return fmt.Sprintf("DATE_FORMAT(%s, '%%Y-01-01 00:00:00')", expr)
	case "quarter":
		return fmt.Sprintf("MAKEDATE(YEAR(%[1]s), 1) + INTERVAL QUARTER(%[1]s) - 1 QUARTER", expr)
	case "month":
		return fmt.Sprintf("DATE_FORMAT(%s, '%%Y-%%m-01 00:00:00')", expr)
	case "week":
		return fmt.Sprintf("DATE_SUB(DATE(%[1]s), INTERVAL WEEKDAY(%[1]s) DAY)", expr)
	case "day":
		return fmt.Sprintf("DATE(%s)", expr)
	case "hour":
		return fmt.Sprintf("DATE_FORMAT(%s, '%%Y-%%m-%%d %%H:00:00')", expr)
	case "minute":
		return fmt.Sprintf("DATE_FORMAT(%s, '%%Y-%%m-%%d %%H:%%i:00')", expr)
	default:
		return fmt.Sprintf("DATE_FORMAT(%s, '%%Y-%%m-%%d %%H:%%i:%%s')", expr)
	}
}

func (mysqlDialect) Concat(exprs []string) string {
	return "CONCAT(" + strings.Join(exprs, ", ") + ")"
}

func (mysqlDialect) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
