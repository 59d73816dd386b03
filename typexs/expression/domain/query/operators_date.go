package query

import "time"

// DateUnits lists the units accepted by $datetrunc.
var DateUnits = []string{"year", "quarter", "month", "week", "day", "hour", "minute", "second"}

func installDate(r *Registry) {
	for _, kind := range []OperatorKind{OpYear, OpMonth, OpDayOfMonth, OpDayOfWeek, OpDayOfYear, OpHour, OpMinute, OpSecond} {
		r.mustInstall(kind, singleTerm(dateTerm), expressionScope)
	}
	r.mustInstall(OpDateTrunc, validateDateTrunc, expressionScope)
}

func dateTerm(term any) (string, bool) {
	switch term.(type) {
	case string, time.Time:
		return "", true
	}
	if isOperatorDocument(term) {
		return "", true
	}
	return "expects a date, a field reference or an expression", false
}

// validateDateTrunc accepts {date: <term>, unit: "<unit>"}.
func validateDateTrunc(it *Interpreter, op *OperatorNode, definition any) (Node, error) {
	doc, ok := documentOf(definition)
	if !ok || isOperatorDocument(doc) {
		return nil, malformed(op, definition, "expects {date, unit}")
	}
	date, ok := doc.Get("date")
	if !ok {
		return nil, malformed(op, definition, "date is required")
	}
	if reason, ok := dateTerm(date); !ok {
		return nil, malformed(op, definition, "date: %s", reason)
	}
	unit, ok := doc.Get("unit")
	if !ok {
		return nil, malformed(op, definition, "unit is required")
	}
	if !isDateUnit(unit) {
		return nil, malformed(op, definition, "unit must be one of %v", DateUnits)
	}
	if len(doc) != 2 {
		return nil, malformed(op, definition, "only date and unit are allowed")
	}
	return it.Operand(op, doc)
}

func isDateUnit(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	for _, u := range DateUnits {
		if u == s {
			return true
		}
	}
	return false
}
