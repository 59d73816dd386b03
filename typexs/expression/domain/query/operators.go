package query

type Family int

const (
	FamilyComparison Family = iota + 1
	FamilyLogical
	FamilyArithmetic
	FamilyString
	FamilyDate
	FamilyAccumulator
	FamilyStage
)

func (f Family) String() string {
	switch f {
	case FamilyComparison:
		return "comparison"
	case FamilyLogical:
		return "logical"
	case FamilyArithmetic:
		return "arithmetic"
	case FamilyString:
		return "string"
	case FamilyDate:
		return "date"
	case FamilyAccumulator:
		return "accumulator"
	case FamilyStage:
		return "stage"
	default:
		return "unknown"
	}
}

// Expression reports whether operators of the family compute a value that
// may stand in for a literal operand.
func (f Family) Expression() bool {
	return f == FamilyArithmetic || f == FamilyString || f == FamilyDate
}

// OperatorKind enumerates every operator the engine understands. Visitors
// switch on it exhaustively.
type OperatorKind int

const (
	OpEq OperatorKind = iota + 1
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpLike
	OpIn
	OpNin
	OpIsNull
	OpIsNotNull
	OpRegex

	OpAnd
	OpOr
	OpNot
	OpNor

	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpMod

	OpConcat
	OpToLower
	OpToUpper

	OpYear
	OpMonth
	OpDayOfMonth
	OpDayOfWeek
	OpDayOfYear
	OpHour
	OpMinute
	OpSecond
	OpDateTrunc

	OpSum
	OpAvg
	OpMin
	OpMax
	OpCount

	OpMatch
	OpProject
	OpGroup
	OpSort
	OpSkip
	OpLimit
)

type kindInfo struct {
	name   string
	family Family
}

var kinds = map[OperatorKind]kindInfo{
	OpEq:        {"eq", FamilyComparison},
	OpNe:        {"ne", FamilyComparison},
	OpLt:        {"lt", FamilyComparison},
	OpLe:        {"le", FamilyComparison},
	OpGt:        {"gt", FamilyComparison},
	OpGe:        {"ge", FamilyComparison},
	OpLike:      {"like", FamilyComparison},
	OpIn:        {"in", FamilyComparison},
	OpNin:       {"nin", FamilyComparison},
	OpIsNull:    {"isnull", FamilyComparison},
	OpIsNotNull: {"isnotnull", FamilyComparison},
	OpRegex:     {"regex", FamilyComparison},

	OpAnd: {"and", FamilyLogical},
	OpOr:  {"or", FamilyLogical},
	OpNot: {"not", FamilyLogical},
	OpNor: {"nor", FamilyLogical},

	OpAdd:      {"add", FamilyArithmetic},
	OpSubtract: {"subtract", FamilyArithmetic},
	OpMultiply: {"multiply", FamilyArithmetic},
	OpDivide:   {"divide", FamilyArithmetic},
	OpMod:      {"mod", FamilyArithmetic},

	OpConcat:  {"concat", FamilyString},
	OpToLower: {"tolower", FamilyString},
	OpToUpper: {"toupper", FamilyString},

	OpYear:       {"year", FamilyDate},
	OpMonth:      {"month", FamilyDate},
	OpDayOfMonth: {"dayofmonth", FamilyDate},
	OpDayOfWeek:  {"dayofweek", FamilyDate},
	OpDayOfYear:  {"dayofyear", FamilyDate},
	OpHour:       {"hour", FamilyDate},
	OpMinute:     {"minute", FamilyDate},
	OpSecond:     {"second", FamilyDate},
	OpDateTrunc:  {"datetrunc", FamilyDate},

	OpSum:   {"sum", FamilyAccumulator},
	OpAvg:   {"avg", FamilyAccumulator},
	OpMin:   {"min", FamilyAccumulator},
	OpMax:   {"max", FamilyAccumulator},
	OpCount: {"count", FamilyAccumulator},

	OpMatch:   {"match", FamilyStage},
	OpProject: {"project", FamilyStage},
	OpGroup:   {"group", FamilyStage},
	OpSort:    {"sort", FamilyStage},
	OpSkip:    {"skip", FamilyStage},
	OpLimit:   {"limit", FamilyStage},
}

// String returns the canonical name, without the $ prefix.
func (k OperatorKind) String() string {
	if info, ok := kinds[k]; ok {
		return info.name
	}
	return "unknown"
}

func (k OperatorKind) Family() Family {
	return kinds[k].family
}

// OperatorKinds lists all built-in kinds in declaration order.
func OperatorKinds() []OperatorKind {
	result := make([]OperatorKind, 0, len(kinds))
	for k := OpEq; k <= OpLimit; k++ {
		result = append(result, k)
	}
	return result
}
