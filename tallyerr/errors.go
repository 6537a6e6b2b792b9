package tallyerr

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// enableDebugErrorPrinting makes errors include the frame that created them when printed
const enableDebugErrorPrinting bool = true
const enableDebugFullStacktrace bool = false

type ErrCode int

const (
	None ErrCode = iota
	DivisionByZero
	Unassigned
	CommittedLevelSimulation
	LevelOutOfRange
	ElementIndexOutOfRange
	NotScalar
	UnknownVariable
	NotTerminal
	Overflow
)

type TallyError interface {
	Error() string
	Code() ErrCode

	withStack([]byte) TallyError
	getStack() []byte
}

func FormatWithCode(e TallyError) string {
	if enableDebugErrorPrinting && e.getStack() != nil {
		stack := string(e.getStack())
		if !enableDebugFullStacktrace {
			lines := strings.Split(stack, "\n")
			if len(lines) > 6 {
				stack = strings.TrimSpace(lines[6])
			}
		}
		return fmt.Sprintf("%s:(E%03d) %s", stack, e.Code(), e.Error())
	}
	return fmt.Sprintf("(E%03d) %s", e.Code(), e.Error())
}

func New[E TallyError](err E) TallyError {
	return err.withStack(debug.Stack())
}

type Unclassified struct {
	From  error
	stack []byte
}

func (e Unclassified) Error() string {
	return fmt.Sprintf("unclassified error: %v", e.From)
}
func (e Unclassified) Unwrap() error    { return e.From }
func (e Unclassified) Code() ErrCode    { return None }
func (e Unclassified) getStack() []byte { return e.stack }
func (e Unclassified) withStack(stack []byte) TallyError {
	e.stack = stack
	return e
}

// NewDivisionByZero is returned when a divisor is zero, either as a literal
// constant at construction time (Label is empty) or as a value during evaluation
type NewDivisionByZero struct {
	Op    string
	Label string
	stack []byte
}

func (e NewDivisionByZero) Error() string {
	if e.Label == "" {
		return fmt.Sprintf("%s by the constant zero", e.Op)
	}
	return fmt.Sprintf("%s by zero while evaluating '%s'", e.Op, e.Label)
}
func (e NewDivisionByZero) Code() ErrCode    { return DivisionByZero }
func (e NewDivisionByZero) getStack() []byte { return e.stack }
func (e NewDivisionByZero) withStack(stack []byte) TallyError {
	e.stack = stack
	return e
}

type NewUnassigned struct {
	Label string
	Level int
	stack []byte
}

func (e NewUnassigned) Error() string {
	return fmt.Sprintf("unassigned expression '%s' at level %d", e.Label, e.Level)
}
func (e NewUnassigned) Code() ErrCode    { return Unassigned }
func (e NewUnassigned) getStack() []byte { return e.stack }
func (e NewUnassigned) withStack(stack []byte) TallyError {
	e.stack = stack
	return e
}

type NewCommittedLevelSimulation struct {
	stack []byte
}

func (e NewCommittedLevelSimulation) Error() string {
	return "cannot simulate on level 0: it holds the committed state"
}
func (e NewCommittedLevelSimulation) Code() ErrCode    { return CommittedLevelSimulation }
func (e NewCommittedLevelSimulation) getStack() []byte { return e.stack }
func (e NewCommittedLevelSimulation) withStack(stack []byte) TallyError {
	e.stack = stack
	return e
}

type NewLevelOutOfRange struct {
	Level int
	Max   int
	stack []byte
}

func (e NewLevelOutOfRange) Error() string {
	return fmt.Sprintf("level %d is out of range [0, %d]", e.Level, e.Max)
}
func (e NewLevelOutOfRange) Code() ErrCode    { return LevelOutOfRange }
func (e NewLevelOutOfRange) getStack() []byte { return e.stack }
func (e NewLevelOutOfRange) withStack(stack []byte) TallyError {
	e.stack = stack
	return e
}

type NewElementIndexOutOfRange struct {
	Label string
	Index int64
	Size  int
	stack []byte
}

func (e NewElementIndexOutOfRange) Error() string {
	return fmt.Sprintf("index %d out of range for '%s' with %d elements", e.Index, e.Label, e.Size)
}
func (e NewElementIndexOutOfRange) Code() ErrCode    { return ElementIndexOutOfRange }
func (e NewElementIndexOutOfRange) getStack() []byte { return e.stack }
func (e NewElementIndexOutOfRange) withStack(stack []byte) TallyError {
	e.stack = stack
	return e
}

type NewNotScalar struct {
	Name  string
	stack []byte
}

func (e NewNotScalar) Error() string {
	return fmt.Sprintf("variable array '%s' is not a scalar expression, select an element first", e.Name)
}
func (e NewNotScalar) Code() ErrCode    { return NotScalar }
func (e NewNotScalar) getStack() []byte { return e.stack }
func (e NewNotScalar) withStack(stack []byte) TallyError {
	e.stack = stack
	return e
}

type NewUnknownVariable struct {
	Name  string
	stack []byte
}

func (e NewUnknownVariable) Error() string {
	return fmt.Sprintf("variable '%s' was never compiled", e.Name)
}
func (e NewUnknownVariable) Code() ErrCode    { return UnknownVariable }
func (e NewUnknownVariable) getStack() []byte { return e.stack }
func (e NewUnknownVariable) withStack(stack []byte) TallyError {
	e.stack = stack
	return e
}

type NewNotTerminal struct {
	Label string
	stack []byte
}

func (e NewNotTerminal) Error() string {
	return fmt.Sprintf("'%s' is not a variable and cannot be assigned", e.Label)
}
func (e NewNotTerminal) Code() ErrCode    { return NotTerminal }
func (e NewNotTerminal) getStack() []byte { return e.stack }
func (e NewNotTerminal) withStack(stack []byte) TallyError {
	e.stack = stack
	return e
}

type NewOverflow struct {
	Op    string
	Label string
	stack []byte
}

func (e NewOverflow) Error() string {
	return fmt.Sprintf("%s overflows int64 in '%s'", e.Op, e.Label)
}
func (e NewOverflow) Code() ErrCode    { return Overflow }
func (e NewOverflow) getStack() []byte { return e.stack }
func (e NewOverflow) withStack(stack []byte) TallyError {
	e.stack = stack
	return e
}
