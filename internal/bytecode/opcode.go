// Package bytecode defines the instruction set and Executable container
// the compiler emits into and the VM interprets (spec.md §3 "Executable",
// §4.1 "Instruction set"). Encoding follows the teacher's tag-record
// idiom (internal/heap/model/types.go's HProfTagRecord): a byte-sized Op
// enum with a String() method, here paired with a fixed-arity operand
// shape per opcode rather than a record length prefix.
package bytecode

import "fmt"

// Op is one VM instruction. Each Op is one byte; its operands (if any)
// are 16-bit little-endian immediates, a fixed count determined by the
// opcode alone (spec.md §4.1: "argument count per opcode is fixed by the
// opcode and exposed to the disassembler").
type Op uint8

const (
	// Load / store
	OpLoadConstant Op = iota
	OpStoreConstant
	OpLoad
	OpLoadCopy
	OpStore
	OpSwap

	// References & bindings
	OpResolveBinding
	OpResolveThisBinding
	OpPushReference
	OpPopReference
	OpGetValue
	OpGetValueKeepReference
	OpPutValue
	OpInitializeReferencedBinding

	// Property access
	OpEvaluatePropertyAccessWithIdentifierKey
	OpEvaluatePropertyAccessWithExpressionKey

	// Arithmetic / logical
	OpApplyStringOrNumericBinaryOperator
	OpUnaryMinus
	OpBitwiseNot
	OpLogicalNot
	OpIncrement
	OpDecrement
	OpToNumber
	OpToNumeric
	OpTypeof
	OpIsStrictlyEqual
	OpIsLooselyEqual
	OpLessThan
	OpLessThanEquals
	OpGreaterThan
	OpGreaterThanEquals
	OpHasProperty
	OpInstanceofOperator
	OpIsNullOrUndefined

	// Control flow
	OpJump
	OpJumpIfNot
	OpJumpIfTrue
	OpReturn
	OpThrow
	OpPushExceptionJumpTarget
	OpPopExceptionJumpTarget

	// Environments
	OpEnterDeclarativeEnvironment
	OpExitDeclarativeEnvironment
	OpCreateMutableBinding
	OpCreateImmutableBinding
	OpCreateCatchBinding

	// Objects & arrays
	OpObjectCreate
	OpObjectSetProperty
	OpObjectSetPrototype
	OpObjectDefineProperty
	OpObjectDefineMethod
	OpObjectDefineGetter
	OpObjectDefineSetter
	OpArrayCreate
	OpArrayPush

	// Calls & construction
	OpEvaluateCall
	OpEvaluateNew

	// Function/class definition
	OpInstantiateOrdinaryFunctionExpression
	OpInstantiateArrowFunctionExpression
	OpClassDefineConstructor
	OpClassDefineDefaultConstructor
	OpClassDefinePrivateMethod
	OpClassDefinePrivateProperty
	OpClassInitializePrivateElements
	OpClassInitializePrivateValue

	// Destructuring
	OpBeginArrayBindingPattern
	OpBeginSimpleArrayBindingPattern
	OpBeginObjectBindingPattern
	OpBindingPatternBind
	OpBindingPatternBindRest
	OpBindingPatternBindWithInitializer
	OpBindingPatternSkip
	OpBindingPatternGetValue
	OpBindingPatternGetRestValue
	OpFinishBindingPattern

	// Iteration
	OpGetIterator
	OpEnumerateObjectProperties
	OpIteratorNext
	OpIteratorComplete
	OpIteratorValue

	// Strings
	OpStringConcat

	// Diagnostics
	OpDebug

	opCount
)

var opNames = [opCount]string{
	OpLoadConstant:                             "LoadConstant",
	OpStoreConstant:                             "StoreConstant",
	OpLoad:                                      "Load",
	OpLoadCopy:                                  "LoadCopy",
	OpStore:                                     "Store",
	OpSwap:                                      "Swap",
	OpResolveBinding:                            "ResolveBinding",
	OpResolveThisBinding:                        "ResolveThisBinding",
	OpPushReference:                             "PushReference",
	OpPopReference:                              "PopReference",
	OpGetValue:                                  "GetValue",
	OpGetValueKeepReference:                     "GetValueKeepReference",
	OpPutValue:                                  "PutValue",
	OpInitializeReferencedBinding:               "InitializeReferencedBinding",
	OpEvaluatePropertyAccessWithIdentifierKey:    "EvaluatePropertyAccessWithIdentifierKey",
	OpEvaluatePropertyAccessWithExpressionKey:    "EvaluatePropertyAccessWithExpressionKey",
	OpApplyStringOrNumericBinaryOperator:         "ApplyStringOrNumericBinaryOperator",
	OpUnaryMinus:                                 "UnaryMinus",
	OpBitwiseNot:                                 "BitwiseNot",
	OpLogicalNot:                                 "LogicalNot",
	OpIncrement:                                  "Increment",
	OpDecrement:                                  "Decrement",
	OpToNumber:                                   "ToNumber",
	OpToNumeric:                                  "ToNumeric",
	OpTypeof:                                     "Typeof",
	OpIsStrictlyEqual:                            "IsStrictlyEqual",
	OpIsLooselyEqual:                             "IsLooselyEqual",
	OpLessThan:                                   "LessThan",
	OpLessThanEquals:                             "LessThanEquals",
	OpGreaterThan:                                "GreaterThan",
	OpGreaterThanEquals:                          "GreaterThanEquals",
	OpHasProperty:                                "HasProperty",
	OpInstanceofOperator:                         "InstanceofOperator",
	OpIsNullOrUndefined:                          "IsNullOrUndefined",
	OpJump:                                       "Jump",
	OpJumpIfNot:                                  "JumpIfNot",
	OpJumpIfTrue:                                 "JumpIfTrue",
	OpReturn:                                     "Return",
	OpThrow:                                      "Throw",
	OpPushExceptionJumpTarget:                    "PushExceptionJumpTarget",
	OpPopExceptionJumpTarget:                     "PopExceptionJumpTarget",
	OpEnterDeclarativeEnvironment:                "EnterDeclarativeEnvironment",
	OpExitDeclarativeEnvironment:                 "ExitDeclarativeEnvironment",
	OpCreateMutableBinding:                       "CreateMutableBinding",
	OpCreateImmutableBinding:                     "CreateImmutableBinding",
	OpCreateCatchBinding:                         "CreateCatchBinding",
	OpObjectCreate:                               "ObjectCreate",
	OpObjectSetProperty:                          "ObjectSetProperty",
	OpObjectSetPrototype:                         "ObjectSetPrototype",
	OpObjectDefineProperty:                       "ObjectDefineProperty",
	OpObjectDefineMethod:                         "ObjectDefineMethod",
	OpObjectDefineGetter:                         "ObjectDefineGetter",
	OpObjectDefineSetter:                         "ObjectDefineSetter",
	OpArrayCreate:                                "ArrayCreate",
	OpArrayPush:                                  "ArrayPush",
	OpEvaluateCall:                               "EvaluateCall",
	OpEvaluateNew:                                "EvaluateNew",
	OpInstantiateOrdinaryFunctionExpression:      "InstantiateOrdinaryFunctionExpression",
	OpInstantiateArrowFunctionExpression:         "InstantiateArrowFunctionExpression",
	OpClassDefineConstructor:                     "ClassDefineConstructor",
	OpClassDefineDefaultConstructor:              "ClassDefineDefaultConstructor",
	OpClassDefinePrivateMethod:                   "ClassDefinePrivateMethod",
	OpClassDefinePrivateProperty:                 "ClassDefinePrivateProperty",
	OpClassInitializePrivateElements:             "ClassInitializePrivateElements",
	OpClassInitializePrivateValue:                "ClassInitializePrivateValue",
	OpBeginArrayBindingPattern:                   "BeginArrayBindingPattern",
	OpBeginSimpleArrayBindingPattern:             "BeginSimpleArrayBindingPattern",
	OpBeginObjectBindingPattern:                  "BeginObjectBindingPattern",
	OpBindingPatternBind:                         "BindingPatternBind",
	OpBindingPatternBindRest:                     "BindingPatternBindRest",
	OpBindingPatternBindWithInitializer:          "BindingPatternBindWithInitializer",
	OpBindingPatternSkip:                         "BindingPatternSkip",
	OpBindingPatternGetValue:                     "BindingPatternGetValue",
	OpBindingPatternGetRestValue:                 "BindingPatternGetRestValue",
	OpFinishBindingPattern:                       "FinishBindingPattern",
	OpGetIterator:                                "GetIterator",
	OpEnumerateObjectProperties:                  "EnumerateObjectProperties",
	OpIteratorNext:                               "IteratorNext",
	OpIteratorComplete:                           "IteratorComplete",
	OpIteratorValue:                              "IteratorValue",
	OpStringConcat:                               "StringConcat",
	OpDebug:                                      "Debug",
}

func (op Op) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return fmt.Sprintf("Op(0x%02X)", uint8(op))
}

// AllOps returns every defined opcode in declaration order, the table
// internal/inspector's command palette fuzzy-searches over.
func AllOps() []Op {
	ops := make([]Op, opCount)
	for i := range ops {
		ops[i] = Op(i)
	}
	return ops
}

// OperandFlags flags what an opcode's fixed-arity 16-bit immediates mean
// (spec.md §4.1: "has jump slot", "has identifier index", "has constant
// index", "has function-expression index"). An opcode may carry more
// than one flag (e.g. ClassDefineConstructor carries both a
// function-expression index and a boolean-as-u16 flag), so Flags is a
// bitmask rather than an exclusive Kind.
type OperandFlags uint8

const (
	FlagNone OperandFlags = 0
	FlagJumpSlot OperandFlags = 1 << (iota - 1)
	FlagIdentifierIndex
	FlagConstantIndex
	FlagFunctionExpressionIndex
	FlagArrowFunctionExpressionIndex
	FlagReferenceIndex
	FlagImmediate // a raw u16 used as a count/flag/index into no side table
)

// operandInfo describes one opcode's fixed operand shape: how many
// 16-bit immediates it carries and what each one denotes.
type operandInfo struct {
	count int
	flags OperandFlags
}

var operandTable = map[Op]operandInfo{
	OpLoadConstant:                 {1, FlagConstantIndex},
	OpStoreConstant:                {1, FlagConstantIndex},
	OpResolveBinding:               {1, FlagIdentifierIndex},
	OpCreateMutableBinding:         {1, FlagIdentifierIndex},
	OpCreateImmutableBinding:       {1, FlagIdentifierIndex},
	OpCreateCatchBinding:           {1, FlagIdentifierIndex},
	OpEvaluatePropertyAccessWithIdentifierKey: {1, FlagIdentifierIndex},
	OpJump:                         {1, FlagJumpSlot},
	OpJumpIfNot:                    {1, FlagJumpSlot},
	OpJumpIfTrue:                   {1, FlagJumpSlot},
	OpPushExceptionJumpTarget:      {1, FlagJumpSlot},
	OpIteratorComplete:             {1, FlagJumpSlot},
	OpApplyStringOrNumericBinaryOperator: {1, FlagImmediate},
	OpEvaluateCall:                 {1, FlagImmediate},
	OpEvaluateNew:                  {1, FlagImmediate},
	OpArrayCreate:                  {1, FlagImmediate},
	OpStringConcat:                 {1, FlagImmediate},
	OpInstantiateOrdinaryFunctionExpression: {1, FlagFunctionExpressionIndex},
	OpInstantiateArrowFunctionExpression:    {1, FlagArrowFunctionExpressionIndex},
	OpClassDefineConstructor:       {2, FlagFunctionExpressionIndex | FlagImmediate},
	OpClassDefineDefaultConstructor: {1, FlagImmediate},
	OpClassDefinePrivateMethod:     {2, FlagIdentifierIndex | FlagImmediate},
	OpClassDefinePrivateProperty:   {1, FlagIdentifierIndex},
	OpClassInitializePrivateValue:  {1, FlagIdentifierIndex},
	OpBindingPatternBind:           {1, FlagIdentifierIndex},
	OpBindingPatternBindRest:       {1, FlagIdentifierIndex},
	OpBindingPatternBindWithInitializer: {2, FlagIdentifierIndex | FlagConstantIndex},
	OpBeginArrayBindingPattern:     {2, FlagImmediate},
	OpBeginSimpleArrayBindingPattern: {2, FlagImmediate},
	OpBeginObjectBindingPattern:    {1, FlagImmediate},
	OpDebug:                        {1, FlagImmediate},
}

// OperandCount reports how many 16-bit immediates follow op in the
// instruction stream.
func (op Op) OperandCount() int {
	if info, ok := operandTable[op]; ok {
		return info.count
	}
	return 0
}

func (op Op) Flags() OperandFlags {
	return operandTable[op].flags
}

func (f OperandFlags) Has(flag OperandFlags) bool { return f&flag != 0 }
