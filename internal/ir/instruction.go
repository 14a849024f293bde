package ir

// Instruction is the closed sum type of spec.md §3. Every variant carries
// the source offset of the syntax it was lowered from.
type Instruction interface {
	isInstruction()
	Offset() int
}

type base struct{ offset int }

func (b base) Offset() int { return b.offset }

// Assign writes Value into Target.
type Assign struct {
	base
	Target Variable
	Value  Value
}

// Branch is a two-way conditional terminator.
type Branch struct {
	base
	Cond       Value
	Then, Else BlockID
}

// Jump is an unconditional terminator.
type Jump struct {
	base
	Target BlockID
}

// Return is a (possibly value-less) terminator.
type Return struct {
	base
	Value Value // nil for a bare `return;`
}

// CallInstr is a call whose result may be discarded (Result == nil) or
// bound to a variable.
type CallInstr struct {
	base
	Receiver Value
	Method   string
	Args     []Value
	Result   *Variable
}

// LoadField reads base.field into Result.
type LoadField struct {
	base
	Base   Value
	Field  string
	Result Variable
}

// StoreField writes Value into base.field.
type StoreField struct {
	base
	Base  Value
	Field string
	Value Value
}

// LoadIndex reads base[index] into Result. Index operations reuse the
// literal field name "[]" when lowered to facts (spec.md §4.3).
type LoadIndex struct {
	base
	Base   Value
	Index  Value
	Result Variable
}

// StoreIndex writes Value into base[index].
type StoreIndex struct {
	base
	Base  Value
	Index Value
	Value Value
}

// NullCheck asserts Operand is non-null, binding the narrowed value to Result.
type NullCheck struct {
	base
	Operand Value
	Result  Variable
}

// Cast narrows/widens Operand to TargetType.
type Cast struct {
	base
	Operand    Value
	TargetType string
	Result     Variable
	Nullable   bool
}

// TypeCheck tests Operand's runtime type against TargetType (`is`/`is!`).
type TypeCheck struct {
	base
	Operand    Value
	TargetType string
	Result     Variable
	Negated    bool
}

// Throw is a terminator with no successors.
type Throw struct {
	base
	Exception Value
}

// Await suspends on Future, binding its resolved value to Result. Per
// spec.md §4.1, this does not split the containing block; suspension is
// modeled only at the fact-extractor level.
type Await struct {
	base
	Future Value
	Result Variable
}

// PhiInstr selects one of several incoming values at a join block. Appears
// only at the head of a block, one operand per predecessor (spec.md I5).
type PhiInstr struct {
	base
	Target   Variable
	Operands map[BlockID]Value
}

func (Assign) isInstruction()     {}
func (Branch) isInstruction()     {}
func (Jump) isInstruction()       {}
func (Return) isInstruction()     {}
func (CallInstr) isInstruction()  {}
func (LoadField) isInstruction()  {}
func (StoreField) isInstruction() {}
func (LoadIndex) isInstruction()  {}
func (StoreIndex) isInstruction() {}
func (NullCheck) isInstruction()  {}
func (Cast) isInstruction()       {}
func (TypeCheck) isInstruction()  {}
func (Throw) isInstruction()      {}
func (Await) isInstruction()      {}
func (PhiInstr) isInstruction()   {}

// NewAssign, NewBranch, ... are constructors that stamp the source offset,
// since base is unexported and variants are otherwise built with composite
// literals that would need to repeat `base{offset}` everywhere.

func NewAssign(offset int, target Variable, value Value) Assign {
	return Assign{base: base{offset}, Target: target, Value: value}
}

func NewBranch(offset int, cond Value, then, els BlockID) Branch {
	return Branch{base: base{offset}, Cond: cond, Then: then, Else: els}
}

func NewJump(offset int, target BlockID) Jump {
	return Jump{base: base{offset}, Target: target}
}

func NewReturn(offset int, value Value) Return {
	return Return{base: base{offset}, Value: value}
}

func NewCallInstr(offset int, receiver Value, method string, args []Value, result *Variable) CallInstr {
	return CallInstr{base: base{offset}, Receiver: receiver, Method: method, Args: args, Result: result}
}

func NewLoadField(offset int, b Value, field string, result Variable) LoadField {
	return LoadField{base: base{offset}, Base: b, Field: field, Result: result}
}

func NewStoreField(offset int, b Value, field string, value Value) StoreField {
	return StoreField{base: base{offset}, Base: b, Field: field, Value: value}
}

func NewLoadIndex(offset int, b, index Value, result Variable) LoadIndex {
	return LoadIndex{base: base{offset}, Base: b, Index: index, Result: result}
}

func NewStoreIndex(offset int, b, index, value Value) StoreIndex {
	return StoreIndex{base: base{offset}, Base: b, Index: index, Value: value}
}

func NewNullCheck(offset int, operand Value, result Variable) NullCheck {
	return NullCheck{base: base{offset}, Operand: operand, Result: result}
}

func NewCast(offset int, operand Value, targetType string, result Variable, nullable bool) Cast {
	return Cast{base: base{offset}, Operand: operand, TargetType: targetType, Result: result, Nullable: nullable}
}

func NewTypeCheck(offset int, operand Value, targetType string, result Variable, negated bool) TypeCheck {
	return TypeCheck{base: base{offset}, Operand: operand, TargetType: targetType, Result: result, Negated: negated}
}

func NewThrow(offset int, exception Value) Throw {
	return Throw{base: base{offset}, Exception: exception}
}

func NewAwait(offset int, future Value, result Variable) Await {
	return Await{base: base{offset}, Future: future, Result: result}
}

func NewPhiInstr(offset int, target Variable) PhiInstr {
	return PhiInstr{base: base{offset}, Target: target, Operands: make(map[BlockID]Value)}
}
