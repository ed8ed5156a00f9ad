package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseGraph    Phase = "graph"    // type graph construction
	PhaseLayout   Phase = "layout"   // size/align/flattening
	PhaseLower    Phase = "lower"    // Go value to flat/memory
	PhaseLift     Phase = "lift"     // flat/memory to Go value
	PhaseResource Phase = "resource" // handle table operations
	PhaseCall     Phase = "call"     // call adapter
	PhaseLinking  Phase = "linking"  // import table lookup
	PhaseMemory   Phase = "memory"   // linear memory and allocator
	PhaseConfig   Phase = "config"   // configuration loading
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidDiscriminant Kind = "invalid_discriminant"
	KindInvalidUTF8         Kind = "invalid_utf8"
	KindUnknownHandle       Kind = "unknown_handle"
	KindHandleTypeMismatch  Kind = "handle_type_mismatch"
	KindUseAfterDrop        Kind = "use_after_drop"
	KindBorrowLeaked        Kind = "borrow_leaked"
	KindFlattenOverflow     Kind = "flatten_overflow"
	KindAllocation          Kind = "allocation"

	KindTypeMismatch  Kind = "type_mismatch"
	KindOutOfBounds   Kind = "out_of_bounds"
	KindInvalidData   Kind = "invalid_data"
	KindUnsupported   Kind = "unsupported"
	KindFieldMissing  Kind = "field_missing"
	KindOverflow      Kind = "overflow"
	KindInvalidEnum   Kind = "invalid_enum"
	KindInvalidFlags  Kind = "invalid_flags"
	KindInvalidChar   Kind = "invalid_char"
	KindMissingImport Kind = "missing_import"
	KindNotFound      Kind = "not_found"
	KindInvalidInput  Kind = "invalid_input"
	KindInvalidState  Kind = "invalid_state"
	KindCallFailed    Kind = "call_failed"
)

// Sentinel targets for errors.Is. They match any phase.
var (
	ErrInvalidDiscriminant = &Error{Kind: KindInvalidDiscriminant}
	ErrInvalidUTF8         = &Error{Kind: KindInvalidUTF8}
	ErrUnknownHandle       = &Error{Kind: KindUnknownHandle}
	ErrHandleTypeMismatch  = &Error{Kind: KindHandleTypeMismatch}
	ErrUseAfterDrop        = &Error{Kind: KindUseAfterDrop}
	ErrBorrowLeaked        = &Error{Kind: KindBorrowLeaked}
	ErrFlattenOverflow     = &Error{Kind: KindFlattenOverflow}
	ErrAllocation          = &Error{Kind: KindAllocation}

	ErrTypeMismatch = &Error{Kind: KindTypeMismatch}
	ErrInvalidData  = &Error{Kind: KindInvalidData}
	ErrUnsupported  = &Error{Kind: KindUnsupported}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrInvalidInput = &Error{Kind: KindInvalidInput}
	ErrInvalidState = &Error{Kind: KindInvalidState}
	ErrCallFailed   = &Error{Kind: KindCallFailed}
)

// Error is the structured error type used throughout the module
type Error struct {
	Value   any
	Cause   error
	Phase   Phase
	Kind    Kind
	GoType  string
	WitType string
	Detail  string
	Path    []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.WitType != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.WitType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", WIT type ")
			b.WriteString(e.WitType)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("WIT type ")
			b.WriteString(e.WitType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.WitType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target without a phase matches on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// KindOf returns the kind of the first *Error in err's chain whose kind is not
// KindCallFailed, or "" when there is none.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			if e.Kind != KindCallFailed {
				return e.Kind
			}
			err = e.Cause
			continue
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// WitType sets the WIT type name
func (b *Builder) WitType(t string) *Builder {
	b.err.WitType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, witType string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindTypeMismatch,
		Path:    path,
		GoType:  goType,
		WitType: witType,
	}
}

// InvalidUTF8 creates an invalid UTF-8 error
func InvalidUTF8(phase Phase, path []string, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidUTF8,
		Path:   path,
		Detail: fmt.Sprintf("invalid UTF-8 sequence: %x", preview),
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, size, align uint32, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes (align %d)", size, align),
		Cause:  cause,
	}
}

// FieldMissing creates a missing field error
func FieldMissing(phase Phase, path []string, fieldName string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindFieldMissing,
		Path:   path,
		Detail: fmt.Sprintf("required field %q not found", fieldName),
	}
}

// InvalidDiscriminant creates an invalid discriminant error for variants, options and results
func InvalidDiscriminant(phase Phase, path []string, disc uint32, numCases int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidDiscriminant,
		Path:   path,
		Detail: fmt.Sprintf("discriminant %d out of range (%d cases)", disc, numCases),
		Value:  disc,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, addr, length uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("memory access at %d (length %d) out of bounds", addr, length),
		Value:  addr,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, targetType string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindOverflow,
		Path:    path,
		WitType: targetType,
		Detail:  fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:   value,
	}
}

// InvalidEnum creates an invalid enum value error
func InvalidEnum(phase Phase, path []string, value any, numCases int) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindInvalidEnum,
		Path:    path,
		WitType: "enum",
		Detail:  fmt.Sprintf("enum value %v out of range (%d cases)", value, numCases),
		Value:   value,
	}
}

// InvalidFlags creates an error for flag bits or labels outside the declared set
func InvalidFlags(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindInvalidFlags,
		Path:    path,
		WitType: "flags",
		Detail:  detail,
	}
}

// InvalidChar creates an error for a value that is not a Unicode scalar value
func InvalidChar(phase Phase, path []string, r uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidChar,
		Path:   path,
		Detail: fmt.Sprintf("invalid Unicode scalar value: 0x%X", r),
		Value:  r,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// UnknownHandle creates an error for a handle id absent from its table
func UnknownHandle(phase Phase, resource string, id uint32) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindUnknownHandle,
		WitType: resource,
		Detail:  fmt.Sprintf("handle %d not present", id),
		Value:   id,
	}
}

// HandleTypeMismatch creates an error for a handle used with the wrong resource type
func HandleTypeMismatch(phase Phase, want, got string, id uint32) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindHandleTypeMismatch,
		WitType: want,
		Detail:  fmt.Sprintf("handle %d belongs to resource %s", id, got),
		Value:   id,
	}
}

// UseAfterDrop creates an error for an operation on a dropped handle
func UseAfterDrop(phase Phase, resource string, id uint32) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindUseAfterDrop,
		WitType: resource,
		Detail:  fmt.Sprintf("handle %d already dropped", id),
		Value:   id,
	}
}

// BorrowLeaked creates an error for borrows still retained when their frame closes
func BorrowLeaked(resource string, ids []uint32) *Error {
	return &Error{
		Phase:   PhaseResource,
		Kind:    KindBorrowLeaked,
		WitType: resource,
		Detail:  fmt.Sprintf("borrow handle(s) %v outlive their call frame", ids),
		Value:   ids,
	}
}

// LeakedBorrows names the borrows of one resource that outlived their frame.
type LeakedBorrows struct {
	Resource string
	IDs      []uint32
}

// BorrowsLeaked creates a BorrowLeaked error covering borrows of several
// resources. Value holds the leaks in the order given.
func BorrowsLeaked(leaks []LeakedBorrows) *Error {
	if len(leaks) == 1 {
		return BorrowLeaked(leaks[0].Resource, leaks[0].IDs)
	}
	names := make([]string, len(leaks))
	parts := make([]string, len(leaks))
	for i, l := range leaks {
		names[i] = l.Resource
		parts[i] = fmt.Sprintf("%s %v", l.Resource, l.IDs)
	}
	return &Error{
		Phase:   PhaseResource,
		Kind:    KindBorrowLeaked,
		WitType: strings.Join(names, ", "),
		Detail:  "borrow handle(s) " + strings.Join(parts, ", ") + " outlive their call frame",
		Value:   leaks,
	}
}

// FlattenOverflow creates an internal consistency error for slot counts past the limit
func FlattenOverflow(phase Phase, count, limit int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindFlattenOverflow,
		Detail: fmt.Sprintf("flat representation has %d slots, limit is %d", count, limit),
	}
}

// InvalidState creates an error for an operation attempted in the wrong state
func InvalidState(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidState,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// CallFailed wraps a fault raised while a call was in flight
func CallFailed(function string, cause error) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindCallFailed,
		Detail: fmt.Sprintf("call %s", function),
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// MissingImport represents a single unresolved import
type MissingImport struct {
	World string // e.g., "test:lists/host"
	Name  string // e.g., "list-param"
}

// MissingImportsError is returned when an import table lacks entries a world requires
type MissingImportsError struct {
	Imports []MissingImport
}

// NewMissingImportsError creates an error from a list of "world#name" strings
func NewMissingImportsError(imports []string) *MissingImportsError {
	result := &MissingImportsError{
		Imports: make([]MissingImport, 0, len(imports)),
	}
	for _, imp := range imports {
		world, name := parseImportKey(imp)
		result.Imports = append(result.Imports, MissingImport{
			World: world,
			Name:  name,
		})
	}
	return result
}

func parseImportKey(key string) (world, name string) {
	w, n, found := strings.Cut(key, "#")
	if found {
		return w, n
	}
	return key, ""
}

func (e *MissingImportsError) Error() string {
	if len(e.Imports) == 0 {
		return "[linking] missing_import: no imports specified"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("missing %d import(s):\n", len(e.Imports)))

	byWorld := make(map[string][]string)
	var order []string
	for _, imp := range e.Imports {
		if _, exists := byWorld[imp.World]; !exists {
			order = append(order, imp.World)
		}
		byWorld[imp.World] = append(byWorld[imp.World], imp.Name)
	}

	for _, w := range order {
		b.WriteString("\n  ")
		b.WriteString(w)
		b.WriteString(":\n")
		for _, name := range byWorld[w] {
			b.WriteString("    - ")
			b.WriteString(name)
			b.WriteByte('\n')
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// Is reports whether target matches this error type
func (e *MissingImportsError) Is(target error) bool {
	_, ok := target.(*MissingImportsError)
	return ok
}
