package transcoder

import (
	"math"
	"reflect"
	"strconv"
	"unicode/utf8"

	"github.com/tetratelabs/wazero/api"
	"github.com/wippyai/canonabi/errors"
	"github.com/wippyai/canonabi/resource"
	"github.com/wippyai/canonabi/transcoder/internal/abi"
	"github.com/wippyai/canonabi/types"
)

// Safety limits on lowered and lifted data.
const (
	MaxStringSize = abi.MaxStringSize
	MaxListLength = abi.MaxListLength
)

var (
	safeMulU32 = abi.SafeMulU32
	safeAddU32 = abi.SafeAddU32
	typeName   = abi.TypeName
)

// Encoder lowers Go values into flat core values and linear memory.
type Encoder struct {
	layout *LayoutCalculator
	graph  *types.Graph
}

func NewEncoder(lc *LayoutCalculator) *Encoder {
	return &Encoder{layout: lc, graph: lc.Graph()}
}

// Lower lowers values typed by ids. When the flat form of the whole list
// needs more than limit slots the values are stored as a tuple in memory and
// the result is a single i32 pointer. A limit of 0 disables the check.
func (e *Encoder) Lower(ctx *LowerContext, ids []types.TypeID, values []any, limit int) (FlatRepr, error) {
	if len(ids) != len(values) {
		return FlatRepr{}, errors.New(errors.PhaseLower, errors.KindInvalidData).
			Detail("value count mismatch: expected %d, got %d", len(ids), len(values)).
			Build()
	}
	if ctx == nil {
		ctx = &LowerContext{}
	}

	flatTypes := e.layout.FlatList(ids)
	if limit > 0 && len(flatTypes) > limit {
		tl := e.layout.TupleLayout(ids)
		ptr, err := e.alloc(ctx, tl.Size, tl.Align, nil)
		if err != nil {
			return FlatRepr{}, err
		}
		for i, id := range ids {
			if err := e.store(ctx, id, values[i], ptr+tl.FieldOffs[i], indexPath(nil, i)); err != nil {
				return FlatRepr{}, err
			}
		}
		return FlatRepr{
			Slots:    []uint64{uint64(ptr)},
			Types:    []api.ValueType{api.ValueTypeI32},
			Indirect: true,
		}, nil
	}

	flat := make([]uint64, 0, len(flatTypes))
	for i, id := range ids {
		if err := e.lowerFlat(ctx, id, values[i], &flat, indexPath(nil, i)); err != nil {
			return FlatRepr{}, err
		}
	}
	if len(flat) != len(flatTypes) {
		return FlatRepr{}, errors.FlattenOverflow(errors.PhaseLower, len(flat), len(flatTypes))
	}
	return FlatRepr{Slots: flat, Types: flatTypes}, nil
}

// Store writes value at addr using the memory layout of id.
func (e *Encoder) Store(ctx *LowerContext, id types.TypeID, value any, addr uint32) error {
	return e.store(ctx, id, value, addr, nil)
}

func (e *Encoder) typeOf(id types.TypeID, path []string) (*types.Type, error) {
	t, ok := e.graph.Type(id)
	if !ok {
		return nil, errors.New(errors.PhaseLower, errors.KindNotFound).
			Path(path...).
			Detail("unknown type id %d", id).
			Build()
	}
	return t, nil
}

func (e *Encoder) lowerFlat(ctx *LowerContext, id types.TypeID, value any, flat *[]uint64, path []string) error {
	t, err := e.typeOf(id, path)
	if err != nil {
		return err
	}

	switch t.Kind {
	case types.KindBool:
		v, ok := value.(bool)
		if !ok {
			return errors.TypeMismatch(errors.PhaseLower, path, typeName(value), "bool")
		}
		if v {
			*flat = append(*flat, 1)
		} else {
			*flat = append(*flat, 0)
		}

	case types.KindU8, types.KindU16, types.KindU32, types.KindU64:
		bits := unsignedBits(t.Kind)
		u, ok := abi.Unsigned(value, bits)
		if !ok {
			return numericError(path, value, t.Kind)
		}
		*flat = append(*flat, u)

	case types.KindS8, types.KindS16, types.KindS32:
		s, ok := abi.Signed(value, signedBits(t.Kind))
		if !ok {
			return numericError(path, value, t.Kind)
		}
		*flat = append(*flat, uint64(uint32(int32(s))))

	case types.KindS64:
		s, ok := abi.Signed(value, 64)
		if !ok {
			return numericError(path, value, t.Kind)
		}
		*flat = append(*flat, uint64(s))

	case types.KindF32:
		f, ok := abi.Float(value)
		if !ok {
			return errors.TypeMismatch(errors.PhaseLower, path, typeName(value), "float32")
		}
		*flat = append(*flat, uint64(abi.CanonicalizeF32(math.Float32bits(float32(f)))))

	case types.KindF64:
		f, ok := abi.Float(value)
		if !ok {
			return errors.TypeMismatch(errors.PhaseLower, path, typeName(value), "float64")
		}
		*flat = append(*flat, abi.CanonicalizeF64(math.Float64bits(f)))

	case types.KindChar:
		r, err := lowerChar(value, path)
		if err != nil {
			return err
		}
		*flat = append(*flat, uint64(r))

	case types.KindString:
		s, ok := value.(string)
		if !ok {
			return errors.TypeMismatch(errors.PhaseLower, path, typeName(value), "string")
		}
		ptr, n, err := e.lowerString(ctx, s, path)
		if err != nil {
			return err
		}
		*flat = append(*flat, uint64(ptr), uint64(n))

	case types.KindList:
		ptr, n, err := e.lowerList(ctx, t.Elem, value, path)
		if err != nil {
			return err
		}
		*flat = append(*flat, uint64(ptr), uint64(n))

	case types.KindRecord:
		m, ok := value.(map[string]any)
		if !ok {
			return errors.TypeMismatch(errors.PhaseLower, path, typeName(value), "map[string]any")
		}
		for _, f := range t.Fields {
			fv, exists := m[f.Name]
			if !exists {
				return errors.FieldMissing(errors.PhaseLower, path, f.Name)
			}
			if err := e.lowerFlat(ctx, f.Type, fv, flat, fieldPath(path, f.Name)); err != nil {
				return err
			}
		}

	case types.KindTuple:
		elems, err := tupleElems(value, len(t.Elems), path)
		if err != nil {
			return err
		}
		for i, et := range t.Elems {
			if err := e.lowerFlat(ctx, et, elems[i], flat, indexPath(path, i)); err != nil {
				return err
			}
		}

	case types.KindVariant, types.KindOption, types.KindResult:
		disc, payload, pv, err := e.selectCase(t, value, path)
		if err != nil {
			return err
		}
		start := len(*flat)
		*flat = append(*flat, uint64(disc))
		if payload != 0 {
			if err := e.lowerFlat(ctx, payload, pv, flat, path); err != nil {
				return err
			}
		}
		// inactive slots are zero; coercion to the joined slot type keeps the raw bits
		end := start + e.layout.FlatCount(id)
		for len(*flat) < end {
			*flat = append(*flat, 0)
		}

	case types.KindEnum:
		idx, err := enumIndex(t, value, path)
		if err != nil {
			return err
		}
		*flat = append(*flat, uint64(idx))

	case types.KindFlags:
		words, err := flagWords(t, value, path)
		if err != nil {
			return err
		}
		for _, w := range words {
			*flat = append(*flat, uint64(w))
		}

	case types.KindOwn, types.KindBorrow:
		id, err := e.lowerHandle(ctx, t, value, path)
		if err != nil {
			return err
		}
		*flat = append(*flat, uint64(id))

	default:
		return errors.Unsupported(errors.PhaseLower, "type kind "+t.Kind.String())
	}
	return nil
}

// store writes value at addr. Scalars, strings, lists and handles reuse the
// flat lowering and write the slots at their memory width.
func (e *Encoder) store(ctx *LowerContext, id types.TypeID, value any, addr uint32, path []string) error {
	t, err := e.typeOf(id, path)
	if err != nil {
		return err
	}
	if ctx.Memory == nil {
		return errors.InvalidState(errors.PhaseLower, "no linear memory to store into")
	}
	mem := ctx.Memory
	info := e.layout.Calculate(id)

	switch t.Kind {
	case types.KindRecord:
		m, ok := value.(map[string]any)
		if !ok {
			return errors.TypeMismatch(errors.PhaseLower, path, typeName(value), "map[string]any")
		}
		for i, f := range t.Fields {
			fv, exists := m[f.Name]
			if !exists {
				return errors.FieldMissing(errors.PhaseLower, path, f.Name)
			}
			if err := e.store(ctx, f.Type, fv, addr+info.FieldOffs[i], fieldPath(path, f.Name)); err != nil {
				return err
			}
		}
		return nil

	case types.KindTuple:
		elems, err := tupleElems(value, len(t.Elems), path)
		if err != nil {
			return err
		}
		for i, et := range t.Elems {
			if err := e.store(ctx, et, elems[i], addr+info.FieldOffs[i], indexPath(path, i)); err != nil {
				return err
			}
		}
		return nil

	case types.KindVariant, types.KindOption, types.KindResult:
		disc, payload, pv, err := e.selectCase(t, value, path)
		if err != nil {
			return err
		}
		if err := writeUint(mem, addr, info.DiscSize, uint64(disc)); err != nil {
			return err
		}
		if payload != 0 {
			return e.store(ctx, payload, pv, addr+info.PayloadOff, path)
		}
		return nil

	case types.KindFlags:
		words, err := flagWords(t, value, path)
		if err != nil {
			return err
		}
		if info.Size < 4 {
			var w uint32
			if len(words) > 0 {
				w = words[0]
			}
			return writeUint(mem, addr, info.Size, uint64(w))
		}
		for i, w := range words {
			if err := mem.WriteU32(addr+uint32(i)*4, w); err != nil {
				return err
			}
		}
		return nil
	}

	var buf [2]uint64
	slots := buf[:0]
	if err := e.lowerFlat(ctx, id, value, &slots, path); err != nil {
		return err
	}
	switch t.Kind {
	case types.KindString, types.KindList:
		if err := mem.WriteU32(addr, uint32(slots[0])); err != nil {
			return err
		}
		return mem.WriteU32(addr+4, uint32(slots[1]))
	default:
		return writeUint(mem, addr, info.Size, slots[0])
	}
}

func (e *Encoder) alloc(ctx *LowerContext, size, align uint32, path []string) (uint32, error) {
	if ctx.Allocator == nil || ctx.Memory == nil {
		return 0, errors.AllocationFailed(errors.PhaseLower, size, align,
			errors.InvalidState(errors.PhaseLower, "no allocator for linear memory"))
	}
	ptr, err := ctx.Allocator.Alloc(size, align)
	if err != nil {
		b := errors.New(errors.PhaseLower, errors.KindAllocation).
			Path(path...).
			Cause(err).
			Detail("failed to allocate %d bytes (align %d)", size, align)
		return 0, b.Build()
	}
	if ctx.Allocs != nil {
		ctx.Allocs.Add(ptr, size, align)
	}
	return ptr, nil
}

func (e *Encoder) lowerString(ctx *LowerContext, s string, path []string) (uint32, uint32, error) {
	if !utf8.ValidString(s) {
		return 0, 0, errors.InvalidUTF8(errors.PhaseLower, path, []byte(s))
	}
	if len(s) > MaxStringSize {
		return 0, 0, errors.New(errors.PhaseLower, errors.KindOverflow).
			Path(path...).
			Detail("string size %d exceeds maximum %d", len(s), MaxStringSize).
			Build()
	}
	n := uint32(len(s))
	if n == 0 {
		return 0, 0, nil
	}
	ptr, err := e.alloc(ctx, n, 1, path)
	if err != nil {
		return 0, 0, err
	}
	if err := ctx.Memory.Write(ptr, []byte(s)); err != nil {
		return 0, 0, err
	}
	return ptr, n, nil
}

func (e *Encoder) lowerList(ctx *LowerContext, elem types.TypeID, value any, path []string) (uint32, uint32, error) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice {
		return 0, 0, errors.TypeMismatch(errors.PhaseLower, path, typeName(value), "slice")
	}
	if rv.Len() > MaxListLength {
		return 0, 0, errors.New(errors.PhaseLower, errors.KindOverflow).
			Path(path...).
			Detail("list length %d exceeds maximum %d", rv.Len(), MaxListLength).
			Build()
	}
	length := uint32(rv.Len())
	if length == 0 {
		return 0, 0, nil
	}

	el := e.layout.Calculate(elem)
	size, ok := safeMulU32(length, el.Size)
	if !ok {
		return 0, 0, errors.New(errors.PhaseLower, errors.KindOverflow).
			Path(path...).
			Detail("list data size overflow: %d * %d", length, el.Size).
			Build()
	}
	ptr, err := e.alloc(ctx, size, el.Align, path)
	if err != nil {
		return 0, 0, err
	}

	if et, _ := e.graph.Type(elem); et != nil && et.Kind == types.KindU8 && rv.Type().Elem().Kind() == reflect.Uint8 {
		if err := ctx.Memory.Write(ptr, rv.Bytes()); err != nil {
			return 0, 0, err
		}
		return ptr, length, nil
	}

	for i := uint32(0); i < length; i++ {
		if err := e.store(ctx, elem, rv.Index(int(i)).Interface(), ptr+i*el.Size, indexPath(path, int(i))); err != nil {
			return 0, 0, err
		}
	}
	return ptr, length, nil
}

// selectCase returns the case index, its payload type and the payload value
// for a variant, option or result value.
func (e *Encoder) selectCase(t *types.Type, value any, path []string) (uint32, types.TypeID, any, error) {
	switch t.Kind {
	case types.KindOption:
		switch v := value.(type) {
		case nil:
			return 0, 0, nil, nil
		case Option:
			if !v.Some {
				return 0, 0, nil, nil
			}
			return 1, t.Elem, v.Value, nil
		}
		return 0, 0, nil, errors.TypeMismatch(errors.PhaseLower, path, typeName(value), "transcoder.Option")

	case types.KindResult:
		v, ok := value.(Result)
		if !ok {
			return 0, 0, nil, errors.TypeMismatch(errors.PhaseLower, path, typeName(value), "transcoder.Result")
		}
		if v.IsErr {
			return 1, t.Err, v.Value, nil
		}
		return 0, t.OK, v.Value, nil

	default:
		v, ok := value.(Variant)
		if !ok {
			return 0, 0, nil, errors.TypeMismatch(errors.PhaseLower, path, typeName(value), "transcoder.Variant")
		}
		for i, c := range t.Cases {
			if c.Name == v.Case {
				return uint32(i), c.Type, v.Value, nil
			}
		}
		return 0, 0, nil, errors.New(errors.PhaseLower, errors.KindInvalidDiscriminant).
			Path(path...).
			WitType(t.Name).
			Value(v.Case).
			Detail("unknown case %q", v.Case).
			Build()
	}
}

func (e *Encoder) lowerHandle(ctx *LowerContext, t *types.Type, value any, path []string) (uint32, error) {
	h, ok := value.(resource.Handle)
	if !ok {
		return 0, errors.TypeMismatch(errors.PhaseLower, path, typeName(value), "resource.Handle")
	}
	if ctx.Handles == nil {
		return 0, errors.InvalidState(errors.PhaseLower, "no handle bridge for "+t.Kind.String()+" value")
	}
	if t.Kind == types.KindOwn {
		return ctx.Handles.LowerOwn(t.Resource, h)
	}
	return ctx.Handles.LowerBorrow(t.Resource, h)
}

func lowerChar(value any, path []string) (rune, error) {
	var r rune
	switch v := value.(type) {
	case rune:
		r = v
	case string:
		n := utf8.RuneCountInString(v)
		if n != 1 {
			return 0, errors.New(errors.PhaseLower, errors.KindInvalidData).
				Path(path...).
				Detail("string of %d runes cannot be converted to char", n).
				Build()
		}
		r, _ = utf8.DecodeRuneInString(v)
	default:
		return 0, errors.TypeMismatch(errors.PhaseLower, path, typeName(value), "rune")
	}
	if !abi.ValidateChar(r) {
		return 0, errors.InvalidChar(errors.PhaseLower, path, uint32(r))
	}
	return r, nil
}

func enumIndex(t *types.Type, value any, path []string) (uint32, error) {
	var name string
	switch v := value.(type) {
	case Enum:
		name = string(v)
	case string:
		name = v
	default:
		return 0, errors.TypeMismatch(errors.PhaseLower, path, typeName(value), "transcoder.Enum")
	}
	for i, l := range t.Labels {
		if l == name {
			return uint32(i), nil
		}
	}
	return 0, errors.InvalidEnum(errors.PhaseLower, path, name, len(t.Labels))
}

func flagWords(t *types.Type, value any, path []string) ([]uint32, error) {
	var set []string
	switch v := value.(type) {
	case Flags:
		set = v
	case []string:
		set = v
	case nil:
	default:
		return nil, errors.TypeMismatch(errors.PhaseLower, path, typeName(value), "transcoder.Flags")
	}

	words := make([]uint32, abi.FlagWords(len(t.Labels)))
	for _, name := range set {
		bit := -1
		for i, l := range t.Labels {
			if l == name {
				bit = i
				break
			}
		}
		if bit < 0 {
			return nil, errors.InvalidFlags(errors.PhaseLower, path, "unknown flag "+strconv.Quote(name))
		}
		words[bit/32] |= 1 << (bit % 32)
	}
	return words, nil
}

func tupleElems(value any, n int, path []string) ([]any, error) {
	elems, ok := value.([]any)
	if !ok {
		return nil, errors.TypeMismatch(errors.PhaseLower, path, typeName(value), "[]any")
	}
	if len(elems) != n {
		return nil, errors.New(errors.PhaseLower, errors.KindInvalidData).
			Path(path...).
			Detail("tuple arity mismatch: expected %d, got %d", n, len(elems)).
			Build()
	}
	return elems, nil
}

func numericError(path []string, value any, k types.Kind) error {
	if _, numeric := abi.Float(value); numeric {
		return errors.Overflow(errors.PhaseLower, path, value, k.String())
	}
	return errors.TypeMismatch(errors.PhaseLower, path, typeName(value), k.String())
}

func unsignedBits(k types.Kind) uint {
	switch k {
	case types.KindU8:
		return 8
	case types.KindU16:
		return 16
	case types.KindU32:
		return 32
	}
	return 64
}

func signedBits(k types.Kind) uint {
	switch k {
	case types.KindS8:
		return 8
	case types.KindS16:
		return 16
	case types.KindS32:
		return 32
	}
	return 64
}

func writeUint(mem Memory, addr, size uint32, v uint64) error {
	switch size {
	case 0:
		return nil
	case 1:
		return mem.WriteU8(addr, uint8(v))
	case 2:
		return mem.WriteU16(addr, uint16(v))
	case 4:
		return mem.WriteU32(addr, uint32(v))
	default:
		return mem.WriteU64(addr, v)
	}
}

func fieldPath(path []string, name string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, name)
}

func indexPath(path []string, i int) []string {
	return fieldPath(path, "["+strconv.Itoa(i)+"]")
}
