package transcoder

import (
	"math"
	"unicode/utf8"

	"github.com/tetratelabs/wazero/api"
	"github.com/wippyai/canonabi/errors"
	"github.com/wippyai/canonabi/resource"
	"github.com/wippyai/canonabi/transcoder/internal/abi"
	"github.com/wippyai/canonabi/types"
)

// Decoder lifts flat core values and linear memory back into Go values.
type Decoder struct {
	layout *LayoutCalculator
	graph  *types.Graph
}

func NewDecoder(lc *LayoutCalculator) *Decoder {
	return &Decoder{layout: lc, graph: lc.Graph()}
}

// Lift lifts the value list typed by ids from repr. An indirect repr is read
// from memory as a tuple; a direct one must carry exactly the flat slots of ids.
func (d *Decoder) Lift(ctx *LiftContext, ids []types.TypeID, repr FlatRepr) ([]any, error) {
	if ctx == nil {
		ctx = &LiftContext{}
	}
	out := make([]any, len(ids))

	if repr.Indirect {
		if len(repr.Slots) != 1 {
			return nil, errors.InvalidData(errors.PhaseLift, nil, "indirect value list must be a single pointer")
		}
		ptr := uint32(repr.Slots[0])
		tl := d.layout.TupleLayout(ids)
		if ptr%tl.Align != 0 {
			return nil, errors.New(errors.PhaseLift, errors.KindInvalidData).
				Value(ptr).
				Detail("pointer %d is not aligned to %d", ptr, tl.Align).
				Build()
		}
		for i, id := range ids {
			v, err := d.load(ctx, id, ptr+tl.FieldOffs[i], indexPath(nil, i))
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	want := d.layout.FlatList(ids)
	if ctx.Limit > 0 && len(want) > ctx.Limit {
		return nil, errors.FlattenOverflow(errors.PhaseLift, len(want), ctx.Limit)
	}
	if len(repr.Slots) != len(want) {
		return nil, errors.New(errors.PhaseLift, errors.KindInvalidData).
			Detail("expected %d flat values, got %d", len(want), len(repr.Slots)).
			Build()
	}

	offset := 0
	for i, id := range ids {
		v, n, err := d.liftFlat(ctx, id, repr.Slots[offset:], indexPath(nil, i))
		if err != nil {
			return nil, err
		}
		out[i] = v
		offset += n
	}
	return out, nil
}

// Load reads the value of type id stored at addr.
func (d *Decoder) Load(ctx *LiftContext, id types.TypeID, addr uint32) (any, error) {
	return d.load(ctx, id, addr, nil)
}

func (d *Decoder) typeOf(id types.TypeID, path []string) (*types.Type, error) {
	t, ok := d.graph.Type(id)
	if !ok {
		return nil, errors.New(errors.PhaseLift, errors.KindNotFound).
			Path(path...).
			Detail("unknown type id %d", id).
			Build()
	}
	return t, nil
}

// liftFlat lifts one value from the front of slots and reports how many
// slots it consumed.
func (d *Decoder) liftFlat(ctx *LiftContext, id types.TypeID, slots []uint64, path []string) (any, int, error) {
	t, err := d.typeOf(id, path)
	if err != nil {
		return nil, 0, err
	}
	need := d.layout.FlatCount(id)
	if len(slots) < need {
		return nil, 0, errors.New(errors.PhaseLift, errors.KindInvalidData).
			Path(path...).
			Detail("need %d flat values, have %d", need, len(slots)).
			Build()
	}

	switch t.Kind {
	case types.KindBool:
		return uint32(slots[0]) != 0, 1, nil
	case types.KindU8:
		return uint8(slots[0]), 1, nil
	case types.KindS8:
		return int8(slots[0]), 1, nil
	case types.KindU16:
		return uint16(slots[0]), 1, nil
	case types.KindS16:
		return int16(slots[0]), 1, nil
	case types.KindU32:
		return uint32(slots[0]), 1, nil
	case types.KindS32:
		return int32(uint32(slots[0])), 1, nil
	case types.KindU64:
		return slots[0], 1, nil
	case types.KindS64:
		return int64(slots[0]), 1, nil
	case types.KindF32:
		return math.Float32frombits(abi.CanonicalizeF32(uint32(slots[0]))), 1, nil
	case types.KindF64:
		return math.Float64frombits(abi.CanonicalizeF64(slots[0])), 1, nil

	case types.KindChar:
		r := uint32(slots[0])
		if r > math.MaxInt32 || !abi.ValidateChar(rune(r)) {
			return nil, 0, errors.InvalidChar(errors.PhaseLift, path, r)
		}
		return rune(r), 1, nil

	case types.KindString:
		s, err := d.loadString(ctx, uint32(slots[0]), uint32(slots[1]), path)
		if err != nil {
			return nil, 0, err
		}
		return s, 2, nil

	case types.KindList:
		l, err := d.loadList(ctx, t.Elem, uint32(slots[0]), uint32(slots[1]), path)
		if err != nil {
			return nil, 0, err
		}
		return l, 2, nil

	case types.KindRecord:
		m := make(map[string]any, len(t.Fields))
		offset := 0
		for _, f := range t.Fields {
			v, n, err := d.liftFlat(ctx, f.Type, slots[offset:], fieldPath(path, f.Name))
			if err != nil {
				return nil, 0, err
			}
			m[f.Name] = v
			offset += n
		}
		return m, offset, nil

	case types.KindTuple:
		elems := make([]any, len(t.Elems))
		offset := 0
		for i, et := range t.Elems {
			v, n, err := d.liftFlat(ctx, et, slots[offset:], indexPath(path, i))
			if err != nil {
				return nil, 0, err
			}
			elems[i] = v
			offset += n
		}
		return elems, offset, nil

	case types.KindVariant, types.KindOption, types.KindResult:
		disc := slots[0]
		payload, err := d.caseType(t, disc, path)
		if err != nil {
			return nil, 0, err
		}
		var pv any
		if payload != 0 {
			pv, err = d.liftPayload(ctx, payload, slots[1:need], path)
			if err != nil {
				return nil, 0, err
			}
		}
		return makeCase(t, uint32(disc), pv), need, nil

	case types.KindEnum:
		v, err := liftEnum(t, slots[0], path)
		if err != nil {
			return nil, 0, err
		}
		return v, 1, nil

	case types.KindFlags:
		words := make([]uint32, need)
		for i := range words {
			words[i] = uint32(slots[i])
		}
		f, err := liftFlags(t, words, path)
		if err != nil {
			return nil, 0, err
		}
		return f, need, nil

	case types.KindOwn, types.KindBorrow:
		h, err := d.liftHandle(ctx, t, uint32(slots[0]))
		if err != nil {
			return nil, 0, err
		}
		return h, 1, nil
	}
	return nil, 0, errors.Unsupported(errors.PhaseLift, "type kind "+t.Kind.String())
}

// liftPayload narrows the joined variant slots back to the case's own slot
// types before lifting the payload.
func (d *Decoder) liftPayload(ctx *LiftContext, payload types.TypeID, joined []uint64, path []string) (any, error) {
	own := d.layout.Flat(payload)
	narrowed := make([]uint64, len(own))
	for i, vt := range own {
		v := joined[i]
		if vt == api.ValueTypeI32 || vt == api.ValueTypeF32 {
			v = uint64(uint32(v))
		}
		narrowed[i] = v
	}
	v, _, err := d.liftFlat(ctx, payload, narrowed, path)
	return v, err
}

func (d *Decoder) load(ctx *LiftContext, id types.TypeID, addr uint32, path []string) (any, error) {
	t, err := d.typeOf(id, path)
	if err != nil {
		return nil, err
	}
	if ctx.Memory == nil {
		return nil, errors.InvalidState(errors.PhaseLift, "no linear memory to load from")
	}
	mem := ctx.Memory
	info := d.layout.Calculate(id)

	switch t.Kind {
	case types.KindString, types.KindList:
		ptr, err := mem.ReadU32(addr)
		if err != nil {
			return nil, err
		}
		n, err := mem.ReadU32(addr + 4)
		if err != nil {
			return nil, err
		}
		if t.Kind == types.KindString {
			return d.loadString(ctx, ptr, n, path)
		}
		return d.loadList(ctx, t.Elem, ptr, n, path)

	case types.KindRecord:
		m := make(map[string]any, len(t.Fields))
		for i, f := range t.Fields {
			v, err := d.load(ctx, f.Type, addr+info.FieldOffs[i], fieldPath(path, f.Name))
			if err != nil {
				return nil, err
			}
			m[f.Name] = v
		}
		return m, nil

	case types.KindTuple:
		elems := make([]any, len(t.Elems))
		for i, et := range t.Elems {
			v, err := d.load(ctx, et, addr+info.FieldOffs[i], indexPath(path, i))
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return elems, nil

	case types.KindVariant, types.KindOption, types.KindResult:
		disc, err := readUint(mem, addr, info.DiscSize)
		if err != nil {
			return nil, err
		}
		payload, err := d.caseType(t, disc, path)
		if err != nil {
			return nil, err
		}
		var pv any
		if payload != 0 {
			if pv, err = d.load(ctx, payload, addr+info.PayloadOff, path); err != nil {
				return nil, err
			}
		}
		return makeCase(t, uint32(disc), pv), nil

	case types.KindFlags:
		words := make([]uint32, abi.FlagWords(len(t.Labels)))
		if info.Size < 4 {
			w, err := readUint(mem, addr, info.Size)
			if err != nil {
				return nil, err
			}
			if len(words) > 0 {
				words[0] = uint32(w)
			}
		} else {
			for i := range words {
				w, err := mem.ReadU32(addr + uint32(i)*4)
				if err != nil {
					return nil, err
				}
				words[i] = w
			}
		}
		return liftFlags(t, words, path)
	}

	// scalars, enums and handles: read at memory width, lift as one slot
	v, err := readUint(mem, addr, info.Size)
	if err != nil {
		return nil, err
	}
	out, _, err := d.liftFlat(ctx, id, []uint64{v}, path)
	return out, err
}

func (d *Decoder) loadString(ctx *LiftContext, ptr, n uint32, path []string) (string, error) {
	if n == 0 {
		return "", nil
	}
	if n > MaxStringSize {
		return "", errors.New(errors.PhaseLift, errors.KindOverflow).
			Path(path...).
			Detail("string size %d exceeds maximum %d", n, MaxStringSize).
			Build()
	}
	if ctx.Memory == nil {
		return "", errors.InvalidState(errors.PhaseLift, "no linear memory to load from")
	}
	data, err := ctx.Memory.Read(ptr, n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", errors.InvalidUTF8(errors.PhaseLift, path, data)
	}
	return string(data), nil
}

func (d *Decoder) loadList(ctx *LiftContext, elem types.TypeID, ptr, n uint32, path []string) ([]any, error) {
	if n == 0 {
		return []any{}, nil
	}
	if n > MaxListLength {
		return nil, errors.New(errors.PhaseLift, errors.KindOverflow).
			Path(path...).
			Detail("list length %d exceeds maximum %d", n, MaxListLength).
			Build()
	}
	el := d.layout.Calculate(elem)
	if ptr%el.Align != 0 {
		return nil, errors.InvalidData(errors.PhaseLift, path, "list pointer is not aligned to its element")
	}
	size, ok := safeMulU32(n, el.Size)
	if !ok {
		return nil, errors.New(errors.PhaseLift, errors.KindOverflow).
			Path(path...).
			Detail("list data size overflow: %d * %d", n, el.Size).
			Build()
	}
	if _, ok := safeAddU32(ptr, size); !ok {
		return nil, errors.OutOfBounds(errors.PhaseLift, path, ptr, size)
	}

	out := make([]any, n)
	for i := uint32(0); i < n; i++ {
		v, err := d.load(ctx, elem, ptr+i*el.Size, indexPath(path, int(i)))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// caseType validates a discriminant and returns the active case's payload type.
func (d *Decoder) caseType(t *types.Type, disc uint64, path []string) (types.TypeID, error) {
	var payloads []types.TypeID
	switch t.Kind {
	case types.KindOption:
		payloads = []types.TypeID{0, t.Elem}
	case types.KindResult:
		payloads = []types.TypeID{t.OK, t.Err}
	default:
		payloads = make([]types.TypeID, len(t.Cases))
		for i, c := range t.Cases {
			payloads[i] = c.Type
		}
	}
	if disc >= uint64(len(payloads)) {
		return 0, errors.InvalidDiscriminant(errors.PhaseLift, path, uint32(disc), len(payloads))
	}
	return payloads[disc], nil
}

func (d *Decoder) liftHandle(ctx *LiftContext, t *types.Type, id uint32) (resource.Handle, error) {
	if ctx.Handles == nil {
		return resource.Handle{}, errors.InvalidState(errors.PhaseLift, "no handle bridge for "+t.Kind.String()+" value")
	}
	if t.Kind == types.KindOwn {
		return ctx.Handles.LiftOwn(t.Resource, id)
	}
	return ctx.Handles.LiftBorrow(t.Resource, id)
}

func makeCase(t *types.Type, disc uint32, payload any) any {
	switch t.Kind {
	case types.KindOption:
		if disc == 0 {
			return None()
		}
		return Some(payload)
	case types.KindResult:
		return Result{IsErr: disc == 1, Value: payload}
	default:
		return Variant{Case: t.Cases[disc].Name, Value: payload}
	}
}

func liftEnum(t *types.Type, slot uint64, path []string) (Enum, error) {
	if slot >= uint64(len(t.Labels)) {
		return "", errors.InvalidEnum(errors.PhaseLift, path, slot, len(t.Labels))
	}
	return Enum(t.Labels[slot]), nil
}

func liftFlags(t *types.Type, words []uint32, path []string) (Flags, error) {
	n := len(t.Labels)
	out := Flags{}
	for w, word := range words {
		for b := 0; b < 32 && word != 0; b++ {
			if word&(1<<b) == 0 {
				continue
			}
			bit := w*32 + b
			if bit >= n {
				return nil, errors.New(errors.PhaseLift, errors.KindInvalidFlags).
					Path(path...).
					WitType(t.Name).
					Value(word).
					Detail("bit %d set but only %d flags declared", bit, n).
					Build()
			}
			out = append(out, t.Labels[bit])
		}
	}
	return out, nil
}

func readUint(mem Memory, addr, size uint32) (uint64, error) {
	switch size {
	case 0:
		return 0, nil
	case 1:
		v, err := mem.ReadU8(addr)
		return uint64(v), err
	case 2:
		v, err := mem.ReadU16(addr)
		return uint64(v), err
	case 4:
		v, err := mem.ReadU32(addr)
		return uint64(v), err
	default:
		return mem.ReadU64(addr)
	}
}
