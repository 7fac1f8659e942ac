package interp

import (
	"strings"

	"hemlock/internal/value"
)

// callBuiltinMethod dispatches the built-in method surface of the heap
// kinds. Arguments are borrowed; the result is owned by the caller. The
// third return reports whether the (kind, name) pair exists at all.
func (in *Interp) callBuiltinMethod(recv value.Value, name string, args []value.Value) (value.Value, *value.RuntimeError, bool) {
	switch recv.Kind {
	case value.KindArray:
		return in.arrayMethod(recv.ArrayRef(), name, args)
	case value.KindString:
		return in.stringMethod(recv.StringRef(), name, args)
	case value.KindObject:
		return in.objectMethod(recv.ObjectRef(), name, args)
	case value.KindChannel:
		return in.channelMethod(recv.ChannelRef(), name, args)
	case value.KindTask:
		return in.taskMethod(recv.TaskRef(), name, args)
	case value.KindBuffer:
		return in.bufferMethod(recv.BufferRef(), name, args)
	}
	return value.Value{}, nil, false
}

func wantArgs(name string, args []value.Value, n int) *value.RuntimeError {
	if len(args) != n {
		return value.Errorf(value.TypeError, "%s takes %d arguments, got %d", name, n, len(args))
	}
	return nil
}

func intArg(name string, v value.Value) (int, *value.RuntimeError) {
	if !value.IsIntegerKind(v.Kind) {
		return 0, value.Errorf(value.TypeError, "%s needs an integer argument, got %s", name, v.Kind)
	}
	return int(v.Int), nil
}

func strArg(name string, v value.Value) (string, *value.RuntimeError) {
	if v.Kind != value.KindString {
		return "", value.Errorf(value.TypeError, "%s needs a string argument, got %s", name, v.Kind)
	}
	return v.StringRef().Text(), nil
}

// stringMethod covers the built-in string surface. Position arguments to
// substr, slice and char_at count codepoints; find and byte_at work in
// bytes.
func (in *Interp) stringMethod(s *value.String, name string, args []value.Value) (value.Value, *value.RuntimeError, bool) {
	text := s.Text()
	switch name {
	case "len":
		if err := wantArgs(name, args, 0); err != nil {
			return value.Value{}, err, true
		}
		return value.I32(int64(len(text))), nil, true
	case "substr":
		if err := wantArgs(name, args, 2); err != nil {
			return value.Value{}, err, true
		}
		start, err := intArg(name, args[0])
		if err != nil {
			return value.Value{}, err, true
		}
		length, err := intArg(name, args[1])
		if err != nil {
			return value.Value{}, err, true
		}
		runes := []rune(text)
		if start < 0 || start >= len(runes) {
			return value.Value{}, value.Errorf(value.RangeError, "substr start %d out of range for length %d", start, len(runes)), true
		}
		if length < 0 {
			return value.Value{}, value.Errorf(value.RangeError, "substr length cannot be negative"), true
		}
		if start+length > len(runes) {
			length = len(runes) - start
		}
		return value.NewString(string(runes[start : start+length])), nil, true
	case "slice":
		if err := wantArgs(name, args, 2); err != nil {
			return value.Value{}, err, true
		}
		start, err := intArg(name, args[0])
		if err != nil {
			return value.Value{}, err, true
		}
		end, err := intArg(name, args[1])
		if err != nil {
			return value.Value{}, err, true
		}
		runes := []rune(text)
		if start < 0 || start > len(runes) || end < start || end > len(runes) {
			return value.Value{}, value.Errorf(value.RangeError, "slice bounds [%d:%d] out of range for length %d", start, end, len(runes)), true
		}
		return value.NewString(string(runes[start:end])), nil, true
	case "find":
		needle, err := argString(name, args)
		if err != nil {
			return value.Value{}, err, true
		}
		return value.I32(int64(strings.Index(text, needle))), nil, true
	case "contains":
		needle, err := argString(name, args)
		if err != nil {
			return value.Value{}, err, true
		}
		return value.Bool(strings.Contains(text, needle)), nil, true
	case "starts_with":
		prefix, err := argString(name, args)
		if err != nil {
			return value.Value{}, err, true
		}
		return value.Bool(strings.HasPrefix(text, prefix)), nil, true
	case "ends_with":
		suffix, err := argString(name, args)
		if err != nil {
			return value.Value{}, err, true
		}
		return value.Bool(strings.HasSuffix(text, suffix)), nil, true
	case "split":
		delim, err := argString(name, args)
		if err != nil {
			return value.Value{}, err, true
		}
		if delim == "" {
			// empty delimiter splits into single-byte strings
			elems := make([]value.Value, len(text))
			for i := 0; i < len(text); i++ {
				elems[i] = value.NewString(text[i : i+1])
			}
			return value.NewArray(elems), nil, true
		}
		parts := strings.Split(text, delim)
		elems := make([]value.Value, len(parts))
		for i, p := range parts {
			elems[i] = value.NewString(p)
		}
		return value.NewArray(elems), nil, true
	case "trim":
		if err := wantArgs(name, args, 0); err != nil {
			return value.Value{}, err, true
		}
		return value.NewString(strings.Trim(text, " \t\n\r")), nil, true
	case "to_upper":
		if err := wantArgs(name, args, 0); err != nil {
			return value.Value{}, err, true
		}
		return value.NewString(strings.ToUpper(text)), nil, true
	case "to_lower":
		if err := wantArgs(name, args, 0); err != nil {
			return value.Value{}, err, true
		}
		return value.NewString(strings.ToLower(text)), nil, true
	case "replace", "replace_all":
		if err := wantArgs(name, args, 2); err != nil {
			return value.Value{}, err, true
		}
		old, err := strArg(name, args[0])
		if err != nil {
			return value.Value{}, err, true
		}
		repl, err := strArg(name, args[1])
		if err != nil {
			return value.Value{}, err, true
		}
		if name == "replace" {
			return value.NewString(strings.Replace(text, old, repl, 1)), nil, true
		}
		if old == "" {
			return value.NewString(text), nil, true
		}
		return value.NewString(strings.ReplaceAll(text, old, repl)), nil, true
	case "repeat":
		if err := wantArgs(name, args, 1); err != nil {
			return value.Value{}, err, true
		}
		count, err := intArg(name, args[0])
		if err != nil {
			return value.Value{}, err, true
		}
		if count < 0 {
			return value.Value{}, value.Errorf(value.RangeError, "repeat count cannot be negative"), true
		}
		return value.NewString(strings.Repeat(text, count)), nil, true
	case "char_at":
		if err := wantArgs(name, args, 1); err != nil {
			return value.Value{}, err, true
		}
		i, err := intArg(name, args[0])
		if err != nil {
			return value.Value{}, err, true
		}
		runes := []rune(text)
		if i < 0 || i >= len(runes) {
			return value.Value{}, value.Errorf(value.RangeError, "char_at index %d out of range for length %d", i, len(runes)), true
		}
		return value.Rune(runes[i]), nil, true
	case "byte_at":
		if err := wantArgs(name, args, 1); err != nil {
			return value.Value{}, err, true
		}
		i, err := intArg(name, args[0])
		if err != nil {
			return value.Value{}, err, true
		}
		if i < 0 || i >= len(text) {
			return value.Value{}, value.Errorf(value.RangeError, "byte_at index %d out of range for byte length %d", i, len(text)), true
		}
		return value.Int(value.KindU8, int64(text[i])), nil, true
	case "chars":
		if err := wantArgs(name, args, 0); err != nil {
			return value.Value{}, err, true
		}
		runes := []rune(text)
		elems := make([]value.Value, len(runes))
		for i, r := range runes {
			elems[i] = value.Rune(r)
		}
		return value.NewArray(elems), nil, true
	case "bytes":
		if err := wantArgs(name, args, 0); err != nil {
			return value.Value{}, err, true
		}
		elems := make([]value.Value, len(text))
		for i := 0; i < len(text); i++ {
			elems[i] = value.Int(value.KindU8, int64(text[i]))
		}
		return value.NewArray(elems), nil, true
	case "to_bytes":
		if err := wantArgs(name, args, 0); err != nil {
			return value.Value{}, err, true
		}
		return value.NewBufferBytes([]byte(text)), nil, true
	}
	return value.Value{}, nil, false
}

// argString is the one-string-argument prologue shared by the search
// methods.
func argString(name string, args []value.Value) (string, *value.RuntimeError) {
	if err := wantArgs(name, args, 1); err != nil {
		return "", err
	}
	return strArg(name, args[0])
}

func (in *Interp) arrayMethod(arr *value.Array, name string, args []value.Value) (value.Value, *value.RuntimeError, bool) {
	switch name {
	case "push":
		if len(args) == 0 {
			return value.Value{}, value.Errorf(value.TypeError, "push needs at least one argument"), true
		}
		for _, a := range args {
			arr.Push(a)
		}
		return value.Null(), nil, true
	case "pop":
		if err := wantArgs(name, args, 0); err != nil {
			return value.Value{}, err, true
		}
		v, _ := arr.Pop()
		return v, nil, true
	case "shift":
		if err := wantArgs(name, args, 0); err != nil {
			return value.Value{}, err, true
		}
		v, _ := arr.Shift()
		return v, nil, true
	case "unshift":
		if err := wantArgs(name, args, 1); err != nil {
			return value.Value{}, err, true
		}
		arr.Unshift(args[0])
		return value.Null(), nil, true
	case "insert":
		if err := wantArgs(name, args, 2); err != nil {
			return value.Value{}, err, true
		}
		i, err := intArg(name, args[0])
		if err != nil {
			return value.Value{}, err, true
		}
		if !arr.Insert(i, args[1]) {
			return value.Value{}, value.Errorf(value.RangeError, "insert index %d out of range", i), true
		}
		return value.Null(), nil, true
	case "remove":
		if err := wantArgs(name, args, 1); err != nil {
			return value.Value{}, err, true
		}
		i, err := intArg(name, args[0])
		if err != nil {
			return value.Value{}, err, true
		}
		v, ok := arr.Remove(i)
		if !ok {
			return value.Value{}, value.Errorf(value.RangeError, "remove index %d out of range", i), true
		}
		return v, nil, true
	case "slice":
		if err := wantArgs(name, args, 2); err != nil {
			return value.Value{}, err, true
		}
		start, err := intArg(name, args[0])
		if err != nil {
			return value.Value{}, err, true
		}
		end, err := intArg(name, args[1])
		if err != nil {
			return value.Value{}, err, true
		}
		v, ok := arr.Slice(start, end)
		if !ok {
			return value.Value{}, value.Errorf(value.RangeError, "slice bounds [%d:%d] out of range for length %d", start, end, arr.Len()), true
		}
		return v, nil, true
	case "join":
		sep, err := argString(name, args)
		if err != nil {
			return value.Value{}, err, true
		}
		return value.NewString(arr.Join(sep)), nil, true
	case "find":
		if err := wantArgs(name, args, 1); err != nil {
			return value.Value{}, err, true
		}
		return value.I32(int64(arr.IndexOf(args[0]))), nil, true
	case "contains":
		if err := wantArgs(name, args, 1); err != nil {
			return value.Value{}, err, true
		}
		return value.Bool(arr.IndexOf(args[0]) >= 0), nil, true
	case "concat":
		if err := wantArgs(name, args, 1); err != nil {
			return value.Value{}, err, true
		}
		if args[0].Kind != value.KindArray {
			return value.Value{}, value.Errorf(value.TypeError, "concat needs an array argument, got %s", args[0].Kind), true
		}
		return arr.Concat(args[0].ArrayRef()), nil, true
	case "reverse":
		if err := wantArgs(name, args, 0); err != nil {
			return value.Value{}, err, true
		}
		arr.Reverse()
		return value.Null(), nil, true
	case "first":
		if err := wantArgs(name, args, 0); err != nil {
			return value.Value{}, err, true
		}
		return arr.First(), nil, true
	case "last":
		if err := wantArgs(name, args, 0); err != nil {
			return value.Value{}, err, true
		}
		return arr.Last(), nil, true
	case "clear":
		if err := wantArgs(name, args, 0); err != nil {
			return value.Value{}, err, true
		}
		arr.Clear()
		return value.Null(), nil, true
	case "len":
		if err := wantArgs(name, args, 0); err != nil {
			return value.Value{}, err, true
		}
		return value.I32(int64(arr.Len())), nil, true
	case "copy":
		if err := wantArgs(name, args, 0); err != nil {
			return value.Value{}, err, true
		}
		return arr.ShallowCopy(), nil, true
	}
	return value.Value{}, nil, false
}

func (in *Interp) objectMethod(obj *value.Object, name string, args []value.Value) (value.Value, *value.RuntimeError, bool) {
	switch name {
	case "copy":
		if err := wantArgs(name, args, 0); err != nil {
			return value.Value{}, err, true
		}
		return obj.ShallowCopy(), nil, true
	case "has":
		if err := wantArgs(name, args, 1); err != nil {
			return value.Value{}, err, true
		}
		if args[0].Kind != value.KindString {
			return value.Value{}, value.Errorf(value.TypeError, "has needs a string field name"), true
		}
		return value.Bool(obj.Has(args[0].StringRef().Text())), nil, true
	case "len":
		if err := wantArgs(name, args, 0); err != nil {
			return value.Value{}, err, true
		}
		return value.I32(int64(obj.Len())), nil, true
	}
	return value.Value{}, nil, false
}

func (in *Interp) channelMethod(ch *value.Channel, name string, args []value.Value) (value.Value, *value.RuntimeError, bool) {
	switch name {
	case "send":
		if err := wantArgs(name, args, 1); err != nil {
			return value.Value{}, err, true
		}
		if err := ch.Send(args[0]); err != nil {
			return value.Value{}, err, true
		}
		return value.Null(), nil, true
	case "recv":
		if err := wantArgs(name, args, 0); err != nil {
			return value.Value{}, err, true
		}
		return ch.Recv(), nil, true
	case "close":
		if err := wantArgs(name, args, 0); err != nil {
			return value.Value{}, err, true
		}
		if err := ch.Close(); err != nil {
			return value.Value{}, err, true
		}
		return value.Null(), nil, true
	}
	return value.Value{}, nil, false
}

func (in *Interp) taskMethod(t *value.Task, name string, args []value.Value) (value.Value, *value.RuntimeError, bool) {
	switch name {
	case "join":
		if err := wantArgs(name, args, 0); err != nil {
			return value.Value{}, err, true
		}
		v, err := in.joinTask(t)
		return v, err, true
	case "detach":
		if err := wantArgs(name, args, 0); err != nil {
			return value.Value{}, err, true
		}
		err := in.detachTask(t)
		if err != nil {
			return value.Value{}, err, true
		}
		return value.Null(), nil, true
	}
	return value.Value{}, nil, false
}

func (in *Interp) bufferMethod(buf *value.Buffer, name string, args []value.Value) (value.Value, *value.RuntimeError, bool) {
	switch name {
	case "len":
		if err := wantArgs(name, args, 0); err != nil {
			return value.Value{}, err, true
		}
		return value.I32(int64(buf.Len())), nil, true
	case "free":
		if err := wantArgs(name, args, 0); err != nil {
			return value.Value{}, err, true
		}
		buf.Free()
		return value.Null(), nil, true
	case "peek":
		if err := wantArgs(name, args, 1); err != nil {
			return value.Value{}, err, true
		}
		i, err := intArg(name, args[0])
		if err != nil {
			return value.Value{}, err, true
		}
		return value.Int(value.KindU8, int64(buf.Peek(i))), nil, true
	case "poke":
		if err := wantArgs(name, args, 2); err != nil {
			return value.Value{}, err, true
		}
		i, err := intArg(name, args[0])
		if err != nil {
			return value.Value{}, err, true
		}
		b, err := value.Convert(args[1], value.KindU8)
		if err != nil {
			return value.Value{}, err, true
		}
		buf.Poke(i, byte(b.Int))
		return value.Null(), nil, true
	}
	return value.Value{}, nil, false
}
