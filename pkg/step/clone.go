package step

import "reflect"

// Clone returns a deep copy of the configuration. Slices and maps, including
// nested maps and slices inside Locals and field attributes, are copied;
// function values are shared because they are never mutated.
func (c Config) Clone() Config {
	out := c

	out.DefaultFormatters = cloneStrings(c.DefaultFormatters)
	if c.Fields != nil {
		out.Fields = make([]Field, len(c.Fields))
		for idx, field := range c.Fields {
			out.Fields[idx] = field.Clone()
		}
	}
	if c.Formatters != nil {
		out.Formatters = make(map[string]FormatterFunc, len(c.Formatters))
		for name, fn := range c.Formatters {
			out.Formatters[name] = fn
		}
	}
	if c.Forks != nil {
		out.Forks = append([]Fork(nil), c.Forks...)
	}
	if c.Locals != nil {
		out.Locals = cloneMap(c.Locals)
	}
	if c.BackLink != nil {
		link := *c.BackLink
		out.BackLink = &link
	}
	if c.Hooks != nil {
		out.Hooks = make(Hooks, len(c.Hooks))
		for point, fns := range c.Hooks {
			out.Hooks[point] = append([]HookFunc(nil), fns...)
		}
	}
	return out
}

// Clone returns a deep copy of the field definition.
func (f Field) Clone() Field {
	out := f
	out.Formatter = cloneStrings(f.Formatter)
	out.Options = cloneStrings(f.Options)
	if f.Validate != nil {
		out.Validate = make([]Rule, len(f.Validate))
		for idx, rule := range f.Validate {
			rule.Args = cloneSlice(rule.Args)
			out.Validate[idx] = rule
		}
	}
	if f.Dependent != nil {
		dep := *f.Dependent
		out.Dependent = &dep
	}
	if f.Attributes != nil {
		out.Attributes = make(map[string]string, len(f.Attributes))
		for key, value := range f.Attributes {
			out.Attributes[key] = value
		}
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneSlice(in []any) []any {
	if in == nil {
		return nil
	}
	out := make([]any, len(in))
	for idx, value := range in {
		out[idx] = cloneValue(value)
	}
	return out
}

// cloneValue deep copies maps, slices, arrays, pointers and the exported
// fields of structs at any depth. Funcs and channels are shared. A pointer
// reached twice is copied once so cycles terminate.
func cloneValue(value any) any {
	if value == nil {
		return nil
	}
	cp := deepCopy(reflect.ValueOf(value), map[visit]reflect.Value{})
	return cp.Interface()
}

type visit struct {
	addr uintptr
	typ  reflect.Type
}

func deepCopy(in reflect.Value, seen map[visit]reflect.Value) reflect.Value {
	switch in.Kind() {
	case reflect.Map:
		if in.IsNil() {
			return in
		}
		out := reflect.MakeMapWithSize(in.Type(), in.Len())
		iter := in.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), deepCopy(iter.Value(), seen))
		}
		return out
	case reflect.Slice:
		if in.IsNil() {
			return in
		}
		out := reflect.MakeSlice(in.Type(), in.Len(), in.Len())
		for idx := 0; idx < in.Len(); idx++ {
			out.Index(idx).Set(deepCopy(in.Index(idx), seen))
		}
		return out
	case reflect.Array:
		out := reflect.New(in.Type()).Elem()
		for idx := 0; idx < in.Len(); idx++ {
			out.Index(idx).Set(deepCopy(in.Index(idx), seen))
		}
		return out
	case reflect.Ptr:
		if in.IsNil() {
			return in
		}
		key := visit{addr: in.Pointer(), typ: in.Type()}
		if done, ok := seen[key]; ok {
			return done
		}
		out := reflect.New(in.Type().Elem())
		seen[key] = out
		out.Elem().Set(deepCopy(in.Elem(), seen))
		return out
	case reflect.Interface:
		if in.IsNil() {
			return in
		}
		out := reflect.New(in.Type()).Elem()
		out.Set(deepCopy(in.Elem(), seen))
		return out
	case reflect.Struct:
		out := reflect.New(in.Type()).Elem()
		out.Set(in)
		for idx := 0; idx < in.NumField(); idx++ {
			if !out.Field(idx).CanSet() {
				continue
			}
			out.Field(idx).Set(deepCopy(in.Field(idx), seen))
		}
		return out
	default:
		return in
	}
}
