// Package layering deep-copies and merges draft snapshots.
//
// Layers are ordered strongest first. A field set on a stronger layer wins;
// zero-valued scalars, nil pointers, nil slices and nil maps fall through to
// the next weaker layer. Drafts carry no pointer fields, so a zero scalar is
// the only way to say "not set".
package layering

import "reflect"

// MergeLayers starts from a deep copy of the weakest layer and overlays each
// stronger layer on top of it. The result shares no memory with the inputs.
func MergeLayers[T any](layers ...T) T {
	var out T
	if len(layers) == 0 {
		return out
	}
	result := reflect.ValueOf(&out).Elem()
	result.Set(cloneValue(reflect.ValueOf(&layers[len(layers)-1]).Elem()))
	for i := len(layers) - 2; i >= 0; i-- {
		overlay(result, reflect.ValueOf(&layers[i]).Elem())
	}
	return out
}

// Clone returns a deep copy of value. Unexported struct fields are left zero.
func Clone[T any](value T) T {
	var out T
	reflect.ValueOf(&out).Elem().Set(cloneValue(reflect.ValueOf(&value).Elem()))
	return out
}

// overlay writes the set parts of src into dst. dst must be settable and
// must not share memory with any input layer.
func overlay(dst, src reflect.Value) {
	switch src.Kind() {
	case reflect.Pointer:
		if src.IsNil() {
			return
		}
		if dst.IsNil() {
			dst.Set(cloneValue(src))
			return
		}
		overlay(dst.Elem(), src.Elem())
	case reflect.Interface:
		if src.IsNil() {
			return
		}
		if dst.IsNil() || dst.Elem().Type() != src.Elem().Type() {
			dst.Set(cloneValue(src))
			return
		}
		inner := reflect.New(dst.Elem().Type()).Elem()
		inner.Set(dst.Elem())
		overlay(inner, src.Elem())
		dst.Set(inner)
	case reflect.Struct:
		for i := 0; i < src.NumField(); i++ {
			if field := dst.Field(i); field.CanSet() {
				overlay(field, src.Field(i))
			}
		}
	case reflect.Map:
		if src.IsNil() {
			return
		}
		if dst.IsNil() {
			dst.Set(cloneValue(src))
			return
		}
		iter := src.MapRange()
		for iter.Next() {
			existing := dst.MapIndex(iter.Key())
			if !existing.IsValid() {
				dst.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
				continue
			}
			entry := reflect.New(existing.Type()).Elem()
			entry.Set(existing)
			overlay(entry, iter.Value())
			dst.SetMapIndex(iter.Key(), entry)
		}
	case reflect.Slice:
		// Slices replace wholesale; element-wise merging would mix rows.
		if !src.IsNil() {
			dst.Set(cloneValue(src))
		}
	default:
		if !src.IsZero() {
			dst.Set(cloneValue(src))
		}
	}
}

func cloneValue(v reflect.Value) reflect.Value {
	out := reflect.New(v.Type()).Elem()
	switch v.Kind() {
	case reflect.Pointer:
		if !v.IsNil() {
			target := reflect.New(v.Type().Elem())
			target.Elem().Set(cloneValue(v.Elem()))
			out.Set(target)
		}
	case reflect.Interface:
		if !v.IsNil() {
			out.Set(cloneValue(v.Elem()))
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if field := out.Field(i); field.CanSet() {
				field.Set(cloneValue(v.Field(i)))
			}
		}
	case reflect.Map:
		if !v.IsNil() {
			out.Set(reflect.MakeMapWithSize(v.Type(), v.Len()))
			iter := v.MapRange()
			for iter.Next() {
				out.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
			}
		}
	case reflect.Slice:
		if !v.IsNil() {
			out.Set(reflect.MakeSlice(v.Type(), v.Len(), v.Len()))
			for i := 0; i < v.Len(); i++ {
				out.Index(i).Set(cloneValue(v.Index(i)))
			}
		}
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(cloneValue(v.Index(i)))
		}
	default:
		out.Set(v)
	}
	return out
}
