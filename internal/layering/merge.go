// Package layering merges configuration layers, such as a file over its
// defaults.
package layering

import "reflect"

// Merge composes layers ordered from strongest to weakest. A field left at
// its zero value (nil for pointers, maps and slices) takes the value of the
// next layer that sets it; maps gain the keys they lack. The result shares
// no memory with the inputs.
func Merge[T any](layers ...T) T {
	var out T
	if len(layers) == 0 {
		return out
	}
	dst := reflect.ValueOf(&out).Elem()
	for _, layer := range layers {
		fill(dst, reflect.ValueOf(layer))
	}
	return out
}

// fill writes into dst whatever src has that dst is missing.
func fill(dst, src reflect.Value) {
	if !src.IsValid() {
		return
	}
	switch dst.Kind() {
	case reflect.Struct:
		for i := 0; i < dst.NumField(); i++ {
			if dst.Field(i).CanSet() {
				fill(dst.Field(i), src.Field(i))
			}
		}
	case reflect.Map:
		if src.IsNil() {
			return
		}
		if dst.IsNil() {
			dst.Set(reflect.MakeMapWithSize(dst.Type(), src.Len()))
		}
		iter := src.MapRange()
		for iter.Next() {
			if !dst.MapIndex(iter.Key()).IsValid() {
				dst.SetMapIndex(iter.Key(), deepCopy(iter.Value()))
			}
		}
	case reflect.Pointer:
		if src.IsNil() {
			return
		}
		if dst.IsNil() {
			dst.Set(deepCopy(src))
			return
		}
		// A set pointer to a scalar is explicit, false and 0 included.
		if dst.Elem().Kind() == reflect.Struct {
			fill(dst.Elem(), src.Elem())
		}
	default:
		if dst.IsZero() {
			dst.Set(deepCopy(src))
		}
	}
}

func deepCopy(v reflect.Value) reflect.Value {
	out := reflect.New(v.Type()).Elem()
	switch v.Kind() {
	case reflect.Pointer:
		if !v.IsNil() {
			elem := reflect.New(v.Type().Elem())
			elem.Elem().Set(deepCopy(v.Elem()))
			out.Set(elem)
		}
	case reflect.Map:
		if !v.IsNil() {
			out.Set(reflect.MakeMapWithSize(v.Type(), v.Len()))
			iter := v.MapRange()
			for iter.Next() {
				out.SetMapIndex(iter.Key(), deepCopy(iter.Value()))
			}
		}
	case reflect.Slice:
		if !v.IsNil() {
			out.Set(reflect.MakeSlice(v.Type(), v.Len(), v.Len()))
			for i := 0; i < v.Len(); i++ {
				out.Index(i).Set(deepCopy(v.Index(i)))
			}
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if out.Field(i).CanSet() {
				out.Field(i).Set(deepCopy(v.Field(i)))
			}
		}
	case reflect.Interface:
		if !v.IsNil() {
			out.Set(deepCopy(v.Elem()))
		}
	default:
		out.Set(v)
	}
	return out
}
