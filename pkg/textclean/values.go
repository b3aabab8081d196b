package textclean

import "reflect"

// NormalizeStrings walks v (a pointer to a struct, slice or map) and repairs
// the encoding of every string it reaches
func NormalizeStrings(v any) {
	normalizeValue(reflect.ValueOf(v))
}

func normalizeValue(v reflect.Value) {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if !v.IsNil() {
			elem := v.Elem()
			if v.Kind() == reflect.Interface && elem.Kind() == reflect.String {
				if v.CanSet() {
					v.Set(reflect.ValueOf(RepairUTF8(elem.String())))
				}
				return
			}
			normalizeValue(elem)
		}
	case reflect.Struct:
		for i, n := 0, v.NumField(); i < n; i++ {
			normalizeValue(v.Field(i))
		}
	case reflect.Slice, reflect.Array:
		for i, n := 0, v.Len(); i < n; i++ {
			normalizeValue(v.Index(i))
		}
	case reflect.Map:
		for _, key := range v.MapKeys() {
			val := v.MapIndex(key)
			if val.Kind() == reflect.String {
				v.SetMapIndex(key, reflect.ValueOf(RepairUTF8(val.String())).Convert(val.Type()))
				continue
			}
			if val.Kind() == reflect.Interface && !val.IsNil() && val.Elem().Kind() == reflect.String {
				v.SetMapIndex(key, reflect.ValueOf(RepairUTF8(val.Elem().String())))
				continue
			}
			normalizeValue(val)
		}
	case reflect.String:
		if v.CanSet() {
			v.SetString(RepairUTF8(v.String()))
		}
	}
}
