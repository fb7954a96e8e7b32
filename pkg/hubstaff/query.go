package hubstaff

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"
	"time"
)

// Query holds query parameters. Nil values, nil pointers and nil slices are
// omitted. Slices are encoded according to the client's ArrayFormat.
type Query map[string]any

// BuildQuery encodes q as "?k=v&..." with keys in sorted order, or "" when
// nothing remains after omitting absent values.
func BuildQuery(q Query, format ArrayFormat) string {
	if len(q) == 0 {
		return ""
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		v, ok := deref(q[k])
		if !ok {
			continue
		}
		if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
			if v.Kind() == reflect.Slice && v.IsNil() {
				continue
			}
			parts = append(parts, encodeArray(k, v, format)...)
			continue
		}
		parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(scalar(v)))
	}
	if len(parts) == 0 {
		return ""
	}
	return "?" + strings.Join(parts, "&")
}

func encodeArray(key string, v reflect.Value, format ArrayFormat) []string {
	var items []string
	for i := 0; i < v.Len(); i++ {
		item, ok := deref(v.Index(i).Interface())
		if !ok {
			continue
		}
		items = append(items, url.QueryEscape(scalar(item)))
	}

	if format == ArrayRepeat {
		name := url.QueryEscape(strings.TrimSuffix(key, "[]")) + "[]"
		out := make([]string, 0, len(items))
		for _, item := range items {
			out = append(out, name+"="+item)
		}
		return out
	}
	return []string{url.QueryEscape(key) + "=" + strings.Join(items, ",")}
}

func deref(x any) (reflect.Value, bool) {
	if x == nil {
		return reflect.Value{}, false
	}
	v := reflect.ValueOf(x)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	return v, true
}

func scalar(v reflect.Value) string {
	switch x := v.Interface().(type) {
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v.Interface())
}
