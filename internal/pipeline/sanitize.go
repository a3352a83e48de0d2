package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"listing_editor/internal/domain"
)

// framework-internal keys: _x, __x, $x, $$x, @@x
var internalKey = regexp.MustCompile(`^(?:_|\$|@@)`)

type visit struct {
	ptr uintptr
	typ reflect.Type
}

type sanitizer struct {
	path map[visit]struct{} // identities on the current descent path
	diag *Diagnostics
}

// Sanitize deep-copies v into plain data (map[string]any, []any and primitives) that
// is safe to serialize. Cyclic edges, runtime objects (files, readers, requests,
// contexts, channels, funcs) and framework-internal keys are dropped. It never panics.
func Sanitize(v any) (any, Diagnostics) {
	var d Diagnostics
	s := &sanitizer{path: make(map[visit]struct{}), diag: &d}
	out, ok := s.guarded(reflect.ValueOf(v), "")
	if !ok {
		return nil, d
	}
	return out, d
}

// SanitizeState sanitizes a flat wizard state; the result is never nil.
func SanitizeState(st domain.State) (domain.State, Diagnostics) {
	out, d := Sanitize(map[string]any(st))
	m, _ := out.(map[string]any)
	if m == nil {
		m = map[string]any{}
	}
	return domain.State(m), d
}

func (s *sanitizer) guarded(rv reflect.Value, path string) (out any, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.diag.add(StageSanitize, path, ReasonUnreadable)
			out, ok = nil, false
		}
	}()
	return s.value(rv, path)
}

func (s *sanitizer) drop(path, reason string) (any, bool) {
	s.diag.add(StageSanitize, path, reason)
	return nil, false
}

func (s *sanitizer) value(rv reflect.Value, path string) (any, bool) {
	if !rv.IsValid() {
		return nil, true
	}
	if rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, true
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return s.drop(path, ReasonUnserializable)
	case reflect.Ptr, reflect.Map, reflect.Slice:
		if rv.IsNil() {
			return nil, true
		}
	}

	if rv.CanInterface() {
		x := rv.Interface()
		if isRuntime(x) {
			return s.drop(path, ReasonUnserializable)
		}
		switch t := x.(type) {
		case time.Time, json.Number, domain.Bilingual, domain.Number:
			return t, true
		case []byte:
			return s.drop(path, ReasonUnserializable)
		case json.Marshaler:
			b, err := t.MarshalJSON()
			if err != nil {
				return s.drop(path, ReasonUnserializable)
			}
			var out any
			if err := json.Unmarshal(b, &out); err != nil {
				return s.drop(path, ReasonUnserializable)
			}
			return out, true
		}
	}

	switch rv.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		if !rv.CanInterface() {
			return nil, false
		}
		return rv.Interface(), true

	case reflect.Ptr:
		if !s.enter(rv) {
			return s.drop(path, ReasonCycle)
		}
		defer s.leave(rv)
		return s.value(rv.Elem(), path)

	case reflect.Map:
		if !s.enter(rv) {
			return s.drop(path, ReasonCycle)
		}
		defer s.leave(rv)
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := mapKey(iter.Key())
			if internalKey.MatchString(k) {
				continue
			}
			if v, ok := s.guarded(iter.Value(), join(path, k)); ok {
				out[k] = v
			}
		}
		return out, true

	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Len() > 0 {
			if !s.enter(rv) {
				return s.drop(path, ReasonCycle)
			}
			defer s.leave(rv)
		}
		out := make([]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			if v, ok := s.guarded(rv.Index(i), path+"["+strconv.Itoa(i)+"]"); ok {
				out = append(out, v)
			}
		}
		return out, true

	case reflect.Struct:
		out := make(map[string]any, rv.NumField())
		s.structFields(rv, path, out)
		return out, true
	}
	return s.drop(path, ReasonUnserializable)
}

// structFields copies exported fields under their JSON names; untagged embedded
// structs are flattened the way encoding/json does.
func (s *sanitizer) structFields(rv reflect.Value, path string, out map[string]any) {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, skip := jsonName(f)
		if skip {
			continue
		}
		fv := rv.Field(i)
		if f.Anonymous && f.Tag.Get("json") == "" {
			if fv.Kind() == reflect.Ptr {
				if fv.IsNil() {
					continue
				}
				fv = fv.Elem()
			}
			if fv.Kind() == reflect.Struct {
				s.structFields(fv, path, out)
				continue
			}
		}
		if !f.IsExported() || internalKey.MatchString(name) {
			continue
		}
		if v, ok := s.guarded(fv, join(path, name)); ok {
			out[name] = v
		}
	}
}

func (s *sanitizer) enter(rv reflect.Value) bool {
	k := visit{ptr: rv.Pointer(), typ: rv.Type()}
	if _, ok := s.path[k]; ok {
		return false
	}
	s.path[k] = struct{}{}
	return true
}

func (s *sanitizer) leave(rv reflect.Value) {
	delete(s.path, visit{ptr: rv.Pointer(), typ: rv.Type()})
}

// isRuntime reports values that only make sense inside a running process.
func isRuntime(x any) bool {
	switch x.(type) {
	case *os.File, *multipart.FileHeader, *http.Request, http.ResponseWriter,
		context.Context, net.Conn, reflect.Value, error:
		return true
	case io.Reader, io.Writer, io.Closer:
		return true
	}
	return false
}

func jsonName(f reflect.StructField) (string, bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", true
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		name = f.Name
	}
	return name, false
}

func mapKey(k reflect.Value) string {
	if k.Kind() == reflect.String {
		return k.String()
	}
	if k.CanInterface() {
		return fmt.Sprint(k.Interface())
	}
	return ""
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
