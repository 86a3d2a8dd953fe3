package serializer

import (
	"fmt"
	"io"
	"reflect"
	"sort"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
)

// EmptyValue is rendered in place of empty collections.
const EmptyValue = "<empty>"

// Tabular is implemented by values with a natural columnar rendering.
type Tabular interface {
	TableHeader() []string
	TableRows() [][]string
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.Style().Options.SeparateHeader = false
	t.Style().Options.SeparateRows = false
	return t
}

func renderTable(w io.Writer, data any) error {
	if tab, ok := data.(Tabular); ok {
		rows := tab.TableRows()
		if len(rows) == 0 {
			_, err := fmt.Fprintln(w, EmptyValue)
			return err
		}
		t := newTable(w)
		t.AppendHeader(toRow(tab.TableHeader()))
		for _, r := range rows {
			t.AppendRow(toRow(r))
		}
		t.Render()
		return nil
	}

	fields := flatten(data)
	if len(fields) == 0 {
		_, err := fmt.Fprintln(w, EmptyValue)
		return err
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"FIELD", "VALUE"})
	for _, f := range fields {
		t.AppendRow(table.Row{f.key, f.value})
	}
	t.Render()
	return nil
}

func toRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}

type field struct {
	key   string
	value string
}

// flatten walks data and returns one entry per leaf value, keyed by a
// dotted path ("Inner.Field1", "[0].Name", "env.KEY").
func flatten(data any) []field {
	var out []field
	v := reflect.ValueOf(data)
	if isEmptyCollection(v) {
		return nil
	}
	walk(v, "", &out)
	return out
}

func isEmptyCollection(v reflect.Value) bool {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return true
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return v.Len() == 0
	}
	return false
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func walk(v reflect.Value, prefix string, out *[]field) {
	if !v.IsValid() {
		*out = append(*out, field{prefix, ""})
		return
	}

	if v.Kind() != reflect.Pointer && v.Kind() != reflect.Interface && v.CanInterface() {
		if s, ok := v.Interface().(fmt.Stringer); ok {
			*out = append(*out, field{prefix, s.String()})
			return
		}
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			*out = append(*out, field{prefix, ""})
			return
		}
		walk(v.Elem(), prefix, out)
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if !sf.IsExported() {
				continue
			}
			walk(v.Field(i), join(prefix, sf.Name), out)
		}
	case reflect.Map:
		if v.Len() == 0 {
			*out = append(*out, field{prefix, EmptyValue})
			return
		}
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		for _, k := range keys {
			walk(v.MapIndex(k), join(prefix, fmt.Sprint(k.Interface())), out)
		}
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
			*out = append(*out, field{prefix, string(v.Bytes())})
			return
		}
		if v.Len() == 0 {
			*out = append(*out, field{prefix, EmptyValue})
			return
		}
		for i := 0; i < v.Len(); i++ {
			walk(v.Index(i), prefix+"["+strconv.Itoa(i)+"]", out)
		}
	default:
		*out = append(*out, field{prefix, fmt.Sprint(v.Interface())})
	}
}
