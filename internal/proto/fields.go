package proto

import (
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// Message builds a Struct from plain Go values. It panics on values
// structpb cannot represent, which is a programming error.
func Message(fields map[string]any) *structpb.Struct {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		panic(err)
	}
	return s
}

// String returns the string field name, or "" when absent.
func String(s *structpb.Struct, name string) string {
	return s.GetFields()[name].GetStringValue()
}

// Int64 returns the integral number field name.
func Int64(s *structpb.Struct, name string) (int64, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return 0, fmt.Errorf("%s: missing", name)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%s: not a number", name)
	}
	f := n.NumberValue
	if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%s: not an integer", name)
	}
	return int64(f), nil
}

// Strings returns the list-of-strings field name.
func Strings(s *structpb.Struct, name string) []string {
	var out []string
	for _, v := range s.GetFields()[name].GetListValue().GetValues() {
		out = append(out, v.GetStringValue())
	}
	return out
}

// Time returns the RFC 3339 timestamp field name, zero when absent or bad.
func Time(s *structpb.Struct, name string) time.Time {
	t, _ := time.Parse(time.RFC3339, String(s, name))
	return t
}

// StringList converts a string slice for use in Message.
func StringList(v []string) []any {
	out := make([]any, len(v))
	for i, s := range v {
		out[i] = s
	}
	return out
}
