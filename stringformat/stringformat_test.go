// Copyright 2026 The pureflashblade-mcp Authors

package stringformat

import (
	"testing"
)

func TestFixedLengthString(t *testing.T) {
	var value1 uint64
	var value2 uint64
	var value3 uint64
	value1 = 0
	value2 = 1024
	value3 = 16384
	type args struct {
		length int
		value  interface{}
		align  AlignmentType
	}
	tests := []struct {
		name string
		args args
		want string
	}{
		{"test-1", args{12, "TestVolume123456789AB", LeftAlign}, "TestVolume12"},
		{"test-2", args{5, "HelloWorld", LeftAlign}, "Hello"},
		{"test-3", args{9, "This is a new world", LeftAlign}, "This is a"},
		{"test-4", args{7, "Foo", RightAlign}, "    Foo"},
		{"test-5", args{7, "Bar", CenterAlign}, "  Bar  "},
		{"test-6", args{7, true, CenterAlign}, " true  "},
		{"test-6.1", args{7, false, CenterAlign}, " false "},
		{"test-7", args{6, value1, CenterAlign}, "  0   "},
		{"test-8", args{8, value2, CenterAlign}, "  1024  "},
		{"test-9", args{10, value3, CenterAlign}, "  16384   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FixedLengthString(tt.args.length, tt.args.value, tt.args.align); got != tt.want {
				t.Errorf("FixedLengthString() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestColumns(t *testing.T) {
	tests := []struct {
		name   string
		widths []int
		cells  []interface{}
		want   string
	}{
		{"padded", []int{10, 8}, []interface{}{"get_arrays", "arrays"}, "get_arrays  arrays"},
		{"truncated", []int{4, 0}, []interface{}{"get_buckets", "buckets"}, "get_  buckets"},
		{"unbounded last", []int{3}, []interface{}{"a", "file-systems/performance"}, "a    file-systems/performance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Columns(tt.widths, tt.cells...); got != tt.want {
				t.Errorf("Columns() = %q, want %q", got, tt.want)
			}
		})
	}
}
