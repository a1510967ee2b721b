package estimate

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"cpp-scratchpad/internal/memory"
)

func TestMemoryBytes(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   memory.Memory
	}{
		{name: "no arrays", source: "int main() { return 0; }", want: 1024},
		{name: "fixed arrays", source: "int arr[100];\ndouble d[10];\n", want: 1504},
		{name: "every element size", source: "char a[1]; short b[1]; int c[1]; float d[1]; long e[1]; double f[1];", want: 1024 + 1 + 2 + 4 + 4 + 8 + 8},
		{name: "dynamic allocation", source: "int *p = new int[50];", want: 1024 + 200},
		{name: "allocation in a dead branch", source: "if (false) { long big[1000]; }", want: 1024 + 8000},
		{name: "unsized arrays are ignored", source: "int a[] = {1, 2, 3};", want: 1024},
		{name: "oversized array saturates", source: "double big[2000000000000000000];", want: math.MaxInt64},
		{name: "length beyond int64 saturates", source: "char huge[99999999999999999999];", want: math.MaxInt64},
		{name: "saturated total stays saturated", source: "double a[2000000000000000000]; int b[10];", want: math.MaxInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MemoryBytes(tt.source))
		})
	}
}

func TestMemoryBytesDeterministic(t *testing.T) {
	source := "int arr[100];\ndouble d[10];\n"
	assert.Equal(t, MemoryBytes(source), MemoryBytes(source))
	assert.Equal(t, "1 KB", MemoryBytes(source).String())
}

func TestComplexity(t *testing.T) {
	t.Run("should never go below the floor", func(t *testing.T) {
		assert.Equal(t, 0.1, Complexity(""))
	})

	t.Run("should never exceed the ceiling", func(t *testing.T) {
		source := strings.Repeat("for (int i = 0; i < 100000000; i++) { for (int j = 0; j < 10; j++) { f(i); } }\n", 20)
		assert.Equal(t, 0.95, Complexity(source))
	})

	t.Run("should weight a bounded loop by its bound", func(t *testing.T) {
		// loop 0.15, one million bucket 0.3, the loop header counted as a
		// call 0.05, one line 1/80
		assert.InDelta(t, 0.6125, Complexity("for (int i = 0; i < 1000000; i++) {}"), 1e-9)
	})

	t.Run("should rank nested loops above a single loop", func(t *testing.T) {
		single := Complexity("for (int i = 0; i < n; i++) { sum += i; }")
		nested := Complexity("for (int i = 0; i < n; i++) { for (int j = 0; j < n; j++) { sum += j; } }")
		assert.Greater(t, nested, single)
	})
}

func TestRunTimeMs(t *testing.T) {
	assert.Equal(t, 10.9, RunTimeForComplexity(0.1))
	assert.Equal(t, 95.05, RunTimeForComplexity(0.95))
	assert.Equal(t, 10.9, RunTimeMs(""))
}
