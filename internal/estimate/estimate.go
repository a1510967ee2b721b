// Package estimate produces heuristic resource figures from source text for the
// backends that cannot measure a run. Nothing here executes or parses the
// program, the figures ignore control flow entirely.
package estimate

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"cpp-scratchpad/internal/memory"
)

// BaseMemory is the allowance every program is given before arrays are counted.
const BaseMemory = memory.Kilobyte

const (
	minComplexity = 0.1
	maxComplexity = 0.95
)

var elementSizes = map[string]memory.Memory{
	"char":   1,
	"short":  2,
	"int":    4,
	"float":  4,
	"long":   8,
	"double": 8,
}

var (
	arrayPattern    = regexp.MustCompile(`\b(char|short|int|long|float|double)\s+\w+\s*\[(\d+)\]`)
	allocPattern    = regexp.MustCompile(`\bnew\s+(char|short|int|long|float|double)\s*\[(\d+)\]`)
	loopPattern     = regexp.MustCompile(`\b(?:for|while|do)\b`)
	boundedPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bfor\s*\([^)]*?<=?\s*(\d+)[^)]*\)`),
		regexp.MustCompile(`\bwhile\s*\([^)]*?<=?\s*(\d+)[^)]*\)`),
	}
	callPattern      = regexp.MustCompile(`\w+\s*\([^)]*\)`)
	conditionPattern = regexp.MustCompile(`\b(?:if|else|switch|case)\b|&&|\|\|`)
	ternaryPattern   = regexp.MustCompile(`\?[^;:?]*:`)
	nestedPattern    = regexp.MustCompile(`\bfor\s*\([^)]*\)\s*\{[^}]*\bfor\s*\(`)
)

// iterationBuckets weight a bounded loop by its constant upper bound, the
// largest matching bucket wins.
var iterationBuckets = []struct {
	threshold int64
	weight    float64
}{
	{threshold: 100_000_000, weight: 0.5},
	{threshold: 10_000_000, weight: 0.4},
	{threshold: 1_000_000, weight: 0.3},
	{threshold: 100_000, weight: 0.2},
	{threshold: 10_000, weight: 0.1},
}

// MemoryBytes estimates the memory a program will use: the base allowance plus
// the size of every fixed-size array declaration and every `new T[N]`
// allocation found in the source. An array allocated in a branch that is never
// taken is still counted. The total saturates at math.MaxInt64 bytes.
func MemoryBytes(source string) memory.Memory {
	total := BaseMemory

	for _, pattern := range []*regexp.Regexp{arrayPattern, allocPattern} {
		for _, match := range pattern.FindAllStringSubmatch(source, -1) {
			total = saturatingAdd(total, arraySize(elementSizes[match[1]], match[2]))
		}
	}

	return total
}

func arraySize(element memory.Memory, length string) memory.Memory {
	count, err := strconv.ParseInt(length, 10, 64)

	if err != nil {
		// larger than int64
		return math.MaxInt64
	}

	if count > 0 && element > memory.Memory(math.MaxInt64/count) {
		return math.MaxInt64
	}

	return element * memory.Memory(count)
}

func saturatingAdd(a, b memory.Memory) memory.Memory {
	if b > math.MaxInt64-a {
		return math.MaxInt64
	}

	return a + b
}

// Complexity scores the source in [0.1, 0.95] from its loops, constant loop
// bounds, calls, conditions, length and nested loops. It is advisory and only
// biases RunTimeMs.
func Complexity(source string) float64 {
	score := minComplexity

	score += float64(len(loopPattern.FindAllString(source, -1))) * 0.15

	for _, pattern := range boundedPatterns {
		for _, match := range pattern.FindAllStringSubmatch(source, -1) {
			score += iterationWeight(match[1])
		}
	}

	score += float64(len(callPattern.FindAllString(source, -1))) * 0.05

	conditions := len(conditionPattern.FindAllString(source, -1)) + len(ternaryPattern.FindAllString(source, -1))
	score += float64(conditions) * 0.03

	score += math.Min(float64(nonBlankLines(source))/80, 0.4)
	score += float64(len(nestedPattern.FindAllString(source, -1))) * 0.2

	return math.Max(minComplexity, math.Min(maxComplexity, score))
}

// RunTimeMs is the run time reported for a program when the backend did not
// measure one, between 1 ms and 100 ms depending on complexity.
func RunTimeMs(source string) float64 {
	return RunTimeForComplexity(Complexity(source))
}

// RunTimeForComplexity maps a complexity score onto a run time in milliseconds.
func RunTimeForComplexity(complexity float64) float64 {
	return math.Round((1+complexity*99)*1000) / 1000
}

func iterationWeight(bound string) float64 {
	count, err := strconv.ParseInt(bound, 10, 64)

	if err != nil {
		// larger than int64, the biggest bucket applies
		return iterationBuckets[0].weight
	}

	for _, bucket := range iterationBuckets {
		if count >= bucket.threshold {
			return bucket.weight
		}
	}

	return 0
}

func nonBlankLines(source string) int {
	count := 0

	for _, line := range strings.Split(source, "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}

	return count
}
