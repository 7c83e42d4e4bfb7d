package phrase

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToExpression(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"5 plus 3", "5 + 3"},
		{"10 divided by 2", "10 / 2"},
		{"10 divide by 2", "10 / 2"},
		{"10 divide 2", "10 / 2"},
		{"9 minus 4", "9 - 4"},
		{"9 subtract 4", "9 - 4"},
		{"3 times 4", "3 * 4"},
		{"3 multiply 4", "3 * 4"},
		{"3 x 4", "3 * 4"},
		{"3x4", "3*4"},
		{"2 power 8", "2 ** 8"},
		{"2 ^ 8", "2 ** 8"},
		{"2^8", "2**8"},
		{"1 add 1", "1 + 1"},
		{"put it in the box", "put it in the box"},
		{"my address is here", "my address is here"},
		{"  spaced   out  ", "spaced out"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ToExpression(tt.in))
		})
	}
}

func TestExtractName(t *testing.T) {
	name, ok := ExtractName("My name is sam")
	assert.True(t, ok)
	assert.Equal(t, "Sam", name)

	name, ok = ExtractName("hey, my name is ada lovelace  ")
	assert.True(t, ok)
	assert.Equal(t, "Ada Lovelace", name)

	_, ok = ExtractName("what is my name")
	assert.False(t, ok)

	_, ok = ExtractName("my name is    ")
	assert.False(t, ok)
}

func TestExtractTaskIndex(t *testing.T) {
	n, ok := ExtractTaskIndex("delete task 2")
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	n, ok = ExtractTaskIndex("please Delete Task 10 now")
	assert.True(t, ok)
	assert.Equal(t, 10, n)

	_, ok = ExtractTaskIndex("delete task two")
	assert.False(t, ok)

	n, ok = ExtractTaskIndex("delete task 99999999999999999999999")
	assert.True(t, ok)
	assert.Equal(t, math.MaxInt, n)
}
