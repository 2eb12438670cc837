package model_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/icloudpull/pkg/domain/model"
)

func TestFallbackFilename(t *testing.T) {
	gt.Equal(t, model.FallbackFilename(0), "item_0.jpg")
	gt.Equal(t, model.FallbackFilename(1), "item_1.jpg")
	gt.Equal(t, model.FallbackFilename(42), "item_42.jpg")
}

func TestTargetFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		index    int
		expected string
	}{
		{
			name:     "service filename is kept",
			input:    "IMG_0001.HEIC",
			index:    0,
			expected: "IMG_0001.HEIC",
		},
		{
			name:     "empty filename falls back to index",
			input:    "",
			index:    1,
			expected: "item_1.jpg",
		},
		{
			name:     "whitespace filename falls back to index",
			input:    "   ",
			index:    7,
			expected: "item_7.jpg",
		},
		{
			name:     "directory part is dropped",
			input:    "../../etc/passwd",
			index:    3,
			expected: "passwd",
		},
		{
			name:     "windows separators are dropped",
			input:    `C:\photos\a.jpg`,
			index:    3,
			expected: "a.jpg",
		},
		{
			name:     "parent reference falls back",
			input:    "..",
			index:    5,
			expected: "item_5.jpg",
		},
		{
			name:     "trailing separator falls back",
			input:    "dir/",
			index:    2,
			expected: "item_2.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Equal(t, model.TargetFilename(tt.input, tt.index), tt.expected)
		})
	}
}

func TestItemError(t *testing.T) {
	cause := errors.New("connection reset")
	itemErr := model.ItemError{Index: 2, Filename: "c.jpg", Err: cause}

	gt.True(t, errors.Is(itemErr, cause))
	gt.String(t, itemErr.Error()).Contains("c.jpg")
	gt.String(t, itemErr.Error()).Contains("connection reset")
}
