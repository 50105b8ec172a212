package intent_test

import (
	"testing"

	"github.com/mignatov/zenpicbot/internal/intent"
)

var testPrefixes = []string{"отредактируй", "измени", "переделай"}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		text          string
		hasPriorImage bool
		want          intent.Outcome
	}{
		{
			name:          "plain prompt without prior image",
			text:          "кот-бариста в стиле киберпанка",
			hasPriorImage: false,
			want:          intent.FreshGeneration,
		},
		{
			name:          "plain prompt with prior image stays fresh",
			text:          "домик в лесу на рассвете",
			hasPriorImage: true,
			want:          intent.FreshGeneration,
		},
		{
			name:          "edit prefix with prior image",
			text:          "отредактируй: сделай в стиле аниме",
			hasPriorImage: true,
			want:          intent.EditLastImage,
		},
		{
			name:          "edit prefix without prior image is reported",
			text:          "отредактируй: сделай в стиле аниме",
			hasPriorImage: false,
			want:          intent.EditRequestedButNoImage,
		},
		{
			name:          "prefix match is case-insensitive",
			text:          "ОТРЕДАКТИРУЙ фон",
			hasPriorImage: true,
			want:          intent.EditLastImage,
		},
		{
			name:          "leading whitespace is trimmed before matching",
			text:          "   измени цвет неба",
			hasPriorImage: true,
			want:          intent.EditLastImage,
		},
		{
			name:          "prefix in the middle of the text does not match",
			text:          "а теперь отредактируй картинку",
			hasPriorImage: true,
			want:          intent.FreshGeneration,
		},
		{
			name:          "alternate prefix",
			text:          "переделай в поп-арт",
			hasPriorImage: true,
			want:          intent.EditLastImage,
		},
		{
			name:          "empty text",
			text:          "",
			hasPriorImage: true,
			want:          intent.FreshGeneration,
		},
	}

	classifier := intent.NewClassifier(testPrefixes)

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := classifier.Classify(tc.text, tc.hasPriorImage)
			if got != tc.want {
				t.Errorf("Classify(%q, %v) = %v, want %v", tc.text, tc.hasPriorImage, got, tc.want)
			}
		})
	}
}

func TestClassifierIgnoresEmptyPrefixes(t *testing.T) {
	t.Parallel()

	classifier := intent.NewClassifier([]string{"", "  ", "измени"})

	if got := classifier.Classify("любая картинка", true); got != intent.FreshGeneration {
		t.Errorf("empty prefix matched everything: got %v", got)
	}
	if got := classifier.Classify("измени фон", true); got != intent.EditLastImage {
		t.Errorf("real prefix stopped matching: got %v", got)
	}
}
