package language

import (
	"testing"

	"github.com/MrWong99/aura/pkg/types"
)

func TestDetect(t *testing.T) {
	t.Parallel()

	d := NewDetector()
	tests := []struct {
		name string
		text string
		want types.Language
	}{
		{"empty", "", types.English},
		{"whitespace", "   ", types.English},
		{"tabs and newlines", "\t\n", types.English},
		{"english", "Tell me a joke about computers please", types.English},
		{"hindi devanagari", "आप कैसे हैं? मुझे एक कहानी सुनाइए", types.Hindi},
		{"romanised hindi", "isko save karo", types.English},
		{"digits only", "12345", types.English},
		{"german collapses to english", "Wie geht es dir heute?", types.English},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := d.Detect(tt.text); got != tt.want {
				t.Errorf("Detect(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}
