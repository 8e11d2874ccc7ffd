package printer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatBytes(t *testing.T) {
	tests := map[string]struct {
		input int64
		exp   string
	}{
		"Negative sizes are zero.": {input: -100, exp: "0 B"},
		"Bytes.":                   {input: 512, exp: "512 B"},
		"Kilobytes.":               {input: 1536, exp: "1.5 KB"},
		"Megabytes.":               {input: 700 * 1024 * 1024, exp: "700.0 MB"},
		"Gigabytes are the limit.": {input: 3 * 1024 * 1024 * 1024 * 1024, exp: "3072.0 GB"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, FormatBytes(test.input))
		})
	}
}
