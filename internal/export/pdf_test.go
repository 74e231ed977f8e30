package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritePDF(t *testing.T) {
	rows := make([][]string, 0, 80)
	for i := 0; i < 80; i++ {
		rows = append(rows, []string{"1", "דני", "123", "תקין", "", "V", "V", "X", "", "", "", "", "הערה ארוכה מאוד שלא נכנסת בתא אחד של הטבלה"})
	}

	var buf bytes.Buffer
	err := WritePDF(&buf, rows, PDFOptions{
		Title:       "Export",
		FontPath:    "/nonexistent/font.ttf",
		GeneratedAt: time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestVisualOrder(t *testing.T) {
	testCases := []struct {
		in       string
		expected string
	}{
		{"abc 123", "abc 123"},
		{"אב", "בא"},
		{"אב 12", "12 בא"},
		{"710 amp תקין", "ניקת 710 amp"},
		{"(אב)", "(בא)"},
		{"", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.expected, visualOrder(tc.in))
		})
	}
}
