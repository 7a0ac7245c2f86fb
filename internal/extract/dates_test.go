package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentDate(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantDate string
		wantRaw  string
		wantConf float64
		wantOK   bool
	}{
		{name: "iso", content: "发布于 2025-10-03", wantDate: "2025-10-03", wantRaw: "2025-10-03", wantConf: 0.9, wantOK: true},
		{name: "chinese with keyword", content: "会议时间：2025年3月7日", wantDate: "2025-03-07", wantRaw: "2025年3月7日", wantConf: 1, wantOK: true},
		{name: "us order", content: "due 12/31/2024", wantDate: "2024-12-31", wantRaw: "12/31/2024", wantConf: 0.7, wantOK: true},
		{name: "european dots", content: "am 03.10.2025", wantDate: "2025-10-03", wantRaw: "03.10.2025", wantConf: 0.7, wantOK: true},
		{name: "compact", content: "build 20240229 ok", wantDate: "2024-02-29", wantRaw: "20240229", wantConf: 0.8, wantOK: true},
		{name: "compact inside longer number", content: "id 1202402291", wantOK: false},
		{name: "invalid day", content: "2025-02-30", wantOK: false},
		{
			name:     "keyword line beats earlier plain date",
			content:  "版本 2024-01-01\n日期: 05/06/2025",
			wantDate: "2025-05-06", wantRaw: "05/06/2025", wantConf: 1, wantOK: true,
		},
		{
			name:     "first of equal confidence wins",
			content:  "2024-01-01\n2025-01-01",
			wantDate: "2024-01-01", wantRaw: "2024-01-01", wantConf: 0.9, wantOK: true,
		},
		{name: "empty", content: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ContentDate(tt.content)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantDate, got.Date.Format("2006-01-02"))
			assert.Equal(t, tt.wantRaw, got.Raw)
			assert.InDelta(t, tt.wantConf, got.Confidence, 1e-9)
		})
	}
}
