package kofia

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameDocExpr(t *testing.T) {
	tests := []struct {
		name   string
		frames []string
		want   string
	}{
		{
			name:   "top level document",
			frames: nil,
			want:   "window.document",
		},
		{
			name:   "single frame",
			frames: []string{"fraAMAKMain"},
			want:   `window.frames["fraAMAKMain"].document`,
		},
		{
			name:   "nested frame path",
			frames: []string{"fraAMAKMain", "maincontent", "tabContents1_contents_tabs2_body"},
			want:   `window.frames["fraAMAKMain"].frames["maincontent"].frames["tabContents1_contents_tabs2_body"].document`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, frameDocExpr(tt.frames))
		})
	}
}

func TestExistsExprSwallowsDetachedFrames(t *testing.T) {
	expr := existsExpr([]string{"fraAMAKMain"}, "genLv1_0_imgLv1")

	assert.Contains(t, expr, `window.frames["fraAMAKMain"].document`)
	assert.Contains(t, expr, `getElementById("genLv1_0_imgLv1")`)
	// A frame that has not attached yet must read as element-absent,
	// not as a thrown evaluation error.
	assert.Contains(t, expr, "return false")
	assert.Contains(t, expr, "catch")
}

func TestClickExpr(t *testing.T) {
	expr := clickExpr(dataFrames, "image4")

	assert.Contains(t, expr, `getElementById("image4")`)
	assert.Contains(t, expr, "el.click()")
	assert.Contains(t, expr, "return true")
}

func TestSetValueExpr(t *testing.T) {
	expr := setValueExpr(dataFrames, "startDtDD_input", "2026-02-18")

	assert.Contains(t, expr, `getElementById("startDtDD_input")`)
	assert.Contains(t, expr, `el.value = "2026-02-18"`)
	assert.Contains(t, expr, "dispatchEvent(new Event('input'")
	assert.Contains(t, expr, "dispatchEvent(new Event('change'")
}
