package browser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectors_WithDefaults(t *testing.T) {
	s := Selectors{ApplyButton: "#apply"}.withDefaults()
	assert.Equal(t, "#apply", s.ApplyButton)
	assert.Equal(t, "#modal_email", s.Email)
	assert.Equal(t, "#submit", s.Submit)
	assert.Equal(t, DefaultSelectors(), Selectors{}.withDefaults())
}

func TestJSString(t *testing.T) {
	assert.Equal(t, `"it's \"quoted\""`, jsString(`it's "quoted"`))
	assert.Equal(t, `"\u003c/script\u003e"`, jsString("</script>"))
}

func TestScripts_EmbedSelectorsAsLiterals(t *testing.T) {
	sel := DefaultSelectors()

	tests := []struct {
		name   string
		script string
		want   []string
	}{
		{"visible", visibleJS(sel.Email), []string{`document.querySelector("#modal_email")`}},
		{"click", clickIfPresentJS(sel.Submit), []string{`"#submit"`, "el.click()"}},
		{"overlay", dismissOverlayJS(sel), []string{`"#close_popup"`, "'×'"}},
		{"control", applyControlJS(sel), []string{`".apply_now_btn"`, `"already applied"`, `"#top_easy_apply_button"`, "applied.disabled", "classList.contains('disabled')"}},
		{"label", clickButtonByTextJS("Apply now"), []string{`"Apply now".toLowerCase()`}},
		{"availability", confirmAvailabilityJS(sel, "Available now"), []string{`"#radio1"`, `"#confirm_availability_textarea"`, `"Available now"`}},
		{"blocks", questionBlocksJS(sel), []string{`".additional_question"`}},
		{"radio", chooseRadioJS(sel, 2, "Yes"), []string{`(".additional_question")[2]`, `r.value === "Yes"`}},
		{"fill", fillFieldsJS(sel, 0, "textarea", "N/A"), []string{`(".additional_question")[0]`, `"textarea"`, `"N/A"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, tt.script, "const __visible")
			assert.True(t, len(tt.script) > len(jsPrelude))
			for _, w := range tt.want {
				assert.Contains(t, tt.script, w)
			}
		})
	}
}

func TestAllocatorOptions(t *testing.T) {
	assert.NotEmpty(t, allocatorOptions(false))
	assert.Equal(t, len(allocatorOptions(false)), len(allocatorOptions(true)))
}

// The listing site marks an applied posting with a "disabled" class and no attribute.
func TestApplyControlJS_DisabledClassMeansApplied(t *testing.T) {
	js := applyControlJS(DefaultSelectors())

	assert.Contains(t, js, "(applied.disabled || applied.classList.contains('disabled')) && (applied.innerText")
	assert.Less(t, strings.Index(js, "'already_applied'"), strings.Index(js, "'available'"),
		"already-applied check runs before the apply button lookup")
}

func TestParseSelectors(t *testing.T) {
	sel, err := ParseSelectors(map[string]string{"apply_button": "#apply-2", "submit": "button.submit"})
	require.NoError(t, err)
	assert.Equal(t, "#apply-2", sel.ApplyButton)
	assert.Equal(t, "button.submit", sel.Submit)
	assert.Equal(t, "#modal_email", sel.Email)

	sel, err = ParseSelectors(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultSelectors(), sel)

	_, err = ParseSelectors(map[string]string{"apply_buton": "#typo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid browser selectors")
}
