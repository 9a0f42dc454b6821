package browser

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Selectors locate the listing site's application controls. Config files override them
// by tag name under browser_selectors.
type Selectors struct {
	LoginLink         string `yaml:"login_link"`
	Email             string `yaml:"email"`
	Password          string `yaml:"password"`
	LoginSubmit       string `yaml:"login_submit"`
	ApplyButton       string `yaml:"apply_button"`
	AppliedButton     string `yaml:"applied_button"` // disabled (property or class) when the account already applied
	AppliedText       string `yaml:"applied_text"`
	CloseOverlay      string `yaml:"close_overlay"`
	AvailabilityRadio string `yaml:"availability_radio"`
	AvailabilityText  string `yaml:"availability_text"`
	QuestionBlock     string `yaml:"question_block"`
	Submit            string `yaml:"submit"`
}

// DefaultSelectors returns the selectors for the listing site's current markup.
func DefaultSelectors() Selectors {
	return Selectors{
		LoginLink:         "#login-link-container span",
		Email:             "#modal_email",
		Password:          "#modal_password",
		LoginSubmit:       "#modal_login_submit",
		ApplyButton:       "#top_easy_apply_button",
		AppliedButton:     ".apply_now_btn",
		AppliedText:       "already applied",
		CloseOverlay:      "#close_popup",
		AvailabilityRadio: "#radio1",
		AvailabilityText:  "#confirm_availability_textarea",
		QuestionBlock:     ".additional_question",
		Submit:            "#submit",
	}
}

// ParseSelectors builds Selectors from a name-to-selector map keyed by the yaml tags.
// Unknown names are an error; missing names keep their defaults.
func ParseSelectors(overrides map[string]string) (Selectors, error) {
	if len(overrides) == 0 {
		return DefaultSelectors(), nil
	}
	doc, err := yaml.Marshal(overrides)
	if err != nil {
		return Selectors{}, fmt.Errorf("failed to encode browser selectors: %w", err)
	}

	var sel Selectors
	dec := yaml.NewDecoder(bytes.NewReader(doc))
	dec.KnownFields(true)
	if err := dec.Decode(&sel); err != nil {
		return Selectors{}, fmt.Errorf("invalid browser selectors: %w", err)
	}
	return sel.withDefaults(), nil
}

func (s Selectors) withDefaults() Selectors {
	d := DefaultSelectors()
	fields := []struct{ dst, def *string }{
		{&s.LoginLink, &d.LoginLink},
		{&s.Email, &d.Email},
		{&s.Password, &d.Password},
		{&s.LoginSubmit, &d.LoginSubmit},
		{&s.ApplyButton, &d.ApplyButton},
		{&s.AppliedButton, &d.AppliedButton},
		{&s.AppliedText, &d.AppliedText},
		{&s.CloseOverlay, &d.CloseOverlay},
		{&s.AvailabilityRadio, &d.AvailabilityRadio},
		{&s.AvailabilityText, &d.AvailabilityText},
		{&s.QuestionBlock, &d.QuestionBlock},
		{&s.Submit, &d.Submit},
	}
	for _, f := range fields {
		if *f.dst == "" {
			*f.dst = *f.def
		}
	}
	return s
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// Shared helpers prepended to every script.
const jsPrelude = `const __visible = (el) => !!el && !!(el.offsetWidth || el.offsetHeight || el.getClientRects().length);
const __fill = (el, text) => {
	el.focus();
	el.value = text;
	el.dispatchEvent(new Event('input', {bubbles: true}));
	el.dispatchEvent(new Event('change', {bubbles: true}));
};
`

func script(body string) string {
	return "(() => {\n" + jsPrelude + body + "\n})()"
}

func visibleJS(selector string) string {
	return script(fmt.Sprintf(`return __visible(document.querySelector(%s));`, jsString(selector)))
}

func clickIfPresentJS(selector string) string {
	return script(fmt.Sprintf(`const el = document.querySelector(%s);
if (!__visible(el)) return false;
el.scrollIntoView({block: 'center'});
el.click();
return true;`, jsString(selector)))
}

// dismissOverlayJS closes the site's popup, or any visible button labelled × or Close.
func dismissOverlayJS(sel Selectors) string {
	return script(fmt.Sprintf(`const close = document.querySelector(%s);
if (__visible(close)) { close.click(); return true; }
for (const b of document.querySelectorAll('button')) {
	const t = (b.innerText || '').trim();
	if (__visible(b) && (t === '×' || t.toLowerCase() === 'close')) { b.click(); return true; }
}
return false;`, jsString(sel.CloseOverlay)))
}

func applyControlJS(sel Selectors) string {
	return script(fmt.Sprintf(`const applied = document.querySelector(%s);
if (applied && (applied.disabled || applied.classList.contains('disabled')) && (applied.innerText || '').toLowerCase().includes(%s)) return 'already_applied';
if (document.querySelector(%s)) return 'available';
return 'missing';`, jsString(sel.AppliedButton), jsString(sel.AppliedText), jsString(sel.ApplyButton)))
}

func clickButtonByTextJS(label string) string {
	return script(fmt.Sprintf(`const want = %s.toLowerCase();
for (const b of document.querySelectorAll('button, a')) {
	if (__visible(b) && (b.innerText || '').toLowerCase().includes(want)) {
		b.scrollIntoView({block: 'center'});
		b.click();
		return true;
	}
}
return false;`, jsString(label)))
}

func confirmAvailabilityJS(sel Selectors, note string) string {
	return script(fmt.Sprintf(`const radio = document.querySelector(%s);
if (!radio) return false;
radio.click();
const text = document.querySelector(%s);
if (text) __fill(text, %s);
return true;`, jsString(sel.AvailabilityRadio), jsString(sel.AvailabilityText), jsString(note)))
}

func questionBlocksJS(sel Selectors) string {
	return script(fmt.Sprintf(`return Array.from(document.querySelectorAll(%s)).map((q) => ({
	radios: Array.from(q.querySelectorAll("input[type='radio']")).map((r) => r.value || ''),
	textareas: q.querySelectorAll('textarea').length,
	inputs: q.querySelectorAll("input[type='text']").length,
}));`, jsString(sel.QuestionBlock)))
}

func chooseRadioJS(sel Selectors, block int, value string) string {
	return script(fmt.Sprintf(`const q = document.querySelectorAll(%s)[%d];
if (!q) return false;
for (const r of q.querySelectorAll("input[type='radio']")) {
	if (r.value === %s) { r.click(); return true; }
}
return false;`, jsString(sel.QuestionBlock), block, jsString(value)))
}

// fillFieldsJS fills every field matching fieldSelector inside a question block and
// returns how many it filled.
func fillFieldsJS(sel Selectors, block int, fieldSelector, text string) string {
	return script(fmt.Sprintf(`const q = document.querySelectorAll(%s)[%d];
if (!q) return 0;
let n = 0;
for (const el of q.querySelectorAll(%s)) {
	if (el.disabled || el.readOnly) continue;
	__fill(el, %s);
	n++;
}
return n;`, jsString(sel.QuestionBlock), block, jsString(fieldSelector), jsString(text)))
}
