package slidescene

import "testing"

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want Color
		ok   bool
	}{
		{"FF0000", "#FF0000FF", true},
		{"#ff000080", "#FF000080", true},
		{" 00ff00 ", "#00FF00FF", true},
		{"F00", "", false},
		{"GG0000", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseColor(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseColor(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
	if !Transparent.IsTransparent() || ColorBlack.IsTransparent() {
		t.Error("unexpected transparency")
	}
	if got := Color("#11223344").NRGBA(); got.R != 0x11 || got.A != 0x44 {
		t.Errorf("unexpected NRGBA %+v", got)
	}
}

func TestParseTheme(t *testing.T) {
	theme, err := parseTheme([]byte(testTheme))
	if err != nil {
		t.Fatalf("parseTheme: %v", err)
	}
	if theme.Name != "Test Theme" {
		t.Errorf("unexpected name %q", theme.Name)
	}
	palette := theme.Palette()
	if len(palette) != len(SchemeSlots) {
		t.Fatalf("expected %d slots, got %d", len(SchemeSlots), len(palette))
	}
	for slot, c := range palette {
		if _, ok := ParseColor(string(c)); !ok || len(c) != 9 {
			t.Errorf("slot %s: %q is not #RRGGBBAA", slot, c)
		}
	}
	if palette[SlotDark1] != "#000000FF" || palette[SlotAccent2] != "#DC2626FF" {
		t.Errorf("unexpected palette %v", palette)
	}
	if theme.Fonts.Major != "Calibri Light" || theme.Fonts.Minor != "Calibri" {
		t.Errorf("unexpected fonts %+v", theme.Fonts)
	}
	if len(theme.fills) != 3 || len(theme.lines) != 3 || len(theme.bgFills) != 2 {
		t.Errorf("unexpected style matrix sizes %d/%d/%d", len(theme.fills), len(theme.lines), len(theme.bgFills))
	}
}

func TestParseTheme_Invalid(t *testing.T) {
	if _, err := parseTheme([]byte("not xml")); err == nil {
		t.Error("expected error for malformed theme")
	}
}

func TestParseTheme_MissingSections(t *testing.T) {
	tests := []struct {
		name string
		xml  string
	}{
		{"no format scheme", `<a:theme xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" name="Bare">` +
			`<a:themeElements><a:clrScheme name="Bare"><a:accent1><a:srgbClr val="112233"/></a:accent1></a:clrScheme>` +
			`</a:themeElements></a:theme>`},
		{"no theme elements", `<a:theme xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" name="Bare"/>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			theme, err := parseTheme([]byte(tt.xml))
			if err != nil {
				t.Fatalf("parseTheme: %v", err)
			}
			if len(theme.fills) != 0 || len(theme.lines) != 0 || len(theme.bgFills) != 0 {
				t.Errorf("expected an empty style matrix, got %d/%d/%d", len(theme.fills), len(theme.lines), len(theme.bgFills))
			}
			if got := theme.slotColor(SlotDark2); got != defaultScheme[SlotDark2] {
				t.Errorf("dk2 = %s, want the default %s", got, defaultScheme[SlotDark2])
			}
		})
	}
}

func TestDefaultTheme(t *testing.T) {
	r := NewResolver(DefaultTheme(), nil)
	tests := []struct {
		slot string
		want Color
	}{
		{SlotDark1, "#000000FF"},
		{SlotLight1, "#FFFFFFFF"},
		{SlotDark2, "#44546AFF"},
		{SlotLight2, "#E7E6E6FF"},
		{SlotAccent1, "#4472C4FF"},
		{SlotAccent2, "#ED7D31FF"},
		{SlotAccent3, "#A5A5A5FF"},
		{SlotAccent4, "#FFC000FF"},
		{SlotAccent5, "#5B9BD5FF"},
		{SlotAccent6, "#70AD47FF"},
		{SlotHyperlink, "#0563C1FF"},
		{SlotFollowedHyperlink, "#954F72FF"},
		{"bg1", "#FFFFFFFF"},
		{"tx1", "#000000FF"},
		{"bg2", "#E7E6E6FF"},
		{"tx2", "#44546AFF"},
	}
	for _, tt := range tests {
		t.Run(tt.slot, func(t *testing.T) {
			for _, usage := range []ColorUsage{UsageText, UsageFill} {
				got := r.Resolve(Scheme(tt.slot), usage)
				if _, ok := ParseColor(string(got)); !ok {
					t.Fatalf("usage %d: %q is not a valid colour", usage, got)
				}
				if got != tt.want {
					t.Errorf("usage %d: got %s, want %s", usage, got, tt.want)
				}
			}
		})
	}
	if got := r.Resolve(Scheme("tx1"), UsageBackground); got != Transparent {
		t.Errorf("tx1 as background = %s, want transparent", got)
	}
	if got := r.Resolve(Scheme(SlotAccent1), UsageBackground); got != "#4472C4FF" {
		t.Errorf("accent1 as background = %s", got)
	}
}

func TestResolver_ColorMapAliases(t *testing.T) {
	theme, err := parseTheme([]byte(testTheme))
	if err != nil {
		t.Fatalf("parseTheme: %v", err)
	}
	r := NewResolver(theme, nil)
	tests := []struct {
		ref   ColorRef
		usage ColorUsage
		want  Color
	}{
		{Scheme("tx1"), UsageText, "#000000FF"},
		{Scheme("bg1"), UsageFill, "#FFFFFFFF"},
		{Scheme("tx2"), UsageText, "#1F2937FF"},
		{Scheme("bg2"), UsageFill, "#F3F4F6FF"},
		{Scheme("accent3"), UsageFill, "#16A34AFF"},
		{Explicit("abcdef"), UsageFill, "#ABCDEFFF"},
		{Explicit("zzzzzz"), UsageFill, "#000000FF"},
		{ColorRef{Source: PresetSource{Name: "red"}}, UsageFill, "#FF0000FF"},
		{ColorRef{Source: SystemSource{Name: "window"}}, UsageFill, "#FFFFFFFF"},
	}
	for _, tt := range tests {
		if got := r.Resolve(tt.ref, tt.usage); got != tt.want {
			t.Errorf("Resolve(%+v) = %s, want %s", tt.ref, got, tt.want)
		}
	}

	// A dark master swaps the text and background slots.
	dark := NewResolver(theme, map[string]string{"bg1": SlotDark1, "tx1": SlotLight1})
	if got := dark.Resolve(Scheme("bg1"), UsageFill); got != "#000000FF" {
		t.Errorf("dark bg1 = %s", got)
	}
	if got := dark.Resolve(Scheme("tx1"), UsageText); got != "#FFFFFFFF" {
		t.Errorf("dark tx1 = %s", got)
	}
}

func TestResolver_BackgroundTextSlots(t *testing.T) {
	r := NewResolver(DefaultTheme(), nil)
	for _, slot := range []string{"tx1", SlotDark1} {
		if got := r.Resolve(Scheme(slot), UsageBackground); got != Transparent {
			t.Errorf("%s as background = %s, want transparent", slot, got)
		}
		if got := r.Resolve(Scheme(slot), UsageText); got != ColorBlack {
			t.Errorf("%s as text = %s, want black", slot, got)
		}
	}
	if got := r.Resolve(Scheme("bg1"), UsageBackground); got != ColorWhite {
		t.Errorf("bg1 as background = %s", got)
	}
}

func TestApplyMods(t *testing.T) {
	tests := []struct {
		name string
		base Color
		mods []ColorMod
		want Color
	}{
		{"shade", ColorWhite, []ColorMod{{ModShade, 0.5}}, "#808080FF"},
		{"tint", ColorBlack, []ColorMod{{ModTint, 0.5}}, "#808080FF"},
		{"alpha", "#FF0000FF", []ColorMod{{ModAlpha, 0.5}}, "#FF000080"},
		{"lumMod", ColorWhite, []ColorMod{{ModLumMod, 0.5}}, "#808080FF"},
		{"lumOff", ColorBlack, []ColorMod{{ModLumOff, 1}}, "#FFFFFFFF"},
		{"none", "#123456FF", nil, "#123456FF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := applyMods(tt.base, tt.mods); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFontSchemeResolve(t *testing.T) {
	fs := FontScheme{Major: "Georgia", Minor: "Arial"}
	if fs.Resolve("+mj-lt") != "Georgia" || fs.Resolve("+mn-ea") != "Arial" || fs.Resolve("Consolas") != "Consolas" {
		t.Error("unexpected theme font resolution")
	}
}
