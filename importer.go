package slidescene

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/log"
)

// Default slide size (16:9 widescreen) used when p:sldSz is missing.
const (
	defaultSlideWidthEMU  = 12192000
	defaultSlideHeightEMU = 6858000
)

// document is the per-import state shared by all slides.
type document struct {
	pkg *pptxPackage
	cfg importConfig
	log *log.Logger

	presPart         string
	pres             *node
	slideParts       []string
	widthEMU         int64
	heightEMU        int64
	scale            float64
	theme            *Theme
	themes           map[string]*Theme // by master part
	defaultTextStyle *node
}

func newDocument(pkg *pptxPackage, cfg importConfig) (*document, error) {
	presPart, err := pkg.presentationPart()
	if err != nil {
		return nil, err
	}
	pres, err := pkg.tree(presPart)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	if pres.name != "presentation" {
		return nil, fmt.Errorf("%w: unexpected root element %q in %s", ErrInvalidArchive, pres.name, presPart)
	}
	d := &document{
		pkg:              pkg,
		cfg:              cfg,
		log:              cfg.logger,
		presPart:         presPart,
		pres:             pres,
		widthEMU:         defaultSlideWidthEMU,
		heightEMU:        defaultSlideHeightEMU,
		themes:           make(map[string]*Theme),
		defaultTextStyle: pres.child("defaultTextStyle"),
	}
	if sz := pres.child("sldSz"); sz != nil {
		if cx, ok := sz.attrInt("cx"); ok && cx > 0 {
			d.widthEMU = cx
		}
		if cy, ok := sz.attrInt("cy"); ok && cy > 0 {
			d.heightEMU = cy
		}
	}
	d.scale = ScaleToCanvas(d.widthEMU, d.heightEMU, cfg.canvasWidth, cfg.canvasHeight)

	for _, id := range pres.path("sldIdLst").all("sldId") {
		rid, ok := id.relID("id")
		if !ok {
			continue
		}
		part, ok := pkg.target(presPart, rid)
		if !ok {
			d.log.Debug("slide relationship not found", "rel", rid)
			continue
		}
		d.slideParts = append(d.slideParts, part)
	}

	d.theme = d.documentTheme()
	return d, nil
}

// documentTheme returns the theme of the first master, or the theme related
// to the presentation part, or the stock theme.
func (d *document) documentTheme() *Theme {
	for _, m := range d.pres.path("sldMasterIdLst").all("sldMasterId") {
		rid, ok := m.relID("id")
		if !ok {
			continue
		}
		if part, ok := d.pkg.target(d.presPart, rid); ok {
			return d.themeFor(part)
		}
	}
	if part, ok := d.pkg.targetOfType(d.presPart, relTypeTheme); ok {
		if t, err := d.loadTheme(part); err == nil {
			return t
		}
	}
	return DefaultTheme()
}

// themeFor returns the theme of a master part, cached per master.
func (d *document) themeFor(masterPart string) *Theme {
	if t, ok := d.themes[masterPart]; ok {
		return t
	}
	t := d.theme
	if part, ok := d.pkg.targetOfType(masterPart, relTypeTheme); ok {
		loaded, err := d.loadTheme(part)
		if err != nil {
			d.log.Debug("theme unreadable, using default", "part", part, "err", err)
		} else {
			t = loaded
		}
	}
	if t == nil {
		t = DefaultTheme()
	}
	d.themes[masterPart] = t
	return t
}

func (d *document) loadTheme(part string) (*Theme, error) {
	data, err := d.pkg.read(part)
	if err != nil {
		return nil, err
	}
	t, err := parseTheme(data)
	if err != nil {
		return nil, err
	}
	t.part = part
	return t, nil
}

// title reads dc:title from the core properties part.
func (d *document) title() string {
	part, ok := d.pkg.targetOfType("", relTypeCoreProps)
	if !ok {
		return ""
	}
	root, err := d.pkg.tree(part)
	if err != nil {
		return ""
	}
	return normalizeText(root.child("title").textContent())
}

func (d *document) build() *Deck {
	deck := &Deck{
		ID:         d.cfg.newID(),
		Slides:     make([]Slide, 0, len(d.slideParts)),
		CanvasSize: Size{Width: d.cfg.canvasWidth, Height: d.cfg.canvasHeight},
		Metadata: Metadata{
			Importer:    importerName,
			Title:       d.title(),
			ThemeName:   d.theme.Name,
			ThemeColors: d.theme.Palette(),
			ThemeFonts:  d.theme.Fonts,
			SourceSize: SourceSize{
				WidthEMU:  d.widthEMU,
				HeightEMU: d.heightEMU,
				Width:     ToPixels(d.widthEMU),
				Height:    ToPixels(d.heightEMU),
				Scale:     d.scale,
			},
		},
	}
	for i, part := range d.slideParts {
		slide, stats := d.importSlideSafe(i, part)
		deck.Slides = append(deck.Slides, slide)
		deck.Metadata.Stats.Add(stats)
	}
	deck.Metadata.Stats.Slides = len(deck.Slides)
	d.log.Debug("import finished", "slides", len(deck.Slides),
		"components", deck.Metadata.Stats.Components, "errors", deck.Metadata.Stats.Errors)
	return deck
}

// importSlideSafe imports one slide, replacing it with a placeholder when
// the slide fails or panics.
func (d *document) importSlideSafe(index int, part string) (slide Slide, stats Stats) {
	defer func() {
		if r := recover(); r != nil {
			slide, stats = d.placeholderSlide(index, part, fmt.Errorf("panic: %v", r))
		}
	}()
	var err error
	slide, stats, err = d.importSlide(index, part)
	if err != nil {
		return d.placeholderSlide(index, part, err)
	}
	return slide, stats
}

func (d *document) placeholderSlide(index int, part string, err error) (Slide, Stats) {
	serr := &SlideError{Index: index, Part: part, Err: err}
	d.log.Warn("slide replaced by placeholder", "index", index, "part", part, "err", err)
	return Slide{
		ID:         d.cfg.newID(),
		Index:      index,
		Title:      defaultSlideTitle(index),
		Components: []Component{},
		Error:      serr.Error(),
	}, Stats{Errors: 1}
}

func defaultSlideTitle(index int) string {
	return "Slide " + strconv.Itoa(index+1)
}

func (d *document) importSlide(index int, part string) (Slide, Stats, error) {
	root, err := d.pkg.tree(part)
	if err != nil {
		return Slide{}, Stats{}, err
	}
	if root.name != "sld" {
		return Slide{}, Stats{}, fmt.Errorf("unexpected root element %q", root.name)
	}
	sc := d.newSlideContext(index, part, root)
	b := newSlideBuilder(sc)
	b.addBackground()
	b.addInheritedShapes()
	b.walk(root.path("cSld", "spTree"), IdentityTransform(), nil)
	b.synthesizeBackgroundImage()

	slide := Slide{
		ID:         d.cfg.newID(),
		Index:      index,
		Title:      b.title,
		Layout:     sc.layout.child("cSld").attrOr("name", ""),
		Components: b.sorted(),
	}
	if slide.Title == "" {
		slide.Title = defaultSlideTitle(index)
	}
	if show, ok := root.attrBool("show"); ok && !show {
		slide.Hidden = true
	}
	return slide, b.stats, nil
}

// slideContext is everything needed to resolve inherited values on one
// slide: its layout, master, theme and colour mapping.
type slideContext struct {
	doc        *document
	index      int
	part       string
	root       *node
	layoutPart string
	layout     *node
	masterPart string
	master     *node
	theme      *Theme
	colors     *Resolver
	scale      float64
}

func (d *document) newSlideContext(index int, part string, root *node) *slideContext {
	sc := &slideContext{doc: d, index: index, part: part, root: root, scale: d.scale}
	if lp, ok := d.pkg.targetOfType(part, relTypeSlideLayout); ok {
		if tree, err := d.pkg.tree(lp); err == nil {
			sc.layoutPart, sc.layout = lp, tree
		} else {
			d.log.Debug("layout unreadable", "part", lp, "err", err)
		}
	}
	if sc.layoutPart != "" {
		if mp, ok := d.pkg.targetOfType(sc.layoutPart, relTypeSlideMaster); ok {
			if tree, err := d.pkg.tree(mp); err == nil {
				sc.masterPart, sc.master = mp, tree
			} else {
				d.log.Debug("master unreadable", "part", mp, "err", err)
			}
		}
	}
	sc.theme = d.theme
	if sc.masterPart != "" {
		sc.theme = d.themeFor(sc.masterPart)
	}
	sc.colors = NewResolver(sc.theme, parseColorMap(sc.master.child("clrMap")))
	sc.colors = sc.colors.withOverride(parseColorMap(sc.layout.path("clrMapOvr", "overrideClrMapping")))
	sc.colors = sc.colors.withOverride(parseColorMap(root.path("clrMapOvr", "overrideClrMapping")))
	return sc
}

// inheritsPlaceholders reports whether placeholder geometry and text
// styles can be looked up on the layout and master.
func (sc *slideContext) inheritsPlaceholders() bool {
	return sc.layout != nil || sc.master != nil
}

// px converts an EMU length to canvas pixels.
func (sc *slideContext) px(emu int64) float64 {
	return ToPixels(emu) * sc.scale
}

// canvasFrame is the full slide area on the canvas.
func (sc *slideContext) canvasFrame() Frame {
	return Frame{
		Width:   sc.px(sc.doc.widthEMU),
		Height:  sc.px(sc.doc.heightEMU),
		Opacity: 1,
	}
}
