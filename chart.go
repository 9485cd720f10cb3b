package slidescene

import (
	"strconv"
	"strings"
)

// Chart type names reported in ChartProps.ChartType.
const (
	ChartBar      = "bar"
	ChartColumn   = "column"
	ChartLine     = "line"
	ChartArea     = "area"
	ChartPie      = "pie"
	ChartDoughnut = "doughnut"
	ChartScatter  = "scatter"
	ChartRadar    = "radar"
	ChartBubble   = "bubble"
)

// chartKinds maps c:plotArea children onto chart type names.
var chartKinds = map[string]string{
	"barChart":      ChartColumn,
	"bar3DChart":    ChartColumn,
	"lineChart":     ChartLine,
	"line3DChart":   ChartLine,
	"areaChart":     ChartArea,
	"area3DChart":   ChartArea,
	"pieChart":      ChartPie,
	"pie3DChart":    ChartPie,
	"ofPieChart":    ChartPie,
	"doughnutChart": ChartDoughnut,
	"scatterChart":  ChartScatter,
	"radarChart":    ChartRadar,
	"bubbleChart":   ChartBubble,
}

// seriesPalette cycles through the accents for series without a colour.
var seriesPalette = []string{SlotAccent1, SlotAccent2, SlotAccent3, SlotAccent4, SlotAccent5, SlotAccent6}

// readChart loads the chart part referenced by c:chart and reduces it to
// its cached data. Only the first plot of a combination chart is read.
func (sc *slideContext) readChart(ref *node, part string) (ChartProps, bool) {
	rid, ok := ref.relID("id")
	if !ok {
		return ChartProps{}, false
	}
	chartPart, ok := sc.doc.pkg.target(part, rid)
	if !ok {
		sc.doc.log.Debug("chart relationship not found", "part", part, "rel", rid)
		return ChartProps{}, false
	}
	root, err := sc.doc.pkg.tree(chartPart)
	if err != nil {
		sc.doc.log.Debug("chart part unreadable", "part", chartPart, "err", err)
		return ChartProps{}, false
	}
	chart := root.child("chart")
	props := ChartProps{Series: []ChartSeries{}}
	if t := chart.child("title"); t != nil {
		props.Title = chartTitle(t)
	}
	props.ShowLegend = chart.child("legend") != nil

	var plot *node
	for _, c := range chart.path("plotArea").elements() {
		if kind, ok := chartKinds[c.name]; ok {
			plot, props.ChartType = c, kind
			break
		}
	}
	if plot == nil {
		return ChartProps{}, false
	}
	if plot.child("barDir").attrOr("val", "col") == "bar" {
		props.ChartType = ChartBar
	}

	for i, ser := range plot.all("ser") {
		s := ChartSeries{
			Name:   normalizeText(seriesText(ser.child("tx"))),
			Values: []float64{},
		}
		if s.Name == "" {
			s.Name = "Series " + strconv.Itoa(i+1)
		}
		vals := ser.child("val")
		cats := ser.child("cat")
		if props.ChartType == ChartScatter || props.ChartType == ChartBubble {
			vals, cats = ser.child("yVal"), ser.child("xVal")
		}
		s.Values = numberCache(vals)
		if len(props.Categories) == 0 {
			props.Categories = stringCache(cats)
		}
		if c, ok := colorChild(ser.path("spPr", "solidFill")); ok {
			s.Color = sc.colors.Resolve(c, UsageFill)
		} else {
			s.Color = sc.colors.Resolve(Scheme(seriesPalette[i%len(seriesPalette)]), UsageFill)
		}
		props.Series = append(props.Series, s)
	}
	return props, true
}

// chartTitle reads rich or referenced title text.
func chartTitle(t *node) string {
	tx := t.child("tx")
	if rich := tx.child("rich"); rich != nil {
		var parts []string
		for _, p := range rich.all("p") {
			var sb strings.Builder
			for _, r := range p.all("r") {
				sb.WriteString(r.child("t").textContent())
			}
			parts = append(parts, sb.String())
		}
		return normalizeText(strings.Join(parts, " "))
	}
	return normalizeText(seriesText(tx))
}

// seriesText reads c:tx as either a string reference cache or a literal.
func seriesText(tx *node) string {
	if v := tx.child("v"); v != nil {
		return v.textContent()
	}
	if vals := stringCache(tx); len(vals) > 0 {
		return strings.Join(vals, " ")
	}
	return ""
}

// cachePoints returns the c:pt values of a str/num reference or literal,
// placed at their idx.
func cachePoints(n *node) []string {
	var cache *node
	for _, name := range []string{"strRef", "numRef", "multiLvlStrRef"} {
		if ref := n.child(name); ref != nil {
			for _, c := range ref.children {
				if strings.HasSuffix(c.name, "Cache") {
					cache = c
				}
			}
		}
	}
	if cache == nil {
		cache = n.child("strLit")
	}
	if cache == nil {
		cache = n.child("numLit")
	}
	if cache == nil {
		return nil
	}
	count, _ := cache.child("ptCount").attrInt("val")
	pts := cache.findAll("pt")
	size := max(int(count), len(pts))
	if size > 100000 {
		size = len(pts)
	}
	out := make([]string, size)
	for i, pt := range pts {
		idx := i
		if v, ok := pt.attrInt("idx"); ok && v >= 0 && int(v) < size {
			idx = int(v)
		}
		out[idx] = pt.child("v").textContent()
	}
	return out
}

func stringCache(n *node) []string {
	pts := cachePoints(n)
	for i := range pts {
		pts[i] = normalizeText(pts[i])
	}
	return pts
}

func numberCache(n *node) []float64 {
	pts := cachePoints(n)
	out := make([]float64, len(pts))
	for i, p := range pts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err == nil {
			out[i] = v
		}
	}
	return out
}
