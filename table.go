package slidescene

// readTable converts a:tbl into table props placed at f.
func (sc *slideContext) readTable(tbl *node, f Frame, part string) TableProps {
	props := TableProps{Frame: f, Columns: []float64{}, Rows: []TableRow{}}
	if v, ok := tbl.child("tblPr").attrBool("firstRow"); ok {
		props.FirstRow = v
	}
	for _, col := range tbl.path("tblGrid").all("gridCol") {
		w, _ := col.attrInt("w")
		props.Columns = append(props.Columns, sc.px(w))
	}
	src := fillSource{part: part, colors: sc.colors, usage: UsageFill}
	for _, tr := range tbl.all("tr") {
		h, _ := tr.attrInt("h")
		row := TableRow{Height: sc.px(h), Cells: []TableCell{}}
		for _, tc := range tr.all("tc") {
			cell := TableCell{Fill: Transparent}
			if v, ok := tc.attrInt("gridSpan"); ok && v > 1 {
				cell.GridSpan = int(v)
			}
			if v, ok := tc.attrInt("rowSpan"); ok && v > 1 {
				cell.RowSpan = int(v)
			}
			hm, _ := tc.attrBool("hMerge")
			vm, _ := tc.attrBool("vMerge")
			cell.Merged = hm || vm
			if body, ok := sc.readText(tc, tc.child("txBody"), nil); ok {
				cell.Paragraphs = body.Paragraphs
				cell.Text = body.PlainText()
			}
			if fill, ok := sc.readFill(tc.child("tcPr"), src); ok {
				if c, ok := fillColor(fill); ok {
					cell.Fill = c
				}
			}
			row.Cells = append(row.Cells, cell)
		}
		props.Rows = append(props.Rows, row)
	}
	return props
}
