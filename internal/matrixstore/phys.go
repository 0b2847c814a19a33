package matrixstore

// phys is a row-major block in storage orientation: rows are cids and
// columns are rids.
type phys struct {
	rows, cols int
	v          []float32
}

// pickRows keeps the physical rows (cids) at pos.
func (p phys) pickRows(pos []int) phys {
	out := phys{rows: len(pos), cols: p.cols, v: make([]float32, 0, len(pos)*p.cols)}
	for _, r := range pos {
		out.v = append(out.v, p.v[r*p.cols:(r+1)*p.cols]...)
	}
	return out
}

// pickCols keeps the physical columns (rids) at pos.
func (p phys) pickCols(pos []int) phys {
	out := phys{rows: p.rows, cols: len(pos), v: make([]float32, 0, p.rows*len(pos))}
	for r := 0; r < p.rows; r++ {
		row := p.v[r*p.cols : (r+1)*p.cols]
		for _, c := range pos {
			out.v = append(out.v, row[c])
		}
	}
	return out
}

// transpose returns the block in logical rid × cid order.
func (p phys) transpose() []float32 {
	out := make([]float32, len(p.v))
	for r := 0; r < p.rows; r++ {
		for c := 0; c < p.cols; c++ {
			out[c*p.rows+r] = p.v[r*p.cols+c]
		}
	}
	return out
}
