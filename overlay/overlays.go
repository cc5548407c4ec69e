package overlay

// overlays holds all of the column overlays for a particular row
type overlays struct {
	columns map[int]string
}

func newOverlays() *overlays {
	return &overlays{
		columns: map[int]string{},
	}
}

func (o *overlays) add(column int, value string) {
	o.columns[column] = value
}

func (o *overlays) get(column int) (string, bool) {
	value, exists := o.columns[column]
	return value, exists
}

func (o *overlays) len() int {
	return len(o.columns)
}
