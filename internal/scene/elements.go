package scene

// text and line are the Stage's element implementations. They are mutated
// only from the loop driver's goroutine; attachment state lives on the Stage
// and is guarded by its lock.

type text struct {
	stage   *Stage
	id      string
	content string
	color   string
	x, y    float64
	scale   float64
	opacity float64
}

func (t *text) ID() string     { return t.id }
func (t *text) Text() string   { return t.content }
func (t *text) Attached() bool { return t.stage.attached(t) }
func (t *text) Destroy()       { t.stage.detach(t) }

func (t *text) SetColor(color string) {
	if !t.Attached() {
		return
	}
	t.color = color
}

func (t *text) SetOpacity(opacity float64) {
	if !t.Attached() {
		return
	}
	t.opacity = opacity
}

func (t *text) SetTransform(x, y, scale float64) {
	if !t.Attached() {
		return
	}
	t.x, t.y = x, y
	t.scale = scale
}

type line struct {
	stage          *Stage
	id             string
	color          string
	x1, y1, x2, y2 float64
	width          float64
	opacity        float64
}

func (l *line) ID() string     { return l.id }
func (l *line) Color() string  { return l.color }
func (l *line) Attached() bool { return l.stage.attached(l) }
func (l *line) Destroy()       { l.stage.detach(l) }

func (l *line) SetColor(color string) {
	if !l.Attached() {
		return
	}
	l.color = color
}

func (l *line) SetOpacity(opacity float64) {
	if !l.Attached() {
		return
	}
	l.opacity = opacity
}

func (l *line) Stroke(x1, y1, x2, y2, width, opacity float64) {
	if !l.Attached() {
		return
	}
	l.x1, l.y1, l.x2, l.y2 = x1, y1, x2, y2
	l.width = width
	l.opacity = opacity
}
