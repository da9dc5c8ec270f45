package types

// Coordinates is the annotated bounding box in pixels. X and Y are the
// top-left corner of the box on the composite image.
type Coordinates struct {
	Y      int `json:"y"`
	X      int `json:"x"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Object is a single labeled region inside an annotated image
type Object struct {
	Label       string      `json:"label"`
	Coordinates Coordinates `json:"coordinates"`
}

// Annotation is one entry of a CreateML object detection annotation file
type Annotation struct {
	Annotation    []Object `json:"annotation"`
	ImageFilename string   `json:"imagefilename"`
}

// NewAnnotation builds the annotation for a generated image holding a single subject
func NewAnnotation(label, filename string, coords Coordinates) Annotation {
	return Annotation{
		Annotation:    []Object{{Label: label, Coordinates: coords}},
		ImageFilename: filename,
	}
}

// Box is an integer pixel rectangle
type Box struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Coordinates converts the box to annotation coordinates
func (b Box) Coordinates() Coordinates {
	return Coordinates{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
}

// Insets holds optional per-side percentages trimmed from the annotated box.
// A zero value means the side has no inset.
type Insets struct {
	Top    int `json:"top,omitempty"`
	Right  int `json:"right,omitempty"`
	Bottom int `json:"bottom,omitempty"`
	Left   int `json:"left,omitempty"`
}

// IsZero reports whether no side has an inset
func (i Insets) IsZero() bool {
	return i == Insets{}
}
