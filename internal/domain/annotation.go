package domain

import "math"

// GeoCoordinates is a latitude/longitude pair attached to a node annotation
type GeoCoordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PixelPosition is an integer canvas position used in annotations
type PixelPosition struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// RoundPosition converts a float canvas position to the integer form stored
// in the sidecar.
func RoundPosition(p Position) PixelPosition {
	return PixelPosition{
		X: int(math.Round(p.X)),
		Y: int(math.Round(p.Y)),
	}
}

// NodeAnnotation holds the presentation state of a regular lab node
type NodeAnnotation struct {
	ID             string          `json:"id"`
	Position       PixelPosition   `json:"position"`
	Icon           string          `json:"icon,omitempty"`
	GeoCoordinates *GeoCoordinates `json:"geoCoordinates,omitempty"`
	GroupLabelPos  string          `json:"groupLabelPos,omitempty"`
	Group          string          `json:"group,omitempty"`
	Level          string          `json:"level,omitempty"`
}

// CloudAnnotation holds the presentation state of a special endpoint node
type CloudAnnotation struct {
	ID       string        `json:"id"`
	Type     string        `json:"type"`
	Label    string        `json:"label,omitempty"`
	Position PixelPosition `json:"position"`
	Group    string        `json:"group,omitempty"`
	Level    string        `json:"level,omitempty"`
}

// FreeTextAnnotation is a free-floating text element on the canvas
type FreeTextAnnotation struct {
	ID         string        `json:"id"`
	Text       string        `json:"text"`
	Position   PixelPosition `json:"position"`
	FontSize   int           `json:"fontSize,omitempty"`
	FontColor  string        `json:"fontColor,omitempty"`
	Background string        `json:"background,omitempty"`
}

// FreeShapeAnnotation is a free-floating shape element on the canvas
type FreeShapeAnnotation struct {
	ID          string        `json:"id"`
	Shape       string        `json:"shape"` // "rectangle", "ellipse", "line"
	Position    PixelPosition `json:"position"`
	Width       int           `json:"width,omitempty"`
	Height      int           `json:"height,omitempty"`
	FillColor   string        `json:"fillColor,omitempty"`
	BorderColor string        `json:"borderColor,omitempty"`
	BorderWidth int           `json:"borderWidth,omitempty"`
}

// GroupStyleAnnotation styles a visual group container
type GroupStyleAnnotation struct {
	ID            string `json:"id"` // Composite group id "<name>:<level>"
	BackgroundCol string `json:"backgroundColor,omitempty"`
	BorderCol     string `json:"borderColor,omitempty"`
	BorderWidth   int    `json:"borderWidth,omitempty"`
	BorderRadius  int    `json:"borderRadius,omitempty"`
	LabelPosition string `json:"labelPosition,omitempty"`
}

// AnnotationCollection is the full sidecar payload for one topology file.
// Each sub-collection is replaced wholesale by its owning writer.
type AnnotationCollection struct {
	NodeAnnotations       []NodeAnnotation       `json:"nodeAnnotations"`
	CloudNodeAnnotations  []CloudAnnotation      `json:"cloudNodeAnnotations"`
	FreeTextAnnotations   []FreeTextAnnotation   `json:"freeTextAnnotations"`
	FreeShapeAnnotations  []FreeShapeAnnotation  `json:"freeShapeAnnotations"`
	GroupStyleAnnotations []GroupStyleAnnotation `json:"groupStyleAnnotations"`
}

// NewAnnotationCollection creates an empty collection with all
// sub-collections initialized.
func NewAnnotationCollection() *AnnotationCollection {
	return &AnnotationCollection{
		NodeAnnotations:       []NodeAnnotation{},
		CloudNodeAnnotations:  []CloudAnnotation{},
		FreeTextAnnotations:   []FreeTextAnnotation{},
		FreeShapeAnnotations:  []FreeShapeAnnotation{},
		GroupStyleAnnotations: []GroupStyleAnnotation{},
	}
}

// IsEmpty reports whether every sub-collection is empty, which is the
// condition for deleting the sidecar file.
func (c *AnnotationCollection) IsEmpty() bool {
	return len(c.NodeAnnotations) == 0 &&
		len(c.CloudNodeAnnotations) == 0 &&
		len(c.FreeTextAnnotations) == 0 &&
		len(c.FreeShapeAnnotations) == 0 &&
		len(c.GroupStyleAnnotations) == 0
}

// Clone returns a deep copy. Callers that hold a collection across
// concurrent reads and writes copy first and mutate the copy.
func (c *AnnotationCollection) Clone() *AnnotationCollection {
	if c == nil {
		return NewAnnotationCollection()
	}

	out := &AnnotationCollection{
		NodeAnnotations:       append([]NodeAnnotation(nil), c.NodeAnnotations...),
		CloudNodeAnnotations:  append([]CloudAnnotation(nil), c.CloudNodeAnnotations...),
		FreeTextAnnotations:   append([]FreeTextAnnotation(nil), c.FreeTextAnnotations...),
		FreeShapeAnnotations:  append([]FreeShapeAnnotation(nil), c.FreeShapeAnnotations...),
		GroupStyleAnnotations: append([]GroupStyleAnnotation(nil), c.GroupStyleAnnotations...),
	}

	for i := range out.NodeAnnotations {
		if geo := out.NodeAnnotations[i].GeoCoordinates; geo != nil {
			copied := *geo
			out.NodeAnnotations[i].GeoCoordinates = &copied
		}
	}

	return out
}
