package export

import (
	"encoding/json"
	"math"

	"github.com/dyuri/navconv/internal/model"
)

// jsonFloat writes NaN and the infinities as the strings "NaN", "+Inf"
// and "-Inf". Any float bit pattern decodes, so JSON output must not
// reject one.
type jsonFloat float32

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}
	return json.Marshal(float32(f))
}

type jsonVector struct {
	X jsonFloat `json:"x"`
	Y jsonFloat `json:"y"`
	Z jsonFloat `json:"z"`
}

func newJSONVector(v model.Vector3) jsonVector {
	return jsonVector{X: jsonFloat(v.X), Y: jsonFloat(v.Y), Z: jsonFloat(v.Z)}
}

type jsonCorner struct {
	Origin         jsonVector `json:"origin"`
	ImplicitHeight jsonFloat  `json:"implicitHeight"`
}

func newJSONCorner(c model.Corner) jsonCorner {
	return jsonCorner{Origin: newJSONVector(c.Origin), ImplicitHeight: jsonFloat(c.ImplicitHeight)}
}

type jsonHidingSpot struct {
	model.HidingSpot
	Pos jsonVector `json:"pos"`
}

// jsonArea shadows the float fields of the embedded area.
type jsonArea struct {
	model.Area
	NWCorner       jsonCorner                `json:"nwCorner"`
	SECorner       jsonCorner                `json:"seCorner"`
	HidingSpots    []jsonHidingSpot          `json:"hidingSpots"`
	EarliestOccupy [model.NumTeams]jsonFloat `json:"earliestOccupy"`
}

type jsonLadder struct {
	model.Ladder
	Width  jsonFloat  `json:"width"`
	Top    jsonVector `json:"top"`
	Bottom jsonVector `json:"bottom"`
	Length jsonFloat  `json:"length"`
}

type jsonDocument struct {
	*document
	Areas   []jsonArea   `json:"areas"`
	Ladders []jsonLadder `json:"ladders"`
}

func newJSONDocument(doc *document) *jsonDocument {
	jd := &jsonDocument{document: doc}

	if doc.Areas != nil {
		jd.Areas = make([]jsonArea, len(doc.Areas))
	}
	for i, a := range doc.Areas {
		ja := jsonArea{
			Area:     a,
			NWCorner: newJSONCorner(a.NWCorner),
			SECorner: newJSONCorner(a.SECorner),
		}
		if a.HidingSpots != nil {
			ja.HidingSpots = make([]jsonHidingSpot, len(a.HidingSpots))
		}
		for j, s := range a.HidingSpots {
			ja.HidingSpots[j] = jsonHidingSpot{HidingSpot: s, Pos: newJSONVector(s.Pos)}
		}
		for t, v := range a.EarliestOccupy {
			ja.EarliestOccupy[t] = jsonFloat(v)
		}
		jd.Areas[i] = ja
	}

	if doc.Ladders != nil {
		jd.Ladders = make([]jsonLadder, len(doc.Ladders))
	}
	for i, l := range doc.Ladders {
		jd.Ladders[i] = jsonLadder{
			Ladder: l,
			Width:  jsonFloat(l.Width),
			Top:    newJSONVector(l.Top),
			Bottom: newJSONVector(l.Bottom),
			Length: jsonFloat(l.Length),
		}
	}
	return jd
}
