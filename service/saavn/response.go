package saavn

import (
	"github.com/tidwall/gjson"
)

// Shape tags the structure of one upstream response. The same operation returns
// different shapes depending on api version and entity, so every payload is
// classified before it is normalized.
type Shape int

const (
	ShapeUnknown Shape = iota
	ShapeError         // {"error": {...}}
	ShapeEmpty         // [], {}, null
	ShapeList          // bare array of entities
	ShapeResults       // {"results": [...]}
	ShapeSongs         // {"songs": [...]}
	ShapeKeyed         // {"<id>": {...}, ...}
	ShapeObject        // a single entity object
)

func (s Shape) String() string {
	switch s {
	case ShapeError:
		return "error"
	case ShapeEmpty:
		return "empty"
	case ShapeList:
		return "list"
	case ShapeResults:
		return "results"
	case ShapeSongs:
		return "songs"
	case ShapeKeyed:
		return "keyed"
	case ShapeObject:
		return "object"
	default:
		return "unknown"
	}
}

// Payload is a classified upstream response.
type Payload struct {
	Shape Shape
	Root  gjson.Result
}

// objectKeys mark a response as a single entity (or a sectioned document such as
// autocomplete or artist top songs) rather than a map keyed by identifier.
var objectKeys = []string{
	"id", "title", "song", "listname", "artistId", "name",
	"lyrics", "topSongs", "topAlbums", "topquery",
}

// Classify sniffs the shape of a raw JSON body.
func Classify(body []byte) Payload {
	root := gjson.ParseBytes(body)
	return Payload{Shape: classify(root), Root: root}
}

func classify(root gjson.Result) Shape {
	switch {
	case !root.Exists() || root.Type == gjson.Null:
		return ShapeEmpty
	case root.IsArray():
		if len(root.Array()) == 0 {
			return ShapeEmpty
		}
		return ShapeList
	case !root.IsObject():
		return ShapeUnknown
	}

	if root.Get("error").Exists() {
		return ShapeError
	}

	fields := root.Map()
	if len(fields) == 0 {
		return ShapeEmpty
	}
	if root.Get("results").IsArray() {
		return ShapeResults
	}
	if root.Get("songs").IsArray() && !root.Get("id").Exists() && !root.Get("title").Exists() {
		return ShapeSongs
	}
	for _, key := range objectKeys {
		if root.Get(key).Exists() {
			return ShapeObject
		}
	}

	keyed := true
	for key, v := range fields {
		if !v.IsObject() || (v.Get("id").String() != key && !v.Get("id").Exists()) {
			keyed = false
			break
		}
	}
	if keyed {
		return ShapeKeyed
	}
	return ShapeUnknown
}

// NotFound reports a well-formed response that carries no entity.
func (p Payload) NotFound() bool {
	return p.Shape == ShapeError || p.Shape == ShapeEmpty
}

// Items returns the entity list carried by list-like shapes. A single object is
// returned as a one-element list; error, empty and unknown shapes yield nil.
func (p Payload) Items() []gjson.Result {
	switch p.Shape {
	case ShapeList:
		return p.Root.Array()
	case ShapeResults:
		return p.Root.Get("results").Array()
	case ShapeSongs:
		return p.Root.Get("songs").Array()
	case ShapeKeyed:
		items := make([]gjson.Result, 0)
		p.Root.ForEach(func(_, value gjson.Result) bool {
			items = append(items, value)
			return true
		})
		return items
	case ShapeObject:
		return []gjson.Result{p.Root}
	default:
		return nil
	}
}

// First returns the first entity of the payload, if any.
func (p Payload) First() (gjson.Result, bool) {
	items := p.Items()
	if len(items) == 0 {
		return gjson.Result{}, false
	}
	return items[0], true
}
