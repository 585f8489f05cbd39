package upload

import "fmt"

// Entity is the persistence-layer record the uploader reads and mutates.
// Get returns nil for unknown fields; Set ignores them.
type Entity interface {
	Get(field string) any
	Set(field string, value any)
	// Source is the logical collection name (table) of the entity.
	Source() string
}

// Reference is what remains of an upload on the entity.
type Reference struct {
	Field            string
	Key              string
	Extension        string
	OriginalFilename string
}

// Path is the remote object path of the reference.
func (r Reference) Path() string {
	return objectPath(r.Key, r.Extension)
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case *string:
		if s == nil {
			return ""
		}
		return *s
	case fmt.Stringer:
		return s.String()
	default:
		return ""
	}
}
