// Package homepage reads link collections from Homepage dashboard files
// (bookmarks.yaml and services.yaml).
package homepage

// Entry is one link found in a Homepage file.
type Entry struct {
	Group string
	Name  string
	Href  string
}

// Both files share the shape
//
//	---
//	- Group:
//	    - Name: <props>
//
// where <props> is a mapping in services.yaml and a one-element list of
// mappings in bookmarks.yaml.
type document []map[string][]map[string]any

type props struct {
	Href string `yaml:"href"`
}
