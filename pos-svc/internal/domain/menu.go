package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type Category struct {
	Name  string
	Items []MenuItem
}

// MenuData maps category names to their items. It is stored as a JSON
// object and keeps the object's key order, which is the display order.
type MenuData struct {
	Categories []Category
}

func (m MenuData) Category(name string) ([]MenuItem, bool) {
	for _, c := range m.Categories {
		if c.Name == name {
			return c.Items, true
		}
	}
	return nil, false
}

// Find looks an item up by id across all categories.
func (m MenuData) Find(id int) (MenuItem, bool) {
	for _, c := range m.Categories {
		for _, item := range c.Items {
			if item.ID == id {
				return item, true
			}
		}
	}
	return MenuItem{}, false
}

func (m MenuData) Len() int {
	n := 0
	for _, c := range m.Categories {
		n += len(c.Items)
	}
	return n
}

func (m MenuData) Clone() MenuData {
	out := MenuData{Categories: make([]Category, len(m.Categories))}
	for i, c := range m.Categories {
		items := make([]MenuItem, len(c.Items))
		for j, item := range c.Items {
			items[j] = item.Clone()
		}
		out.Categories[i] = Category{Name: c.Name, Items: items}
	}
	return out
}

func (m MenuData) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range m.Categories {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		items := c.Items
		if items == nil {
			items = []MenuItem{}
		}
		val, err := json.Marshal(items)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *MenuData) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("menu data: expected object, got %v", tok)
	}

	var categories []Category
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("menu data: expected category name, got %v", tok)
		}
		var items []MenuItem
		if err := dec.Decode(&items); err != nil {
			return fmt.Errorf("menu data: category %q: %w", name, err)
		}
		categories = append(categories, Category{Name: name, Items: items})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	m.Categories = categories
	return nil
}
