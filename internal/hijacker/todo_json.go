package hijacker

import (
	"encoding/json"
	"fmt"

	"mpm/internal/delegation"
)

// parseTodoFile reads a TODO JSON file in any of the shapes §4.6 names: a
// single object, an object with key "todos" or "items", or a bare list.
func parseTodoFile(path string, data []byte) ([]delegation.TodoItem, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON in %s: %w", path, err)
	}

	var rawTodos []interface{}
	switch v := raw.(type) {
	case map[string]interface{}:
		if todos, ok := v["todos"].([]interface{}); ok {
			rawTodos = todos
		} else if items, ok := v["items"].([]interface{}); ok {
			rawTodos = items
		} else if _, hasContent := v["content"]; hasContent {
			rawTodos = []interface{}{v}
		} else if _, hasTask := v["task"]; hasTask {
			rawTodos = []interface{}{v}
		}
	case []interface{}:
		rawTodos = v
	}

	var out []delegation.TodoItem
	for _, r := range rawTodos {
		m, ok := r.(map[string]interface{})
		if !ok {
			continue
		}
		// Must carry content or task, matching _extract_todos's valid-todo
		// filter; completed todos are filtered here too so callers never
		// see them.
		_, hasContent := m["content"]
		_, hasTask := m["task"]
		if !hasContent && !hasTask {
			continue
		}
		item := todoFromMap(m)
		if item.Done || item.Status == "completed" {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func todoFromMap(m map[string]interface{}) delegation.TodoItem {
	return delegation.TodoItem{
		ID:          stringField(m, "id"),
		Content:     stringField(m, "content"),
		Task:        stringField(m, "task"),
		Description: stringField(m, "description"),
		Title:       stringField(m, "title"),
		Body:        stringField(m, "body"),
		Status:      stringField(m, "status"),
		Done:        boolField(m, "done"),
		Priority:    delegation.Priority(stringField(m, "priority")),
		Labels:      stringSliceField(m, "labels"),
		Tags:        stringSliceField(m, "tags"),
		CreatedAt:   firstNonEmpty(stringField(m, "created_at"), stringField(m, "timestamp")),
	}
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func boolField(m map[string]interface{}, key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}

func stringSliceField(m map[string]interface{}, key string) []string {
	raw, ok := m[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
