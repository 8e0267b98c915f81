package tools

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// EditFileTool replaces one exact occurrence of oldText with newText inside
// an existing file. It refuses ambiguous or absent matches rather than
// guessing, the same way the host's own text editors would.
type EditFileTool struct {
	workspace string
	restrict  bool
}

func NewEditFileTool(workspace string, restrict bool) *EditFileTool {
	return &EditFileTool{workspace: workspace, restrict: restrict}
}

func (t *EditFileTool) Name() string { return "edit_file" }
func (t *EditFileTool) Description() string {
	return "Replace an exact text match inside a file with new text"
}
func (t *EditFileTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path":     map[string]interface{}{"type": "string", "description": "Path to the file to edit"},
			"old_text": map[string]interface{}{"type": "string", "description": "Exact text to find and replace"},
			"new_text": map[string]interface{}{"type": "string", "description": "Text to replace it with"},
		},
		"required": []string{"path", "old_text", "new_text"},
	}
}

func (t *EditFileTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	path, _ := args["path"].(string)
	oldText, _ := args["old_text"].(string)
	newText, _ := args["new_text"].(string)
	if path == "" {
		return ErrorResult("path is required")
	}
	if oldText == "" {
		return ErrorResult("old_text is required")
	}

	workspace := ToolWorkspaceFromCtx(ctx)
	if workspace == "" {
		workspace = t.workspace
	}
	resolved, err := resolvePath(path, workspace, t.restrict)
	if err != nil {
		return ErrorResult(err.Error())
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return ErrorResult(fmt.Sprintf("failed to read file: %v", err))
	}
	content := string(data)

	count := strings.Count(content, oldText)
	if count == 0 {
		return ErrorResult("old_text not found in file")
	}
	if count > 1 {
		return ErrorResult(fmt.Sprintf("old_text is ambiguous: found %d occurrences, must match exactly one", count))
	}

	updated := strings.Replace(content, oldText, newText, 1)
	if err := os.WriteFile(resolved, []byte(updated), 0o644); err != nil {
		return ErrorResult(fmt.Sprintf("failed to write file: %v", err))
	}

	return SilentResult(fmt.Sprintf("Edited %s", path))
}
