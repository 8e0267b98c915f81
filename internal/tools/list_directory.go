package tools

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
)

// ListDirectoryTool lists the immediate contents of a directory.
type ListDirectoryTool struct {
	workspace string
	restrict  bool
}

func NewListDirectoryTool(workspace string, restrict bool) *ListDirectoryTool {
	return &ListDirectoryTool{workspace: workspace, restrict: restrict}
}

func (t *ListDirectoryTool) Name() string        { return "list_directory" }
func (t *ListDirectoryTool) Description() string { return "List the contents of a directory" }
func (t *ListDirectoryTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Directory path to list (defaults to the workspace root)",
			},
		},
	}
}

func (t *ListDirectoryTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	path, _ := args["path"].(string)
	if path == "" {
		path = "."
	}

	workspace := ToolWorkspaceFromCtx(ctx)
	if workspace == "" {
		workspace = t.workspace
	}
	resolved, err := resolvePath(path, workspace, t.restrict)
	if err != nil {
		return ErrorResult(err.Error())
	}

	entries, err := os.ReadDir(resolved)
	if err != nil {
		return ErrorResult(fmt.Sprintf("failed to list directory: %v", err))
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) == 0 {
		return SilentResult("(empty directory)")
	}
	return SilentResult(strings.Join(names, "\n"))
}
