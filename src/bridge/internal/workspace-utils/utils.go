package workspaceutils

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/importjs/importjs-bridge/src/bridge/internal/fs"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ProjectMarkers identify the root of a JavaScript project, nearest first.
var ProjectMarkers = []string{".importjs.js", "package.json"}

// Module provides a new WorkspaceUtils.
var Module = fx.Provide(New)

// WorkspaceUtils is a utility interface for getting workspace related information.
type WorkspaceUtils interface {
	// ProjectRoot returns the directory the daemon serving path runs in: the innermost workspace folder containing path,
	// else the first workspace folder. Without workspace folders the nearest directory holding a project marker is used,
	// falling back to the directory of path.
	ProjectRoot(ctx context.Context, workspaceFolders []string, path string) string
}

// Params are the parameters required to create a new WorkspaceUtils.
type Params struct {
	fx.In

	Logger *zap.SugaredLogger
	FS     fs.BridgeFS
}

type workspaceUtilsImpl struct {
	logger *zap.SugaredLogger
	fs     fs.BridgeFS
}

// New creates a new WorkspaceUtils.
func New(p Params) WorkspaceUtils {
	return &workspaceUtilsImpl{
		logger: p.Logger,
		fs:     p.FS,
	}
}

func (c *workspaceUtilsImpl) ProjectRoot(ctx context.Context, workspaceFolders []string, path string) string {
	if len(workspaceFolders) > 0 {
		best := ""
		for _, folder := range workspaceFolders {
			if isWithin(path, folder) && len(folder) > len(best) {
				best = folder
			}
		}
		if best != "" {
			return best
		}
		return workspaceFolders[0]
	}

	dir := filepath.Dir(path)
	for current := dir; ; current = filepath.Dir(current) {
		for _, marker := range ProjectMarkers {
			ok, err := c.fs.FileExists(filepath.Join(current, marker))
			if err != nil {
				c.logger.Warnw("checking project marker", "dir", current, "marker", marker, "error", err)
				continue
			}
			if ok {
				return current
			}
		}
		if parent := filepath.Dir(current); parent == current {
			break
		}
	}
	return dir
}

func isWithin(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
