package recorders

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"wax/internal/logging"
	"wax/internal/notifications"
	"wax/internal/recording"
	"wax/internal/services"
)

// GitName is the name of the implicit repository recorder.
const GitName = "git"

// GitRecorder logs one directoryInfo record per git-tracked directory under
// the user configuration root. Only directories with an origin remote count.
type GitRecorder struct {
	recording.Base

	Binary       string
	UserDir      string
	RequireClean bool
	Exec         services.Executor
	Notifier     notifications.Service
	Logger       *slog.Logger
}

func (g *GitRecorder) Name() string { return GitName }

type trackedDir struct {
	path   string
	remote string
}

// CheckCanStart warns about uncommitted changes, or refuses to start when
// RequireClean is set. A directory whose status cannot be read counts as
// dirty.
func (g *GitRecorder) CheckCanStart(ctx context.Context) error {
	dirs, err := g.trackedDirs(ctx)
	if err != nil {
		return err
	}
	logger := logging.NewComponentLogger(g.Logger, "git_recorder")
	var dirty []string
	for _, dir := range dirs {
		status, err := g.git(ctx, dir.path, "status", "--porcelain")
		if err != nil {
			if g.RequireClean {
				return services.Precondition(GitName, "Couldn't read git status for "+filepath.Base(dir.path)+": "+err.Error())
			}
			dirty = append(dirty, filepath.Base(dir.path)+" (status unreadable)")
			continue
		}
		if status != "" {
			dirty = append(dirty, filepath.Base(dir.path))
		}
	}
	if len(dirty) == 0 {
		return nil
	}
	if g.RequireClean {
		return services.Precondition(GitName, "Please commit all git changes ("+strings.Join(dirty, ", ")+")")
	}
	logging.WarnWithContext(logger, "uncommitted changes in tracked directories", "git_dirty",
		logging.Strings("directories", dirty),
		logging.String(logging.FieldErrorHint, "commit changes so logged revisions reproduce the session"),
		logging.String(logging.FieldImpact, "logged commit SHAs do not capture local edits"),
	)
	if g.Notifier != nil {
		if err := g.Notifier.NotifyWarning(ctx, "Uncommitted git changes", strings.Join(dirty, ", ")); err != nil {
			logger.Debug("git warning notification failed", logging.Error(err))
		}
	}
	return nil
}

// Start writes a directoryInfo record for every tracked directory.
func (g *GitRecorder) Start(ctx context.Context, rc *recording.Context) (map[string]any, error) {
	dirs, err := g.trackedDirs(ctx)
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		sha, err := g.git(ctx, dir.path, "rev-parse", "HEAD")
		if err != nil {
			return nil, services.Wrap(services.ErrStartFailed, GitName, "rev-parse", dir.path, err)
		}
		// Prefix of the directory inside its repository; non-empty when a
		// subtree of a repository is linked into the user directory.
		prefix, err := g.git(ctx, dir.path, "rev-parse", "--show-prefix")
		if err != nil {
			return nil, services.Wrap(services.ErrStartFailed, GitName, "show-prefix", dir.path, err)
		}
		realPath, err := filepath.EvalSymlinks(dir.path)
		if err != nil {
			return nil, services.Wrap(services.ErrStartFailed, GitName, "resolve", dir.path, err)
		}
		if err := rc.Events.Write(map[string]any{
			"type":          "directoryInfo",
			"localPath":     dir.path,
			"localRealPath": realPath,
			"repoRemoteUrl": dir.remote,
			"repoPrefix":    prefix,
			"commitSha":     sha,
		}); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (g *GitRecorder) trackedDirs(ctx context.Context) ([]trackedDir, error) {
	entries, err := os.ReadDir(g.UserDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logging.NewComponentLogger(g.Logger, "git_recorder").Debug("user directory missing; no repositories to record",
				logging.String("path", g.UserDir))
			return nil, nil
		}
		return nil, services.Wrap(services.ErrPrecondition, GitName, "scan", "Cannot read user directory", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var dirs []trackedDir
	for _, entry := range entries {
		path := filepath.Join(g.UserDir, entry.Name())
		// Stat follows symlinks; linked repositories are common here.
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			continue
		}
		remote, _ := g.git(ctx, path, "config", "--get", "remote.origin.url")
		if remote == "" {
			continue
		}
		dirs = append(dirs, trackedDir{path: path, remote: remote})
	}
	return dirs, nil
}

func (g *GitRecorder) git(ctx context.Context, dir string, args ...string) (string, error) {
	binary := g.Binary
	if binary == "" {
		binary = "git"
	}
	exec := g.Exec
	if exec == nil {
		exec = services.CommandExecutor{}
	}
	out, err := exec.Output(ctx, services.Command{Binary: binary, Args: args, Dir: dir})
	return strings.TrimSpace(string(out)), err
}
