// Package workspace locates the host and library checkouts the workflow
// operates on.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/sqve/tandem/internal/config"
	"github.com/sqve/tandem/internal/errors"
	"github.com/sqve/tandem/internal/fs"
	"github.com/sqve/tandem/internal/git"
	"github.com/sqve/tandem/internal/logger"
)

// Host is the large repository that consumes the library through its
// dependency-declaration file.
type Host struct {
	Root        string
	Declaration string // absolute path of the dependency-declaration file
	Repo        *git.Repo
}

// Library is the repository whose build manifest names the library package.
type Library struct {
	Root     string
	Manifest string // absolute path of the build manifest
	Repo     *git.Repo
}

type Resolver struct {
	cfg *config.Config
	log *logger.Logger
}

func NewResolver(cfg *config.Config, log *logger.Logger) *Resolver {
	return &Resolver{cfg: cfg, log: log}
}

// FindHost walks upward from start until it finds a directory holding the
// dependency-declaration file at its configured relative path.
func (r *Resolver) FindHost(start string) (*Host, error) {
	absPath, err := filepath.Abs(start)
	if err != nil {
		return nil, err
	}

	decl := filepath.FromSlash(r.cfg.Host.Declaration)
	dir := absPath
	for i := 0; i < fs.MaxDirectoryIterations; i++ {
		if fs.FileExists(filepath.Join(dir, decl)) && fs.PathExists(filepath.Join(dir, ".git")) {
			return r.openHost(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, errors.ErrEnvironmentf("not inside a host checkout: no %s found above %s", r.cfg.Host.Declaration, absPath).
				WithContext("path", absPath)
		}
		dir = parent
	}
	return nil, fmt.Errorf("exceeded maximum directory depth (%d): possible symlink loop", fs.MaxDirectoryIterations)
}

func (r *Resolver) openHost(root string) (*Host, error) {
	repo, err := git.Open(root, r.log)
	if err != nil {
		return nil, err
	}
	r.log.Debug("Found host checkout at %s", root)
	return &Host{
		Root:        repo.Path(),
		Declaration: filepath.Join(repo.Path(), filepath.FromSlash(r.cfg.Host.Declaration)),
		Repo:        repo,
	}, nil
}

// FindLibrary resolves the library checkout. Inside a host checkout the
// library must sit at the configured path relative to the host root.
// Otherwise start, or the nearest parent of it, must be the library.
func (r *Resolver) FindLibrary(start string) (*Library, error) {
	if host, err := r.FindHost(start); err == nil {
		return r.libraryForHost(host)
	}

	absPath, err := filepath.Abs(start)
	if err != nil {
		return nil, err
	}

	dir := absPath
	for i := 0; i < fs.MaxDirectoryIterations; i++ {
		if r.isLibrary(dir) == nil && fs.PathExists(filepath.Join(dir, ".git")) {
			return r.openLibrary(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, errors.ErrEnvironmentf("not inside a %s checkout: no %s naming package %q found above %s",
				r.cfg.Library.Name, r.cfg.Library.Manifest, r.cfg.Library.Name, absPath).
				WithContext("path", absPath)
		}
		dir = parent
	}
	return nil, fmt.Errorf("exceeded maximum directory depth (%d): possible symlink loop", fs.MaxDirectoryIterations)
}

// ResolveHost returns the host found from start together with its sibling
// library checkout.
func (r *Resolver) ResolveHost(start string) (*Host, *Library, error) {
	host, err := r.FindHost(start)
	if err != nil {
		return nil, nil, err
	}

	lib, err := r.libraryForHost(host)
	if err != nil {
		return nil, nil, err
	}
	return host, lib, nil
}

func (r *Resolver) libraryForHost(host *Host) (*Library, error) {
	dir := filepath.Clean(filepath.Join(host.Root, filepath.FromSlash(r.cfg.Library.Dir)))
	if err := r.isLibrary(dir); err != nil {
		return nil, errors.Wrapf(err, "library checkout for host %s", host.Root)
	}
	return r.openLibrary(dir)
}

func (r *Resolver) openLibrary(root string) (*Library, error) {
	repo, err := git.Open(root, r.log)
	if err != nil {
		return nil, err
	}
	r.log.Debug("Found %s checkout at %s", r.cfg.Library.Name, root)
	return &Library{
		Root:     repo.Path(),
		Manifest: filepath.Join(repo.Path(), filepath.FromSlash(r.cfg.Library.Manifest)),
		Repo:     repo,
	}, nil
}

// isLibrary checks that dir holds a build manifest whose package name is the
// configured library name.
func (r *Resolver) isLibrary(dir string) error {
	manifest := filepath.Join(dir, filepath.FromSlash(r.cfg.Library.Manifest))
	if !fs.FileExists(manifest) {
		return errors.ErrEnvironmentf("%s not found", manifest).WithContext("path", manifest)
	}

	name, err := PackageName(manifest)
	if err != nil {
		return err
	}
	if name != r.cfg.Library.Name {
		return errors.ErrEnvironmentf("%s names package %q, expected %q", manifest, name, r.cfg.Library.Name).
			WithContext("path", manifest)
	}
	return nil
}

type cargoManifest struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
}

// PackageName reads [package].name from a Cargo manifest.
func PackageName(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Manifest path is derived from the checkout root
	if err != nil {
		return "", errors.NewTandemError(errors.ErrCodeEnvironment, "failed to read manifest", err).
			WithContext("path", path)
	}

	var manifest cargoManifest
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return "", errors.NewTandemErrorf(errors.ErrCodeEnvironment, err, "malformed manifest %s", path).
			WithContext("path", path)
	}
	return manifest.Package.Name, nil
}

// FindRepoRoot returns the nearest directory at or above start that contains
// a .git entry.
func FindRepoRoot(start string) (string, error) {
	absPath, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	dir := absPath
	for i := 0; i < fs.MaxDirectoryIterations; i++ {
		if fs.PathExists(filepath.Join(dir, ".git")) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.ErrNotRepository(absPath)
		}
		dir = parent
	}
	return "", fmt.Errorf("exceeded maximum directory depth (%d): possible symlink loop", fs.MaxDirectoryIterations)
}
