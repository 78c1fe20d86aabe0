// Package validation submits the host, built against freshly published
// library artifacts, to the remote validation service.
package validation

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sqve/tandem/internal/config"
	"github.com/sqve/tandem/internal/errors"
	"github.com/sqve/tandem/internal/hooks"
	"github.com/sqve/tandem/internal/logger"
	"github.com/sqve/tandem/internal/manifest"
	"github.com/sqve/tandem/internal/publish"
	"github.com/sqve/tandem/internal/txn"
	"github.com/sqve/tandem/internal/workspace"
)

const totalSteps = 5

// Publisher publishes the library's generated artifacts to a fork branch.
type Publisher interface {
	Publish() (*publish.Result, error)
}

// Result describes a submitted validation request.
type Result struct {
	Publish   *publish.Result
	BuildType string
	Trigger   string
	Commit    string // pushed trigger commit, gone from the local checkout afterwards
}

type Pusher struct {
	cfg       *config.Config
	host      *workspace.Host
	rewriter  *manifest.Rewriter
	publisher Publisher
	runner    *hooks.Runner
	log       *logger.Logger
}

func New(cfg *config.Config, host *workspace.Host, rewriter *manifest.Rewriter, publisher Publisher, runner *hooks.Runner, log *logger.Logger) *Pusher {
	return &Pusher{
		cfg:       cfg,
		host:      host,
		rewriter:  rewriter,
		publisher: publisher,
		runner:    runner,
		log:       log,
	}
}

// Push publishes the library, points the host at the published fork
// branch, commits the vendored result plus an empty trigger commit and
// pushes both to the validation remote. The host is reset to the commit it
// started on before Push returns, whether the push succeeded or not.
func (p *Pusher) Push(buildType string) (res *Result, err error) {
	hostCfg := p.cfg.Host
	repo := p.host.Repo

	if !slices.Contains(hostCfg.BuildTypes, buildType) {
		return nil, errors.ErrEnvironmentf("unknown build type %q, expected one of: %s",
			buildType, strings.Join(hostCfg.BuildTypes, ", "))
	}
	if err := repo.AssertClean(); err != nil {
		return nil, err
	}
	if _, err := repo.CurrentBranch(); err != nil {
		return nil, err
	}
	if err := p.ensureRemote(); err != nil {
		return nil, err
	}

	origHead, err := repo.HeadSHA()
	if err != nil {
		return nil, err
	}
	untracked, err := repo.UntrackedFiles()
	if err != nil {
		return nil, err
	}

	p.log.Info("Publishing generated %s", p.cfg.Library.Name)
	published, err := p.publisher.Publish()
	if err != nil {
		return nil, errors.Wrap(err, "publishing generated files failed")
	}
	p.log.Success("Pushed %s", published.URL())

	undo := txn.New(p.log)
	defer undo.Finish(&err)
	undo.Push("reset host to "+shortSHA(origHead), func() error {
		return repo.Run("reset", "--hard", "--quiet", origHead)
	})
	undo.Push("remove files created by "+hostCfg.VendorCommand, func() error {
		return p.removeNewFiles(untracked)
	})

	mode := manifest.Fork{User: published.ForkUser, Branch: published.Branch}
	p.log.Step(1, totalSteps, "Pointing %s at %s", hostCfg.Declaration, mode)
	if _, err := p.rewriter.RewriteFile(p.host.Declaration, mode); err != nil {
		return nil, err
	}

	p.log.Step(2, totalSteps, "Running %s", hostCfg.VendorCommand)
	if err := p.runner.Run(repo.Path(), hostCfg.VendorCommand); err != nil {
		return nil, err
	}

	p.log.Step(3, totalSteps, "Committing %q", hostCfg.VendorMessage)
	if err := p.stageVendored(untracked); err != nil {
		return nil, err
	}
	if err := repo.Run("commit", "--quiet", "--no-verify", "-m", hostCfg.VendorMessage); err != nil {
		return nil, err
	}

	trigger := p.cfg.Trigger(buildType)
	p.log.Step(4, totalSteps, "Committing %q", trigger)
	if err := repo.Run("commit", "--quiet", "--no-verify", "--allow-empty", "-m", trigger); err != nil {
		return nil, err
	}

	commit, err := repo.HeadSHA()
	if err != nil {
		return nil, err
	}

	p.log.Step(5, totalSteps, "Pushing to %s", hostCfg.ValidationRemote)
	if err := repo.Run("push", "--quiet", hostCfg.ValidationRemote, "HEAD"); err != nil {
		return nil, err
	}

	return &Result{
		Publish:   published,
		BuildType: buildType,
		Trigger:   trigger,
		Commit:    commit,
	}, nil
}

// ensureRemote registers the validation remote unless a remote with that
// name already exists, whatever its URL.
func (p *Pusher) ensureRemote() error {
	name := p.cfg.Host.ValidationRemote
	has, err := p.host.Repo.HasRemote(name)
	if err != nil || has {
		return err
	}

	if err := p.host.Repo.AddRemote(name, p.cfg.Host.ValidationURL); err != nil {
		return err
	}
	p.log.Info("Added remote %s (%s)", name, p.cfg.Host.ValidationURL)
	return nil
}

// stageVendored stages tracked changes plus files that appeared since
// before. Untracked files that were already there stay out of the commit.
func (p *Pusher) stageVendored(before []string) error {
	repo := p.host.Repo
	if err := repo.Run("add", "--update"); err != nil {
		return err
	}

	created, err := p.host.Repo.UntrackedSince(before)
	if err != nil {
		return err
	}
	return repo.Add(created...)
}

func (p *Pusher) removeNewFiles(before []string) error {
	created, err := p.host.Repo.UntrackedSince(before)
	if err != nil {
		return err
	}

	var errs []error
	for _, f := range created {
		p.log.Debug("Removing %s", f)
		if err := os.Remove(filepath.Join(p.host.Root, filepath.FromSlash(f))); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func shortSHA(sha string) string {
	if len(sha) > 12 {
		return sha[:12]
	}
	return sha
}
