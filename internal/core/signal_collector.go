package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/Masterminds/semver/v3"
	"github.com/package-url/packageurl-go"
	spdxjson "github.com/spdx/tools-golang/json"
	"gopkg.in/yaml.v3"

	"github.com/EmundoT/pkgguard/internal/manifest"
	"github.com/EmundoT/pkgguard/internal/npmname"
	"github.com/EmundoT/pkgguard/internal/types"
)

// Lock files read for installed components and removed by Cleanup.
const (
	PackageLockFile = "package-lock.json"
	ShrinkwrapFile  = "npm-shrinkwrap.json"
	YarnLockFile    = "yarn.lock"
	PnpmLockFile    = "pnpm-lock.yaml"
)

// Vulnerability sources recorded in RepositorySignals.VulnerabilitySource.
const (
	VulnSourceCycloneDX = "cyclonedx"
	VulnSourceNpmAudit  = "npm-audit"
)

// Component is one installed package found in a lockfile or SBOM.
type Component struct {
	Name    string
	Version string
	Source  string // file the component was read from
}

// SignalCollectorInterface gathers the classification inputs of one repository.
type SignalCollectorInterface interface {
	Collect(ctx context.Context, repo types.RepositoryConfig) (types.RepositorySignals, error)
}

// Compile-time interface satisfaction check.
var _ SignalCollectorInterface = (*SignalCollector)(nil)

// SignalCollector reads a repository's manifest, lockfiles and scanner output.
// It makes no decisions: it only reports what the files and tools say.
type SignalCollector struct {
	runner ToolRunner
	rules  []compiledRiskRule
	logger *slog.Logger
}

type compiledRiskRule struct {
	rule       types.RiskPackageRule
	constraint *semver.Constraints // nil matches every version
}

// NewSignalCollector compiles the risk package rules. An invalid version
// constraint is a ConfigurationError.
func NewSignalCollector(runner ToolRunner, rules []types.RiskPackageRule, logger *slog.Logger) (*SignalCollector, error) {
	if logger == nil {
		logger = slog.Default()
	}
	compiled, err := compileRiskRules(rules)
	if err != nil {
		return nil, err
	}
	return &SignalCollector{runner: runner, rules: compiled, logger: logger}, nil
}

// compileRiskRules validates risk package rules and parses their constraints.
func compileRiskRules(rules []types.RiskPackageRule) ([]compiledRiskRule, error) {
	compiled := make([]compiledRiskRule, 0, len(rules))
	for i, r := range rules {
		field := fmt.Sprintf("risk_packages[%d]", i)
		if strings.TrimSpace(r.Name) == "" {
			return nil, NewConfigurationError("", field, ErrMissingPackageName)
		}
		c := compiledRiskRule{rule: r}
		if r.Versions != "" {
			constraint, err := semver.NewConstraint(r.Versions)
			if err != nil {
				return nil, NewConfigurationError("", field, fmt.Errorf("versions %q: %w", r.Versions, err))
			}
			c.constraint = constraint
		}
		compiled = append(compiled, c)
	}
	return compiled, nil
}

// Collect gathers the three classification signals for repo.
// A missing or unreadable package.json is a ClassificationInputMissingError; a
// failing scanner or unreadable BOM is a CollaboratorFailure.
func (c *SignalCollector) Collect(ctx context.Context, repo types.RepositoryConfig) (types.RepositorySignals, error) {
	var signals types.RepositorySignals

	doc, err := manifest.Load(filepath.Join(repo.Path, manifest.FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = ErrManifestNotFound
		}
		return signals, &ClassificationInputMissingError{Repository: repo.Name, Err: err}
	}
	pkg, err := doc.Descriptor()
	if err != nil {
		return signals, &ClassificationInputMissingError{Repository: repo.Name, Err: err}
	}

	signals.LifecycleScripts = presentLifecycleScripts(pkg.Scripts)
	signals.HasLifecycleScripts = len(signals.LifecycleScripts) > 0

	var components []Component
	if repo.CycloneDX != "" {
		bom, err := readCycloneDX(resolvePath(repo.Path, repo.CycloneDX))
		if err != nil {
			return signals, NewCollaboratorFailure("cyclonedx", -1, "", err)
		}
		if bom.Vulnerabilities != nil {
			signals.VulnerabilityCount = len(*bom.Vulnerabilities)
		}
		signals.VulnerabilitySource = VulnSourceCycloneDX
		components = append(components, cycloneDXComponents(bom, repo.CycloneDX)...)
	} else {
		count, err := c.npmAudit(ctx, repo.Path)
		if err != nil {
			return signals, err
		}
		signals.VulnerabilityCount = count
		signals.VulnerabilitySource = VulnSourceNpmAudit
	}

	if repo.SPDX != "" {
		spdxComponents, err := readSPDXComponents(resolvePath(repo.Path, repo.SPDX))
		if err != nil {
			return signals, NewCollaboratorFailure("spdx", -1, "", err)
		}
		components = append(components, spdxComponents...)
	}

	lockComponents, err := ReadLockfileComponents(repo.Path)
	if err != nil {
		c.logger.Warn("lockfile unreadable", "repository", repo.Name, "error", err)
	}
	components = append(components, lockComponents...)
	if len(lockComponents) == 0 {
		components = append(components, directDependencyComponents(pkg)...)
	}

	signals.RiskPackages = c.MatchRiskPackages(components)
	signals.HasRiskPackage = len(signals.RiskPackages) > 0

	c.logger.Debug("signals collected",
		"repository", repo.Name,
		"lifecycle", signals.LifecycleScripts,
		"vulnerabilities", signals.VulnerabilityCount,
		"components", len(components),
		"riskPackages", signals.RiskPackages)
	return signals, nil
}

// MatchRiskPackages returns one "name@version" label per component matching a
// rule, sorted and de-duplicated. A component without a usable version matches
// any rule naming it.
func (c *SignalCollector) MatchRiskPackages(components []Component) []string {
	seen := make(map[string]struct{})
	for _, comp := range components {
		for _, r := range c.rules {
			if r.rule.Name != comp.Name || !r.matchesVersion(comp.Version) {
				continue
			}
			label := comp.Name
			if comp.Version != "" {
				label += "@" + comp.Version
			}
			seen[label] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for label := range seen {
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

func (r compiledRiskRule) matchesVersion(version string) bool {
	if r.constraint == nil {
		return true
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return true
	}
	return r.constraint.Check(v)
}

// npmAuditReport is the part of `npm audit --json` output pkgguard reads.
// npm 7+ reports a total; npm 6 only the per-severity counts.
type npmAuditReport struct {
	Metadata struct {
		Vulnerabilities map[string]int `json:"vulnerabilities"`
	} `json:"metadata"`
	Error *struct {
		Code    string `json:"code"`
		Summary string `json:"summary"`
	} `json:"error"`
}

// npmAudit runs `npm audit --json` and returns the total finding count.
// npm exits non-zero when it finds vulnerabilities, so the exit code alone is
// not a failure: only unparseable output or an npm error object is.
func (c *SignalCollector) npmAudit(ctx context.Context, dir string) (int, error) {
	result, runErr := c.runner.Run(ctx, dir, nil, "npm", "audit", "--json")

	var report npmAuditReport
	if err := json.Unmarshal(result.Stdout, &report); err != nil {
		if runErr != nil {
			return 0, runErr
		}
		return 0, NewCollaboratorFailure("npm audit", result.ExitCode, string(result.Stderr), fmt.Errorf("parse output: %w", err))
	}
	if report.Error != nil {
		return 0, NewCollaboratorFailure("npm audit", result.ExitCode, report.Error.Summary, errors.New(report.Error.Code))
	}
	if report.Metadata.Vulnerabilities == nil {
		if runErr != nil {
			return 0, runErr
		}
		return 0, NewCollaboratorFailure("npm audit", result.ExitCode, "", errors.New("output has no metadata.vulnerabilities"))
	}
	return auditTotal(report.Metadata.Vulnerabilities), nil
}

func auditTotal(counts map[string]int) int {
	if total, ok := counts["total"]; ok {
		return total
	}
	sum := 0
	for _, n := range counts {
		sum += n
	}
	return sum
}

// resolvePath joins rel onto base unless rel is absolute.
func resolvePath(base, rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(base, rel)
}

func readCycloneDX(path string) (*cdx.BOM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	bom := new(cdx.BOM)
	if err := cdx.NewBOMDecoder(f, cdx.BOMFileFormatJSON).Decode(bom); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return bom, nil
}

func cycloneDXComponents(bom *cdx.BOM, source string) []Component {
	var out []Component
	var walk func(list *[]cdx.Component)
	walk = func(list *[]cdx.Component) {
		if list == nil {
			return
		}
		for _, comp := range *list {
			name := comp.Name
			if comp.Group != "" {
				name = comp.Group + "/" + comp.Name
			}
			if npmName, _, ok := npmPackageFromPURL(comp.PackageURL); ok {
				name = npmName
			}
			out = append(out, Component{Name: name, Version: comp.Version, Source: source})
			walk(comp.Components)
		}
	}
	walk(bom.Components)
	return out
}

// npmPackageFromPURL returns the npm package a package URL names, e.g.
// "pkg:npm/%40acme/ui@1.2.0" → "@acme/ui", "1.2.0".
func npmPackageFromPURL(raw string) (name, version string, ok bool) {
	if raw == "" {
		return "", "", false
	}
	p, err := packageurl.FromString(raw)
	if err != nil || p.Type != packageurl.TypeNPM || p.Name == "" {
		return "", "", false
	}
	return npmname.Join(p.Namespace, p.Name), p.Version, true
}

func readSPDXComponents(path string) ([]Component, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	doc, err := spdxjson.Read(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	out := make([]Component, 0, len(doc.Packages))
	for _, pkg := range doc.Packages {
		if pkg == nil {
			continue
		}
		name, version := pkg.PackageName, pkg.PackageVersion
		for _, ref := range pkg.PackageExternalReferences {
			if ref == nil || ref.RefType != "purl" {
				continue
			}
			if npmName, npmVersion, ok := npmPackageFromPURL(ref.Locator); ok {
				name = npmName
				if npmVersion != "" {
					version = npmVersion
				}
			}
		}
		out = append(out, Component{Name: name, Version: version, Source: filepath.Base(path)})
	}
	return out, nil
}

// directDependencyComponents lists declared dependencies for repositories
// without a lockfile. Only exact pins keep a version; ranges match by name.
func directDependencyComponents(pkg types.PackageDescriptor) []Component {
	var out []Component
	for _, deps := range []map[string]string{pkg.Dependencies, pkg.OptionalDependencies} {
		for name, spec := range deps {
			version := ""
			if v, err := semver.StrictNewVersion(strings.TrimPrefix(spec, "=")); err == nil {
				version = v.String()
			}
			out = append(out, Component{Name: name, Version: version, Source: manifest.FileName})
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Lockfiles
// ---------------------------------------------------------------------------

// packageLockJSON covers package-lock.json and npm-shrinkwrap.json v1 to v3.
type packageLockJSON struct {
	LockfileVersion int                      `json:"lockfileVersion"`
	Dependencies    map[string]packageLockV1 `json:"dependencies"`
	Packages        map[string]packageLockV2 `json:"packages"`
}

type packageLockV1 struct {
	Version      string                   `json:"version"`
	Dependencies map[string]packageLockV1 `json:"dependencies"`
}

type packageLockV2 struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Link    bool   `json:"link"`
}

type pnpmLockYAML struct {
	Packages map[string]yaml.Node `yaml:"packages"`
}

// ReadLockfileComponents returns the installed packages recorded in dir's
// lockfiles. Missing lockfiles contribute nothing.
func ReadLockfileComponents(dir string) ([]Component, error) {
	var out []Component
	var errs []error
	for _, name := range []string{PackageLockFile, ShrinkwrapFile} {
		comps, err := readPackageLock(filepath.Join(dir, name))
		if err != nil {
			errs = append(errs, err)
		}
		out = append(out, comps...)
	}
	comps, err := readPnpmLockComponents(filepath.Join(dir, PnpmLockFile))
	if err != nil {
		errs = append(errs, err)
	}
	out = append(out, comps...)
	return out, errors.Join(errs...)
}

func readPackageLock(path string) ([]Component, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var lf packageLockJSON
	if err := json.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}

	source := filepath.Base(path)
	var out []Component
	if lf.LockfileVersion >= 2 && len(lf.Packages) > 0 {
		for key, pkg := range lf.Packages {
			if key == "" || pkg.Link {
				continue
			}
			name := key
			if idx := strings.LastIndex(key, "node_modules/"); idx >= 0 {
				name = key[idx+len("node_modules/"):]
			} else if pkg.Name != "" {
				name = pkg.Name
			}
			out = append(out, Component{Name: name, Version: pkg.Version, Source: source})
		}
		return out, nil
	}

	var walk func(deps map[string]packageLockV1)
	walk = func(deps map[string]packageLockV1) {
		for name, dep := range deps {
			out = append(out, Component{Name: name, Version: dep.Version, Source: source})
			walk(dep.Dependencies)
		}
	}
	walk(lf.Dependencies)
	return out, nil
}

// readPnpmLockComponents reads package keys of pnpm-lock.yaml v6 ("/name@1.0.0") and
// v9 ("name@1.0.0"), dropping peer suffixes like "(react@18.2.0)".
func readPnpmLockComponents(path string) ([]Component, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var lf pnpmLockYAML
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", PnpmLockFile, err)
	}

	out := make([]Component, 0, len(lf.Packages))
	for key := range lf.Packages {
		name, version := splitPnpmKey(key)
		if name == "" {
			continue
		}
		out = append(out, Component{Name: name, Version: version, Source: PnpmLockFile})
	}
	return out, nil
}

func splitPnpmKey(key string) (name, version string) {
	key = strings.TrimPrefix(key, "/")
	if idx := strings.Index(key, "("); idx >= 0 {
		key = key[:idx]
	}
	idx := strings.LastIndex(key, "@")
	if idx <= 0 {
		return key, ""
	}
	return key[:idx], key[idx+1:]
}
