package audit

import (
	"github.com/gobwas/glob"

	"pqscan/pkg/errors"
	"pqscan/pkg/types"
)

// normalizeConfig fills defaults and rejects values the engine cannot
// honor. The returned copy is what the engine actually runs with.
func normalizeConfig(cfg types.AuditConfig) (types.AuditConfig, error) {
	if !cfg.SeverityThreshold.IsValid() {
		return cfg, errors.New(errors.CodeConfig, "severity threshold out of range")
	}
	if cfg.MaxInputSize < 0 {
		return cfg, errors.New(errors.CodeConfig, "max input size must not be negative")
	}
	if cfg.MaxInputSize == 0 {
		cfg.MaxInputSize = types.DefaultMaxInputSize
	}
	if cfg.MaxLines < 0 {
		return cfg, errors.New(errors.CodeConfig, "max lines must not be negative")
	}
	if cfg.MaxLines == 0 {
		cfg.MaxLines = types.DefaultMaxLines
	}
	if cfg.Weights == (types.ContextWeights{}) {
		cfg.Weights = types.DefaultContextWeights()
	}
	if cfg.Weights.CryptoFunction <= 0 || cfg.Weights.ImportCorroboration <= 0 || cfg.Weights.StringLiteral < 0 {
		return cfg, errors.New(errors.CodeConfig, "context weights must be positive")
	}
	if cfg.CacheCapacity == 0 {
		cfg.CacheCapacity = types.DefaultCacheCapacity
	}
	if cfg.MaxFilesPerSecond < 0 {
		return cfg, errors.New(errors.CodeConfig, "max files per second must not be negative")
	}
	return cfg, nil
}

// patternFilter applies the include/exclude glob lists to pattern ids.
// Exclusion wins over inclusion; an empty include list allows all.
type patternFilter struct {
	include []glob.Glob
	exclude []glob.Glob
}

func compileFilter(includes, excludes []string) (*patternFilter, error) {
	for _, inc := range includes {
		for _, exc := range excludes {
			if inc == exc {
				return nil, errors.AddContext(
					errors.New(errors.CodeConfig, "pattern listed in both include and exclude"),
					errors.CtxPattern, inc)
			}
		}
	}

	compile := func(exprs []string) ([]glob.Glob, error) {
		out := make([]glob.Glob, 0, len(exprs))
		for _, expr := range exprs {
			g, err := glob.Compile(expr)
			if err != nil {
				return nil, errors.AddContext(
					errors.Wrap(err, errors.CodeConfig, "invalid pattern glob"),
					errors.CtxPattern, expr)
			}
			out = append(out, g)
		}
		return out, nil
	}

	include, err := compile(includes)
	if err != nil {
		return nil, err
	}
	exclude, err := compile(excludes)
	if err != nil {
		return nil, err
	}
	return &patternFilter{include: include, exclude: exclude}, nil
}

func (f *patternFilter) allow(id string) bool {
	if len(f.include) > 0 {
		matched := false
		for _, g := range f.include {
			if g.Match(id) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, g := range f.exclude {
		if g.Match(id) {
			return false
		}
	}
	return true
}
