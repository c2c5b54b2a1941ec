package settings

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/eugenenazirov/envsettings/internal/handler"
	"github.com/eugenenazirov/envsettings/internal/registry"
	"github.com/eugenenazirov/envsettings/internal/table"
)

// DefaultEnvironment is the name of the fallback column.
const DefaultEnvironment = "DEFAULT"

// reservedColumns holds the handler type and its three parameters.
const reservedColumns = 4

// Loader builds handler registries from settings tables.
type Loader struct {
	catalog    *handler.Catalog
	logger     *zap.Logger
	defaultEnv string
	lookup     LookupFunc
	tableOpts  table.Options
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for load diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithDefaultEnvironment overrides the name of the fallback column.
func WithDefaultEnvironment(name string) Option {
	return func(l *Loader) {
		l.defaultEnv = name
	}
}

// WithLookupEnv overrides how ###ENV:NAME### placeholders are resolved.
func WithLookupEnv(lookup LookupFunc) Option {
	return func(l *Loader) {
		if lookup != nil {
			l.lookup = lookup
		}
	}
}

// WithTableOptions sets the CSV decoding options used by LoadFile.
func WithTableOptions(opts table.Options) Option {
	return func(l *Loader) {
		l.tableOpts = opts
	}
}

// NewLoader returns a Loader that instantiates handlers from catalog.
func NewLoader(catalog *handler.Catalog, opts ...Option) *Loader {
	l := &Loader{
		catalog:    catalog,
		logger:     zap.NewNop(),
		defaultEnv: DefaultEnvironment,
		lookup:     os.LookupEnv,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadFile loads the CSV settings table at path for environment. The file is
// closed before LoadFile returns, whether or not loading succeeded.
func (l *Loader) LoadFile(path, environment string) (reg *registry.Registry, err error) {
	f, err := table.Open(path, l.tableOpts)
	if err != nil {
		return nil, &ConfigError{Kind: ErrSourceUnavailable, Detail: path, Err: err}
	}
	defer func() {
		multierr.AppendInvoke(&err, multierr.Close(f))
		if err != nil {
			reg = nil
		}
	}()

	reg, err = l.Load(f, environment)
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// Load reads every record from src and registers one handler per parameter
// combination of each data row. Any error aborts the load; no partial
// registry is returned.
func (l *Loader) Load(src table.Reader, environment string) (*registry.Registry, error) {
	header, err := src.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ConfigError{Kind: ErrSourceUnavailable, Row: 1, Detail: "missing header row"}
		}
		return nil, &ConfigError{Kind: ErrSourceUnavailable, Row: 1, Detail: "read header row", Err: err}
	}
	if isBlank(header) {
		return nil, &ConfigError{Kind: ErrSourceUnavailable, Row: 1, Detail: "empty header row"}
	}

	envCol, defaultCol, err := l.resolveColumns(header, environment)
	if err != nil {
		return nil, err
	}

	logger := l.logger.With(zap.String("environment", environment))
	logger.Debug("resolved environment columns",
		zap.Int("column", envCol),
		zap.Int("default_column", defaultCol),
	)

	reg := registry.New()
	rowNum := 1
	for {
		row, err := src.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			return nil, &ConfigError{Kind: ErrSourceUnavailable, Row: rowNum, Detail: "read row", Err: err}
		}
		if err := l.loadRow(reg, row, rowNum, envCol, defaultCol, logger); err != nil {
			return nil, err
		}
	}

	logger.Info("settings loaded",
		zap.Int("rows", rowNum-1),
		zap.Int("handlers", reg.Len()),
	)
	return reg, nil
}

// resolveColumns locates the environment column and, when present, the default
// column. A missing default column disables fallback.
func (l *Loader) resolveColumns(header []string, environment string) (int, int, error) {
	envCol := indexOf(header, environment)
	if envCol < 0 {
		return 0, 0, &ConfigError{Kind: ErrEnvironmentNotFound, Row: 1, Detail: fmt.Sprintf("no column named %q", environment)}
	}
	if envCol < reservedColumns {
		return 0, 0, &ConfigError{
			Kind:   ErrEnvironmentNotFound,
			Row:    1,
			Detail: fmt.Sprintf("%q is in reserved column %d", environment, envCol),
		}
	}

	defaultCol := indexOf(header, l.defaultEnv)
	if defaultCol >= 0 && defaultCol < reservedColumns {
		l.logger.Warn("default environment column is reserved, fallback disabled",
			zap.String("default_environment", l.defaultEnv),
			zap.Int("column", defaultCol),
		)
		defaultCol = -1
	}
	return envCol, defaultCol, nil
}

func (l *Loader) loadRow(reg *registry.Registry, row []string, rowNum, envCol, defaultCol int, logger *zap.Logger) error {
	typ := strings.TrimSpace(cell(row, 0))
	if isComment(typ) {
		return nil
	}

	if !l.catalog.Has(typ) {
		return &ConfigError{Kind: ErrUnknownHandlerType, Row: rowNum, Handler: typ}
	}

	axes := [3][]string{
		Expand(cell(row, 1)),
		Expand(cell(row, 2)),
		Expand(cell(row, 3)),
	}

	value, err := ResolveValue(row, envCol, defaultCol, l.lookup)
	if err != nil {
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) {
			cfgErr.Row = rowNum
			cfgErr.Handler = typ
			return cfgErr
		}
		return &ConfigError{Kind: ErrMissingEnvironmentVariable, Row: rowNum, Handler: typ, Err: err}
	}

	if len(axes[0])*len(axes[1])*len(axes[2]) == 0 {
		logger.Warn("parameter expansion produced no combinations",
			zap.Int("row", rowNum),
			zap.String("handler", typ),
		)
		return nil
	}

	for _, p1 := range axes[0] {
		for _, p2 := range axes[1] {
			for _, p3 := range axes[2] {
				h, err := l.catalog.New(typ)
				if err != nil {
					return &ConfigError{Kind: ErrUnknownHandlerType, Row: rowNum, Handler: typ, Detail: "factory did not produce a handler"}
				}
				h.SetParams(p1, p2, p3)
				h.SetValue(value)

				if err := reg.Register(h); err != nil {
					return &ConfigError{Kind: ErrDuplicateHandler, Row: rowNum, Handler: typ, Detail: h.Label()}
				}
				logger.Debug("handler registered", zap.Int("row", rowNum), zap.String("handler", h.Label()))
			}
		}
	}
	return nil
}

func isComment(typ string) bool {
	return typ == "" || strings.HasPrefix(typ, "#") || strings.HasPrefix(typ, "/")
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func indexOf(fields []string, name string) int {
	for i, f := range fields {
		if f == name {
			return i
		}
	}
	return -1
}
