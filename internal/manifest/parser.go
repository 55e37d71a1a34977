package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZebulonRouseFrantzich/nativeload/internal/loader"
	"github.com/ZebulonRouseFrantzich/nativeload/internal/platform"
	lua "github.com/yuin/gopher-lua"
)

// ErrUnknownFormat is returned by ParseFile for unrecognized extensions.
var ErrUnknownFormat = errors.New("unknown manifest format")

// Parser reads manifests for a host.
type Parser struct {
	host *platform.Host
}

// NewParser creates a parser. A nil host parses Lua manifests without the
// platform table, which only works for manifests that do not reference it.
func NewParser(host *platform.Host) *Parser {
	return &Parser{host: host}
}

// ParseFile parses a .lua, .yaml or .yml manifest. Relative archive,
// extraction, keyring and checksum paths are resolved against the
// manifest's directory.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m *Manifest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".lua":
		m, err = p.ParseString(ctx, string(data))
	case ".yaml", ".yml":
		m, err = ParseYAML(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	if err != nil {
		return nil, err
	}

	m.resolvePaths(filepath.Dir(path))
	return m, nil
}

// ParseString parses a Lua manifest from a string.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (*Manifest, error) {
	L := newSandboxedVM()
	defer L.Close()
	L.SetContext(ctx)

	if p.host != nil {
		if err := platform.InjectPlatformTable(L, p.host); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(luaCode); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("evaluate manifest: %w", ctxErr)
		}
		return nil, &ParseError{
			Message: "Lua syntax error",
			Detail:  err.Error(),
		}
	}

	return extractManifest(L)
}

// ParseError is a manifest parsing error with a friendly message.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua or YAML error)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// extractManifest reads the global "nativeload" table.
func extractManifest(L *lua.LState) (*Manifest, error) {
	root := L.GetGlobal("nativeload")
	if root.Type() != lua.LTTable {
		return nil, &ParseError{
			Message: "missing or invalid 'nativeload' table",
			Detail:  fmt.Sprintf("expected table, got %s", root.Type()),
		}
	}

	m := &Manifest{}
	table := root.(*lua.LTable)

	if libVal := table.RawGetString("library"); libVal.Type() == lua.LTTable {
		m.Library = extractLibrary(libVal.(*lua.LTable))
	}

	if optVal := table.RawGetString("options"); optVal.Type() == lua.LTTable {
		options, err := extractOptions(optVal.(*lua.LTable))
		if err != nil {
			return nil, err
		}
		m.Options = options
	}

	if candVal := table.RawGetString("candidates"); candVal.Type() == lua.LTTable {
		m.Candidates = extractCandidates(candVal.(*lua.LTable))
	}

	if enhVal := table.RawGetString("enhanced"); enhVal.Type() == lua.LTTable {
		m.Enhanced = extractCandidates(enhVal.(*lua.LTable))
	}

	if err := m.Validate(); err != nil {
		return nil, &ParseError{
			Message: "manifest validation failed",
			Detail:  err.Error(),
		}
	}

	return m, nil
}

func stringField(table *lua.LTable, key string) string {
	if v := table.RawGetString(key); v.Type() == lua.LTString {
		return v.String()
	}
	return ""
}

func extractLibrary(table *lua.LTable) loader.LibraryInfo {
	return loader.LibraryInfo{
		BaseName:      stringField(table, "base_name"),
		CompressedDir: stringField(table, "compressed_dir"),
		ExtractionDir: stringField(table, "extraction_dir"),
		ArchivePath:   stringField(table, "archive"),
	}
}

func extractOptions(table *lua.LTable) (Options, error) {
	options := Options{}

	if v := table.RawGetString("logging"); v.Type() == lua.LTBool {
		options.Logging = bool(v.(lua.LBool))
	}

	if v := table.RawGetString("retry_with_clean_extraction"); v.Type() == lua.LTBool {
		options.RetryWithCleanExtraction = bool(v.(lua.LBool))
	}

	if v := table.RawGetString("max_loading_failures"); v.Type() == lua.LTNumber {
		n := int(lua.LVAsNumber(v))
		options.MaxLoadingFailures = &n
	}

	if s := stringField(table, "criterion"); s != "" {
		criterion, err := loader.ParseCriterion(s)
		if err != nil {
			return Options{}, &ParseError{Message: "invalid options.criterion", Detail: err.Error()}
		}
		options.Criterion = criterion
	}

	options.Keyring = stringField(table, "keyring")
	options.Checksums = stringField(table, "checksums")

	return options, nil
}

// extractCandidates reads the array part in index order. Entries that
// evaluated to nil (for example platform.when(false, {...})) are skipped.
func extractCandidates(table *lua.LTable) []CandidateSpec {
	var specs []CandidateSpec

	for i := 1; i <= table.MaxN(); i++ {
		value := table.RawGetInt(i)
		if value.Type() != lua.LTTable {
			continue
		}
		entry := value.(*lua.LTable)

		spec := CandidateSpec{
			Path:   stringField(entry, "path"),
			Target: stringField(entry, "target"),
		}

		if whenVal := entry.RawGetString("when"); whenVal.Type() != lua.LTNil {
			when := lua.LVAsBool(whenVal)
			spec.When = &when
		}

		if extVal := entry.RawGetString("extensions"); extVal.Type() == lua.LTTable {
			extVal.(*lua.LTable).ForEach(func(_, ext lua.LValue) {
				if ext.Type() == lua.LTString {
					spec.Extensions = append(spec.Extensions, ext.String())
				}
			})
		}

		specs = append(specs, spec)
	}

	return specs
}

// FormatError formats a ParseError for user display.
// In verbose mode the raw detail is shown in full.
func FormatError(err error, verbose bool) string {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		if verbose {
			return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
		}
		detail := parseErr.Detail
		if idx := strings.Index(detail, "stack traceback"); idx > 0 {
			detail = strings.TrimSpace(detail[:idx])
		}
		return fmt.Sprintf("%s: %s", parseErr.Message, detail)
	}
	return err.Error()
}
