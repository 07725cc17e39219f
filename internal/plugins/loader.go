package plugins

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/actonlabs/acton/internal/actions"
)

const defaultTimeout = 30 * time.Second

// Loader discovers and loads action plugins from a directory.
type Loader struct {
	dir    string
	logger *slog.Logger
}

// NewLoader creates a loader that scans the given directory for plugins.
func NewLoader(dir string, logger *slog.Logger) *Loader {
	return &Loader{
		dir:    dir,
		logger: logger.With("component", "plugins"),
	}
}

// DefaultDir returns the default ~/.acton/actions path.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".acton", "actions")
	}
	return filepath.Join(home, ".acton", "actions")
}

// LoadAll discovers and loads all plugins in the plugins directory. A broken
// plugin directory is logged and skipped; a missing directory yields no
// plugins and no error.
func (l *Loader) LoadAll() ([]*actions.Plugin, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			l.logger.Info("plugins directory does not exist, skipping", "dir", l.dir)
			return nil, nil
		}
		return nil, fmt.Errorf("plugins: read dir: %w", err)
	}

	var loaded []*actions.Plugin
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pluginDir := filepath.Join(l.dir, entry.Name())
		plugin, manifest, err := l.loadPlugin(pluginDir)
		if err != nil {
			l.logger.Warn("failed to load plugin", "dir", pluginDir, "error", err)
			continue
		}
		loaded = append(loaded, plugin)
		l.logger.Info("plugin loaded",
			"type", plugin.Type,
			"version", manifest.Version,
			"fields", len(plugin.Interface.Input),
		)
	}
	return loaded, nil
}

// loadPlugin turns one plugin directory into an actions.Plugin.
func (l *Loader) loadPlugin(dir string) (*actions.Plugin, *Manifest, error) {
	manifest, err := parseManifest(filepath.Join(dir, "ACTION.md"))
	if err != nil {
		return nil, nil, fmt.Errorf("parse manifest: %w", err)
	}
	if manifest.Name == "" {
		return nil, nil, fmt.Errorf("manifest has no name")
	}

	var def actionDef
	if _, err := toml.DecodeFile(filepath.Join(dir, "action.toml"), &def); err != nil {
		return nil, nil, fmt.Errorf("parse action.toml: %w", err)
	}

	iface, err := buildInterface(manifest, &def.Interface)
	if err != nil {
		return nil, nil, err
	}

	conn := def.Connector
	conn.Command = expandHome(conn.Command)
	if conn.TimeoutSecs > 0 {
		conn.Timeout = time.Duration(conn.TimeoutSecs) * time.Second
	} else {
		conn.Timeout = defaultTimeout
	}

	plugin := &actions.Plugin{
		Type:      manifest.Name,
		Interface: iface,
	}
	if conn.Command != "" {
		logger := l.logger
		plugin.NewConnector = func(cfg actions.ConnectorConfig) (actions.Connector, error) {
			return newProcConnector(conn, dir, cfg.Base(), logger), nil
		}
	}
	return plugin, manifest, nil
}

// buildInterface converts the declarative field table into the schema the
// registry renders. Fields are sorted by name so prompt text is stable.
func buildInterface(manifest *Manifest, def *interfaceDef) (*actions.Interface, error) {
	doc := def.Doc
	if doc == "" {
		doc = manifest.Description
	}

	names := make([]string, 0, len(def.Input))
	for name := range def.Input {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]actions.Field, 0, len(names))
	for _, name := range names {
		fd := def.Input[name]
		switch fd.Kind {
		case "enum":
			if len(fd.Values) == 0 {
				return nil, fmt.Errorf("enum field %q has no values", name)
			}
			fields = append(fields, actions.Field{Name: name, Kind: actions.FieldEnum, Values: fd.Values})
		case "primitive", "":
			typeName := fd.Type
			if typeName == "" {
				typeName = "string"
			}
			fields = append(fields, actions.Field{Name: name, Kind: actions.FieldPrimitive, TypeName: typeName})
		default:
			return nil, fmt.Errorf("field %q has unknown kind %q", name, fd.Kind)
		}
	}

	return &actions.Interface{Doc: doc, Input: fields}, nil
}

// parseManifest extracts YAML frontmatter from ACTION.md.
func parseManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	var inFrontmatter bool
	var yamlLines []string

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "---" {
			if inFrontmatter {
				break // end of frontmatter
			}
			inFrontmatter = true
			continue
		}
		if inFrontmatter {
			yamlLines = append(yamlLines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(yamlLines) == 0 {
		return nil, fmt.Errorf("no YAML frontmatter found in %s", path)
	}

	var manifest Manifest
	if err := yaml.Unmarshal([]byte(strings.Join(yamlLines, "\n")), &manifest); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	return &manifest, nil
}

// RegisterAll adds the loaded plugins to the registry, skipping conflicts
// with already-registered types.
func RegisterAll(reg *actions.Registry, loaded []*actions.Plugin, logger *slog.Logger) {
	for _, p := range loaded {
		if err := reg.Register(p); err != nil {
			logger.Warn("failed to register plugin", "type", p.Type, "error", err)
		}
	}
}

// expandHome replaces leading ~ with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
