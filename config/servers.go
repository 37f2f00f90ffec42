package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ServersFile is the client-side list of servers, keyed by name. JSON files
// in the common "mcpServers" layout parse as well, since YAML is a superset.
type ServersFile struct {
	MCPServers map[string]ServerEntry `yaml:"mcpServers"`
}

// ServerEntry describes how to reach one server.
type ServerEntry struct {
	Transport string            `yaml:"transport"`
	URL       string            `yaml:"url,omitempty"`
	Headers   map[string]string `yaml:"headers,omitempty"`
	Auth      string            `yaml:"auth,omitempty"` // bearer token

	Command string            `yaml:"command,omitempty"`
	Args    []string          `yaml:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
	Cwd     string            `yaml:"cwd,omitempty"`
}

// LoadServers reads and validates a servers file from fsys.
func LoadServers(fsys afero.Fs, path string) (*ServersFile, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var file ServersFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	for _, name := range file.Names() {
		if err := file.MCPServers[name].Validate(); err != nil {
			return nil, fmt.Errorf("config: server %q: %w", name, err)
		}
	}
	return &file, nil
}

// Names returns the server names in sorted order.
func (f *ServersFile) Names() []string {
	names := make([]string, 0, len(f.MCPServers))
	for name := range f.MCPServers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the entry for name.
func (f *ServersFile) Lookup(name string) (ServerEntry, error) {
	entry, ok := f.MCPServers[name]
	if !ok {
		return ServerEntry{}, fmt.Errorf("%w: %s", ErrServerNotFound, name)
	}
	return entry, nil
}

// Validate checks that the fields required by the entry's transport are set.
func (e ServerEntry) Validate() error {
	switch e.Transport {
	case TransportStdio:
		if e.Command == "" {
			return fmt.Errorf("transport %q requires a command", e.Transport)
		}
	case TransportSSE, TransportHTTP:
		if e.URL == "" {
			return fmt.Errorf("transport %q requires a url", e.Transport)
		}
		if strings.EqualFold(e.Auth, "oauth") {
			return fmt.Errorf("oauth authentication is not supported")
		}
	default:
		return fmt.Errorf("unknown transport %q", e.Transport)
	}
	return nil
}

// RequestHeaders returns the headers to send with every HTTP request,
// including an Authorization header for a bearer token.
func (e ServerEntry) RequestHeaders() map[string]string {
	headers := make(map[string]string, len(e.Headers)+1)
	for k, v := range e.Headers {
		headers[k] = v
	}
	if e.Auth != "" {
		if _, ok := headers["Authorization"]; !ok {
			headers["Authorization"] = "Bearer " + e.Auth
		}
	}
	return headers
}

// Environ returns the entry's environment as KEY=VALUE pairs in sorted order.
func (e ServerEntry) Environ() []string {
	env := make([]string, 0, len(e.Env))
	for k, v := range e.Env {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)
	return env
}
