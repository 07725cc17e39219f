package actions

import "strings"

// Describe renders the LLM-facing description of a configured action's input
// schema. It is best effort: an excluded action, an unregistered type, or a
// plugin without an interface yields an empty string, so one broken action
// never blocks prompt assembly for the rest.
func (r *Registry) Describe(cfg Config) string {
	if cfg.ExcludeFromPrompt {
		return ""
	}

	plugin, ok := r.Lookup(cfg.Type)
	if !ok {
		r.logger.Debug("no plugin for action type", "type", cfg.Type)
		return ""
	}
	iface := plugin.Interface
	if iface == nil {
		r.logger.Debug("action type has no interface", "type", cfg.Type)
		return ""
	}

	var b strings.Builder
	if iface.Doc != "" {
		b.WriteString(iface.Doc)
		b.WriteString("\n")
	}
	b.WriteString("Input fields:\n")
	for _, f := range iface.Input {
		b.WriteString("  ")
		b.WriteString(f.Name)
		b.WriteString(": ")
		switch f.Kind {
		case FieldEnum:
			b.WriteString("one of [")
			b.WriteString(strings.Join(f.Values, ", "))
			b.WriteString("]")
		default:
			b.WriteString(f.TypeName)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// DescribeAll assembles the prompt section for a whole action set, joining
// the non-empty descriptions with blank lines.
func (r *Registry) DescribeAll(cfgs []Config) string {
	var parts []string
	for _, cfg := range cfgs {
		if desc := r.Describe(cfg); desc != "" {
			parts = append(parts, strings.TrimRight(desc, "\n"))
		}
	}
	return strings.Join(parts, "\n\n")
}
