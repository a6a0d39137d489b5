package config

import (
	"errors"
	"fmt"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

var (
	errNotFraction      = errors.New("must be between 0 and 1")
	errUnknownAlgorithm = errors.New("must be jaro-winkler or levenshtein")
)

// parseKDL applies a .findql.kdl document on top of cfg. Unknown nodes are
// ignored so older binaries tolerate newer config files.
func parseKDL(content string, cfg *Config) error {
	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "search":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "case_sensitive":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Search.CaseSensitive = b
					}
				case "whole_word":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Search.WholeWord = b
					}
				case "stem_matching":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Search.StemMatching = b
					}
				case "fuzzy":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Search.FuzzyEnabled = b
					}
				case "fuzzy_near":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Search.FuzzyNearEnabled = b
					}
				case "fuzzy_threshold":
					if f, ok := firstFloatArg(cn); ok {
						cfg.Search.FuzzyThreshold = f
					}
				case "fuzzy_algorithm":
					if s, ok := firstStringArg(cn); ok {
						cfg.Search.FuzzyAlgorithm = s
					}
				case "max_results":
					if v, ok := firstIntArg(cn); ok {
						cfg.Search.MaxResults = v
					}
				}
			}
		case "stream":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "chunk_size_kb":
					if v, ok := firstIntArg(cn); ok {
						cfg.Stream.ChunkSizeKB = v
					}
				case "max_file_size_mb":
					if v, ok := firstIntArg(cn); ok {
						cfg.Stream.MaxFileSizeMB = int64(v)
					}
				case "early_termination":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Stream.EarlyTermination = b
					}
				case "skip_binary":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Stream.SkipBinary = b
					}
				}
			}
		case "cache":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_entries":
					if v, ok := firstIntArg(cn); ok {
						cfg.Cache.MaxEntries = v
					}
				case "ttl_minutes":
					if v, ok := firstIntArg(cn); ok {
						cfg.Cache.TTLMinutes = v
					}
				case "max_memory_mb":
					if v, ok := firstIntArg(cn); ok {
						cfg.Cache.MaxMemoryMB = int64(v)
					}
				}
			}
		case "performance":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "workers":
					if v, ok := firstIntArg(cn); ok {
						cfg.Performance.Workers = v
					}
				case "max_memory_mb":
					if v, ok := firstIntArg(cn); ok {
						cfg.Performance.MaxMemoryMB = v
					}
				case "pressure_check_sec":
					if v, ok := firstIntArg(cn); ok {
						cfg.Performance.PressureCheckSec = v
					}
				case "watch_debounce_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Performance.WatchDebounceMs = v
					}
				}
			}
		case "include":
			cfg.Include = append(cfg.Include, stringArgs(n)...)
		case "exclude":
			cfg.Exclude = append(cfg.Exclude, stringArgs(n)...)
		}
	}
	return nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstFloatArg(n *document.Node) (float64, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func stringArgs(n *document.Node) []string {
	out := make([]string, 0, len(n.Arguments))
	for _, arg := range n.Arguments {
		if s, ok := arg.Value.(string); ok {
			out = append(out, s)
		}
	}
	// Block format: exclude { "vendor/**" } puts each pattern on a child node,
	// where the string is the node name itself.
	if len(out) == 0 && len(n.Children) > 0 {
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}
