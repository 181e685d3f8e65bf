package config

import (
	"fmt"
	"log"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// parseKDL reads the KDL config format:
//
//	dialect "sqlite"
//	extended true
//	strict_weights false
//	matchers {
//	    exact 100
//	    start_of_string 50
//	}
//	extended_matchers { in_string 30 }
//	fields { allow "users.*" "posts.title" }
//	search { limit 20; min_relevance 10 }
//
// Unset values stay zero; the validator fills in defaults.
func parseKDL(content string) (*Config, error) {
	cfg := &Config{Version: 1}

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch name := nodeName(n); name {
		case "version":
			if v, ok := firstIntArg(n); ok {
				cfg.Version = v
			}
		case "dialect":
			if s, ok := firstStringArg(n); ok {
				cfg.Dialect = s
				cfg.markExplicit(name)
			}
		case "extended":
			if b, ok := firstBoolArg(n); ok {
				cfg.Extended = b
				cfg.markExplicit(name)
			}
		case "strict_weights":
			if b, ok := firstBoolArg(n); ok {
				cfg.StrictWeights = b
				cfg.markExplicit(name)
			}
		case "matchers":
			cfg.Matchers = collectWeights(n)
		case "extended_matchers":
			cfg.ExtendedMatchers = collectWeights(n)
		case "fields":
			for _, cn := range n.Children {
				if nodeName(cn) == "allow" {
					cfg.Fields.Allow = append(cfg.Fields.Allow, collectStringArgs(cn)...)
				}
			}
		case "search":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "limit":
					if v, ok := firstIntArg(cn); ok {
						cfg.Search.Limit = v
					}
				case "min_relevance":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Search.MinRelevance = v
						cfg.markExplicit("search.min_relevance")
					}
				}
			}
		default:
			log.Printf("WARNING: unknown node '%s' in KDL config ignored", name)
		}
	}

	return cfg, nil
}

// collectWeights reads a block of `<kind> <weight>` children in order.
func collectWeights(n *document.Node) []MatcherWeight {
	weights := make([]MatcherWeight, 0, len(n.Children))
	for _, cn := range n.Children {
		w, ok := firstIntArg(cn)
		if !ok {
			log.Printf("WARNING: matcher '%s' in KDL config has no integer weight", nodeName(cn))
			continue
		}
		weights = append(weights, MatcherWeight{Kind: nodeName(cn), Weight: w})
	}
	return weights
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

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
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
		log.Printf("WARNING: invalid float value for '%s' in KDL config, expected number but got %T", nodeName(n), n.Arguments[0].Value)
		return 0, false
	}
}

// collectStringArgs accepts both inline (allow "a" "b") and block
// (allow { "a"; "b" }) forms.
func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	if len(out) == 0 && len(n.Children) > 0 {
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				// in block form the string is the node name itself
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}
