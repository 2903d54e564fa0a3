// Package flagx helps several configuration layers share one command line.
// Each layer keeps only the flags it owns and parses them with its own
// FlagSet, so unknown flags from other layers never cause parse errors.
package flagx

import (
	"flag"
	"strings"
)

// FilterArgs returns the subset of args made of allowedFlags and their values.
//
// Supported formats:
//  1. Flag and value as separate arguments:  -c conf.json
//  2. Flag and value combined with '=':      -config=conf.json
//
// A separate value is taken only when the next argument does not start with
// a dash. The result is never nil.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// JsonConfigFlags extracts the config file path passed via -c or -config.
// If neither is present, an empty string is returned. When both are given
// the last one wins.
func JsonConfigFlags(args []string) string {
	var config string

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))

	return config
}

// EnvFileFlag extracts the dotenv file path passed via -env.
func EnvFileFlag(args []string) string {
	var path string

	fs := flag.NewFlagSet("env", flag.ContinueOnError)
	fs.StringVar(&path, "env", "", "Path to .env file")
	_ = fs.Parse(FilterArgs(args, []string{"-env"}))

	return path
}
