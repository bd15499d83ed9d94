package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"vodsub/internal/timerange"
)

// protectUnboundedDuration lets the "-1" duration reach the root command.
// pflag reads any token starting with "-" as a flag, so the sentinel is moved
// behind "--". Duration is the last positional argument, so positional order
// is preserved.
func protectUnboundedDuration(root *cobra.Command, args []string) []string {
	if target, _, err := root.Find(args); err != nil || target != root {
		return args
	}
	idx := -1
	for i, arg := range args {
		if arg == "--" {
			return args
		}
		if arg == timerange.UnboundedSentinel && (i == 0 || !takesValue(root, args[i-1])) {
			idx = i
		}
	}
	if idx < 0 {
		return args
	}
	out := make([]string, 0, len(args)+1)
	out = append(out, args[:idx]...)
	out = append(out, args[idx+1:]...)
	return append(out, "--", timerange.UnboundedSentinel)
}

// takesValue reports whether token is a root flag that consumes the next
// argument as its value.
func takesValue(root *cobra.Command, token string) bool {
	if !strings.HasPrefix(token, "-") || strings.Contains(token, "=") {
		return false
	}
	var flag *pflag.Flag
	if name, ok := strings.CutPrefix(token, "--"); ok {
		flag = lookupFlag(root, name)
	} else if short := strings.TrimPrefix(token, "-"); len(short) == 1 {
		flag = root.Flags().ShorthandLookup(short)
		if flag == nil {
			flag = root.PersistentFlags().ShorthandLookup(short)
		}
	}
	return flag != nil && flag.NoOptDefVal == ""
}

func lookupFlag(root *cobra.Command, name string) *pflag.Flag {
	if flag := root.Flags().Lookup(name); flag != nil {
		return flag
	}
	return root.PersistentFlags().Lookup(name)
}
